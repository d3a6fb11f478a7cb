// Package media probes locally stored topic audio for metadata the engine
// needs, currently just the duration that drives the playback clock.
package media

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/simonhull/audiometa"

	apperrors "github.com/seslikitap/seslikitap-server/internal/errors"
	"github.com/seslikitap/seslikitap-server/internal/transport"
)

const probeTimeout = 30 * time.Second

// Prober resolves durations for topic audio under a local media directory.
// Results are cached; audio files do not change under a running server.
type Prober struct {
	basePath string
	logger   *slog.Logger

	mu        sync.Mutex
	durations map[string]float64
}

// NewProber creates a prober rooted at basePath.
func NewProber(basePath string, logger *slog.Logger) *Prober {
	return &Prober{
		basePath:  basePath,
		logger:    logger,
		durations: make(map[string]float64),
	}
}

// Duration returns the duration in seconds for a topic audio reference.
// Only local references resolve; an absolute URL cannot be probed here.
func (p *Prober) Duration(ctx context.Context, src string) (float64, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return 0, apperrors.Media("cannot probe a remote audio source")
	}

	p.mu.Lock()
	if d, ok := p.durations[src]; ok {
		p.mu.Unlock()
		return d, nil
	}
	p.mu.Unlock()

	path := filepath.Join(p.basePath, filepath.FromSlash(strings.TrimPrefix(src, "/")))
	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		return 0, apperrors.Wrapf(err, apperrors.CodeMedia, "probe %s", src)
	}
	defer file.Close()

	d := file.Audio.Duration.Seconds()
	if d <= 0 {
		return 0, apperrors.Media("probed duration is zero")
	}

	p.mu.Lock()
	p.durations[src] = d
	p.mu.Unlock()

	p.logger.Debug("probed audio duration", "src", src, "seconds", d)
	return d, nil
}

// DurationFunc adapts the prober for the clock player.
func (p *Prober) DurationFunc() transport.DurationFunc {
	return func(src string) (float64, error) {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		return p.Duration(ctx, src)
	}
}

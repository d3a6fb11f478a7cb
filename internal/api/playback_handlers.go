package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/seslikitap/seslikitap-server/internal/transport"
)

func (s *Server) registerPlaybackRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getPlaybackState",
		Method:      http.MethodGet,
		Path:        "/api/v1/playback",
		Summary:     "Get playback state",
		Description: "Returns the current transport snapshot",
		Tags:        []string{"Playback"},
	}, s.handleGetPlayback)

	huma.Register(s.api, huma.Operation{
		OperationID: "loadBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/playback/load",
		Summary:     "Load a book",
		Description: "Opens a book on the transport. Without an explicit topic, stored progress decides where playback resumes.",
		Tags:        []string{"Playback"},
	}, s.handleLoadBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "togglePlayback",
		Method:      http.MethodPost,
		Path:        "/api/v1/playback/toggle",
		Summary:     "Toggle play/pause",
		Tags:        []string{"Playback"},
	}, s.handleTogglePlayback)

	huma.Register(s.api, huma.Operation{
		OperationID: "seekPlayback",
		Method:      http.MethodPost,
		Path:        "/api/v1/playback/seek",
		Summary:     "Seek within the current topic",
		Tags:        []string{"Playback"},
	}, s.handleSeek)

	huma.Register(s.api, huma.Operation{
		OperationID: "nextTopic",
		Method:      http.MethodPost,
		Path:        "/api/v1/playback/next",
		Summary:     "Advance to the next topic",
		Tags:        []string{"Playback"},
	}, s.handleNextTopic)

	huma.Register(s.api, huma.Operation{
		OperationID: "prevTopic",
		Method:      http.MethodPost,
		Path:        "/api/v1/playback/prev",
		Summary:     "Go back one topic",
		Description: "On the first topic this is a no-op.",
		Tags:        []string{"Playback"},
	}, s.handlePrevTopic)

	huma.Register(s.api, huma.Operation{
		OperationID: "selectTopic",
		Method:      http.MethodPost,
		Path:        "/api/v1/playback/topic",
		Summary:     "Jump to a topic of the loaded book",
		Tags:        []string{"Playback"},
	}, s.handleSelectTopic)

	huma.Register(s.api, huma.Operation{
		OperationID: "setPlaybackRate",
		Method:      http.MethodPost,
		Path:        "/api/v1/playback/rate",
		Summary:     "Set the playback rate",
		Description: "Applies to the transport immediately and persists as the user's preference.",
		Tags:        []string{"Playback"},
	}, s.handleSetRate)

	huma.Register(s.api, huma.Operation{
		OperationID: "stopPlayback",
		Method:      http.MethodPost,
		Path:        "/api/v1/playback/stop",
		Summary:     "Stop playback",
		Tags:        []string{"Playback"},
	}, s.handleStopPlayback)
}

// === DTOs ===

// PlaybackStateOutput wraps the transport snapshot for huma.
type PlaybackStateOutput struct {
	Body transport.Snapshot
}

// LoadBookInput is the request for loading a book onto the transport.
type LoadBookInput struct {
	Body struct {
		BookID     string `json:"bookId" minLength:"1" doc:"Catalog book id"`
		TopicIndex *int   `json:"topicIndex,omitempty" minimum:"0" doc:"Explicit topic to start from the beginning; omit to resume from stored progress"`
	}
}

// SeekInput is the request for seeking within the current topic.
type SeekInput struct {
	Body struct {
		Percent float64 `json:"percent" minimum:"0" maximum:"100" doc:"Target position as a percentage of the topic"`
	}
}

// SelectTopicInput is the request for jumping to a topic.
type SelectTopicInput struct {
	Body struct {
		Index int `json:"index" minimum:"0" doc:"Topic index in playback order"`
	}
}

// RateInput is the request for changing the playback rate.
type RateInput struct {
	Body struct {
		Rate float64 `json:"rate" exclusiveMinimum:"0" maximum:"4" doc:"Playback rate multiplier"`
	}
}

// === Handlers ===

func (s *Server) snapshotOutput() *PlaybackStateOutput {
	return &PlaybackStateOutput{Body: s.engine.TransportSnapshot()}
}

func (s *Server) handleGetPlayback(_ context.Context, _ *struct{}) (*PlaybackStateOutput, error) {
	return s.snapshotOutput(), nil
}

func (s *Server) handleLoadBook(_ context.Context, input *LoadBookInput) (*PlaybackStateOutput, error) {
	if err := s.engine.PlayBook(input.Body.BookID, input.Body.TopicIndex); err != nil {
		return nil, huma.Error422UnprocessableEntity("load failed", err)
	}
	return s.snapshotOutput(), nil
}

func (s *Server) handleTogglePlayback(_ context.Context, _ *struct{}) (*PlaybackStateOutput, error) {
	if err := s.engine.TogglePlay(); err != nil {
		return nil, huma.Error422UnprocessableEntity("toggle failed", err)
	}
	return s.snapshotOutput(), nil
}

func (s *Server) handleSeek(_ context.Context, input *SeekInput) (*PlaybackStateOutput, error) {
	if err := s.engine.Seek(input.Body.Percent); err != nil {
		return nil, huma.Error422UnprocessableEntity("seek failed", err)
	}
	return s.snapshotOutput(), nil
}

func (s *Server) handleNextTopic(_ context.Context, _ *struct{}) (*PlaybackStateOutput, error) {
	if err := s.engine.Next(); err != nil {
		return nil, huma.Error422UnprocessableEntity("next failed", err)
	}
	return s.snapshotOutput(), nil
}

func (s *Server) handlePrevTopic(_ context.Context, _ *struct{}) (*PlaybackStateOutput, error) {
	if err := s.engine.Prev(); err != nil {
		return nil, huma.Error422UnprocessableEntity("prev failed", err)
	}
	return s.snapshotOutput(), nil
}

func (s *Server) handleSelectTopic(_ context.Context, input *SelectTopicInput) (*PlaybackStateOutput, error) {
	if err := s.engine.SelectTopic(input.Body.Index); err != nil {
		return nil, huma.Error422UnprocessableEntity("topic select failed", err)
	}
	return s.snapshotOutput(), nil
}

func (s *Server) handleSetRate(ctx context.Context, input *RateInput) (*PlaybackStateOutput, error) {
	if err := s.engine.SetRate(ctx, input.Body.Rate); err != nil {
		return nil, huma.Error422UnprocessableEntity("rate change failed", err)
	}
	return s.snapshotOutput(), nil
}

func (s *Server) handleStopPlayback(_ context.Context, _ *struct{}) (*PlaybackStateOutput, error) {
	if err := s.engine.StopPlayback(); err != nil {
		return nil, huma.Error422UnprocessableEntity("stop failed", err)
	}
	return s.snapshotOutput(), nil
}

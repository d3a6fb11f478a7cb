package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health with catalog and event stream state",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status         string `json:"status" doc:"Overall status"`
	CatalogVersion int64  `json:"catalogVersion" doc:"Current catalog snapshot version"`
	CatalogBooks   int    `json:"catalogBooks" doc:"Books in the current snapshot"`
	SSEClients     int    `json:"sseClients" doc:"Connected event stream clients"`
}

// HealthOutput wraps the health response for huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	snap := s.engine.Catalog()
	return &HealthOutput{
		Body: HealthResponse{
			Status:         "healthy",
			CatalogVersion: snap.Version(),
			CatalogBooks:   snap.Len(),
			SSEClients:     s.sseManager.ClientCount(),
		},
	}, nil
}

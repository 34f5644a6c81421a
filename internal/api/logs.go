package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/camnode/internal/api/models"
	"github.com/smazurov/camnode/internal/logging"
)

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// registerLogRoutes registers the recent-log endpoint.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Recent log entries retained in memory",
		Tags:        []string{"system"},
		Security:    withAuth(),
		Errors:      []int{400, 401},
	}, func(_ context.Context, input *models.LogsRequest) (*models.LogsResponse, error) {
		minRank := 0
		if input.Level != "" {
			rank, ok := levelRank[strings.ToLower(input.Level)]
			if !ok {
				return nil, huma.Error400BadRequest("unknown level " + input.Level)
			}
			minRank = rank
		}

		entries := make([]logging.Entry, 0)
		for _, e := range logging.Recent() {
			if input.Module != "" && e.Module != input.Module {
				continue
			}
			if levelRank[e.Level] < minRank {
				continue
			}
			entries = append(entries, e)
		}
		if input.Limit > 0 && len(entries) > input.Limit {
			entries = entries[len(entries)-input.Limit:]
		}

		return &models.LogsResponse{
			Body: models.LogsData{Entries: entries, Count: len(entries)},
		}, nil
	})
}

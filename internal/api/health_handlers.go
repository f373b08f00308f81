package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Component statuses, ordered from best to worst.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

var statusRank = map[string]int{statusHealthy: 0, statusDegraded: 1, statusUnhealthy: 2}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports store and search index reachability. Needs no authentication.",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth is the result of one component probe.
type ComponentHealth struct {
	Status  string `json:"status" enum:"healthy,degraded,unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Probe duration"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the worst component status plus every probe result.
type HealthResponse struct {
	Status     string                     `json:"status" enum:"healthy,degraded,unhealthy"`
	Components map[string]ComponentHealth `json:"components"`
}

type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(ctx),
		"search":   s.checkSearchIndex(),
	}

	overall := statusHealthy
	for _, c := range components {
		if statusRank[c.Status] > statusRank[overall] {
			overall = c.Status
		}
	}

	return &HealthOutput{Body: HealthResponse{Status: overall, Components: components}}, nil
}

// probe times fn and turns its outcome into a ComponentHealth.
func probe(fn func() (string, error), failure string) ComponentHealth {
	start := time.Now()
	msg, err := fn()
	latency := time.Since(start).String()
	if err != nil {
		return ComponentHealth{Status: statusUnhealthy, Latency: latency, Message: failure}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency, Message: msg}
}

func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: statusDegraded, Message: "database not configured"}
	}
	return probe(func() (string, error) {
		return "", s.store.Ping(ctx)
	}, "database read failed")
}

// checkSearchIndex treats an empty index as healthy: a new install has no recipes.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.index == nil {
		return ComponentHealth{Status: statusDegraded, Message: "search index not configured"}
	}
	return probe(func() (string, error) {
		n, err := s.index.DocumentCount()
		return formatDocCount(n), err
	}, "search index unreachable")
}

func formatDocCount(count uint64) string {
	switch count {
	case 0:
		return "no indexed recipes"
	case 1:
		return "1 indexed recipe"
	default:
		return strconv.FormatUint(count, 10) + " indexed recipes"
	}
}

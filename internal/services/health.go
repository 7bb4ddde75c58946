package services

import (
	"context"
	"log"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResult is the health endpoint payload.
type HealthResult struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// HealthService implements the health service
type HealthService struct {
	db      Pinger
	service string
	version string
}

// NewHealthService creates a new health service
func NewHealthService(db Pinger, service, version string) *HealthService {
	return &HealthService{db: db, service: service, version: version}
}

// Check reports "healthy" when the database answers a ping within two
// seconds and "unhealthy" otherwise.
func (s *HealthService) Check(ctx context.Context) *HealthResult {
	result := &HealthResult{
		Status:   "healthy",
		Service:  s.service,
		Version:  s.version,
		Database: "ok",
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		log.Printf("[HEALTH] Database ping failed: %v", err)
		result.Status = "unhealthy"
		result.Database = "unreachable"
	}
	return result
}

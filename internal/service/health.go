package service

import (
	"context"

	"github.com/aulatrack/class-tracker/internal/database"
	"github.com/aulatrack/class-tracker/internal/redis"
	"github.com/aulatrack/class-tracker/internal/zoom"
)

type HealthStatus struct {
	Healthy    bool              `json:"-"`
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// HealthService verifies store reachability and provider token acquisition.
type HealthService struct {
	db    *database.DB
	redis *redis.Client
	zoom  zoom.ClientAPI
}

func NewHealthService(db *database.DB, redisClient *redis.Client, zoomClient zoom.ClientAPI) *HealthService {
	return &HealthService{db: db, redis: redisClient, zoom: zoomClient}
}

// Check probes each dependency; any failure marks the service degraded.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy:    true,
		Status:     "ok",
		Components: map[string]string{},
	}

	check := func(name string, err error) {
		if err != nil {
			status.Healthy = false
			status.Status = "degraded"
			status.Components[name] = err.Error()
			return
		}
		status.Components[name] = "ok"
	}

	check("database", s.db.Ping(ctx))
	check("redis", s.redis.Ping(ctx).Err())

	_, tokenErr := s.zoom.AccessToken(ctx)
	check("zoom", tokenErr)

	return status
}

package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	last := s.app.CurrentUpdate()
	switch {
	case last.Decls == 0:
		status.Status = "degraded"
		status.Components["snapshot"] = "not loaded"
	case last.Err != nil:
		status.Status = "degraded"
		status.Components["snapshot"] = fmt.Sprintf("partial (%d files, %d decls): %v", last.Files, last.Decls, last.Err)
	default:
		status.Components["snapshot"] = fmt.Sprintf("ok (%d files, %d decls, %s)", last.Files, last.Decls, last.SnapshotID)
	}

	status.Components["cache"] = fmt.Sprintf("%d entries", s.app.Cache.Len())

	status.Components["parser"] = fmt.Sprintf("ok (%d active)", s.app.Parser.ActiveParses())

	if s.app.activeWatcher != nil {
		status.Components["watcher"] = "running"
	}
	return status
}

// Package tasks implements scheduled maintenance tasks for the VHouse
// service: SQLite maintenance and the provider failure-cache reset.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vhouse/vhouse/internal/database"
	"github.com/vhouse/vhouse/internal/textgen"
)

// ScheduledTaskFunc is the standard signature for scheduled tasks. The
// context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// Deps contains the dependencies available to scheduled tasks.
type Deps struct {
	Logger  *slog.Logger
	Store   database.Store
	Gateway *textgen.Gateway
}

// Registry returns the map of all available scheduled tasks by name.
// Config decides which of them actually run and on what schedule.
func Registry(deps Deps) map[string]ScheduledTaskFunc {
	return map[string]ScheduledTaskFunc{
		"sql_maintenance":       newSQLMaintenanceTask(deps),
		"provider_health_reset": newProviderHealthResetTask(deps),
	}
}

func newSQLMaintenanceTask(deps Deps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled SQL maintenance")
		startTime := time.Now()

		err := deps.Store.RunSQLMaintenance(ctx)
		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "SQL maintenance failed", "error", err, "duration", duration)
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "SQL maintenance completed", "duration", duration)
		return nil
	}
}

func newProviderHealthResetTask(deps Deps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "provider_health_reset")

	return func(ctx context.Context) error {
		deps.Gateway.ResetHealth()
		log.DebugContext(ctx, "Provider failure cache cleared")
		return nil
	}
}

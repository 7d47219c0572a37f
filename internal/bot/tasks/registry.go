package tasks

import (
	"context"
)

// ScheduledTaskFunc is the signature of every scheduled task. Tasks must
// respect ctx cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// Task names, matching the keys under scheduler.tasks in the configuration.
const (
	SQLMaintenance = "sql_maintenance"
	HistoryCleanup = "history_cleanup"
)

// RegisterAllTasks returns every known task keyed by its configuration name.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		SQLMaintenance: newSQLMaintenanceTask(deps),
		HistoryCleanup: newHistoryCleanupTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}

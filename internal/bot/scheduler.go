package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/edgard/rublebot/internal/bot/tasks"
	"github.com/edgard/rublebot/internal/config"
)

// Scheduler runs the configured maintenance tasks with gocron.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc
	mu        sync.Mutex
	running   bool
}

// NewScheduler creates a scheduler for the tasks in taskMap. Only tasks that
// are enabled in cfg are scheduled when Start is called.
func NewScheduler(logger *slog.Logger, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		cfg:       cfg,
		taskMap:   taskMap,
	}, nil
}

// Start registers every enabled task and starts the scheduler. A task that
// cannot be scheduled is logged and skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	scheduled := 0
	if s.cfg != nil {
		for name, taskCfg := range s.cfg.Tasks {
			if !taskCfg.Enabled {
				s.logger.Info("Skipping disabled task", "task_name", name)
				continue
			}
			taskFunc, ok := s.taskMap[name]
			if !ok {
				s.logger.Warn("Scheduled task configured but not found in registry, skipping", "task_name", name)
				continue
			}

			_, err := s.scheduler.NewJob(
				gocron.CronJob(taskCfg.Schedule, true),
				gocron.NewTask(s.wrap(ctx, name, taskFunc)),
				gocron.WithName(name),
				gocron.WithSingletonMode(gocron.LimitModeReschedule),
			)
			if err != nil {
				s.logger.Error("Failed to schedule task", "task_name", name, "schedule", taskCfg.Schedule, "error", err)
				continue
			}

			s.logger.Info("Scheduled task", "task_name", name, "schedule", taskCfg.Schedule)
			scheduled++
		}
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", scheduled)
	return nil
}

func (s *Scheduler) wrap(ctx context.Context, name string, task tasks.ScheduledTaskFunc) func() {
	return func() {
		s.logger.Info("Running scheduled task", "task_name", name)
		start := time.Now()
		if err := task(ctx); err != nil {
			s.logger.Error("Scheduled task failed", "task_name", name, "error", err)
		}
		s.logger.Info("Finished scheduled task", "task_name", name, "duration", time.Since(start))
	}
}

// Stop shuts the scheduler down, waiting for running jobs to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.scheduler.Shutdown()
	s.running = false
	if err != nil {
		return fmt.Errorf("scheduler shutdown failed: %w", err)
	}
	s.logger.Info("Scheduler stopped")
	return nil
}

package backup

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wurstmineberg/systemd-minecraft/internal/world"
)

// ScheduleRunner executes a world's backup schedule while its supervisor
// runs. The cron expression is re-evaluated after every run, so the runner
// never fires twice for the same slot.
type ScheduleRunner struct {
	World    *world.World
	Manager  *Manager
	Schedule string
	Interval time.Duration
	Log      *slog.Logger

	// now is replaceable for tests.
	now func() time.Time
}

// NewScheduleRunner returns a runner for the given cron expression.
func NewScheduleRunner(w *world.World, manager *Manager, schedule string, log *slog.Logger) *ScheduleRunner {
	if log == nil {
		log = slog.Default()
	}
	return &ScheduleRunner{
		World:    w,
		Manager:  manager,
		Schedule: schedule,
		Interval: 30 * time.Second,
		Log:      log,
		now:      time.Now,
	}
}

// Start launches the runner goroutine. It returns immediately; an invalid
// schedule is reported once and disables the runner.
func (r *ScheduleRunner) Start(ctx context.Context) {
	next, err := nextRun(r.Schedule, r.now())
	if err != nil {
		r.Log.Error("invalid backup schedule", "world", r.World.Name(), "schedule", r.Schedule, "error", err)
		return
	}

	go func() {
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if r.now().Before(next) {
					continue
				}
				if _, err := r.Manager.Backup(ctx, r.World, true); err != nil {
					r.Log.Error("scheduled backup failed", "world", r.World.Name(), "error", err)
				}
				next, err = nextRun(r.Schedule, r.now())
				if err != nil {
					return
				}
			}
		}
	}()
}

// nextRun computes the next execution after from.
func nextRun(schedule string, from time.Time) (time.Time, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	parsed, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.Next(from), nil
}

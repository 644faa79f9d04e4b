package watch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"devgptstats/internal/config"
)

var (
	nowFn   = time.Now
	afterFn = time.After
)

// Job is one refresh. Errors are logged and the loop keeps going.
type Job func(ctx context.Context) error

// ParseSchedule parses a 5-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("refresh_schedule is not set")
	}
	sched, err := config.ScheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh_schedule '%s': %w", expr, err)
	}
	return sched, nil
}

// NextRuns returns the next n activation times after from.
func NextRuns(sched cron.Schedule, from time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	t := from
	for i := 0; i < n; i++ {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}
		out = append(out, t)
	}
	return out
}

// Run blocks, calling job at every tick of the configured schedule until ctx
// is cancelled. Runs never overlap: the next wait starts after the job returns.
func Run(ctx context.Context, cfg config.Config, job Job) error {
	sched, err := ParseSchedule(cfg.RefreshSchedule)
	if err != nil {
		return err
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	log.Printf("watch scheduled cron=%q tz=%s", cfg.RefreshSchedule, loc)

	for {
		now := nowFn().In(loc)
		next := sched.Next(now)
		if next.IsZero() {
			return fmt.Errorf("refresh_schedule '%s' never fires", cfg.RefreshSchedule)
		}
		wait := next.Sub(now)
		log.Printf("watch next run at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Second))

		select {
		case <-ctx.Done():
			log.Printf("watch stopped")
			return nil
		case <-afterFn(wait):
		}

		started := nowFn()
		if err := job(ctx); err != nil {
			log.Printf("watch run failed: %v", err)
		} else {
			log.Printf("watch run complete duration=%s", nowFn().Sub(started).Round(time.Millisecond))
		}
		if ctx.Err() != nil {
			log.Printf("watch stopped")
			return nil
		}
	}
}

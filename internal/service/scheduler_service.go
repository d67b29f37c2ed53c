package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"notepad/internal/logging"
)

// printfLogger is what cron needs to report job panics.
type printfLogger interface {
	Printf(format string, args ...any)
}

// SchedulerService wraps cron-based jobs.
type SchedulerService struct {
	cron *cron.Cron
	log  logging.Logger
}

// NewSchedulerService builds a scheduler in loc. Panicking jobs are recovered
// and reported through pl; a job still running when it is due again is skipped.
func NewSchedulerService(loc *time.Location, log logging.Logger, pl printfLogger) *SchedulerService {
	cl := cron.PrintfLogger(pl)
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: log,
	}
}

// ScheduleDigest registers job to run every interval and, if dailyAt is set,
// once a day at that HH:MM time. It returns the number of registered entries.
func (s *SchedulerService) ScheduleDigest(interval time.Duration, dailyAt string, job func()) (int, error) {
	registered := 0
	if interval > 0 {
		if _, err := s.ScheduleInterval(interval, job); err != nil {
			return registered, err
		}
		registered++
	}
	if strings.TrimSpace(dailyAt) != "" {
		if _, err := s.ScheduleDaily(dailyAt, job); err != nil {
			return registered, err
		}
		registered++
	}
	s.log.Info(context.Background(), "digest scheduled", "interval", interval.String(), "daily_at", dailyAt, "entries", registered)
	return registered, nil
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(timeStr string, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, job)
}

// ScheduleInterval registers a periodic job every given duration.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), job)
}

// Entries returns the number of registered jobs.
func (s *SchedulerService) Entries() int {
	return len(s.cron.Entries())
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(strings.TrimSpace(timeStr), ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}

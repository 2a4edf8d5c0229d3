package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/HammerMeetNail/resumebuilder/internal/logging"
)

const (
	janitorSchedule   = "@hourly"
	usageLogRetention = 90 * 24 * time.Hour
	janitorTimeout    = time.Minute
)

type sessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type usagePurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor periodically removes expired sessions and old AI usage rows.
type Janitor struct {
	sessions sessionPurger
	usage    usagePurger
	cron     *cron.Cron
	now      func() time.Time
}

func NewJanitor(sessions sessionPurger, usage usagePurger) *Janitor {
	return &Janitor{
		sessions: sessions,
		usage:    usage,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start schedules the cleanup job and returns immediately.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(janitorSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), janitorTimeout)
		defer cancel()
		j.RunOnce(ctx)
	}); err != nil {
		return err
	}
	j.cron.Start()
	logging.Info("Janitor scheduled", map[string]interface{}{"schedule": janitorSchedule})
	return nil
}

// Stop waits for a running job to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) RunOnce(ctx context.Context) {
	if n, err := j.sessions.PurgeExpiredSessions(ctx); err != nil {
		logging.Error("Failed to purge expired sessions", map[string]interface{}{"error": err.Error()})
	} else if n > 0 {
		logging.Info("Purged expired sessions", map[string]interface{}{"count": n})
	}

	cutoff := j.now().Add(-usageLogRetention)
	if n, err := j.usage.PurgeOlderThan(ctx, cutoff); err != nil {
		logging.Error("Failed to purge AI usage logs", map[string]interface{}{"error": err.Error()})
	} else if n > 0 {
		logging.Info("Purged AI usage logs", map[string]interface{}{"count": n})
	}
}

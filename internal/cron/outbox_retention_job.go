package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/tractorbid/tractorbid-backend/pkg/logger"
)

const outboxRetentionDays = 14

type outboxPruner interface {
	DeletePublishedBefore(cutoff time.Time) (int64, error)
}

type outboxRetentionJob struct {
	repo outboxPruner
	logg *logger.Logger
	now  func() time.Time
}

// NewOutboxRetentionJob prunes published outbox rows past the retention window.
func NewOutboxRetentionJob(repo outboxPruner, logg *logger.Logger) (Job, error) {
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &outboxRetentionJob{repo: repo, logg: logg, now: time.Now}, nil
}

func (j *outboxRetentionJob) Name() string {
	return "outbox-retention"
}

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().AddDate(0, 0, -outboxRetentionDays)
	deleted, err := j.repo.DeletePublishedBefore(cutoff)
	if err != nil {
		return fmt.Errorf("prune outbox: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "deleted", deleted)
	j.logg.Info(logCtx, "outbox retention pass complete")
	return nil
}

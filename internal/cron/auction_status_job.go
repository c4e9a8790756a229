package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/tractorbid/tractorbid-backend/internal/auctions"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
)

type sweeper interface {
	Sweep(ctx context.Context, now time.Time) (auctions.SweepResult, error)
}

type auctionStatusJob struct {
	sweeper sweeper
	logg    *logger.Logger
	now     func() time.Time
}

// NewAuctionStatusJob wraps the auction transition sweeper as a cron job.
func NewAuctionStatusJob(sw sweeper, logg *logger.Logger) (Job, error) {
	if sw == nil {
		return nil, fmt.Errorf("sweeper required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &auctionStatusJob{sweeper: sw, logg: logg, now: time.Now}, nil
}

func (j *auctionStatusJob) Name() string {
	return "auction-status"
}

func (j *auctionStatusJob) Run(ctx context.Context) error {
	result, err := j.sweeper.Sweep(ctx, j.now())
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"started": result.Started,
		"ended":   result.Ended,
		"errored": result.Errored,
	})
	if err != nil {
		j.logg.Error(logCtx, "auction sweep finished with errors", err)
		return err
	}
	j.logg.Info(logCtx, "auction sweep complete")
	return nil
}

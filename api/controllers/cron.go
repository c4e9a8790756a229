package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/tractorbid/tractorbid-backend/api/responses"
	"github.com/tractorbid/tractorbid-backend/internal/auctions"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
)

type auctionSweeper interface {
	Sweep(ctx context.Context, now time.Time) (auctions.SweepResult, error)
}

// CronAuctionStatus runs one transition sweep and reports the counts.
// The cron worker runs the same sweep on a timer; this endpoint exists
// for external schedulers and manual triggering.
func CronAuctionStatus(sweeper auctionSweeper, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sweeper == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auction sweeper unavailable"))
			return
		}

		result, err := sweeper.Sweep(ctx, time.Now().UTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ctx = logg.WithFields(ctx, map[string]any{
			"started": result.Started,
			"ended":   result.Ended,
			"errored": result.Errored,
		})
		logg.Info(ctx, "auction status sweep complete")
		responses.WriteSuccess(w, result)
	}
}

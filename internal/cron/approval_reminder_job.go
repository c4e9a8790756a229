package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
	"github.com/tractorbid/tractorbid-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type pendingApprovalStore interface {
	FindPendingApproval(ctx context.Context, endedBefore time.Time) ([]models.Auction, error)
}

// ApprovalReminderJobParams configures the reminder job.
type ApprovalReminderJobParams struct {
	Logger       *logger.Logger
	DB           txRunner
	AuctionRepo  pendingApprovalStore
	Outbox       outboxEmitter
	UrgentWindow time.Duration
}

type approvalReminderJob struct {
	logg         *logger.Logger
	db           txRunner
	auctions     pendingApprovalStore
	outbox       outboxEmitter
	urgentWindow time.Duration
	now          func() time.Time
}

// NewApprovalReminderJob nudges sellers whose approval deadline is close.
// EmitIfNotExists keeps repeated runs from duplicating the reminder event.
func NewApprovalReminderJob(params ApprovalReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.AuctionRepo == nil {
		return nil, fmt.Errorf("auction repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	window := params.UrgentWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &approvalReminderJob{
		logg:         params.Logger,
		db:           params.DB,
		auctions:     params.AuctionRepo,
		outbox:       params.Outbox,
		urgentWindow: window,
		now:          time.Now,
	}, nil
}

func (j *approvalReminderJob) Name() string {
	return "approval-reminder"
}

func (j *approvalReminderJob) Run(ctx context.Context) error {
	now := j.now()
	pending, err := j.auctions.FindPendingApproval(ctx, now)
	if err != nil {
		return fmt.Errorf("list pending approvals: %w", err)
	}

	var errs error
	reminded := 0
	for _, auction := range pending {
		if !j.deadlineClose(auction, now) {
			continue
		}
		if err := j.remind(ctx, auction, now); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("auction %s: %w", auction.ID, err))
			continue
		}
		reminded++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"pending":  len(pending),
		"reminded": reminded,
	})
	j.logg.Info(logCtx, "approval reminders emitted")
	return errs
}

func (j *approvalReminderJob) deadlineClose(auction models.Auction, now time.Time) bool {
	if auction.ApprovalDeadline == nil {
		return false
	}
	deadline := *auction.ApprovalDeadline
	return deadline.After(now) && deadline.Sub(now) <= j.urgentWindow
}

func (j *approvalReminderJob) remind(ctx context.Context, auction models.Auction, now time.Time) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventApprovalReminder,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auction.ID,
			Data: approvalReminderEvent{
				AuctionID:        auction.ID,
				VehicleID:        auction.VehicleID,
				ReferenceNumber:  auction.ReferenceNumber,
				ApprovalDeadline: *auction.ApprovalDeadline,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
}

type approvalReminderEvent struct {
	AuctionID        uuid.UUID `json:"auction_id"`
	VehicleID        uuid.UUID `json:"vehicle_id"`
	ReferenceNumber  string    `json:"reference_number"`
	ApprovalDeadline time.Time `json:"approval_deadline"`
}

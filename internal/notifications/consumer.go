package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
	"github.com/tractorbid/tractorbid-backend/pkg/outbox"
	"github.com/tractorbid/tractorbid-backend/pkg/outbox/idempotency"
)

const auctionNotificationConsumer = "auction-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type vehicleStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
}

type watcherStore interface {
	ListWatchers(ctx context.Context, auctionID uuid.UUID) ([]uuid.UUID, error)
}

// Channel delivers a notification on a secondary channel (email, SMS).
// Delivery failures are logged and never fail event processing.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, notification *models.Notification) error
}

// Consumer watches auction domain events and writes in-app notifications.
type Consumer struct {
	repo         repository
	vehicles     vehicleStore
	watchers     watcherStore
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	channels     []Channel
	logg         *logger.Logger
}

// NewConsumer builds an auction notification consumer.
func NewConsumer(repo repository, vehicles vehicleStore, watchers watcherStore, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger, channels ...Channel) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if vehicles == nil {
		return nil, fmt.Errorf("vehicle store required")
	}
	if watchers == nil {
		return nil, fmt.Errorf("watcher store required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		vehicles:     vehicles,
		watchers:     watchers,
		subscription: subscription,
		idempotency:  manager,
		channels:     channels,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

var handledEvents = map[enums.OutboxEventType]struct{}{
	enums.EventAuctionStarted:   {},
	enums.EventAuctionEnded:     {},
	enums.EventAuctionSettled:   {},
	enums.EventWinnerRejected:   {},
	enums.EventApprovalReminder: {},
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if _, ok := handledEvents[eventType]; !ok {
		c.logg.Info(logCtx, "skipping unhandled event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, auctionNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, auctionNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventAuctionStarted:
		var payload auctionStartedPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyAuctionStarted(ctx, payload, logCtx)
	case enums.EventAuctionEnded:
		var payload auctionEndedPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyAuctionEnded(ctx, payload, logCtx)
	case enums.EventAuctionSettled:
		var payload auctionSettledPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyAuctionSettled(ctx, payload, logCtx)
	case enums.EventWinnerRejected:
		var payload winnerRejectedPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyWinnerRejected(ctx, payload, logCtx)
	case enums.EventApprovalReminder:
		var payload approvalReminderPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyApprovalReminder(ctx, payload, logCtx)
	default:
		return nil
	}
}

func (c *Consumer) notifyAuctionStarted(ctx context.Context, payload auctionStartedPayload, logCtx context.Context) error {
	if payload.AuctionID == uuid.Nil {
		return fmt.Errorf("auction id missing")
	}
	watchers, err := c.watchers.ListWatchers(ctx, payload.AuctionID)
	if err != nil {
		return err
	}
	title := "Auction is live"
	body := fmt.Sprintf("Auction %s is now accepting bids.", payload.ReferenceNumber)
	for _, userID := range watchers {
		if err := c.create(ctx, userID, enums.NotificationAuctionStarted, title, body, payload.AuctionID); err != nil {
			return err
		}
	}
	c.logg.Info(logCtx, fmt.Sprintf("notified %d watchers of auction start", len(watchers)))
	return nil
}

func (c *Consumer) notifyAuctionEnded(ctx context.Context, payload auctionEndedPayload, logCtx context.Context) error {
	if payload.AuctionID == uuid.Nil {
		return fmt.Errorf("auction id missing")
	}
	sellerID, err := c.sellerFor(ctx, payload.VehicleID)
	if err != nil {
		return err
	}

	sellerBody := fmt.Sprintf("Auction %s has ended without bids.", payload.ReferenceNumber)
	if payload.HadBids {
		sellerBody = fmt.Sprintf("Auction %s has ended with a closing bid of %d. Review the winning bid to approve or reject it.", payload.ReferenceNumber, payload.ClosingBid)
	}
	if err := c.create(ctx, sellerID, enums.NotificationAuctionEnded, "Auction ended", sellerBody, payload.AuctionID); err != nil {
		return err
	}

	if payload.WinnerID != nil {
		winnerBody := fmt.Sprintf("You placed the highest bid of %d in auction %s. The seller will review the result.", payload.ClosingBid, payload.ReferenceNumber)
		if err := c.create(ctx, *payload.WinnerID, enums.NotificationAuctionEnded, "You are the highest bidder", winnerBody, payload.AuctionID); err != nil {
			return err
		}
	}

	c.logg.Info(logCtx, "auction end notifications written")
	return nil
}

func (c *Consumer) notifyAuctionSettled(ctx context.Context, payload auctionSettledPayload, logCtx context.Context) error {
	if payload.AuctionID == uuid.Nil || payload.BuyerID == uuid.Nil {
		return fmt.Errorf("auction or buyer id missing")
	}
	body := fmt.Sprintf("Your winning bid of %d was approved. Balance due: %d.", payload.PurchasePrice, payload.BalanceAmount)
	if err := c.create(ctx, payload.BuyerID, enums.NotificationWinnerApproved, "Winning bid approved", body, payload.AuctionID); err != nil {
		return err
	}

	sellerID, err := c.sellerFor(ctx, payload.VehicleID)
	if err != nil {
		return err
	}
	sellerBody := fmt.Sprintf("Sale confirmed at %d. The buyer has been asked to pay the balance.", payload.PurchasePrice)
	if err := c.create(ctx, sellerID, enums.NotificationWinnerApproved, "Sale confirmed", sellerBody, payload.AuctionID); err != nil {
		return err
	}

	c.logg.Info(logCtx, "settlement notifications written")
	return nil
}

func (c *Consumer) notifyWinnerRejected(ctx context.Context, payload winnerRejectedPayload, logCtx context.Context) error {
	if payload.AuctionID == uuid.Nil {
		return fmt.Errorf("auction id missing")
	}
	if payload.WinnerID == nil {
		return nil
	}
	body := "The seller declined your winning bid."
	if payload.Reason != nil && *payload.Reason != "" {
		body = fmt.Sprintf("The seller declined your winning bid. Reason: %s", *payload.Reason)
	}
	if err := c.create(ctx, *payload.WinnerID, enums.NotificationWinnerRejected, "Winning bid declined", body, payload.AuctionID); err != nil {
		return err
	}
	c.logg.Info(logCtx, "rejection notification written")
	return nil
}

func (c *Consumer) notifyApprovalReminder(ctx context.Context, payload approvalReminderPayload, logCtx context.Context) error {
	if payload.AuctionID == uuid.Nil {
		return fmt.Errorf("auction id missing")
	}
	sellerID, err := c.sellerFor(ctx, payload.VehicleID)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Auction %s is awaiting your decision on the winning bid. The approval window closes soon.", payload.ReferenceNumber)
	if err := c.create(ctx, sellerID, enums.NotificationApprovalReminder, "Approval deadline approaching", body, payload.AuctionID); err != nil {
		return err
	}
	c.logg.Info(logCtx, "approval reminder written")
	return nil
}

func (c *Consumer) create(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, body string, auctionID uuid.UUID) error {
	notification := &models.Notification{
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Body:      body,
		AuctionID: &auctionID,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.deliver(ctx, notification)
	return nil
}

// deliver fans a stored notification out to secondary channels. Each channel
// failure is isolated: logged, never propagated.
func (c *Consumer) deliver(ctx context.Context, notification *models.Notification) {
	for _, channel := range c.channels {
		if err := channel.Deliver(ctx, notification); err != nil {
			logCtx := c.logg.WithFields(ctx, map[string]any{
				"channel": channel.Name(),
				"user_id": notification.UserID.String(),
			})
			c.logg.Warn(logCtx, "channel delivery failed")
		}
	}
}

func (c *Consumer) sellerFor(ctx context.Context, vehicleID uuid.UUID) (uuid.UUID, error) {
	if vehicleID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("vehicle id missing")
	}
	vehicle, err := c.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return uuid.Nil, err
	}
	return vehicle.SellerID, nil
}

type auctionStartedPayload struct {
	AuctionID       uuid.UUID `json:"auction_id"`
	VehicleID       uuid.UUID `json:"vehicle_id"`
	ReferenceNumber string    `json:"reference_number"`
}

type auctionEndedPayload struct {
	AuctionID       uuid.UUID  `json:"auction_id"`
	VehicleID       uuid.UUID  `json:"vehicle_id"`
	ReferenceNumber string     `json:"reference_number"`
	WinnerID        *uuid.UUID `json:"winner_id,omitempty"`
	ClosingBid      int64      `json:"closing_bid"`
	HadBids         bool       `json:"had_bids"`
}

type auctionSettledPayload struct {
	AuctionID     uuid.UUID `json:"auction_id"`
	VehicleID     uuid.UUID `json:"vehicle_id"`
	BuyerID       uuid.UUID `json:"buyer_id"`
	PurchasePrice int64     `json:"purchase_price"`
	BalanceAmount int64     `json:"balance_amount"`
}

type winnerRejectedPayload struct {
	AuctionID uuid.UUID  `json:"auction_id"`
	VehicleID uuid.UUID  `json:"vehicle_id"`
	WinnerID  *uuid.UUID `json:"winner_id,omitempty"`
	Reason    *string    `json:"reason,omitempty"`
}

type approvalReminderPayload struct {
	AuctionID       uuid.UUID `json:"auction_id"`
	VehicleID       uuid.UUID `json:"vehicle_id"`
	ReferenceNumber string    `json:"reference_number"`
}

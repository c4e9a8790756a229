package razorpaywebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
	"github.com/tractorbid/tractorbid-backend/pkg/razorpay"
	"github.com/tractorbid/tractorbid-backend/pkg/redis"
)

const (
	eventPaymentCaptured = "payment.captured"

	idempotencyScope = "webhook:razorpay"
	idempotencyTTL   = 7 * 24 * time.Hour
)

type emdRepository interface {
	MarkPaid(ctx context.Context, id uuid.UUID, paymentID string, paidAt time.Time) (bool, error)
}

type purchaseRepository interface {
	MarkBalancePaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error)
	MarkFeePaid(ctx context.Context, id uuid.UUID) (bool, error)
	PromoteIfFullyPaid(ctx context.Context, id uuid.UUID) error
}

type userRepository interface {
	MarkMembershipActive(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error)
	MarkRegistrationPaid(ctx context.Context, id uuid.UUID) (bool, error)
}

// ServiceParams wires the reconciler dependencies.
type ServiceParams struct {
	EMDRepo       emdRepository
	PurchaseRepo  purchaseRepository
	UserRepo      userRepository
	Idempotency   redis.IdempotencyStore
	WebhookSecret string
	Logger        *logger.Logger
}

// Service reconciles Razorpay payment events against local records. Every
// state transition it performs is a preconditioned update, so gateway
// retries of the same event are no-ops.
type Service struct {
	emds      emdRepository
	purchases purchaseRepository
	users     userRepository
	guard     redis.IdempotencyStore
	secret    string
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the webhook reconciler.
func NewService(params ServiceParams) (*Service, error) {
	if params.EMDRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "emd repo required")
	}
	if params.PurchaseRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "purchase repo required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repo required")
	}
	if params.Idempotency == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency store required")
	}
	if params.WebhookSecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook secret required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		emds:      params.EMDRepo,
		purchases: params.PurchaseRepo,
		users:     params.UserRepo,
		guard:     params.Idempotency,
		secret:    params.WebhookSecret,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

// Event is the Razorpay webhook envelope.
type Event struct {
	Entity  string       `json:"entity"`
	Event   string       `json:"event"`
	Payload EventPayload `json:"payload"`
}

// EventPayload nests the payment entity.
type EventPayload struct {
	Payment PaymentWrapper `json:"payment"`
}

// PaymentWrapper matches Razorpay's payload.payment.entity nesting.
type PaymentWrapper struct {
	Entity PaymentEntity `json:"entity"`
}

// PaymentEntity carries the fields the reconciler reads.
type PaymentEntity struct {
	ID          string            `json:"id"`
	OrderID     string            `json:"order_id"`
	AmountPaise int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Status      string            `json:"status"`
	Notes       map[string]string `json:"notes"`
}

// HandleEvent verifies the signature, deduplicates the event, and routes the
// payment to the record it settles. Signature failures are the only errors a
// caller should surface to the gateway; everything after verification is a
// local reconciliation problem.
func (s *Service) HandleEvent(ctx context.Context, signature string, rawBody []byte) error {
	if !razorpay.VerifySignature(rawBody, signature, s.secret) {
		return pkgerrors.New(pkgerrors.CodeSignature, "webhook signature mismatch")
	}

	var event Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook body")
	}
	if event.Event != eventPaymentCaptured {
		logCtx := s.logg.WithField(ctx, "event", event.Event)
		s.logg.Info(logCtx, "ignoring unhandled webhook event")
		return nil
	}

	payment := event.Payload.Payment.Entity
	if payment.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id missing")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"payment_id":   payment.ID,
		"order_id":     payment.OrderID,
		"payment_type": payment.Notes["payment_type"],
	})

	key := s.guard.IdempotencyKey(idempotencyScope, payment.ID)
	fresh, err := s.guard.SetNX(ctx, key, "1", idempotencyTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency check")
	}
	if !fresh {
		s.logg.Info(logCtx, "payment event already processed")
		return nil
	}

	if err := s.dispatch(ctx, payment, logCtx); err != nil {
		// Release the guard so the gateway retry can reprocess.
		_ = s.guard.Del(ctx, key)
		return err
	}

	s.logg.Info(logCtx, "payment reconciled")
	return nil
}

func (s *Service) dispatch(ctx context.Context, payment PaymentEntity, logCtx context.Context) error {
	paymentType, err := enums.ParsePaymentType(payment.Notes["payment_type"])
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment type")
	}

	switch paymentType {
	case enums.PaymentTypeEMD:
		return s.reconcileEMD(ctx, payment, logCtx)
	case enums.PaymentTypeBalancePayment:
		return s.reconcileBalance(ctx, payment, logCtx)
	case enums.PaymentTypeTransactionFee:
		return s.reconcileFee(ctx, payment, logCtx)
	case enums.PaymentTypeMembership:
		return s.reconcileMembership(ctx, payment, logCtx)
	case enums.PaymentTypeRegistrationFee:
		return s.reconcileRegistration(ctx, payment, logCtx)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "payment type not routable")
	}
}

func (s *Service) reconcileEMD(ctx context.Context, payment PaymentEntity, logCtx context.Context) error {
	emdID, err := noteUUID(payment.Notes, "emd_id")
	if err != nil {
		return err
	}
	moved, err := s.emds.MarkPaid(ctx, emdID, payment.ID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark emd paid")
	}
	if !moved {
		s.logg.Info(logCtx, "emd not in pending state, skipping")
	}
	return nil
}

func (s *Service) reconcileBalance(ctx context.Context, payment PaymentEntity, logCtx context.Context) error {
	purchaseID, err := noteUUID(payment.Notes, "purchase_id")
	if err != nil {
		return err
	}
	moved, err := s.purchases.MarkBalancePaid(ctx, purchaseID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark balance paid")
	}
	if !moved {
		s.logg.Info(logCtx, "balance already settled, skipping")
		return nil
	}
	if err := s.purchases.PromoteIfFullyPaid(ctx, purchaseID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote purchase")
	}
	return nil
}

func (s *Service) reconcileFee(ctx context.Context, payment PaymentEntity, logCtx context.Context) error {
	purchaseID, err := noteUUID(payment.Notes, "purchase_id")
	if err != nil {
		return err
	}
	moved, err := s.purchases.MarkFeePaid(ctx, purchaseID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark fee paid")
	}
	if !moved {
		s.logg.Info(logCtx, "fee already settled, skipping")
		return nil
	}
	if err := s.purchases.PromoteIfFullyPaid(ctx, purchaseID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote purchase")
	}
	return nil
}

func (s *Service) reconcileMembership(ctx context.Context, payment PaymentEntity, logCtx context.Context) error {
	userID, err := noteUUID(payment.Notes, "user_id")
	if err != nil {
		return err
	}
	moved, err := s.users.MarkMembershipActive(ctx, userID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate membership")
	}
	if !moved {
		s.logg.Info(logCtx, "membership already active, skipping")
	}
	return nil
}

func (s *Service) reconcileRegistration(ctx context.Context, payment PaymentEntity, logCtx context.Context) error {
	userID, err := noteUUID(payment.Notes, "user_id")
	if err != nil {
		return err
	}
	moved, err := s.users.MarkRegistrationPaid(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark registration paid")
	}
	if !moved {
		s.logg.Info(logCtx, "registration already paid, skipping")
	}
	return nil
}

func noteUUID(notes map[string]string, key string) (uuid.UUID, error) {
	raw, ok := notes[key]
	if !ok || raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, key+" note missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}

package razorpaywebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
)

const testSecret = "whsec_test"

type stubEMDRepo struct {
	paidID uuid.UUID
	moved  bool
	calls  int
}

func (s *stubEMDRepo) MarkPaid(ctx context.Context, id uuid.UUID, paymentID string, paidAt time.Time) (bool, error) {
	s.calls++
	s.paidID = id
	return s.moved, nil
}

type stubPurchaseRepo struct {
	balancePaid uuid.UUID
	feePaid     uuid.UUID
	promoted    []uuid.UUID
	moved       bool
}

func (s *stubPurchaseRepo) MarkBalancePaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	s.balancePaid = id
	return s.moved, nil
}

func (s *stubPurchaseRepo) MarkFeePaid(ctx context.Context, id uuid.UUID) (bool, error) {
	s.feePaid = id
	return s.moved, nil
}

func (s *stubPurchaseRepo) PromoteIfFullyPaid(ctx context.Context, id uuid.UUID) error {
	s.promoted = append(s.promoted, id)
	return nil
}

type stubUserRepo struct {
	membershipID   uuid.UUID
	registrationID uuid.UUID
	moved          bool
}

func (s *stubUserRepo) MarkMembershipActive(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	s.membershipID = id
	return s.moved, nil
}

func (s *stubUserRepo) MarkRegistrationPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	s.registrationID = id
	return s.moved, nil
}

type stubIdempotency struct {
	seen    map[string]bool
	deleted []string
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{seen: map[string]bool{}}
}

func (s *stubIdempotency) Get(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (s *stubIdempotency) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *stubIdempotency) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (s *stubIdempotency) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.seen, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

type webhookFixture struct {
	svc       *Service
	emds      *stubEMDRepo
	purchases *stubPurchaseRepo
	users     *stubUserRepo
	guard     *stubIdempotency
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	f := &webhookFixture{
		emds:      &stubEMDRepo{moved: true},
		purchases: &stubPurchaseRepo{moved: true},
		users:     &stubUserRepo{moved: true},
		guard:     newStubIdempotency(),
	}
	svc, err := NewService(ServiceParams{
		EMDRepo:       f.emds,
		PurchaseRepo:  f.purchases,
		UserRepo:      f.users,
		Idempotency:   f.guard,
		WebhookSecret: testSecret,
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.svc = svc
	return f
}

func sign(t *testing.T, body []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func capturedEvent(t *testing.T, paymentID string, notes map[string]string) []byte {
	t.Helper()
	body, err := json.Marshal(Event{
		Entity: "event",
		Event:  eventPaymentCaptured,
		Payload: EventPayload{Payment: PaymentWrapper{Entity: PaymentEntity{
			ID:          paymentID,
			OrderID:     "order_123",
			AmountPaise: 1000000,
			Currency:    "INR",
			Status:      "captured",
			Notes:       notes,
		}}},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return body
}

func TestHandleEventRejectsBadSignature(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	body := capturedEvent(t, "pay_1", map[string]string{"payment_type": string(enums.PaymentTypeEMD)})

	err := f.svc.HandleEvent(context.Background(), "deadbeef", body)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeSignature {
		t.Fatalf("expected signature error, got %v", err)
	}
	if f.emds.calls != 0 {
		t.Fatal("expected no reconciliation on signature failure")
	}
}

func TestHandleEventIgnoresOtherEventTypes(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	body, _ := json.Marshal(Event{Event: "payment.failed"})

	if err := f.svc.HandleEvent(context.Background(), sign(t, body), body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.emds.calls != 0 {
		t.Fatal("expected no reconciliation for unhandled events")
	}
}

func TestHandleEventReconcilesEMD(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	emdID := uuid.New()
	body := capturedEvent(t, "pay_emd", map[string]string{
		"payment_type": string(enums.PaymentTypeEMD),
		"emd_id":       emdID.String(),
	})

	if err := f.svc.HandleEvent(context.Background(), sign(t, body), body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.emds.paidID != emdID {
		t.Fatalf("expected deposit %s marked paid, got %s", emdID, f.emds.paidID)
	}
}

func TestHandleEventIsIdempotentPerPayment(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	body := capturedEvent(t, "pay_dup", map[string]string{
		"payment_type": string(enums.PaymentTypeEMD),
		"emd_id":       uuid.New().String(),
	})
	sig := sign(t, body)

	if err := f.svc.HandleEvent(context.Background(), sig, body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.HandleEvent(context.Background(), sig, body); err != nil {
		t.Fatalf("unexpected error on redelivery: %v", err)
	}
	if f.emds.calls != 1 {
		t.Fatalf("expected one reconciliation, got %d", f.emds.calls)
	}
}

func TestHandleEventReleasesGuardOnFailure(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	// Missing emd_id note makes the dispatch fail after the guard is set.
	body := capturedEvent(t, "pay_retry", map[string]string{
		"payment_type": string(enums.PaymentTypeEMD),
	})

	err := f.svc.HandleEvent(context.Background(), sign(t, body), body)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.guard.deleted) != 1 {
		t.Fatal("expected idempotency guard released for a gateway retry")
	}
}

func TestHandleEventReconcilesBalancePayment(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	purchaseID := uuid.New()
	body := capturedEvent(t, "pay_balance", map[string]string{
		"payment_type": string(enums.PaymentTypeBalancePayment),
		"purchase_id":  purchaseID.String(),
	})

	if err := f.svc.HandleEvent(context.Background(), sign(t, body), body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.purchases.balancePaid != purchaseID {
		t.Fatal("expected balance marked paid")
	}
	if len(f.purchases.promoted) != 1 || f.purchases.promoted[0] != purchaseID {
		t.Fatal("expected purchase promotion check after balance payment")
	}
}

func TestHandleEventSkipsPromotionWhenAlreadySettled(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	f.purchases.moved = false
	body := capturedEvent(t, "pay_settled", map[string]string{
		"payment_type": string(enums.PaymentTypeTransactionFee),
		"purchase_id":  uuid.New().String(),
	})

	if err := f.svc.HandleEvent(context.Background(), sign(t, body), body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.purchases.promoted) != 0 {
		t.Fatal("expected no promotion for an already settled fee")
	}
}

func TestHandleEventReconcilesMembershipAndRegistration(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	userID := uuid.New()

	body := capturedEvent(t, "pay_membership", map[string]string{
		"payment_type": string(enums.PaymentTypeMembership),
		"user_id":      userID.String(),
	})
	if err := f.svc.HandleEvent(context.Background(), sign(t, body), body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.users.membershipID != userID {
		t.Fatal("expected membership activated")
	}

	body = capturedEvent(t, "pay_registration", map[string]string{
		"payment_type": string(enums.PaymentTypeRegistrationFee),
		"user_id":      userID.String(),
	})
	if err := f.svc.HandleEvent(context.Background(), sign(t, body), body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.users.registrationID != userID {
		t.Fatal("expected registration marked paid")
	}
}

func TestHandleEventRejectsUnknownPaymentType(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	body := capturedEvent(t, "pay_unknown", map[string]string{"payment_type": "GIFT_CARD"})

	err := f.svc.HandleEvent(context.Background(), sign(t, body), body)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

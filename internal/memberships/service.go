package memberships

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/razorpay"
)

// Membership and registration fees are flat platform charges.
const (
	MembershipFee   int64 = 5_000
	RegistrationFee int64 = 1_000
)

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type gateway interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
	NewReceipt(prefix string) string
}

// Service initiates membership and registration fee payments.
type Service interface {
	InitiateMembership(ctx context.Context, userID uuid.UUID) (*razorpay.Order, error)
	InitiateRegistrationFee(ctx context.Context, userID uuid.UUID) (*razorpay.Order, error)
}

type service struct {
	users   userStore
	gateway gateway
}

// NewService builds the membership service.
func NewService(users userStore, gw gateway) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &service{users: users, gateway: gw}, nil
}

func (s *service) InitiateMembership(ctx context.Context, userID uuid.UUID) (*razorpay.Order, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.MembershipActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "membership already active")
	}
	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		AmountPaise: MembershipFee * 100,
		Receipt:     s.gateway.NewReceipt("mem"),
		Notes: map[string]string{
			"payment_type": string(enums.PaymentTypeMembership),
			"user_id":      user.ID.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gateway order")
	}
	return order, nil
}

func (s *service) InitiateRegistrationFee(ctx context.Context, userID uuid.UUID) (*razorpay.Order, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.RegistrationPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "registration fee already paid")
	}
	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		AmountPaise: RegistrationFee * 100,
		Receipt:     s.gateway.NewReceipt("reg"),
		Notes: map[string]string{
			"payment_type": string(enums.PaymentTypeRegistrationFee),
			"user_id":      user.ID.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gateway order")
	}
	return order, nil
}

func (s *service) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

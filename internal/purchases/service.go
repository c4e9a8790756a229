package purchases

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

type gateway interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
	NewReceipt(prefix string) string
}

// PaymentOrder wraps a gateway order created for a purchase obligation.
type PaymentOrder struct {
	Purchase *models.Purchase `json:"purchase"`
	Order    *razorpay.Order  `json:"order"`
}

// Service exposes buyer-facing purchase operations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.Purchase, error)
	InitiateBalancePayment(ctx context.Context, purchaseID, buyerID uuid.UUID) (*PaymentOrder, error)
	InitiateFeePayment(ctx context.Context, purchaseID, buyerID uuid.UUID) (*PaymentOrder, error)
}

type service struct {
	repo    Repository
	gateway gateway
}

// NewService builds a purchase service with the required dependencies.
func NewService(repo Repository, gw gateway) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchases repository required")
	}
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &service{repo: repo, gateway: gw}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	purchase, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	return purchase, nil
}

func (s *service) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.Purchase, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	rows, err := s.repo.ListByBuyer(ctx, buyerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}
	return rows, nil
}

// InitiateBalancePayment creates a gateway order for the post-EMD balance.
func (s *service) InitiateBalancePayment(ctx context.Context, purchaseID, buyerID uuid.UUID) (*PaymentOrder, error) {
	purchase, err := s.loadOwnedPurchase(ctx, purchaseID, buyerID)
	if err != nil {
		return nil, err
	}
	if purchase.Status != enums.PurchaseStatusPaymentPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "purchase is not awaiting payment")
	}
	if purchase.BalanceAmount == nil || *purchase.BalanceAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no balance owed on this purchase")
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		AmountPaise: *purchase.BalanceAmount * 100,
		Receipt:     s.gateway.NewReceipt("bal"),
		Notes: map[string]string{
			"payment_type": string(enums.PaymentTypeBalancePayment),
			"purchase_id":  purchase.ID.String(),
			"buyer_id":     buyerID.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gateway order")
	}
	if err := s.repo.SetBalanceOrderID(ctx, purchase.ID, order.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store order reference")
	}
	purchase.BalanceOrderID = &order.ID
	return &PaymentOrder{Purchase: purchase, Order: order}, nil
}

// InitiateFeePayment creates a gateway order for the transaction fee.
func (s *service) InitiateFeePayment(ctx context.Context, purchaseID, buyerID uuid.UUID) (*PaymentOrder, error) {
	purchase, err := s.loadOwnedPurchase(ctx, purchaseID, buyerID)
	if err != nil {
		return nil, err
	}
	if purchase.TransactionFee <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no transaction fee owed on this purchase")
	}
	if purchase.TransactionFeePaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transaction fee already paid")
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		AmountPaise: purchase.TransactionFee * 100,
		Receipt:     s.gateway.NewReceipt("fee"),
		Notes: map[string]string{
			"payment_type": string(enums.PaymentTypeTransactionFee),
			"purchase_id":  purchase.ID.String(),
			"buyer_id":     buyerID.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gateway order")
	}
	if err := s.repo.SetFeeOrderID(ctx, purchase.ID, order.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store order reference")
	}
	purchase.FeeOrderID = &order.ID
	return &PaymentOrder{Purchase: purchase, Order: order}, nil
}

func (s *service) loadOwnedPurchase(ctx context.Context, purchaseID, buyerID uuid.UUID) (*models.Purchase, error) {
	if purchaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	purchase, err := s.repo.FindByID(ctx, purchaseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	if purchase.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "purchase does not belong to caller")
	}
	return purchase, nil
}

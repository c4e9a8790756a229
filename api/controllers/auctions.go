package controllers

import (
	"net/http"

	"github.com/tractorbid/tractorbid-backend/api/middleware"
	"github.com/tractorbid/tractorbid-backend/api/responses"
	"github.com/tractorbid/tractorbid-backend/api/validators"
	"github.com/tractorbid/tractorbid-backend/internal/auctions"
	"github.com/tractorbid/tractorbid-backend/internal/bids"
	"github.com/tractorbid/tractorbid-backend/internal/emd"
	"github.com/tractorbid/tractorbid-backend/internal/settlement"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
)

type placeBidRequest struct {
	BidAmount int64 `json:"bidAmount" validate:"required,gt=0"`
}

type approveRequest struct {
	ApprovalStatus  string  `json:"approvalStatus" validate:"required"`
	RejectionReason *string `json:"rejectionReason,omitempty"`
}

type confirmWinnerRequest struct {
	WinnerBidID string `json:"winnerBidId" validate:"required"`
	WinnerID    string `json:"winnerId" validate:"required"`
}

// AuctionList returns auctions filtered by status (default LIVE).
func AuctionList(svc auctions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auction service unavailable"))
			return
		}

		status := enums.AuctionStatusLive
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enums.ParseAuctionStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = parsed
		}

		rows, err := svc.ListByStatus(ctx, status, defaultListLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AuctionGet returns a single auction.
func AuctionGet(svc auctions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auction service unavailable"))
			return
		}

		auctionID, err := pathUUID(r, "auctionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		auction, err := svc.Get(ctx, auctionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, auction)
	}
}

// AuctionBids returns the bid history for an auction.
func AuctionBids(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bid service unavailable"))
			return
		}

		auctionID, err := pathUUID(r, "auctionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		rows, err := svc.ListByAuction(ctx, auctionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AuctionPlaceBid appends a bid to a live auction.
func AuctionPlaceBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bid service unavailable"))
			return
		}

		auctionID, err := pathUUID(r, "auctionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		bidderID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req placeBidRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		logCtx := ctx
		if logg != nil {
			logCtx = logg.WithAuctionID(ctx, auctionID.String())
		}

		result, err := svc.PlaceBid(logCtx, bids.PlaceBidInput{
			AuctionID: auctionID,
			BidderID:  bidderID,
			BidAmount: req.BidAmount,
		})
		if err != nil {
			responses.WriteError(logCtx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AuctionEMDStatus reports the caller's deposit state for an auction.
func AuctionEMDStatus(svc emd.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "emd service unavailable"))
			return
		}

		auctionID, err := pathUUID(r, "auctionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		bidderID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status, err := svc.Status(ctx, auctionID, bidderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

// AuctionEMDInitiate opens (or reuses) the caller's deposit for an auction.
func AuctionEMDInitiate(svc emd.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "emd service unavailable"))
			return
		}

		auctionID, err := pathUUID(r, "auctionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		bidderID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Initiate(ctx, auctionID, bidderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AuctionApprove resolves the seller approval gate on an ended auction.
func AuctionApprove(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		auctionID, err := pathUUID(r, "auctionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req approveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		purchase, err := svc.Approve(ctx, settlement.ApproveInput{
			AuctionID:       auctionID,
			ApprovalStatus:  enums.SellerApprovalStatus(req.ApprovalStatus),
			RejectionReason: req.RejectionReason,
			ActorID:         actor,
			ActorRole:       enums.UserRole(middleware.RoleFromContext(ctx)),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, purchase)
	}
}

// AdminConfirmWinner pins the winning bid on an ended auction.
func AdminConfirmWinner(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		auctionID, err := pathUUID(r, "auctionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req confirmWinnerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input := settlement.ConfirmWinnerInput{AuctionID: auctionID, ActorID: actor}
		if input.WinnerBidID, err = parseUUIDField(req.WinnerBidID, "winnerBidId"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if input.WinnerID, err = parseUUIDField(req.WinnerID, "winnerId"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		auction, err := svc.ConfirmWinner(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, auction)
	}
}

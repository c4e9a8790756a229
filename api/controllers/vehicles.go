package controllers

import (
	"net/http"
	"time"

	"github.com/tractorbid/tractorbid-backend/api/responses"
	"github.com/tractorbid/tractorbid-backend/api/validators"
	"github.com/tractorbid/tractorbid-backend/internal/auctions"
	"github.com/tractorbid/tractorbid-backend/internal/vehicles"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
)

const defaultListLimit = 50

type submitVehicleRequest struct {
	Make           string  `json:"make" validate:"required"`
	Model          string  `json:"model" validate:"required"`
	Year           int     `json:"year" validate:"required"`
	RegistrationNo string  `json:"registrationNo" validate:"required"`
	HoursUsed      *int    `json:"hoursUsed,omitempty"`
	ExpectedPrice  int64   `json:"expectedPrice" validate:"required,gt=0"`
	Description    *string `json:"description,omitempty"`
}

type reviewVehicleRequest struct {
	Approved bool    `json:"approved"`
	Reason   *string `json:"reason,omitempty"`
}

type scheduleAuctionRequest struct {
	StartTime        time.Time `json:"startTime" validate:"required"`
	EndTime          time.Time `json:"endTime" validate:"required"`
	ReservePrice     int64     `json:"reservePrice,omitempty"`
	MinimumIncrement int64     `json:"minimumIncrement,omitempty"`
	EMDRequired      *bool     `json:"emdRequired,omitempty"`
	EMDAmount        int64     `json:"emdAmount,omitempty"`
}

// VehicleSubmit lists a vehicle for admin review.
func VehicleSubmit(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		sellerID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req submitVehicleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		vehicle, err := svc.Submit(ctx, vehicles.SubmitInput{
			SellerID:       sellerID,
			Make:           req.Make,
			Model:          req.Model,
			Year:           req.Year,
			RegistrationNo: req.RegistrationNo,
			HoursUsed:      req.HoursUsed,
			ExpectedPrice:  req.ExpectedPrice,
			Description:    req.Description,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, vehicle)
	}
}

// VehicleMine lists the caller's vehicles.
func VehicleMine(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		sellerID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		rows, err := svc.ListBySeller(ctx, sellerID, defaultListLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// VehicleGet returns a vehicle by id.
func VehicleGet(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		vehicleID, err := pathUUID(r, "vehicleId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		vehicle, err := svc.Get(ctx, vehicleID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, vehicle)
	}
}

// AdminVehicleReview approves or rejects a pending vehicle.
func AdminVehicleReview(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		vehicleID, err := pathUUID(r, "vehicleId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req reviewVehicleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Review(ctx, vehicles.ReviewInput{
			VehicleID: vehicleID,
			Approved:  req.Approved,
			Reason:    req.Reason,
		}); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// AdminVehicleListPending lists vehicles awaiting review.
func AdminVehicleListPending(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		rows, err := svc.ListByStatus(ctx, enums.VehicleStatusPending, defaultListLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AdminScheduleAuction puts an approved vehicle under the hammer.
func AdminScheduleAuction(svc auctions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auction service unavailable"))
			return
		}

		vehicleID, err := pathUUID(r, "vehicleId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req scheduleAuctionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		auction, err := svc.Schedule(ctx, auctions.ScheduleInput{
			VehicleID:        vehicleID,
			StartTime:        req.StartTime,
			EndTime:          req.EndTime,
			ReservePrice:     req.ReservePrice,
			MinimumIncrement: req.MinimumIncrement,
			EMDRequired:      req.EMDRequired,
			EMDAmount:        req.EMDAmount,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, auction)
	}
}

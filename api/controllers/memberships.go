package controllers

import (
	"net/http"

	"github.com/tractorbid/tractorbid-backend/api/responses"
	"github.com/tractorbid/tractorbid-backend/internal/memberships"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
)

// MembershipOrder opens a gateway order for the annual membership.
func MembershipOrder(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.InitiateMembership(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// RegistrationFeeOrder opens a gateway order for the one-time registration fee.
func RegistrationFeeOrder(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.InitiateRegistrationFee(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

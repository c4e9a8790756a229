package controllers

import (
	"io"
	"net/http"

	"github.com/tractorbid/tractorbid-backend/api/responses"
	razorpaywebhook "github.com/tractorbid/tractorbid-backend/internal/webhooks/razorpay"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
)

const razorpaySignatureHeader = "X-Razorpay-Signature"

// PaymentWebhook receives gateway callbacks. Once the signature checks
// out the response is always 200; reconciliation failures are logged
// and retried through the gateway's own redelivery, not by failing the
// request.
func PaymentWebhook(svc *razorpaywebhook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		rawBody, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		signature := r.Header.Get(razorpaySignatureHeader)
		if err := svc.HandleEvent(ctx, signature, rawBody); err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeSignature {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			logg.Error(ctx, "webhook reconciliation failed", err)
		}
		responses.WriteSuccess(w, nil)
	}
}

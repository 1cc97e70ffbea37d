package api

import (
	"errors"
	"io"
	"net/http"

	"gigboard/internal/reconciler"
)

// StripeWebhook ingests asynchronous processor events. Signature failures
// get 400, ledger failures get 500 so the processor redelivers; everything
// else, including event types we do not handle, is acknowledged with 200.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	err = h.webhook.Process(r.Context(), body, r.Header.Get("Stripe-Signature"))
	switch {
	case errors.Is(err, reconciler.ErrBadSignature), errors.Is(err, reconciler.ErrStaleSignature):
		writeJSONError(w, http.StatusBadRequest, "signature verification failed")
	case err != nil:
		h.log.Error("webhook processing failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "event not applied")
	default:
		writeJSONSuccess(w, http.StatusOK, map[string]bool{"received": true})
	}
}

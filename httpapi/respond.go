package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arcpay/escrow-go/escrow"
	"github.com/arcpay/escrow-go/fees"
	"github.com/arcpay/escrow-go/invoice"
	"github.com/arcpay/escrow-go/registry"
	"github.com/arcpay/escrow-go/vault"
)

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessResponse{Status: "ok", Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Status: "error",
		Error:  ErrorPayload{Code: code, Message: message, RequestID: requestID},
	})
}

// mapError translates engine sentinels into HTTP status codes and stable
// machine-readable codes.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, escrow.ErrUnauthorized),
		errors.Is(err, vault.ErrUnauthorized),
		errors.Is(err, fees.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, registry.ErrNotFound),
		errors.Is(err, registry.ErrIndexOutOfRange),
		errors.Is(err, escrow.ErrIndexOutOfRange):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, registry.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, registry.ErrNotPersisted):
		return http.StatusInternalServerError, "not_persisted"
	case errors.Is(err, escrow.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, escrow.ErrAmountMismatch):
		return http.StatusUnprocessableEntity, "amount_mismatch"
	case errors.Is(err, vault.ErrInsufficientShares):
		return http.StatusConflict, "insufficient_shares"
	case errors.Is(err, invoice.ErrInvalidID),
		errors.Is(err, invoice.ErrInvalidAmount),
		errors.Is(err, invoice.ErrAmountOverflow),
		errors.Is(err, invoice.ErrTooManyDecimals),
		errors.Is(err, escrow.ErrZeroAmount),
		errors.Is(err, escrow.ErrBadPercentSum),
		errors.Is(err, escrow.ErrZeroPercent),
		errors.Is(err, escrow.ErrNoDeliverables):
		return http.StatusUnprocessableEntity, "invalid_input"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeEngineError(w http.ResponseWriter, err error, requestID string) {
	status, code := mapError(err)
	writeError(w, status, code, err.Error(), requestID)
}

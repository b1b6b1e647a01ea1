// Package httpapi exposes the escrow engine over a JSON HTTP surface.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter builds the engine's HTTP routes. Read routes are open;
// state-changing routes require an X-Arc-Identity header. The admin
// handler is optional.
func NewRouter(handler *Handler, admin *AdminHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	if logger != nil {
		r.Use(logMiddleware(logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, "ok", nil)
	})

	r.Route("/v1/escrows", func(r chi.Router) {
		r.Get("/", handler.listEscrows)
		r.Get("/{id}", handler.getEscrow)
		r.Get("/{id}/receipts", handler.getReceipts)

		r.Group(func(r chi.Router) {
			r.Use(identityMiddleware)
			r.Post("/", handler.createEscrow)
			r.Post("/{id}/sign", handler.sign)
			r.Post("/{id}/fund", handler.fund)
			r.Post("/{id}/release", handler.release)
			r.Post("/{id}/refund", handler.refund)
			r.Post("/{id}/deliverables/{index}/fund", handler.fundDeliverable)
			r.Post("/{id}/deliverables/{index}/approve", handler.approveDeliverable)
			r.Post("/{id}/deliverables/{index}/proof", handler.submitProof)
		})
	})

	if admin != nil {
		r.Get("/v1/vault", admin.vaultStatus)
		r.Group(func(r chi.Router) {
			r.Use(identityMiddleware)
			r.Post("/v1/vault/accrue", admin.accrue)
			r.Post("/v1/vault/yield-rate", admin.setYieldRate)
			r.Post("/v1/fees/rate", admin.setFeeRate)
		})
	}
	return r
}

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/arcpay/escrow-go/fees"
	"github.com/arcpay/escrow-go/invoice"
	"github.com/arcpay/escrow-go/vault"
)

// AdminHandler serves vault and fee administration. Rate changes are
// authorized by the engine itself against the configured admin
// identities, not by the HTTP layer.
type AdminHandler struct {
	vault     *vault.Vault
	collector *fees.Collector
}

func NewAdminHandler(v *vault.Vault, c *fees.Collector) *AdminHandler {
	return &AdminHandler{vault: v, collector: c}
}

// RateRequest sets a rate in basis points.
type RateRequest struct {
	BPS uint64 `json:"bps"`
}

// VaultView reports the vault's aggregate position.
type VaultView struct {
	YieldBPS       uint64 `json:"yield_bps"`
	TotalPrincipal string `json:"total_principal"`
	TotalShares    uint64 `json:"total_shares"`
}

func (h *AdminHandler) vaultStatus(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "", VaultView{
		YieldBPS:       h.vault.YieldRate(),
		TotalPrincipal: invoice.FormatAmount(h.vault.TotalPrincipal()),
		TotalShares:    h.vault.TotalShares(),
	})
}

// accrue realizes interest since the last accrual. Open to any
// identified caller, like the original public accrual entry point.
func (h *AdminHandler) accrue(w http.ResponseWriter, r *http.Request) {
	added := h.vault.Accrue()
	writeSuccess(w, http.StatusOK, "yield accrued", map[string]string{
		"accrued": invoice.FormatAmount(added),
	})
}

func (h *AdminHandler) setYieldRate(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())
	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestID)
		return
	}
	if err := h.vault.SetYieldRate(identityFromContext(r.Context()), req.BPS); err != nil {
		writeEngineError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, "yield rate updated", nil)
}

func (h *AdminHandler) setFeeRate(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())
	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestID)
		return
	}
	if err := h.collector.SetFeeRate(identityFromContext(r.Context()), req.BPS); err != nil {
		writeEngineError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, "fee rate updated", nil)
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arcpay/escrow-go/escrow"
	"github.com/arcpay/escrow-go/invoice"
	"github.com/arcpay/escrow-go/registry"
)

// Handler serves the escrow engine over JSON. All state-changing routes
// act on behalf of the identity in the X-Arc-Identity header.
type Handler struct {
	factory *registry.Factory
}

func NewHandler(factory *registry.Factory) *Handler {
	return &Handler{factory: factory}
}

func (h *Handler) createEscrow(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	var req CreateEscrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestID)
		return
	}

	id, err := resolveInvoiceID(req.InvoiceID, req.InvoiceCode)
	if err != nil {
		writeEngineError(w, err, requestID)
		return
	}
	amount, err := invoice.ParseAmount(req.Amount)
	if err != nil {
		writeEngineError(w, err, requestID)
		return
	}

	var caps escrow.Capabilities
	if req.Yield {
		caps |= escrow.CapYield
	}
	if req.RequireSigning {
		caps |= escrow.CapRequireSigning
	}
	if len(req.Deliverables) > 0 {
		caps |= escrow.CapDeliverables
	}

	e, err := h.factory.CreateEscrow(identityFromContext(r.Context()), registry.CreateParams{
		InvoiceID:       id,
		Amount:          amount,
		AutoReleaseDays: req.AutoReleaseDays,
		Capabilities:    caps,
		Percents:        req.Deliverables,
	})
	if err != nil {
		writeEngineError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusCreated, "escrow created", toStatusView(e.Status()))
}

func (h *Handler) listEscrows(w http.ResponseWriter, r *http.Request) {
	n := h.factory.GetEscrowCount()
	views := make([]StatusView, 0, n)
	for i := 0; i < n; i++ {
		e, err := h.factory.GetEscrowByIndex(i)
		if err != nil {
			break // registry shrank under us; serve what we have
		}
		views = append(views, toStatusView(e.Status()))
	}
	writeSuccess(w, http.StatusOK, "", views)
}

func (h *Handler) getEscrow(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())
	id, ok := h.invoiceIDParam(w, r)
	if !ok {
		return
	}
	st, err := h.factory.Status(id)
	if err != nil {
		writeEngineError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", toStatusView(st))
}

func (h *Handler) getReceipts(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())
	id, ok := h.invoiceIDParam(w, r)
	if !ok {
		return
	}
	receipts, err := h.factory.Receipts(id)
	if err != nil {
		writeEngineError(w, err, requestID)
		return
	}
	views := make([]ReceiptView, 0, len(receipts))
	for _, rc := range receipts {
		views = append(views, toReceiptView(rc))
	}
	writeSuccess(w, http.StatusOK, "", views)
}

func (h *Handler) sign(w http.ResponseWriter, r *http.Request) {
	h.operate(w, r, func(caller string, id invoice.ID) (*escrow.Receipt, error) {
		return h.factory.Sign(caller, id)
	}, "terms signed")
}

func (h *Handler) fund(w http.ResponseWriter, r *http.Request) {
	amount, ok := h.amountBody(w, r)
	if !ok {
		return
	}
	h.operate(w, r, func(caller string, id invoice.ID) (*escrow.Receipt, error) {
		return h.factory.Fund(caller, id, amount)
	}, "escrow funded")
}

func (h *Handler) release(w http.ResponseWriter, r *http.Request) {
	h.operate(w, r, func(caller string, id invoice.ID) (*escrow.Receipt, error) {
		return h.factory.Release(caller, id)
	}, "escrow released")
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	h.operate(w, r, func(caller string, id invoice.ID) (*escrow.Receipt, error) {
		return h.factory.Refund(caller, id)
	}, "escrow refunded")
}

func (h *Handler) fundDeliverable(w http.ResponseWriter, r *http.Request) {
	index, ok := h.indexParam(w, r)
	if !ok {
		return
	}
	amount, ok := h.amountBody(w, r)
	if !ok {
		return
	}
	h.operate(w, r, func(caller string, id invoice.ID) (*escrow.Receipt, error) {
		return h.factory.FundDeliverable(caller, id, index, amount)
	}, "deliverable funded")
}

func (h *Handler) approveDeliverable(w http.ResponseWriter, r *http.Request) {
	index, ok := h.indexParam(w, r)
	if !ok {
		return
	}
	h.operate(w, r, func(caller string, id invoice.ID) (*escrow.Receipt, error) {
		return h.factory.ApproveDeliverable(caller, id, index)
	}, "deliverable approved")
}

func (h *Handler) submitProof(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())
	index, ok := h.indexParam(w, r)
	if !ok {
		return
	}
	var req ProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestID)
		return
	}
	id, ok := h.invoiceIDParam(w, r)
	if !ok {
		return
	}
	if err := h.factory.SubmitProof(identityFromContext(r.Context()), id, index, req.Reference); err != nil {
		writeEngineError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, "proof submitted", nil)
}

// operate runs one state-changing factory call and replies with the
// resulting receipt.
func (h *Handler) operate(w http.ResponseWriter, r *http.Request, op func(string, invoice.ID) (*escrow.Receipt, error), message string) {
	requestID := requestIDFromContext(r.Context())
	id, ok := h.invoiceIDParam(w, r)
	if !ok {
		return
	}
	receipt, err := op(identityFromContext(r.Context()), id)
	if err != nil {
		writeEngineError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, message, toReceiptView(receipt))
}

func (h *Handler) invoiceIDParam(w http.ResponseWriter, r *http.Request) (invoice.ID, bool) {
	id, err := invoice.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err, requestIDFromContext(r.Context()))
		return invoice.ID{}, false
	}
	return id, true
}

func (h *Handler) indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid deliverable index", requestIDFromContext(r.Context()))
		return 0, false
	}
	return index, true
}

func (h *Handler) amountBody(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	var req FundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return 0, false
	}
	amount, err := invoice.ParseAmount(req.Amount)
	if err != nil {
		writeEngineError(w, err, requestIDFromContext(r.Context()))
		return 0, false
	}
	return amount, true
}

// resolveInvoiceID accepts either a hex invoice ID or a free-form
// invoice code to hash.
func resolveInvoiceID(hexID, code string) (invoice.ID, error) {
	if hexID != "" {
		return invoice.ParseID(hexID)
	}
	if code != "" {
		return invoice.HashCode(code), nil
	}
	return invoice.ID{}, invoice.ErrInvalidID
}

func toStatusView(st escrow.Status) StatusView {
	v := StatusView{
		InvoiceID:       st.InvoiceID.String(),
		State:           st.State.String(),
		Creator:         st.Creator,
		Payer:           st.Payer,
		SignedBy:        st.SignedBy,
		TotalAmount:     invoice.FormatAmount(st.TotalAmount),
		FundedAmount:    invoice.FormatAmount(st.FundedAmount),
		CurrentValue:    invoice.FormatAmount(st.CurrentValue),
		AccruedYield:    invoice.FormatAmount(st.AccruedYield),
		AutoReleaseDays: uint32(st.AutoRelease / (24 * time.Hour)),
		CanAutoRelease:  st.CanAutoRelease,
	}
	if st.Capabilities.HasYield() {
		v.Capabilities = append(v.Capabilities, "yield")
	}
	if st.Capabilities.HasDeliverables() {
		v.Capabilities = append(v.Capabilities, "deliverables")
	}
	if st.Capabilities.RequiresSigning() {
		v.Capabilities = append(v.Capabilities, "require_signing")
	}
	if !st.FundedAt.IsZero() {
		v.FundedAt = st.FundedAt.UTC().Format(time.RFC3339)
	}
	for i, d := range st.Deliverables {
		v.Deliverables = append(v.Deliverables, DeliverableView{
			Index:  i,
			Amount: invoice.FormatAmount(d.Amount),
			Status: d.Status.String(),
			Proof:  d.Proof,
		})
	}
	return v
}

func toReceiptView(rc *escrow.Receipt) ReceiptView {
	v := ReceiptView{
		ID:         rc.ID,
		InvoiceID:  rc.InvoiceID.String(),
		Kind:       string(rc.Kind),
		Amount:     invoice.FormatAmount(rc.Amount),
		From:       rc.From,
		To:         rc.To,
		OccurredAt: rc.OccurredAt.UTC().Format(time.RFC3339),
	}
	if rc.Fee > 0 {
		v.Fee = invoice.FormatAmount(rc.Fee)
	}
	if rc.Deliverable >= 0 {
		idx := rc.Deliverable
		v.Deliverable = &idx
	}
	return v
}

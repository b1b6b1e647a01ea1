package httpapi

// Request and response shapes for the JSON surface. Amounts cross the
// wire as decimal strings ("1000.50") and are held as micro-units
// internally.

// SuccessResponse wraps every successful reply.
type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorPayload carries the machine-readable error code alongside the
// sentinel's message.
type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse wraps every failed reply.
type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

// CreateEscrowRequest creates a new escrow for an invoice. Exactly one
// of InvoiceID (hex) or InvoiceCode (free-form, hashed server side) must
// be set.
type CreateEscrowRequest struct {
	InvoiceID   string `json:"invoice_id,omitempty"`
	InvoiceCode string `json:"invoice_code,omitempty"`

	Amount          string `json:"amount"`
	AutoReleaseDays uint32 `json:"auto_release_days,omitempty"`

	Yield          bool     `json:"yield,omitempty"`
	RequireSigning bool     `json:"require_signing,omitempty"`
	Deliverables   []uint64 `json:"deliverable_percents,omitempty"`
}

// FundRequest funds the whole invoice or one deliverable.
type FundRequest struct {
	Amount string `json:"amount"`
}

// ProofRequest attaches an off-chain work reference to a deliverable.
type ProofRequest struct {
	Reference string `json:"reference"`
}

// DeliverableView is one row of the deliverable ledger.
type DeliverableView struct {
	Index  int    `json:"index"`
	Amount string `json:"amount"`
	Status string `json:"status"`
	Proof  string `json:"proof,omitempty"`
}

// StatusView is the display-layer rendering of one escrow.
type StatusView struct {
	InvoiceID    string   `json:"invoice_id"`
	State        string   `json:"state"`
	Capabilities []string `json:"capabilities,omitempty"`

	Creator  string `json:"creator"`
	Payer    string `json:"payer,omitempty"`
	SignedBy string `json:"signed_by,omitempty"`

	TotalAmount  string `json:"total_amount"`
	FundedAmount string `json:"funded_amount"`
	CurrentValue string `json:"current_value"`
	AccruedYield string `json:"accrued_yield"`

	FundedAt        string `json:"funded_at,omitempty"`
	AutoReleaseDays uint32 `json:"auto_release_days"`
	CanAutoRelease  bool   `json:"can_auto_release"`

	Deliverables []DeliverableView `json:"deliverables,omitempty"`
}

// ReceiptView is one journaled operation.
type ReceiptView struct {
	ID          string `json:"id"`
	InvoiceID   string `json:"invoice_id"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Fee         string `json:"fee,omitempty"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	Deliverable *int   `json:"deliverable,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}

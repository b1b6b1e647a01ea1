package escrow

import (
	"time"

	"github.com/arcpay/escrow-go/invoice"
)

// ReceiptKind names the operation a receipt records.
type ReceiptKind string

const (
	// ReceiptSign records a terms signature.
	ReceiptSign ReceiptKind = "sign"
	// ReceiptFund records a funding deposit.
	ReceiptFund ReceiptKind = "fund"
	// ReceiptRelease records a full settlement to the creator.
	ReceiptRelease ReceiptKind = "release"
	// ReceiptRefund records a settlement back to the payer.
	ReceiptRefund ReceiptKind = "refund"
	// ReceiptApprove records a single deliverable release.
	ReceiptApprove ReceiptKind = "approve"
)

// Receipt is the record of one successful state-changing operation. The
// registry journals receipts as the engine's audit trail.
type Receipt struct {
	ID          string      // unique receipt identifier
	InvoiceID   invoice.ID
	Kind        ReceiptKind
	Amount      uint64 // value moved, micro-units
	Fee         uint64 // payer-side fee collected on funding, micro-units
	From        string // identity value moved from
	To          string // identity value moved to; empty while in custody
	Deliverable int    // deliverable index, or -1 for the whole invoice
	OccurredAt  time.Time
}

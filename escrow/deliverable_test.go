package escrow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcpay/escrow-go/invoice"
	"github.com/arcpay/escrow-go/vault"
)

func newDeliverableEscrow(t *testing.T, percents []uint64) (*Escrow, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	e, err := New(&Params{
		InvoiceID:    invoice.HashCode("invoice-milestones"),
		Creator:      creator,
		Amount:       invoiceAmount,
		AutoRelease:  autoRelease,
		Capabilities: CapDeliverables,
		Percents:     percents,
		Clock:        clock.now,
	})
	require.NoError(t, err)
	return e, clock
}

func TestSplitByPercentage(t *testing.T) {
	tests := []struct {
		name     string
		total    uint64
		percents []uint64
		want     []uint64
	}{
		{"even split", 1_000_000_000, []uint64{50, 50}, []uint64{500_000_000, 500_000_000}},
		{"thirds with remainder", 100, []uint64{33, 33, 34}, []uint64{33, 33, 34}},
		{"remainder to last", 1_000_000_001, []uint64{33, 33, 34}, []uint64{330_000_000, 330_000_000, 340_000_001}},
		{"single deliverable", 777, []uint64{100}, []uint64{777}},
		{"uneven", 999, []uint64{10, 20, 70}, []uint64{99, 199, 701}},
		{
			// total*percent exceeds 64 bits; each entry must still be
			// floor(total*percent/100).
			"large invoice",
			200_000_000_000_000_000,
			[]uint64{93, 7},
			[]uint64{186_000_000_000_000_000, 14_000_000_000_000_000},
		},
		{
			"max amount",
			18_446_744_073_709_551_615,
			[]uint64{50, 50},
			[]uint64{9_223_372_036_854_775_807, 9_223_372_036_854_775_808},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitByPercentage(tt.total, tt.percents)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			var sum uint64
			for _, a := range got {
				sum += a
			}
			assert.Equal(t, tt.total, sum, "split must sum to the total exactly")
		})
	}
}

func TestSplitByPercentage_SumInvariant(t *testing.T) {
	// Every distribution summing to 100 must split any total exactly.
	distributions := [][]uint64{
		{1, 99},
		{7, 13, 80},
		{25, 25, 25, 25},
		{1, 1, 1, 97},
		{33, 33, 33, 1},
	}
	totals := []uint64{1, 3, 100, 101, 999_999_937, invoiceAmount, 18_446_744_073_709_551_615}

	for _, percents := range distributions {
		for _, total := range totals {
			amounts, err := SplitByPercentage(total, percents)
			require.NoError(t, err)
			var sum uint64
			for _, a := range amounts {
				sum += a
			}
			assert.Equal(t, total, sum, "percents=%v total=%d", percents, total)
		}
	}
}

func TestSplitByPercentage_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		total    uint64
		percents []uint64
		wantErr  error
	}{
		{"zero total", 0, []uint64{100}, ErrZeroAmount},
		{"no percents", 100, nil, ErrNoDeliverables},
		{"sum below 100", 100, []uint64{40, 40}, ErrBadPercentSum},
		{"sum above 100", 100, []uint64{60, 60}, ErrBadPercentSum},
		{"zero percent entry", 100, []uint64{0, 100}, ErrZeroPercent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SplitByPercentage(tt.total, tt.percents)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFundDeliverable_Sequential(t *testing.T) {
	e, clock := newDeliverableEscrow(t, []uint64{30, 30, 40})
	amounts := []uint64{300_000_000, 300_000_000, 400_000_000}

	// Deliverable 1 cannot be funded before deliverable 0.
	_, err := e.FundDeliverable(payer, 1, amounts[1])
	assert.ErrorIs(t, err, ErrInvalidState)

	rcpt, err := e.FundDeliverable(payer, 0, amounts[0])
	require.NoError(t, err)
	assert.Equal(t, StateActive, e.State())
	assert.Equal(t, payer, e.Payer())
	assert.Equal(t, 0, rcpt.Deliverable)
	assert.Equal(t, clock.now(), e.Status().FundedAt)

	fundedAt := e.Status().FundedAt
	clock.advance(time.Hour)

	// A different payer may not fund the remaining deliverables.
	_, err = e.FundDeliverable("other-payer", 1, amounts[1])
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = e.FundDeliverable(payer, 1, amounts[1])
	require.NoError(t, err)

	// FundedAt stamps the first funding only.
	assert.Equal(t, fundedAt, e.Status().FundedAt)

	// Double funding one deliverable is rejected.
	_, err = e.FundDeliverable(payer, 1, amounts[1])
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = e.FundDeliverable(payer, 2, amounts[2])
	require.NoError(t, err)
	assert.Equal(t, invoiceAmount, e.OriginalPrincipal())
}

func TestFundDeliverable_AmountMismatch(t *testing.T) {
	e, _ := newDeliverableEscrow(t, []uint64{50, 50})

	// The full invoice amount is not a valid deliverable amount.
	_, err := e.FundDeliverable(payer, 0, invoiceAmount)
	assert.ErrorIs(t, err, ErrAmountMismatch)

	_, err = e.FundDeliverable(payer, 0, 499_999_999)
	assert.ErrorIs(t, err, ErrAmountMismatch)

	assert.Equal(t, StateCreated, e.State())
}

func TestFundDeliverable_Errors(t *testing.T) {
	e, _ := newDeliverableEscrow(t, []uint64{50, 50})

	_, err := e.FundDeliverable(creator, 0, 500_000_000)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = e.FundDeliverable(payer, -1, 500_000_000)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = e.FundDeliverable(payer, 2, 500_000_000)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	// Whole-invoice funding is not available on a deliverable invoice.
	_, err = e.Fund(payer, invoiceAmount)
	assert.ErrorIs(t, err, ErrInvalidState)

	// Nor is whole-invoice release.
	_, err = e.Release(payer)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestApproveDeliverable(t *testing.T) {
	e, _ := newDeliverableEscrow(t, []uint64{50, 50})

	_, err := e.FundDeliverable(payer, 0, 500_000_000)
	require.NoError(t, err)

	// Only the creator may approve.
	_, err = e.ApproveDeliverable(payer, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// A pending deliverable cannot be approved.
	_, err = e.ApproveDeliverable(creator, 1)
	assert.ErrorIs(t, err, ErrInvalidState)

	rcpt, err := e.ApproveDeliverable(creator, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), rcpt.Amount)
	assert.Equal(t, creator, rcpt.To)
	assert.Equal(t, 0, rcpt.Deliverable)

	// Still active: one deliverable remains.
	assert.Equal(t, StateActive, e.State())

	// Double approval is rejected.
	_, err = e.ApproveDeliverable(creator, 0)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = e.FundDeliverable(payer, 1, 500_000_000)
	require.NoError(t, err)
	_, err = e.ApproveDeliverable(creator, 1)
	require.NoError(t, err)

	// Approving the last deliverable completes the instance.
	assert.Equal(t, StateCompleted, e.State())
}

func TestSubmitProof(t *testing.T) {
	e, _ := newDeliverableEscrow(t, []uint64{50, 50})

	// Creator may submit proof before funding.
	require.NoError(t, e.SubmitProof(creator, 0, "ipfs://QmProof0"))
	assert.Equal(t, "ipfs://QmProof0", e.Status().Deliverables[0].Proof)

	// Only the creator may submit.
	err := e.SubmitProof(payer, 1, "ipfs://QmProof1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Proof submission changes no funding or approval state.
	assert.Equal(t, StateCreated, e.State())
	assert.Equal(t, DeliverablePending, e.Status().Deliverables[0].Status)

	// Re-submission overwrites the reference.
	require.NoError(t, e.SubmitProof(creator, 0, "ipfs://QmProof0v2"))
	assert.Equal(t, "ipfs://QmProof0v2", e.Status().Deliverables[0].Proof)

	// After approval the reference is frozen.
	_, err = e.FundDeliverable(payer, 0, 500_000_000)
	require.NoError(t, err)
	_, err = e.ApproveDeliverable(creator, 0)
	require.NoError(t, err)
	err = e.SubmitProof(creator, 0, "ipfs://QmLate")
	assert.ErrorIs(t, err, ErrInvalidState)
}

// TestRefund_AfterPartialApprovals pins the refund-after-partial-release
// behavior: approved deliverables stay paid, the refund settles only the
// remaining funded value.
func TestRefund_AfterPartialApprovals(t *testing.T) {
	e, _ := newDeliverableEscrow(t, []uint64{30, 30, 40})

	_, err := e.FundDeliverable(payer, 0, 300_000_000)
	require.NoError(t, err)
	_, err = e.FundDeliverable(payer, 1, 300_000_000)
	require.NoError(t, err)

	_, err = e.ApproveDeliverable(creator, 0)
	require.NoError(t, err)

	rcpt, err := e.Refund(creator)
	require.NoError(t, err)

	// Only deliverable 1's value comes back; deliverable 0 was released
	// and deliverable 2 was never funded.
	assert.Equal(t, uint64(300_000_000), rcpt.Amount)
	assert.Equal(t, payer, rcpt.To)
	assert.Equal(t, StateRefunded, e.State())

	// Terminal: no further funding or approval.
	_, err = e.FundDeliverable(payer, 2, 400_000_000)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = e.ApproveDeliverable(creator, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDeliverables_WithYield(t *testing.T) {
	clock := newFakeClock()
	v, err := vault.NewVaultWithClock("vault-admin", 500, clock.now)
	require.NoError(t, err)

	e, err := New(&Params{
		InvoiceID:    invoice.HashCode("invoice-yield-milestones"),
		Creator:      creator,
		Amount:       invoiceAmount,
		AutoRelease:  autoRelease,
		Capabilities: CapDeliverables | CapYield,
		Percents:     []uint64{50, 50},
		Vault:        v,
		Clock:        clock.now,
	})
	require.NoError(t, err)

	_, err = e.FundDeliverable(payer, 0, 500_000_000)
	require.NoError(t, err)
	_, err = e.FundDeliverable(payer, 1, 500_000_000)
	require.NoError(t, err)

	clock.advance(365 * 24 * time.Hour)
	v.Accrue()

	rcpt, err := e.ApproveDeliverable(creator, 0)
	require.NoError(t, err)
	assert.Greater(t, rcpt.Amount, uint64(500_000_000))

	// Refund of the remaining deliverable also carries its yield.
	rcpt, err = e.Refund(creator)
	require.NoError(t, err)
	assert.Greater(t, rcpt.Amount, uint64(500_000_000))
	assert.Equal(t, StateRefunded, e.State())

	// All shares held by this escrow are redeemed.
	assert.Equal(t, uint64(0), v.BalanceOf(e.InvoiceID().String()))
}

func TestCapabilities_Flags(t *testing.T) {
	tests := []struct {
		caps         Capabilities
		yield        bool
		deliverables bool
		signing      bool
	}{
		{0, false, false, false},
		{CapYield, true, false, false},
		{CapDeliverables, false, true, false},
		{CapRequireSigning, false, false, true},
		{CapYield | CapDeliverables | CapRequireSigning, true, true, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.yield, tt.caps.HasYield())
		assert.Equal(t, tt.deliverables, tt.caps.HasDeliverables())
		assert.Equal(t, tt.signing, tt.caps.RequiresSigning())
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "signed", StateSigned.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.Equal(t, "refunded", StateRefunded.String())
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateRefunded.Terminal())
	assert.False(t, StateActive.Terminal())
}

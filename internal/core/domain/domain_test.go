package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerchant_CanRequestPayout(t *testing.T) {
	tests := []struct {
		name    string
		kyc     KYCStatus
		enabled bool
		want    bool
	}{
		{"approved and enabled", KYCStatusApproved, true, true},
		{"approved but disabled", KYCStatusApproved, false, false},
		{"pending kyc", KYCStatusPending, true, false},
		{"rejected kyc", KYCStatusRejected, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Merchant{KYCStatus: tt.kyc, Enabled: tt.enabled}
			assert.Equal(t, tt.want, m.CanRequestPayout())
		})
	}
}

func TestTransaction_CanSettle(t *testing.T) {
	tests := []struct {
		name    string
		status  TransactionStatus
		settled bool
		want    bool
	}{
		{"pending unsettled", TransactionStatusPending, false, true},
		{"pending settled", TransactionStatusPending, true, false},
		{"success", TransactionStatusSuccess, true, false},
		{"failed", TransactionStatusFailed, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &Transaction{Status: tt.status, Settled: tt.settled}
			assert.Equal(t, tt.want, tx.CanSettle())
		})
	}
}

func TestTransaction_IsTerminal(t *testing.T) {
	assert.False(t, (&Transaction{Status: TransactionStatusPending}).IsTerminal())
	assert.True(t, (&Transaction{Status: TransactionStatusSuccess}).IsTerminal())
	assert.True(t, (&Transaction{Status: TransactionStatusFailed}).IsTerminal())
}

func TestPayout_IsTerminal(t *testing.T) {
	assert.False(t, (&Payout{Status: PayoutStatusPending}).IsTerminal())
	assert.True(t, (&Payout{Status: PayoutStatusSuccess}).IsTerminal())
	assert.True(t, (&Payout{Status: PayoutStatusFailed}).IsTerminal())
}

func TestReferencePrefixes(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewFiatReference(), "TX-"))
	assert.True(t, strings.HasPrefix(NewCryptoReference(), "CR-"))
	assert.True(t, strings.HasPrefix(NewPayoutReference(), "PO-"))

	// References are globally unique idempotency keys.
	assert.NotEqual(t, NewFiatReference(), NewFiatReference())
	assert.Len(t, NewFiatReference(), 3+32)
}

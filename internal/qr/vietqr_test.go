package qr

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAccount = Account{BankCode: "MB", Number: "6868688868888", Name: "CONG TY OPERIS"}

func TestDepositURL(t *testing.T) {
	got := DepositURL(testAccount, decimal.NewFromInt(5000000), "a1b2c3d4-e5f6-7890-abcd-ef0123456789")

	assert.True(t, strings.HasPrefix(got, "https://img.vietqr.io/image/MB-6868688868888-compact.jpg?"))

	parsed, err := url.Parse(got)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "5000000", q.Get("amount"))
	assert.Equal(t, "Coc DuAn A1B2C3D4", q.Get("addInfo"))
	assert.Equal(t, "CONG TY OPERIS", q.Get("accountName"))
}

func TestPhaseURLNumbersFromOne(t *testing.T) {
	got := PhaseURL(testAccount, decimal.NewFromInt(1500000), "a1b2c3d4-e5f6-7890-abcd-ef0123456789", 0)

	parsed, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "GD1 A1B2C3D4", parsed.Query().Get("addInfo"))

	got = PhaseURL(testAccount, decimal.NewFromInt(1500000), "a1b2c3d4-e5f6-7890-abcd-ef0123456789", 2)
	parsed, err = url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "GD3 A1B2C3D4", parsed.Query().Get("addInfo"))
}

func TestShortIDHandlesShortInput(t *testing.T) {
	assert.Equal(t, "ABC", shortID("abc"))
}

func TestAmountRendersWithoutDecimals(t *testing.T) {
	got := DepositURL(testAccount, decimal.RequireFromString("500000.00"), "deadbeef")
	parsed, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "500000", parsed.Query().Get("amount"))
}

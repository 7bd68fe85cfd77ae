// Package qr builds VietQR payment image URLs. The URL is a display
// convenience only: payment confirmation always happens through the
// submit/approve workflow, never through this image.
package qr

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const baseURL = "https://img.vietqr.io/image"

// Account identifies the receiving bank account rendered into the QR image.
type Account struct {
	BankCode string
	Number   string
	Name     string
}

// DepositURL returns the QR image URL for a proposal's deposit payment.
// The memo carries the first 8 characters of the project id.
func DepositURL(acc Account, amount decimal.Decimal, projectID string) string {
	memo := fmt.Sprintf("Coc DuAn %s", shortID(projectID))
	return build(acc, amount, memo)
}

// PhaseURL returns the QR image URL for a phase payment. Phase numbering in
// the memo is 1-based.
func PhaseURL(acc Account, amount decimal.Decimal, projectID string, phaseIndex int) string {
	memo := fmt.Sprintf("GD%d %s", phaseIndex+1, shortID(projectID))
	return build(acc, amount, memo)
}

func build(acc Account, amount decimal.Decimal, memo string) string {
	return fmt.Sprintf("%s/%s-%s-compact.jpg?amount=%s&addInfo=%s&accountName=%s",
		baseURL, acc.BankCode, acc.Number,
		amount.StringFixed(0),
		url.QueryEscape(memo),
		url.QueryEscape(acc.Name))
}

func shortID(id string) string {
	id = strings.ToUpper(id)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

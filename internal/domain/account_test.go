package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAccount_Debit(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		amount  string
		want    string
		wantErr error
	}{
		{name: "leaves remainder", balance: "100", amount: "99.99", want: "0.01"},
		{name: "drains to zero", balance: "100", amount: "100", want: "0"},
		{name: "one cent short", balance: "50.00", amount: "50.01", want: "50.00", wantErr: ErrInsufficientBalance},
		{name: "far above balance", balance: "100", amount: "150", want: "100", wantErr: ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Balance: decimal.RequireFromString(tt.balance)}

			got, err := acc.Debit(decimal.RequireFromString(tt.amount))

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("expected balance %s, got %s", tt.want, got)
			}
			if !acc.Balance.Equal(decimal.RequireFromString(tt.balance)) {
				t.Errorf("debit must not modify the account, balance is %s", acc.Balance)
			}
		})
	}
}

func TestAccount_Credit(t *testing.T) {
	acc := &Account{Balance: decimal.RequireFromString("1000.00")}

	got := acc.Credit(decimal.RequireFromString("100.25"))

	if got.StringFixed(2) != "1100.25" {
		t.Errorf("expected balance 1100.25, got %s", got.StringFixed(2))
	}
	if acc.Balance.StringFixed(2) != "1000.00" {
		t.Errorf("credit must not modify the account, balance is %s", acc.Balance)
	}
}

func TestAccount_Deleted(t *testing.T) {
	acc := &Account{}
	if acc.Deleted() {
		t.Fatalf("fresh account reported as deleted")
	}

	now := time.Now()
	acc.DeletedAt = &now
	if !acc.Deleted() {
		t.Fatalf("expected soft-deleted account to be reported as deleted")
	}
}

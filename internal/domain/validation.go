package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MinAccountNameLength = 1

	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*limit inside an int32 OFFSET.
	MaxPage = 1_000_000

	// MaxAmountScale matches the NUMERIC(38,8) amount columns.
	MaxAmountScale = 8
)

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinAccountNameLength {
		return Wrap(ErrInvalidAccountName, fmt.Errorf("name cannot be empty"))
	}

	if len(name) > MaxAccountNameLength {
		return Wrap(ErrInvalidAccountName, fmt.Errorf("name exceeds %d characters", MaxAccountNameLength))
	}

	return nil
}

// ValidateAmountScale rejects amounts the store would have to round.
func ValidateAmountScale(amount decimal.Decimal) error {
	if amount.Exponent() < -MaxAmountScale && !amount.Equal(amount.Truncate(MaxAmountScale)) {
		return ErrAmountScale
	}
	return nil
}

// NormalizePagination applies page/limit defaults and caps the page and
// the page size.
func NormalizePagination(page, limit int) (int, int) {
	if page <= 0 {
		page = DefaultPage
	}

	if page > MaxPage {
		page = MaxPage
	}

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	return page, limit
}

// TotalPages returns how many pages of size limit cover total items.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

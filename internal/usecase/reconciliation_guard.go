package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/iho/payledger/internal/domain"
)

// reconciliationGuard remembers which provider facts already produced a
// ledger entry. The payment and webhook flows share it so one settled
// invoice is booked once, whichever flow sees it first.
type reconciliationGuard struct {
	cache Cache
	ttl   time.Duration
}

func newReconciliationGuard(cache Cache, ttl time.Duration) reconciliationGuard {
	if ttl <= 0 {
		ttl = DefaultWebhookDedupTTL
	}
	return reconciliationGuard{cache: cache, ttl: ttl}
}

// reserve claims key and reports whether this caller owns it. Without a
// cache every caller owns every key.
func (g reconciliationGuard) reserve(ctx context.Context, key, tenantID string) (bool, error) {
	if g.cache == nil {
		return true, nil
	}
	return g.cache.SetNX(ctx, key, []byte(tenantID), g.ttl)
}

// release forgets key so a later delivery can book it.
func (g reconciliationGuard) release(ctx context.Context, key string) error {
	if g.cache == nil {
		return nil
	}
	return g.cache.Delete(context.WithoutCancel(ctx), key)
}

// reconciliationKey identifies one provider fact within one tenant.
func reconciliationKey(tenantID string, provider domain.ProviderKind, externalInvoiceID string, txType domain.WebhookTransactionType, status domain.PaymentStatus) string {
	return strings.Join([]string{
		"reconciled",
		tenantID,
		string(provider),
		externalInvoiceID,
		string(txType),
		string(status),
	}, ":")
}

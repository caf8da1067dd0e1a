package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultNotificationTimeout bounds a single post-commit notification.
	DefaultNotificationTimeout = 5 * time.Second

	// DefaultWebhookDedupTTL is how long a reconciled webhook key is remembered.
	DefaultWebhookDedupTTL = 72 * time.Hour
)

// Log origins
const (
	originLedger  = "LedgerUseCase"
	originBalance = "BalanceLedger"
	originManager = "PaymentManager"
	originWebhook = "WebhookUseCase"
	originRefund  = "RefundUseCase"
	originPayment = "PaymentUseCase"
	originAccount = "AccountUseCase"
)

// Package notifier delivers post-commit ledger notifications to downstream
// consumers. Every implementation satisfies usecase.Notifier; delivery may
// fail and callers log and drop the error.
package notifier

import (
	"encoding/json"
	"fmt"

	"github.com/iho/payledger/internal/domain"
)

func encode(n *domain.Notification) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("notification is nil")
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notification %s: %w", n.ID, err)
	}
	return payload, nil
}

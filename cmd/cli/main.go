package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/auth"
)

type options struct {
	baseURL  string
	timeout  time.Duration
	tenantID string
	userID   string
	token    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "payledger-cli",
		Short:         "PayLedger CLI tool",
		Long:          `A command line interface for interacting with the PayLedger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the PayLedger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.tenantID, "tenant", os.Getenv("PAYLEDGER_TENANT"), "Tenant ID")
	rootCmd.PersistentFlags().StringVar(&opts.userID, "user", os.Getenv("PAYLEDGER_USER"), "Acting user ID")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("PAYLEDGER_TOKEN"), "Bearer token (overrides tenant and user headers)")

	rootCmd.AddCommand(
		healthCmd(opts),
		entriesCmd(opts),
		paymentsCmd(opts),
		auditCmd(opts),
		tokenCmd(),
	)

	return rootCmd
}

func healthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check service readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result map[string]string
			if err := newClient(opts).do(cmd.Context(), http.MethodGet, "/ready", nil, &result); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func entriesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Ledger entry operations",
	}

	var status, entryType string
	var page, limit int

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("page", fmt.Sprint(page))
			q.Set("limit", fmt.Sprint(limit))
			if status != "" {
				q.Set("status", status)
			}
			if entryType != "" {
				q.Set("type", entryType)
			}

			var result entryPage
			if err := newClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/ledger-entries?"+q.Encode(), nil, &result); err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), result)
		},
	}
	listCmd.Flags().StringVar(&status, "status", "", "Filter by status")
	listCmd.Flags().StringVar(&entryType, "type", "", "Filter by type")
	listCmd.Flags().IntVar(&page, "page", domain.DefaultPage, "Page number")
	listCmd.Flags().IntVar(&limit, "limit", domain.DefaultPageSize, "Page size")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a ledger entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result map[string]any
			if err := newClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/ledger-entries/"+url.PathEscape(args[0]), nil, &result); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.AddCommand(listCmd, getCmd)
	return cmd
}

func paymentsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Payment operations",
	}

	var toAccount, amount, method, idempotencyKey string

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Charge a payment into an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"to_account_id":       toAccount,
				"amount":              amount,
				"payment_method_type": strings.ToUpper(method),
			}

			c := newClient(opts)
			c.idempotencyKey = idempotencyKey

			var result map[string]any
			if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/payments", body, &result); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	createCmd.Flags().StringVar(&toAccount, "to", "", "Destination account ID")
	createCmd.Flags().StringVar(&amount, "amount", "", "Amount, e.g. 10.50")
	createCmd.Flags().StringVar(&method, "method", string(domain.PaymentMethodPix), "Payment method")
	createCmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key")
	_ = createCmd.MarkFlagRequired("to")
	_ = createCmd.MarkFlagRequired("amount")

	cmd.AddCommand(createCmd)
	return cmd
}

func auditCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Recompute balances from committed ledger entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				TotalAccounts      int               `json:"total_accounts"`
				ReconciledAccounts int               `json:"reconciled_accounts"`
				Discrepancies      []json.RawMessage `json:"discrepancies"`
			}
			path := fmt.Sprintf("/api/v1/audit/balances?limit=%d", limit)
			if err := newClient(opts).do(cmd.Context(), http.MethodGet, path, nil, &result); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Accounts checked: %d\n", result.TotalAccounts)
			fmt.Fprintf(out, "Reconciled: %d\n", result.ReconciledAccounts)
			if len(result.Discrepancies) > 0 {
				fmt.Fprintf(out, "Balance audit FAILED: %d discrepancies\n", len(result.Discrepancies))
				return fmt.Errorf("%d accounts do not reconcile", len(result.Discrepancies))
			}
			fmt.Fprintln(out, "Balance audit PASSED")
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of accounts to audit (0 for all)")

	return cmd
}

func tokenCmd() *cobra.Command {
	var secret, tenantID, userID string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.NewJWTManager(secret, ttl).Generate(domain.Session{TenantID: tenantID, UserID: userID})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret")
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID")
	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

type apiClient struct {
	http           *http.Client
	opts           *options
	idempotencyKey string
}

func newClient(opts *options) *apiClient {
	return &apiClient{http: &http.Client{Timeout: opts.timeout}, opts: opts}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.opts.baseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.token)
	} else {
		req.Header.Set("X-Tenant-ID", c.opts.tenantID)
		req.Header.Set("X-User-ID", c.opts.userID)
	}
	if c.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", c.idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error   string `json:"error"`
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (status %d, code %s)", apiErr.Error, resp.StatusCode, apiErr.Code)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

type entryPage struct {
	Items []struct {
		ID     string `json:"id"`
		Type   string `json:"type"`
		Status string `json:"status"`
		Amount string `json:"amount"`
	} `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
}

func printEntries(w io.Writer, page entryPage) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tAMOUNT")
	for _, e := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", truncate(e.ID, 26), e.Type, e.Status, e.Amount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "page %d of %d (%d entries)\n", page.Page, page.TotalPages, page.Total)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

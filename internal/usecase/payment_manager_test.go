package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/metrics"
	"github.com/iho/payledger/internal/usecase"
	"github.com/iho/payledger/internal/usecase/gomocks"
)

const (
	kindAlpha domain.ProviderKind = "ALPHA"
	kindBeta  domain.ProviderKind = "BETA"
)

func newProvider(ctrl *gomock.Controller, kind domain.ProviderKind) *gomocks.MockPaymentProvider {
	p := gomocks.NewMockPaymentProvider(ctrl)
	p.EXPECT().Kind().Return(kind).AnyTimes()
	return p
}

type managerFixture struct {
	primary  *gomocks.MockPaymentProvider
	fallback *gomocks.MockPaymentProvider
	metrics  *metrics.Metrics
	manager  *usecase.PaymentManager
}

// newManagerFixture routes tenant "t1" to ALPHA, falling back to BETA when withFallback is set.
func newManagerFixture(t *testing.T, withFallback bool) *managerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &managerFixture{
		primary:  newProvider(ctrl, kindAlpha),
		fallback: newProvider(ctrl, kindBeta),
		metrics:  metrics.NewWithRegistry(prometheus.NewRegistry()),
	}

	route := usecase.ProviderRoute{Primary: kindAlpha}
	if withFallback {
		route.Fallback = kindBeta
	}

	selector, err := usecase.NewProviderSelector(
		[]usecase.PaymentProvider{f.primary, f.fallback},
		usecase.ProviderRoute{Primary: kindAlpha},
		map[string]usecase.ProviderRoute{"t1": route},
	)
	require.NoError(t, err)

	f.manager = usecase.NewPaymentManager(selector, f.metrics, zerolog.Nop())
	return f
}

func invoiceRequest() domain.CreatePaymentRequest {
	return domain.CreatePaymentRequest{
		TenantID:          "t1",
		Amount:            decimal.RequireFromString("50.00"),
		PaymentMethodType: domain.PaymentMethodCreditCard,
	}
}

func TestPaymentManager_CreateInvoicePrimarySucceeds(t *testing.T) {
	f := newManagerFixture(t, true)

	f.primary.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).
		Return(&domain.PaymentResult{ExternalInvoiceID: "inv-1", Status: domain.PaymentStatusPaid}, nil).Times(1)
	f.fallback.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Times(0)

	result, err := f.manager.CreateInvoice(context.Background(), invoiceRequest())
	require.NoError(t, err)

	assert.Equal(t, "inv-1", result.ExternalInvoiceID)
	assert.Equal(t, kindAlpha, result.Provider)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ProviderCalls.WithLabelValues("ALPHA", "create_payment", "ok")))
}

func TestPaymentManager_CreateInvoiceFallsBackOnError(t *testing.T) {
	f := newManagerFixture(t, true)

	f.primary.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout")).Times(1)
	f.fallback.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).
		Return(&domain.PaymentResult{ExternalInvoiceID: "inv-2", Status: domain.PaymentStatusOpen}, nil).Times(1)

	result, err := f.manager.CreateInvoice(context.Background(), invoiceRequest())
	require.NoError(t, err)

	assert.Equal(t, "inv-2", result.ExternalInvoiceID)
	assert.Equal(t, kindBeta, result.Provider)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.PaymentFallbacks.WithLabelValues("ALPHA", "BETA", "error")))
}

func TestPaymentManager_CreateInvoiceFallsBackOnCancel(t *testing.T) {
	f := newManagerFixture(t, true)

	f.primary.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).
		Return(&domain.PaymentResult{ExternalInvoiceID: "inv-1", Status: domain.PaymentStatusCanceled}, nil).Times(1)
	f.fallback.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).
		Return(&domain.PaymentResult{ExternalInvoiceID: "inv-2", Status: domain.PaymentStatusPaid}, nil).Times(1)

	result, err := f.manager.CreateInvoice(context.Background(), invoiceRequest())
	require.NoError(t, err)

	assert.Equal(t, "inv-2", result.ExternalInvoiceID)
	assert.Equal(t, domain.PaymentStatusPaid, result.Status)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.PaymentFallbacks.WithLabelValues("ALPHA", "BETA", "canceled")))
}

func TestPaymentManager_CanceledWithoutFallbackIsReturned(t *testing.T) {
	f := newManagerFixture(t, false)

	f.primary.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).
		Return(&domain.PaymentResult{ExternalInvoiceID: "inv-1", Status: domain.PaymentStatusCanceled}, nil).Times(1)
	f.fallback.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Times(0)

	result, err := f.manager.CreateInvoice(context.Background(), invoiceRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCanceled, result.Status)
}

func TestPaymentManager_NoFallbackConfigured(t *testing.T) {
	f := newManagerFixture(t, false)

	f.primary.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom")).Times(1)
	f.fallback.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Times(0)

	_, err := f.manager.CreateInvoice(context.Background(), invoiceRequest())
	require.Error(t, err)

	assert.Equal(t, domain.KindExternalSource, domain.KindOf(err))
	assert.ErrorContains(t, err, "boom")
}

func TestPaymentManager_BothProvidersFail(t *testing.T) {
	f := newManagerFixture(t, true)

	primaryErr := errors.New("primary down")
	fallbackErr := errors.New("fallback down")
	f.primary.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(nil, primaryErr).Times(1)
	f.fallback.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(nil, fallbackErr).Times(1)

	_, err := f.manager.CreateInvoice(context.Background(), invoiceRequest())
	require.Error(t, err)

	assert.Equal(t, domain.KindExternalSource, domain.KindOf(err))
	assert.ErrorIs(t, err, primaryErr)
	assert.ErrorIs(t, err, fallbackErr)
	assert.ErrorContains(t, err, "ALPHA")
	assert.ErrorContains(t, err, "BETA")
}

func TestPaymentManager_CreateInvoiceRejectsBadInput(t *testing.T) {
	f := newManagerFixture(t, true)
	f.primary.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Times(0)

	req := invoiceRequest()
	req.Amount = decimal.Zero
	_, err := f.manager.CreateInvoice(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	req = invoiceRequest()
	req.PaymentMethodType = "CASH"
	_, err = f.manager.CreateInvoice(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)
}

func TestPaymentManager_RefundNeverFallsBack(t *testing.T) {
	f := newManagerFixture(t, true)

	f.primary.EXPECT().RefundPayment(gomock.Any(), gomock.Any()).Return(nil, errors.New("refund down")).Times(1)
	f.fallback.EXPECT().RefundPayment(gomock.Any(), gomock.Any()).Times(0)

	_, err := f.manager.RefundPayment(context.Background(), domain.RefundRequest{
		TenantID:          "t1",
		ExternalInvoiceID: "inv-1",
		ValueToRefund:     decimal.RequireFromString("10"),
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindExternalSource, domain.KindOf(err))
}

func TestPaymentManager_HandleWebhookFillsProvider(t *testing.T) {
	f := newManagerFixture(t, false)

	f.primary.EXPECT().HandleWebhookNotification(gomock.Any(), "t1", []byte(`{}`)).
		Return(&domain.WebhookResult{
			ExternalInvoiceID: "inv-1",
			TransactionType:   domain.WebhookTransactionPayment,
			Status:            domain.PaymentStatusPaid,
			Amount:            decimal.RequireFromString("10"),
		}, nil)

	result, err := f.manager.HandleWebhookNotification(context.Background(), "t1", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, kindAlpha, result.Provider)
}

func TestPaymentManager_HandleWebhookKeepsRejectedEventError(t *testing.T) {
	f := newManagerFixture(t, false)

	f.primary.EXPECT().HandleWebhookNotification(gomock.Any(), "t1", gomock.Any()).
		Return(nil, domain.ErrWebhookInvoiceMismatch)
	f.primary.EXPECT().HandleWebhookNotification(gomock.Any(), "t1", gomock.Any()).
		Return(nil, errors.New("gateway timeout"))

	_, err := f.manager.HandleWebhookNotification(context.Background(), "t1", []byte(`{}`))
	assert.ErrorIs(t, err, domain.ErrWebhookInvoiceMismatch)
	assert.Equal(t, domain.KindDomain, domain.KindOf(err))

	_, err = f.manager.HandleWebhookNotification(context.Background(), "t1", []byte(`{}`))
	assert.Equal(t, domain.KindExternalSource, domain.KindOf(err))
}

func TestPaymentManager_ExtractExternalInvoiceID(t *testing.T) {
	f := newManagerFixture(t, false)

	f.primary.EXPECT().ExtractExternalInvoiceID([]byte(`a`)).Return("inv-9", nil)
	f.primary.EXPECT().ExtractExternalInvoiceID([]byte(`b`)).Return("", nil)
	f.primary.EXPECT().ExtractExternalInvoiceID([]byte(`c`)).Return("", errors.New("garbled"))

	id, err := f.manager.ExtractExternalInvoiceID(context.Background(), "t1", []byte(`a`))
	require.NoError(t, err)
	assert.Equal(t, "inv-9", id)

	_, err = f.manager.ExtractExternalInvoiceID(context.Background(), "t1", []byte(`b`))
	assert.ErrorIs(t, err, domain.ErrMissingExternalInvoice)

	_, err = f.manager.ExtractExternalInvoiceID(context.Background(), "t1", []byte(`c`))
	assert.Equal(t, domain.KindExternalSource, domain.KindOf(err))
}

func TestPaymentManager_ComputeTax(t *testing.T) {
	f := newManagerFixture(t, false)

	amount := decimal.RequireFromString("100")
	f.primary.EXPECT().ComputeTax(gomock.Any(), amount, domain.PaymentMethodPix, true).
		Return(decimal.RequireFromString("1.50"), nil)

	tax, err := f.manager.ComputeTax(context.Background(), "t1", amount, domain.PaymentMethodPix, true)
	require.NoError(t, err)
	assert.Equal(t, "1.50", tax.StringFixed(2))

	_, err = f.manager.ComputeTax(context.Background(), "t1", decimal.Zero, domain.PaymentMethodPix, true)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestPaymentManager_Recipients(t *testing.T) {
	f := newManagerFixture(t, false)

	req := domain.RecipientRequest{
		TenantID:      "t1",
		Name:          "Ana",
		Document:      "12345678900",
		BankCode:      "001",
		AccountNumber: "4321",
	}
	f.primary.EXPECT().CreateRecipient(gomock.Any(), req).
		Return(&domain.Recipient{ExternalID: "rcp-1", Name: "Ana"}, nil)
	f.primary.EXPECT().UpdateRecipient(gomock.Any(), "rcp-1", req).
		Return(&domain.Recipient{ExternalID: "rcp-1", Name: "Ana"}, nil)

	created, err := f.manager.CreateRecipient(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "rcp-1", created.ExternalID)

	_, err = f.manager.UpdateRecipient(context.Background(), "rcp-1", req)
	require.NoError(t, err)

	_, err = f.manager.UpdateRecipient(context.Background(), "", req)
	assert.ErrorIs(t, err, domain.ErrInvalidRecipient)

	_, err = f.manager.CreateRecipient(context.Background(), domain.RecipientRequest{TenantID: "t1"})
	assert.ErrorIs(t, err, domain.ErrInvalidRecipient)
}

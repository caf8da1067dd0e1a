package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/usecase"
	"github.com/iho/payledger/internal/usecase/mocks"
)

func refundInput() usecase.ProcessRefundInput {
	return usecase.ProcessRefundInput{
		TenantID:          "t1",
		ExternalInvoiceID: "inv-1",
		FromAccountID:     "a1",
		ValueToRefund:     decimal.RequireFromString("20.00"),
		CreatedBy:         "u1",
	}
}

func TestRefundUseCase_Withdraws(t *testing.T) {
	tests := []struct {
		name     string
		refunded string
		want     string
	}{
		{name: "uses refunded value", refunded: "15.00", want: "15.00"},
		{name: "falls back to requested value", refunded: "0", want: "20.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newManagerFixture(t, true)
			ledger := &mocks.MockLedgerEntryCreator{}
			uc := usecase.NewRefundUseCase(f.manager, ledger, f.metrics, zerolog.Nop())

			f.primary.EXPECT().RefundPayment(gomock.Any(), gomock.Any()).
				Return(&domain.RefundResult{Success: true, RefundedValue: decimal.RequireFromString(tt.refunded)}, nil)

			out, err := uc.ProcessRefund(context.Background(), refundInput())
			require.NoError(t, err)
			require.NotNil(t, out.LedgerEntry)

			inputs := ledger.Inputs()
			require.Len(t, inputs, 1)
			assert.Equal(t, domain.LedgerEntryTypeWithdrawal, inputs[0].Type)
			assert.Equal(t, "a1", *inputs[0].FromAccountID)
			assert.Equal(t, tt.want, inputs[0].Amount.StringFixed(2))
		})
	}
}

func TestRefundUseCase_NotSuccessful(t *testing.T) {
	f := newManagerFixture(t, false)
	ledger := &mocks.MockLedgerEntryCreator{}
	uc := usecase.NewRefundUseCase(f.manager, ledger, nil, zerolog.Nop())

	f.primary.EXPECT().RefundPayment(gomock.Any(), gomock.Any()).Return(&domain.RefundResult{Success: false}, nil)

	_, err := uc.ProcessRefund(context.Background(), refundInput())
	assert.ErrorIs(t, err, domain.ErrRefundNotSuccessful)
	assert.Empty(t, ledger.Inputs())
}

func TestRefundUseCase_LedgerFailure(t *testing.T) {
	f := newManagerFixture(t, false)
	ledger := &mocks.MockLedgerEntryCreator{
		CreateLedgerEntryFunc: func(ctx context.Context, input usecase.CreateLedgerEntryInput) (*domain.LedgerEntry, error) {
			return nil, domain.ErrInsufficientBalance
		},
	}
	uc := usecase.NewRefundUseCase(f.manager, ledger, f.metrics, zerolog.Nop())

	f.primary.EXPECT().RefundPayment(gomock.Any(), gomock.Any()).
		Return(&domain.RefundResult{Success: true, RefundedValue: decimal.RequireFromString("20")}, nil)

	_, err := uc.ProcessRefund(context.Background(), refundInput())
	assert.ErrorIs(t, err, domain.ErrRefundLedgerFailed)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestRefundUseCase_ProviderFailure(t *testing.T) {
	f := newManagerFixture(t, false)
	uc := usecase.NewRefundUseCase(f.manager, &mocks.MockLedgerEntryCreator{}, nil, zerolog.Nop())

	f.primary.EXPECT().RefundPayment(gomock.Any(), gomock.Any()).Return(nil, errors.New("down"))

	_, err := uc.ProcessRefund(context.Background(), refundInput())
	assert.Equal(t, domain.KindExternalSource, domain.KindOf(err))
}

func TestRefundUseCase_Validation(t *testing.T) {
	f := newManagerFixture(t, false)
	uc := usecase.NewRefundUseCase(f.manager, &mocks.MockLedgerEntryCreator{}, nil, zerolog.Nop())
	f.primary.EXPECT().RefundPayment(gomock.Any(), gomock.Any()).Times(0)

	tests := []struct {
		name   string
		mutate func(*usecase.ProcessRefundInput)
		want   error
	}{
		{name: "zero amount", mutate: func(in *usecase.ProcessRefundInput) { in.ValueToRefund = decimal.Zero }, want: domain.ErrInvalidAmount},
		{name: "negative amount", mutate: func(in *usecase.ProcessRefundInput) { in.ValueToRefund = decimal.NewFromInt(-1) }, want: domain.ErrInvalidAmount},
		{name: "missing invoice", mutate: func(in *usecase.ProcessRefundInput) { in.ExternalInvoiceID = "" }, want: domain.ErrMissingExternalInvoice},
		{name: "missing source", mutate: func(in *usecase.ProcessRefundInput) { in.FromAccountID = "" }, want: domain.ErrMissingSourceAccount},
		{name: "missing tenant", mutate: func(in *usecase.ProcessRefundInput) { in.TenantID = "" }, want: domain.ErrMissingTenant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := refundInput()
			tt.mutate(&input)
			_, err := uc.ProcessRefund(context.Background(), input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

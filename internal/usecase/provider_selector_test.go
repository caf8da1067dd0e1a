package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/usecase"
)

func TestProviderSelector_Routes(t *testing.T) {
	ctrl := gomock.NewController(t)
	alpha := newProvider(ctrl, kindAlpha)
	beta := newProvider(ctrl, kindBeta)

	s, err := usecase.NewProviderSelector(
		[]usecase.PaymentProvider{alpha, beta},
		usecase.ProviderRoute{Primary: "alpha"},
		map[string]usecase.ProviderRoute{
			"t2": {Primary: kindBeta, Fallback: kindAlpha},
			"t3": {Primary: kindBeta, Fallback: kindBeta},
		},
	)
	require.NoError(t, err)

	tests := []struct {
		name         string
		tenant       string
		wantPrimary  domain.ProviderKind
		wantFallback domain.ProviderKind
	}{
		{name: "default route", tenant: "t1", wantPrimary: kindAlpha},
		{name: "tenant route with fallback", tenant: "t2", wantPrimary: kindBeta, wantFallback: kindAlpha},
		{name: "fallback equal to primary is dropped", tenant: "t3", wantPrimary: kindBeta},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := s.SelectForTenant(tt.tenant)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrimary, sel.Primary.Kind())
			if tt.wantFallback == "" {
				assert.Nil(t, sel.Fallback)
			} else {
				require.NotNil(t, sel.Fallback)
				assert.Equal(t, tt.wantFallback, sel.Fallback.Kind())
			}
		})
	}

	assert.ElementsMatch(t, []domain.ProviderKind{kindAlpha, kindBeta}, s.Providers())
}

func TestProviderSelector_SelectSpecific(t *testing.T) {
	ctrl := gomock.NewController(t)
	s, err := usecase.NewProviderSelector(
		[]usecase.PaymentProvider{newProvider(ctrl, kindAlpha)},
		usecase.ProviderRoute{Primary: kindAlpha},
		nil,
	)
	require.NoError(t, err)

	p, err := s.SelectSpecific(kindAlpha)
	require.NoError(t, err)
	assert.Equal(t, kindAlpha, p.Kind())

	_, err = s.SelectSpecific("GAMMA")
	assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)
	assert.Equal(t, domain.KindUnsupportedProvider, domain.KindOf(err))
}

func TestProviderSelector_RejectsBadConfiguration(t *testing.T) {
	ctrl := gomock.NewController(t)

	t.Run("unknown default", func(t *testing.T) {
		_, err := usecase.NewProviderSelector(
			[]usecase.PaymentProvider{newProvider(ctrl, kindAlpha)},
			usecase.ProviderRoute{Primary: "GAMMA"},
			nil,
		)
		assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)
	})

	t.Run("unknown tenant fallback", func(t *testing.T) {
		_, err := usecase.NewProviderSelector(
			[]usecase.PaymentProvider{newProvider(ctrl, kindAlpha)},
			usecase.ProviderRoute{Primary: kindAlpha},
			map[string]usecase.ProviderRoute{"t1": {Primary: kindAlpha, Fallback: "GAMMA"}},
		)
		assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)
	})

	t.Run("duplicate provider", func(t *testing.T) {
		_, err := usecase.NewProviderSelector(
			[]usecase.PaymentProvider{newProvider(ctrl, kindAlpha), newProvider(ctrl, kindAlpha)},
			usecase.ProviderRoute{Primary: kindAlpha},
			nil,
		)
		assert.Error(t, err)
	})
}

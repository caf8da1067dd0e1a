package usecase

import (
	"fmt"
	"strings"

	"github.com/iho/payledger/internal/domain"
)

// ProviderRoute names the primary and optional fallback provider for a tenant.
type ProviderRoute struct {
	Primary  domain.ProviderKind
	Fallback domain.ProviderKind
}

// ProviderSelection is the resolved pair of providers for one request.
// Fallback is nil when none is configured.
type ProviderSelection struct {
	Primary  PaymentProvider
	Fallback PaymentProvider
}

// ProviderSelector maps tenants to registered payment providers.
type ProviderSelector struct {
	providers    map[domain.ProviderKind]PaymentProvider
	defaultRoute ProviderRoute
	tenantRoutes map[string]ProviderRoute
}

// NewProviderSelector registers providers and checks that every route names
// a registered provider.
func NewProviderSelector(providers []PaymentProvider, defaultRoute ProviderRoute, tenantRoutes map[string]ProviderRoute) (*ProviderSelector, error) {
	s := &ProviderSelector{
		providers:    make(map[domain.ProviderKind]PaymentProvider, len(providers)),
		defaultRoute: normalizeRoute(defaultRoute),
		tenantRoutes: make(map[string]ProviderRoute, len(tenantRoutes)),
	}

	for _, p := range providers {
		kind := p.Kind()
		if _, exists := s.providers[kind]; exists {
			return nil, fmt.Errorf("provider %s registered twice", kind)
		}
		s.providers[kind] = p
	}

	if err := s.checkRoute("default", s.defaultRoute); err != nil {
		return nil, err
	}

	for tenant, route := range tenantRoutes {
		route = normalizeRoute(route)
		if err := s.checkRoute(tenant, route); err != nil {
			return nil, err
		}
		s.tenantRoutes[tenant] = route
	}

	return s, nil
}

// SelectForTenant returns the tenant's primary provider and its fallback, if any.
func (s *ProviderSelector) SelectForTenant(tenantID string) (ProviderSelection, error) {
	route, ok := s.tenantRoutes[tenantID]
	if !ok {
		route = s.defaultRoute
	}

	primary, err := s.SelectSpecific(route.Primary)
	if err != nil {
		return ProviderSelection{}, err
	}

	selection := ProviderSelection{Primary: primary}
	if route.Fallback != "" {
		fallback, err := s.SelectSpecific(route.Fallback)
		if err != nil {
			return ProviderSelection{}, err
		}
		selection.Fallback = fallback
	}

	return selection, nil
}

// SelectSpecific returns the provider registered under kind.
func (s *ProviderSelector) SelectSpecific(kind domain.ProviderKind) (PaymentProvider, error) {
	p, ok := s.providers[kind]
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", kind, domain.ErrUnsupportedProvider)
	}
	return p, nil
}

// Providers returns the registered provider kinds.
func (s *ProviderSelector) Providers() []domain.ProviderKind {
	kinds := make([]domain.ProviderKind, 0, len(s.providers))
	for kind := range s.providers {
		kinds = append(kinds, kind)
	}
	return kinds
}

func (s *ProviderSelector) checkRoute(name string, route ProviderRoute) error {
	if _, err := s.SelectSpecific(route.Primary); err != nil {
		return fmt.Errorf("route %s primary: %w", name, err)
	}
	if route.Fallback != "" {
		if _, err := s.SelectSpecific(route.Fallback); err != nil {
			return fmt.Errorf("route %s fallback: %w", name, err)
		}
	}
	return nil
}

// normalizeRoute upper-cases kinds and drops a fallback equal to the primary.
func normalizeRoute(route ProviderRoute) ProviderRoute {
	route.Primary = domain.ProviderKind(strings.ToUpper(strings.TrimSpace(string(route.Primary))))
	route.Fallback = domain.ProviderKind(strings.ToUpper(strings.TrimSpace(string(route.Fallback))))
	if route.Fallback == route.Primary {
		route.Fallback = ""
	}
	return route
}

package quotes

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/clearcart/pricing-engine/pkg/errors"
	"github.com/clearcart/pricing-engine/pkg/metrics"
	"github.com/clearcart/pricing-engine/pkg/pricing"
	"github.com/shopspring/decimal"
)

// ruleResolver hands out compiled rules; the rules catalog satisfies it.
type ruleResolver interface {
	ResolveRule(ctx context.Context, skuID string) (*pricing.Rule, error)
}

// Service evaluates one rule against one count and one unit price.
type Service interface {
	Quote(ctx context.Context, input QuoteInput) (*QuoteResult, error)
}

type service struct {
	rules   ruleResolver
	metrics *metrics.QuoteMetrics
}

// NewService builds the quote service. Metrics are optional.
func NewService(rules ruleResolver, m *metrics.QuoteMetrics) (Service, error) {
	if rules == nil {
		return nil, fmt.Errorf("rule resolver required")
	}
	return &service{rules: rules, metrics: m}, nil
}

// QuoteInput is one priced line: a SKU, a purchased count, and the regular
// unit price supplied by the caller's catalog.
type QuoteInput struct {
	SKUID     string
	Count     int
	UnitPrice decimal.Decimal
}

// QuoteResult reports the charged total for the line.
type QuoteResult struct {
	SKUID     string          `json:"sku_id"`
	Kind      pricing.Kind    `json:"kind"`
	Count     int             `json:"count"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// Quote resolves the SKU's rule and applies it. The count/price checks guard
// the core's contract at the service boundary; the core itself accepts any
// non-negative input without re-validation.
func (s *service) Quote(ctx context.Context, input QuoteInput) (*QuoteResult, error) {
	if input.Count < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "count must not be negative")
	}
	if input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}

	rule, err := s.rules.ResolveRule(ctx, input.SKUID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	total := rule.Apply(input.Count, input.UnitPrice)
	s.metrics.ObserveQuote(string(rule.Kind()), time.Since(start))

	return &QuoteResult{
		SKUID:     input.SKUID,
		Kind:      rule.Kind(),
		Count:     input.Count,
		UnitPrice: input.UnitPrice,
		Total:     total,
	}, nil
}

package rules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clearcart/pricing-engine/pkg/db/models"
	pkgerrors "github.com/clearcart/pricing-engine/pkg/errors"
	"github.com/clearcart/pricing-engine/pkg/logger"
	"github.com/clearcart/pricing-engine/pkg/metrics"
	"github.com/clearcart/pricing-engine/pkg/pricing"
	"github.com/clearcart/pricing-engine/pkg/redis"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ruleCache is the slice of the redis client the service depends on.
type ruleCache interface {
	RuleKey(skuID string) string
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Service manages the rule catalog: it stores definitions that compiled
// successfully and hands out the compiled rules.
type Service interface {
	CreateRule(ctx context.Context, input CreateRuleInput) (*models.PricingRule, error)
	GetRule(ctx context.Context, skuID string) (*models.PricingRule, error)
	ListRules(ctx context.Context) ([]models.PricingRule, error)
	DeleteRule(ctx context.Context, skuID string) error
	ResolveRule(ctx context.Context, skuID string) (*pricing.Rule, error)
}

type service struct {
	repo     RuleRepository
	cache    ruleCache
	cacheTTL time.Duration
	metrics  *metrics.QuoteMetrics
	logg     *logger.Logger
}

// ServiceParams wires the rule catalog dependencies. Cache and Metrics are
// optional; Logg is optional.
type ServiceParams struct {
	Repo     RuleRepository
	Cache    ruleCache
	CacheTTL time.Duration
	Metrics  *metrics.QuoteMetrics
	Logg     *logger.Logger
}

// NewService builds the rule catalog service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("rule repository required")
	}
	return &service{
		repo:     params.Repo,
		cache:    params.Cache,
		cacheTTL: params.CacheTTL,
		metrics:  params.Metrics,
		logg:     params.Logg,
	}, nil
}

// CreateRuleInput is the validated payload for storing a new rule.
type CreateRuleInput struct {
	SKUID      string
	Kind       pricing.Kind
	Definition pricing.Definition
}

// CreateRule compiles the definition and, only on success, persists it.
// A definition that fails validation never reaches the database.
func (s *service) CreateRule(ctx context.Context, input CreateRuleInput) (*models.PricingRule, error) {
	compiled, err := pricing.New(input.SKUID, input.Kind, input.Definition)
	if err != nil {
		return nil, err
	}

	def := compiled.Definition()
	row := &models.PricingRule{
		ID:                 uuid.New(),
		SKUID:              compiled.SKU(),
		Kind:               string(compiled.Kind()),
		Quantity:           def.Quantity,
		DiscountedQuantity: def.DiscountedQuantity,
		BulkPrice:          def.BulkPrice,
	}

	var stored *models.PricingRule
	txErr := s.repo.Transaction(ctx, func(repo RuleRepository) error {
		if _, err := repo.GetBySKU(ctx, input.SKUID); err == nil {
			return duplicate(input.SKUID)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pricing rule")
		}

		created, err := repo.Create(ctx, row)
		if err != nil {
			// The unique index is the arbiter under concurrent writers.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicate(input.SKUID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store pricing rule")
		}
		stored = created
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.dropFromCache(ctx, stored.SKUID)
	return stored, nil
}

// GetRule returns the stored row for a SKU.
func (s *service) GetRule(ctx context.Context, skuID string) (*models.PricingRule, error) {
	row, err := s.repo.GetBySKU(ctx, skuID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(skuID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pricing rule")
	}
	return row, nil
}

// ListRules returns every stored rule.
func (s *service) ListRules(ctx context.Context) ([]models.PricingRule, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pricing rules")
	}
	return rows, nil
}

// DeleteRule removes the stored rule and its cache entry.
func (s *service) DeleteRule(ctx context.Context, skuID string) error {
	if err := s.repo.DeleteBySKU(ctx, skuID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(skuID)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete pricing rule")
	}
	s.dropFromCache(ctx, skuID)
	return nil
}

// ResolveRule returns the compiled rule for a SKU, consulting the cache
// before the database.
func (s *service) ResolveRule(ctx context.Context, skuID string) (*pricing.Rule, error) {
	if row, ok := s.loadFromCache(ctx, skuID); ok {
		s.metrics.IncCacheHit()
		return compile(row)
	}

	row, err := s.GetRule(ctx, skuID)
	if err != nil {
		return nil, err
	}
	s.metrics.IncCacheMiss()
	s.storeInCache(ctx, row)
	return compile(row)
}

// compile rebuilds the pure rule from a stored row. Rows only exist after a
// successful compile at create time, so a failure here means the stored data
// was tampered with.
func compile(row *models.PricingRule) (*pricing.Rule, error) {
	rule, err := pricing.New(row.SKUID, pricing.Kind(row.Kind), pricing.Definition{
		Quantity:           row.Quantity,
		DiscountedQuantity: row.DiscountedQuantity,
		BulkPrice:          row.BulkPrice,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err,
			fmt.Sprintf("stored pricing rule for sku %q does not compile", row.SKUID))
	}
	return rule, nil
}

func (s *service) loadFromCache(ctx context.Context, skuID string) (*models.PricingRule, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cache.RuleKey(skuID))
	if err != nil {
		if !errors.Is(err, redis.ErrMiss) && s.logg != nil {
			s.logg.Warn(ctx, "rule cache read failed: "+err.Error())
		}
		return nil, false
	}
	var row models.PricingRule
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		s.dropFromCache(ctx, skuID)
		return nil, false
	}
	return &row, true
}

func (s *service) storeInCache(ctx context.Context, row *models.PricingRule) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(row)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.RuleKey(row.SKUID), payload, s.cacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "rule cache write failed: "+err.Error())
	}
}

func (s *service) dropFromCache(ctx context.Context, skuID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.RuleKey(skuID)); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "rule cache invalidation failed: "+err.Error())
	}
}

func notFound(skuID string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound,
		fmt.Sprintf("no pricing rule configured for sku %q", skuID))
}

func duplicate(skuID string) error {
	return pkgerrors.New(pkgerrors.CodeConflict,
		fmt.Sprintf("a pricing rule for sku %q already exists", skuID))
}

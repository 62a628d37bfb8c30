package rules

import (
	"context"

	"github.com/clearcart/pricing-engine/pkg/db/models"
	"gorm.io/gorm"
)

// RuleRepository defines persistence operations for stored pricing rules.
type RuleRepository interface {
	Create(ctx context.Context, rule *models.PricingRule) (*models.PricingRule, error)
	GetBySKU(ctx context.Context, skuID string) (*models.PricingRule, error)
	List(ctx context.Context) ([]models.PricingRule, error)
	DeleteBySKU(ctx context.Context, skuID string) error
	Transaction(ctx context.Context, fn func(repo RuleRepository) error) error
}

// Repository is the GORM-backed rule store.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Transaction runs fn against a repository bound to a single transaction,
// rolling back when fn returns an error.
func (r *Repository) Transaction(ctx context.Context, fn func(repo RuleRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// Create inserts the stored rule row.
func (r *Repository) Create(ctx context.Context, rule *models.PricingRule) (*models.PricingRule, error) {
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

// GetBySKU loads the rule row for a SKU.
func (r *Repository) GetBySKU(ctx context.Context, skuID string) (*models.PricingRule, error) {
	var rule models.PricingRule
	if err := r.db.WithContext(ctx).First(&rule, "sku_id = ?", skuID).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

// List returns every stored rule ordered by SKU.
func (r *Repository) List(ctx context.Context) ([]models.PricingRule, error) {
	var out []models.PricingRule
	if err := r.db.WithContext(ctx).Order("sku_id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteBySKU removes the rule row for a SKU, reporting
// gorm.ErrRecordNotFound when nothing was stored.
func (r *Repository) DeleteBySKU(ctx context.Context, skuID string) error {
	res := r.db.WithContext(ctx).Where("sku_id = ?", skuID).Delete(&models.PricingRule{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

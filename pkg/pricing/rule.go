// Package pricing computes the charged total for a quantity of a single SKU
// under one configured rule. It is a pure calculation core: rules are
// validated once at construction, immutable afterwards, and Apply is plain
// arithmetic with no I/O.
package pricing

import (
	"fmt"
	"strings"

	pkgerrors "github.com/clearcart/pricing-engine/pkg/errors"
	"github.com/shopspring/decimal"
)

// Kind identifies the pricing policy a rule evaluates.
type Kind string

const (
	// KindDiscount bills every complete group of Quantity units as if only
	// DiscountedQuantity units were bought ("3 for 2"). Leftover units below
	// a full group stay at the regular price.
	KindDiscount Kind = "discount"

	// KindReducedPrice charges BulkPrice per unit for the whole purchase once
	// the purchased quantity strictly exceeds Quantity.
	KindReducedPrice Kind = "reducedPrice"

	// KindBoth runs the multi-buy accounting first and then applies the bulk
	// price break to the billed unit count.
	KindBoth Kind = "both"
)

// Kinds lists every recognized rule kind.
func Kinds() []Kind {
	return []Kind{KindDiscount, KindReducedPrice, KindBoth}
}

const (
	fieldQuantity           = "quantity"
	fieldDiscountedQuantity = "discountedQuantity"
	fieldBulkPrice          = "bulkPrice"
)

// requiredFields maps each kind to the definition fields it needs.
var requiredFields = map[Kind][]string{
	KindDiscount:     {fieldQuantity, fieldDiscountedQuantity},
	KindReducedPrice: {fieldQuantity, fieldBulkPrice},
	KindBoth:         {fieldQuantity, fieldDiscountedQuantity, fieldBulkPrice},
}

// Definition carries the optional numeric parameters of a rule as supplied
// by the catalog. Which fields are required depends on the rule kind; fields
// irrelevant to the kind are ignored.
type Definition struct {
	Quantity           *int             `json:"quantity,omitempty"`
	DiscountedQuantity *int             `json:"discountedQuantity,omitempty"`
	BulkPrice          *decimal.Decimal `json:"bulkPrice,omitempty"`
}

// Rule is a validated, immutable pricing policy bound to one SKU. Instances
// only exist after New succeeded, so Apply never re-checks the definition.
// A Rule is safe for concurrent use without synchronization.
type Rule struct {
	skuID              string
	kind               Kind
	quantity           int
	discountedQuantity int
	bulkPrice          decimal.Decimal
}

// New validates the definition against the declared kind and returns the
// compiled rule. It fails with a validation error when the kind is not
// recognized or when a field the kind requires is missing or outside its
// domain; the error names the SKU, the kind, and the expected fields so
// misconfigured pricing data can be fixed from the message alone.
//
// DiscountedQuantity >= Quantity is deliberately accepted: such a rule just
// never discounts anything.
func New(skuID string, kind Kind, def Definition) (*Rule, error) {
	if strings.TrimSpace(skuID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pricing rule: sku id is required")
	}

	required, ok := requiredFields[kind]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("pricing rule for sku %q: unrecognized kind %q", skuID, kind)).
			WithDetails(map[string]any{
				"sku_id":      skuID,
				"kind":        string(kind),
				"known_kinds": Kinds(),
			})
	}

	if err := checkDefinition(skuID, kind, def, required); err != nil {
		return nil, err
	}

	rule := &Rule{
		skuID: skuID,
		kind:  kind,
	}
	for _, field := range required {
		switch field {
		case fieldQuantity:
			rule.quantity = *def.Quantity
		case fieldDiscountedQuantity:
			rule.discountedQuantity = *def.DiscountedQuantity
		case fieldBulkPrice:
			rule.bulkPrice = *def.BulkPrice
		}
	}
	return rule, nil
}

// checkDefinition verifies presence and domain of every field the kind
// requires, reporting all problems at once.
func checkDefinition(skuID string, kind Kind, def Definition, required []string) error {
	problems := map[string]string{}
	for _, field := range required {
		switch field {
		case fieldQuantity:
			if def.Quantity == nil {
				problems[field] = "is required"
			} else if *def.Quantity < 1 {
				problems[field] = "must be at least 1"
			}
		case fieldDiscountedQuantity:
			if def.DiscountedQuantity == nil {
				problems[field] = "is required"
			} else if *def.DiscountedQuantity < 0 {
				problems[field] = "must not be negative"
			}
		case fieldBulkPrice:
			if def.BulkPrice == nil {
				problems[field] = "is required"
			} else if def.BulkPrice.IsNegative() {
				problems[field] = "must not be negative"
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}

	return pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("pricing rule for sku %q: kind %q expects fields %s", skuID, kind, strings.Join(required, ", "))).
		WithDetails(map[string]any{
			"sku_id":          skuID,
			"kind":            string(kind),
			"expected_fields": required,
			"fields":          problems,
		})
}

// Definition returns the canonical definition of the rule: only the fields
// the kind requires are set, whatever extras the original input carried.
func (r *Rule) Definition() Definition {
	var def Definition
	for _, field := range requiredFields[r.kind] {
		switch field {
		case fieldQuantity:
			quantity := r.quantity
			def.Quantity = &quantity
		case fieldDiscountedQuantity:
			discounted := r.discountedQuantity
			def.DiscountedQuantity = &discounted
		case fieldBulkPrice:
			bulk := r.bulkPrice
			def.BulkPrice = &bulk
		}
	}
	return def
}

// SKU returns the identifier of the product this rule prices.
func (r *Rule) SKU() string {
	return r.skuID
}

// Kind returns the rule's pricing policy.
func (r *Rule) Kind() Kind {
	return r.kind
}

// Apply returns the total charge for count units at the given regular unit
// price. It is a pure function of its inputs and the fixed definition and
// never fails for non-negative inputs.
//
// For KindBoth the bulk threshold is compared against the billed
// (post-multi-buy) unit count, not the raw purchased count. That stacking
// order is the configured product behavior and must not be changed here.
func (r *Rule) Apply(count int, price decimal.Decimal) decimal.Decimal {
	switch r.kind {
	case KindDiscount:
		return price.Mul(decimal.NewFromInt(int64(r.billedUnits(count))))
	case KindReducedPrice:
		units := decimal.NewFromInt(int64(count))
		if count > r.quantity {
			return r.bulkPrice.Mul(units)
		}
		return price.Mul(units)
	default: // KindBoth; the constructor admits no other kind
		billed := r.billedUnits(count)
		units := decimal.NewFromInt(int64(billed))
		if billed > r.quantity {
			return r.bulkPrice.Mul(units)
		}
		return price.Mul(units)
	}
}

// billedUnits folds every complete multi-buy group down to its discounted
// size; leftovers below a full group are billed one for one.
func (r *Rule) billedUnits(count int) int {
	groups := count / r.quantity
	leftover := count % r.quantity
	return groups*r.discountedQuantity + leftover
}

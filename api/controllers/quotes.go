package controllers

import (
	"net/http"

	"github.com/clearcart/pricing-engine/api/responses"
	"github.com/clearcart/pricing-engine/api/validators"
	"github.com/clearcart/pricing-engine/internal/quotes"
	"github.com/clearcart/pricing-engine/pkg/logger"
	"github.com/shopspring/decimal"
)

// QuoteBody prices one line: count units of one SKU at the regular unit
// price supplied by the caller's catalog.
type QuoteBody struct {
	SKUID     string           `json:"sku_id" validate:"required"`
	Count     *int             `json:"count" validate:"required,gte=0"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"required"`
}

func CreateQuote(logg *logger.Logger, svc quotes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body QuoteBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSKU(ctx, body.SKUID)
		}

		result, err := svc.Quote(ctx, quotes.QuoteInput{
			SKUID:     body.SKUID,
			Count:     *body.Count,
			UnitPrice: *body.UnitPrice,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

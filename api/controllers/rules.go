package controllers

import (
	"net/http"

	"github.com/clearcart/pricing-engine/api/responses"
	"github.com/clearcart/pricing-engine/api/validators"
	"github.com/clearcart/pricing-engine/internal/rules"
	pkgerrors "github.com/clearcart/pricing-engine/pkg/errors"
	"github.com/clearcart/pricing-engine/pkg/logger"
	"github.com/clearcart/pricing-engine/pkg/pricing"
	"github.com/go-chi/chi/v5"
)

// CreateRuleBody is the admin payload for configuring a SKU's pricing rule.
// The definition fields required depend on the kind; the pricing core decides
// and reports which ones are missing.
type CreateRuleBody struct {
	SKUID      string             `json:"sku_id" validate:"required"`
	Kind       string             `json:"kind" validate:"required,oneof=discount reducedPrice both"`
	Definition pricing.Definition `json:"definition"`
}

func CreateRule(logg *logger.Logger, svc rules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body CreateRuleBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSKU(ctx, body.SKUID)
		}

		stored, err := svc.CreateRule(ctx, rules.CreateRuleInput{
			SKUID:      body.SKUID,
			Kind:       pricing.Kind(body.Kind),
			Definition: body.Definition,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, stored)
	}
}

func GetRule(logg *logger.Logger, svc rules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skuID := chi.URLParam(r, "sku")
		if skuID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sku is required"))
			return
		}

		stored, err := svc.GetRule(r.Context(), skuID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stored)
	}
}

func ListRules(logg *logger.Logger, svc rules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stored, err := svc.ListRules(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stored)
	}
}

func DeleteRule(logg *logger.Logger, svc rules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skuID := chi.URLParam(r, "sku")
		if skuID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sku is required"))
			return
		}

		if err := svc.DeleteRule(r.Context(), skuID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

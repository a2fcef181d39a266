package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/procureline/procureline-backend/api/responses"
	catalogsvc "github.com/procureline/procureline-backend/internal/catalog"
	pkgerrors "github.com/procureline/procureline-backend/pkg/errors"
	"github.com/procureline/procureline-backend/pkg/logger"
	"github.com/procureline/procureline-backend/pkg/pagination"
)

// CatalogList serves the public product listing with filters and cursor
// pagination.
func CatalogList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		filter, params, err := parseCatalogQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"items":       page.Items,
			"next_cursor": page.NextCursor,
		})
	}
}

func parseCatalogQuery(r *http.Request) (catalogsvc.ListFilter, pagination.Params, error) {
	var filter catalogsvc.ListFilter

	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("category_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, pagination.Params{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
		}
		filter.CategoryID = &id
	}
	if raw := strings.TrimSpace(q.Get("shop_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, pagination.Params{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shop id")
		}
		filter.ShopID = &id
	}
	filter.Query = q.Get("q")
	if raw := strings.TrimSpace(q.Get("in_stock")); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, pagination.Params{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid in_stock flag")
		}
		filter.InStock = inStock
	}

	params := pagination.Params{Cursor: q.Get("cursor")}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, pagination.Params{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit")
		}
		params.Limit = limit
	}

	return filter, params, nil
}

// CatalogGet returns one published listing by id.
func CatalogGet(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "productInfoId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		info, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, info)
	}
}

// CatalogCategories lists all catalog categories.
func CatalogCategories(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, categories)
	}
}

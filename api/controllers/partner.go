package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/procureline/procureline-backend/api/responses"
	"github.com/procureline/procureline-backend/api/validators"
	importsvc "github.com/procureline/procureline-backend/internal/importer"
	ordersvc "github.com/procureline/procureline-backend/internal/orders"
	shopsvc "github.com/procureline/procureline-backend/internal/shops"
	pkgerrors "github.com/procureline/procureline-backend/pkg/errors"
	"github.com/procureline/procureline-backend/pkg/logger"
)

// PartnerImport ingests a price list for the caller's shop. The payload
// arrives as a remote URL, an inline document, or an uploaded file.
func PartnerImport(svc importsvc.Service, resolver *importsvc.Resolver, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "import service unavailable"))
			return
		}

		uid, err := principalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		source, err := importSource(r, maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := resolver.Resolve(r.Context(), source)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Import(r.Context(), uid, doc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// importSource classifies the request payload without parsing the catalog
// document itself.
func importSource(r *http.Request, maxBytes int64) (importsvc.Source, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return importsvc.Source{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart payload")
		}
		if url := strings.TrimSpace(r.FormValue("url")); url != "" {
			return importsvc.Source{URL: url}, nil
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return importsvc.Source{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "url or file is required")
		}
		defer file.Close()
		raw, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
		if err != nil {
			return importsvc.Source{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read uploaded file")
		}
		return importsvc.Source{Raw: raw}, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return importsvc.Source{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body")
	}
	if len(body) == 0 {
		return importsvc.Source{}, pkgerrors.New(pkgerrors.CodeValidation, "url, file, or inline payload is required")
	}

	// A JSON body carrying only a url field points at a remote price list.
	// Anything else is the document itself.
	var ref struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &ref); err == nil && strings.TrimSpace(ref.URL) != "" {
		return importsvc.Source{URL: strings.TrimSpace(ref.URL)}, nil
	}

	return importsvc.Source{Raw: body}, nil
}

// PartnerProfile returns the caller's shop, creating one on first access.
func PartnerProfile(svc shopsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		uid, err := principalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.Profile(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shop)
	}
}

type shopProfileRequest struct {
	Name     string `json:"name" validate:"required"`
	URL      string `json:"url,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// PartnerProfileUpdate renames the shop or toggles order intake.
func PartnerProfileUpdate(svc shopsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		uid, err := principalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload shopProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.UpdateProfile(r.Context(), uid, shopsvc.UpdateProfileInput{
			Name:     payload.Name,
			URL:      payload.URL,
			IsActive: payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shop)
	}
}

// PartnerOrders lists placed orders touching the caller's shop, line items
// filtered to that shop with totals recomputed.
func PartnerOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		uid, err := principalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForShopOwner(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

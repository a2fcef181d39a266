package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/procureline/procureline-backend/pkg/config"
	pkgerrors "github.com/procureline/procureline-backend/pkg/errors"
)

// Source is the discriminated import input: exactly one of URL or Raw is
// set. The boundary layer builds it from the request (remote fetch, inline
// document, or uploaded file) so the reconciler never touches transport.
type Source struct {
	URL string
	Raw []byte
}

// Resolver turns a Source into a parsed Document. Remote payloads are
// fetched fully before any transaction starts.
type Resolver struct {
	cfg    config.ImportConfig
	client *http.Client
}

// NewResolver builds a resolver with a bounded fetch timeout.
func NewResolver(cfg config.ImportConfig) *Resolver {
	return &Resolver{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.FetchTimeout},
	}
}

// Resolve fetches (when needed) and parses the price list.
func (r *Resolver) Resolve(ctx context.Context, source Source) (*Document, error) {
	switch {
	case source.URL != "":
		data, err := r.fetch(ctx, source.URL)
		if err != nil {
			return nil, err
		}
		return ParseDocument(data)
	case len(source.Raw) > 0:
		if int64(len(source.Raw)) > r.cfg.MaxPayloadBytes {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price list exceeds the size limit")
		}
		return ParseDocument(source.Raw)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "either url or a price list document is required")
	}
}

func (r *Resolver) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.ParseRequestURI(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "url must be an absolute http(s) address")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "build fetch request")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "fetch price list")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation,
			fmt.Errorf("unexpected status %d", resp.StatusCode), "fetch price list")
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.cfg.MaxPayloadBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read price list")
	}
	if int64(len(data)) > r.cfg.MaxPayloadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price list exceeds the size limit")
	}
	return data, nil
}

package importer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	pkgerrors "github.com/procureline/procureline-backend/pkg/errors"
)

// Document is the supplier price list wire format. Suppliers publish it as
// YAML; JSON documents parse through the same decoder.
type Document struct {
	Shop       string            `yaml:"shop"`
	Categories []CategoryPayload `yaml:"categories"`
	Goods      []GoodPayload     `yaml:"goods"`
}

// CategoryPayload names one category in the supplier's own numbering.
type CategoryPayload struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// GoodPayload is one priced position of the supplier catalog. Category
// refers to CategoryPayload.ID, not to anything in our database.
type GoodPayload struct {
	ID          int64    `yaml:"id"`
	Category    int64    `yaml:"category"`
	Model       string   `yaml:"model"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       Money    `yaml:"price"`
	PriceRRC    Money    `yaml:"price_rrc"`
	Quantity    int      `yaml:"quantity"`
	Parameters  ParamSet `yaml:"parameters"`
}

// Money decodes decimal prices that suppliers serialize inconsistently as
// numbers or quoted strings.
type Money struct {
	decimal.Decimal

	set bool
}

// UnmarshalYAML accepts both scalar numbers and strings.
func (m *Money) UnmarshalYAML(value *yaml.Node) error {
	m.set = true
	raw := strings.TrimSpace(value.Value)
	if raw == "" {
		m.Decimal = decimal.Zero
		return nil
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", value.Value, err)
	}
	m.Decimal = parsed
	return nil
}

// ParamSet holds the characteristic name/value pairs of one good. Input
// that is not a mapping decodes to an empty set instead of failing.
type ParamSet map[string]string

// UnmarshalYAML tolerates scalar values of any type and non-mapping input.
func (p *ParamSet) UnmarshalYAML(value *yaml.Node) error {
	out := ParamSet{}
	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			key := value.Content[i]
			val := value.Content[i+1]
			if key.Kind != yaml.ScalarNode || val.Kind != yaml.ScalarNode {
				continue
			}
			out[key.Value] = val.Value
		}
	}
	*p = out
	return nil
}

// ParseDocument decodes and validates a supplier price list.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed price list")
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	// A good without a retail price sells at the purchase price.
	for i := range doc.Goods {
		if !doc.Goods[i].PriceRRC.set {
			doc.Goods[i].PriceRRC = doc.Goods[i].Price
		}
	}
	return &doc, nil
}

func (d *Document) validate() error {
	if strings.TrimSpace(d.Shop) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "price list is missing the shop name")
	}
	for i, good := range d.Goods {
		switch {
		case good.ID <= 0:
			return pkgerrors.New(pkgerrors.CodeValidation, "price list good is missing an id").
				WithDetails(map[string]any{"index": i})
		case good.Quantity < 0:
			return pkgerrors.New(pkgerrors.CodeValidation, "price list good has negative quantity").
				WithDetails(map[string]any{"index": i, "external_id": good.ID})
		case good.Price.IsNegative() || good.PriceRRC.IsNegative():
			return pkgerrors.New(pkgerrors.CodeValidation, "price list good has negative price").
				WithDetails(map[string]any{"index": i, "external_id": good.ID})
		}
	}
	return nil
}

// ProductName resolves the name for the shared product card: the good's
// name, falling back to the model, falling back to a placeholder derived
// from the external id. The listing itself keeps the raw name field.
func (g GoodPayload) ProductName() string {
	if name := strings.TrimSpace(g.Name); name != "" {
		return name
	}
	if model := strings.TrimSpace(g.Model); model != "" {
		return model
	}
	return fmt.Sprintf("item-%d", g.ID)
}

/*
Package factory provides JSON to Go commodity conversion.

PURPOSE:
  Converts JSON commodity definitions into trade.Commodity values. This
  enables catalog configuration without code changes - the back office can
  define commodities in JSON, and the factory creates the proper Go
  structs with validated conversion factors.

WHY JSON?
  - Non-developers can adjust factors and tare defaults
  - Easy integration with admin tooling
  - Version control for catalog definitions
  - Database storage of commodity configs

JSON SCHEMA:
  {
    "id": "cotton",
    "name": "Cotton",
    "base_unit": "kg",
    "allowed_pricing_units": ["government_qantar", "local_qantar"],
    "conversion_factors": {
      "government_qantar": "157.5",
      "local_qantar": "160"
    },
    "is_complex_unit": true,
    "default_tare_per_bag": "2"
  }

KEY RULES:
  - The base unit is always the kilogram; its factor is implicitly 1
  - Every allowed pricing unit needs a positive conversion factor
  - Factors parse as decimal strings; floats never enter the catalog

USAGE:
  factory := NewCommodityFactory()
  commodity, err := factory.ParseCommodity(jsonString)

  // Seed a development catalog
  commodities, err := factory.ParseCatalog(factory.DefaultCatalogJSON)

SEE ALSO:
  - trade/types.go: Commodity type definition
  - cmd/server/main.go: Catalog seeding on startup
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mazraa/trade-engine/trade"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// CommodityJSON is the JSON representation of a commodity.
type CommodityJSON struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	BaseUnit            string            `json:"base_unit,omitempty"`
	AllowedPricingUnits []string          `json:"allowed_pricing_units"`
	ConversionFactors   map[string]string `json:"conversion_factors"`
	IsComplexUnit       bool              `json:"is_complex_unit,omitempty"`
	DefaultTarePerBag   string            `json:"default_tare_per_bag,omitempty"`
}

// =============================================================================
// COMMODITY FACTORY
// =============================================================================

// CommodityFactory converts JSON commodity definitions to Go structs.
type CommodityFactory struct{}

// NewCommodityFactory creates a new commodity factory.
func NewCommodityFactory() *CommodityFactory {
	return &CommodityFactory{}
}

// ParseCommodity parses a JSON string into a Commodity.
func (f *CommodityFactory) ParseCommodity(jsonStr string) (*trade.Commodity, error) {
	var cj CommodityJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return nil, fmt.Errorf("failed to parse commodity JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// ParseCatalog parses a JSON array of commodity definitions.
func (f *CommodityFactory) ParseCatalog(jsonStr string) ([]trade.Commodity, error) {
	var defs []CommodityJSON
	if err := json.Unmarshal([]byte(jsonStr), &defs); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}

	out := make([]trade.Commodity, 0, len(defs))
	for _, cj := range defs {
		c, err := f.FromJSON(cj)
		if err != nil {
			return nil, fmt.Errorf("commodity %q: %w", cj.ID, err)
		}
		out = append(out, *c)
	}
	return out, nil
}

// FromJSON converts a parsed definition into a Commodity.
func (f *CommodityFactory) FromJSON(cj CommodityJSON) (*trade.Commodity, error) {
	if cj.ID == "" {
		return nil, fmt.Errorf("commodity id is required")
	}
	if cj.Name == "" {
		return nil, fmt.Errorf("commodity name is required")
	}

	base := trade.Unit(cj.BaseUnit)
	if base == "" {
		base = trade.BaseUnit
	}
	if base != trade.BaseUnit {
		return nil, fmt.Errorf("base unit must be %q, got %q", trade.BaseUnit, base)
	}

	c := &trade.Commodity{
		ID:                  trade.CommodityID(cj.ID),
		Name:                cj.Name,
		BaseUnit:            base,
		AllowedPricingUnits: make([]trade.Unit, 0, len(cj.AllowedPricingUnits)),
		ConversionFactors:   make(map[trade.Unit]decimal.Decimal, len(cj.ConversionFactors)),
		IsComplexUnit:       cj.IsComplexUnit,
	}

	for _, u := range cj.AllowedPricingUnits {
		unit := trade.Unit(u)
		c.AllowedPricingUnits = append(c.AllowedPricingUnits, unit)

		if unit == base {
			continue // factor is implicitly 1
		}
		raw, ok := cj.ConversionFactors[u]
		if !ok {
			return nil, fmt.Errorf("pricing unit %q has no conversion factor", u)
		}
		factor, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("conversion factor for %q: %w", u, err)
		}
		if !factor.IsPositive() {
			return nil, fmt.Errorf("conversion factor for %q must be positive, got %s", u, factor)
		}
		c.ConversionFactors[unit] = factor
	}

	if cj.DefaultTarePerBag != "" {
		tare, err := decimal.NewFromString(cj.DefaultTarePerBag)
		if err != nil {
			return nil, fmt.Errorf("default tare per bag: %w", err)
		}
		if tare.IsNegative() {
			return nil, fmt.Errorf("default tare per bag must not be negative, got %s", tare)
		}
		c.DefaultTarePerBag = &tare
	}

	return c, nil
}

// =============================================================================
// DEFAULT CATALOG
// =============================================================================

// DefaultCatalogJSON seeds a development database with the commodities the
// trade desk handles day to day. Factors are kilograms per pricing unit.
const DefaultCatalogJSON = `[
  {
    "id": "cotton",
    "name": "Cotton",
    "allowed_pricing_units": ["government_qantar", "local_qantar"],
    "conversion_factors": {
      "government_qantar": "157.5",
      "local_qantar": "160"
    },
    "is_complex_unit": true,
    "default_tare_per_bag": "2"
  },
  {
    "id": "wheat",
    "name": "Wheat",
    "allowed_pricing_units": ["ton", "kg"],
    "conversion_factors": {
      "ton": "1000"
    },
    "default_tare_per_bag": "1.5"
  },
  {
    "id": "corn",
    "name": "Corn",
    "allowed_pricing_units": ["ton", "kg"],
    "conversion_factors": {
      "ton": "1000"
    },
    "default_tare_per_bag": "1.5"
  },
  {
    "id": "rice",
    "name": "Rice",
    "allowed_pricing_units": ["ton", "kg"],
    "conversion_factors": {
      "ton": "1000"
    },
    "default_tare_per_bag": "1"
  }
]`

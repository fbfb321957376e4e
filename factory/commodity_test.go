package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazraa/trade-engine/trade"
)

func TestParseCommodity_FullDefinition(t *testing.T) {
	f := NewCommodityFactory()

	c, err := f.ParseCommodity(`{
		"id": "cotton",
		"name": "Cotton",
		"allowed_pricing_units": ["government_qantar", "local_qantar"],
		"conversion_factors": {
			"government_qantar": "157.5",
			"local_qantar": "160"
		},
		"is_complex_unit": true,
		"default_tare_per_bag": "2"
	}`)
	require.NoError(t, err)

	assert.Equal(t, trade.CommodityID("cotton"), c.ID)
	assert.Equal(t, trade.BaseUnit, c.BaseUnit)
	assert.True(t, c.IsComplexUnit)
	assert.Equal(t, "157.5", c.ConversionFactors[trade.UnitGovernmentQantar].String())
	assert.Equal(t, "160", c.ConversionFactors[trade.UnitLocalQantar].String())
	require.NotNil(t, c.DefaultTarePerBag)
	assert.Equal(t, "2", c.DefaultTarePerBag.String())
}

func TestParseCommodity_BaseUnitNeedsNoFactor(t *testing.T) {
	f := NewCommodityFactory()

	c, err := f.ParseCommodity(`{
		"id": "wheat",
		"name": "Wheat",
		"allowed_pricing_units": ["ton", "kg"],
		"conversion_factors": {"ton": "1000"}
	}`)
	require.NoError(t, err)
	assert.Len(t, c.AllowedPricingUnits, 2)
	_, hasBase := c.ConversionFactors[trade.BaseUnit]
	assert.False(t, hasBase, "the base unit's factor is implicit")
}

func TestParseCommodity_Rejections(t *testing.T) {
	f := NewCommodityFactory()

	tests := []struct {
		name string
		json string
	}{
		{"missing id", `{"name": "Cotton"}`},
		{"missing name", `{"id": "cotton"}`},
		{"missing factor", `{"id": "c", "name": "C", "allowed_pricing_units": ["ton"]}`},
		{"zero factor", `{"id": "c", "name": "C", "allowed_pricing_units": ["ton"], "conversion_factors": {"ton": "0"}}`},
		{"negative factor", `{"id": "c", "name": "C", "allowed_pricing_units": ["ton"], "conversion_factors": {"ton": "-5"}}`},
		{"unparseable factor", `{"id": "c", "name": "C", "allowed_pricing_units": ["ton"], "conversion_factors": {"ton": "lots"}}`},
		{"negative tare", `{"id": "c", "name": "C", "allowed_pricing_units": [], "default_tare_per_bag": "-1"}`},
		{"foreign base unit", `{"id": "c", "name": "C", "base_unit": "lb", "allowed_pricing_units": []}`},
		{"malformed json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseCommodity(tt.json)
			assert.Error(t, err)
		})
	}
}

func TestParseCatalog_DefaultCatalogIsValid(t *testing.T) {
	commodities, err := NewCommodityFactory().ParseCatalog(DefaultCatalogJSON)
	require.NoError(t, err)
	require.Len(t, commodities, 4)

	for _, c := range commodities {
		assert.Equal(t, trade.BaseUnit, c.BaseUnit)
		for _, u := range c.AllowedPricingUnits {
			if u == c.BaseUnit {
				continue
			}
			factor, ok := c.ConversionFactors[u]
			require.True(t, ok, "%s: %s has a factor", c.ID, u)
			assert.True(t, factor.IsPositive())
		}
	}
}

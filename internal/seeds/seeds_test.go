package seeds

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tropicaldog17/vngold/internal/models"
)

func TestNearest_UsdVndWithinDefaultTolerance(t *testing.T) {
	target := time.Date(2025, 2, 20, 0, 0, 0, 0, time.Local)
	v, ok := Nearest(UsdVnd, target, DefaultToleranceDays)
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(25855)), "got %s", v)
}

func TestNearest_OutsideTolerance(t *testing.T) {
	target := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, ok := Nearest(Gold, target, 45)
	assert.False(t, ok)
}

func TestNearest_TiePrefersEarlierAnchor(t *testing.T) {
	anchors := []Anchor{
		{Date: "2024-01-03", Value: decimal.NewFromInt(3)},
		{Date: "2024-01-01", Value: decimal.NewFromInt(1)},
	}
	v, ok := Nearest(anchors, time.Date(2024, 1, 2, 23, 0, 0, 0, time.UTC), 5)
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(1)))
}

func TestTables_SortedUniqueAndPositive(t *testing.T) {
	for _, asset := range models.AllAssets {
		table := For(asset)
		require.NotEmpty(t, table, asset)
		for i, anchor := range table {
			_, err := models.ParseDay(anchor.Date)
			require.NoError(t, err, "%s %s", asset, anchor.Date)
			assert.True(t, anchor.Value.IsPositive(), "%s %s", asset, anchor.Date)
			assert.NotEmpty(t, anchor.Note)
			if i > 0 {
				assert.Less(t, table[i-1].Date, anchor.Date, "%s not strictly ascending", asset)
			}
		}
	}
	assert.Nil(t, For("oil"))
}

func TestProtective(t *testing.T) {
	assert.True(t, Protective(models.AssetVn30))
	assert.True(t, Protective(models.AssetLand))
	assert.False(t, Protective(models.AssetGold))
	assert.False(t, Protective(models.AssetUsdVnd))
	assert.False(t, Protective(models.AssetBitcoin))
}

func TestPoints(t *testing.T) {
	pts := Points(Vn30)
	assert.Equal(t, 1087.36, pts["2023-02-12"])
	assert.Len(t, pts, len(Vn30))
}

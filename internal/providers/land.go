package providers

import (
	"context"
	"encoding/json"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
	"github.com/tropicaldog17/vngold/internal/fileutil"
	"github.com/tropicaldog17/vngold/internal/models"
	"github.com/tropicaldog17/vngold/internal/numparse"
)

const (
	LandFallbackSource = "Fallback (Manual estimate)"
	landSeedSource     = "homedy.com (seed)"
)

var (
	landFallback = decimal.NewFromInt(255_000_000)
	// landSeed is the homedy.com median observed on 2026-02-28, used until
	// a live scrape has been persisted.
	landSeed   = decimal.NewFromInt(183_800_000)
	landSeedAt = time.Date(2026, 2, 28, 10, 20, 34, 0, time.UTC)

	billion = decimal.NewFromInt(1_000_000_000)
	million = decimal.NewFromInt(1_000_000)

	hongBangRe   = regexp.MustCompile(`(?i)h[oồ]ng\s*b[aà]ng`)
	dimensionsRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*[xX]\s*(\d+(?:[.,]\d+)?)`)
	areaRe       = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*m\s*²`)
	priceTyRe    = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*t(?:ỷ|y)(?:\s*(\d{1,3}))?`)
	perM2Re      = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:tr|triệu)\s*/\s*m\s*[²2]`)
)

// Land returns two listing sites, then the persisted last good scrape, then
// a built-in seed, then a manual estimate. Live results are persisted.
func (s *Sources) Land() Chain[models.LandPrice] {
	return Chain[models.LandPrice]{
		Name: models.AssetLand,
		Live: []Strategy[models.LandPrice]{
			NewStrategy("alonhadat.com.vn", s.persisting(s.fetchAlonhadat)),
			NewStrategy("homedy.com", s.persisting(s.fetchHomedy)),
		},
		Fallback: []Strategy[models.LandPrice]{
			NewStrategy("last good scrape", s.loadLastGoodLand),
			Constant(landSeedSource, func() models.LandPrice {
				return s.landPrice(landSeed, landSeedSource, landSeedAt)
			}),
			Constant(LandFallbackSource, func() models.LandPrice {
				return s.landPrice(landFallback, LandFallbackSource, s.now())
			}),
		},
	}
}

func (s *Sources) landPrice(v decimal.Decimal, source string, at time.Time) models.LandPrice {
	return models.LandPrice{
		PricePerM2: v,
		Location:   s.land.Location,
		Unit:       models.UnitVNDPerM2,
		Source:     source,
		Timestamp:  at,
	}
}

func (s *Sources) landBounds() (decimal.Decimal, decimal.Decimal) {
	return decimal.RequireFromString(s.land.MinValid), decimal.RequireFromString(s.land.MaxValid)
}

// medianInRange keeps values inside the valid band and returns their median
// rounded to whole VND.
func (s *Sources) medianInRange(source string, values []decimal.Decimal) (decimal.Decimal, error) {
	lo, hi := s.landBounds()
	var valid []decimal.Decimal
	for _, v := range values {
		if !v.LessThan(lo) && !v.GreaterThan(hi) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return decimal.Zero, &apperrors.ErrParseFailure{
			Source:  source,
			Message: "no valid Hong Bang prices among " + decimal.NewFromInt(int64(len(values))).String() + " parsed",
		}
	}
	return median(valid).RoundBank(0), nil
}

func median(values []decimal.Decimal) decimal.Decimal {
	sorted := append([]decimal.Decimal(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return sorted[n/2-1].Add(sorted[n/2]).Div(decimal.NewFromInt(2))
}

func (s *Sources) fetchAlonhadat(ctx context.Context) (models.LandPrice, error) {
	body, err := s.client.GetPage(ctx, "alonhadat.com.vn", s.urls.AlonhadatURL)
	if err != nil {
		return models.LandPrice{}, err
	}
	p, err := parsePage(body)
	if err != nil {
		return models.LandPrice{}, &apperrors.ErrParseFailure{Source: "alonhadat.com.vn", Message: err.Error()}
	}
	v, err := s.medianInRange("alonhadat.com.vn", hongBangUnitPrices(p.Text()))
	if err != nil {
		return models.LandPrice{}, err
	}
	return s.landPrice(v, "alonhadat.com.vn", s.now()), nil
}

// hongBangUnitPrices reads price and area from the text around each
// mention of the street and returns VND per m2.
func hongBangUnitPrices(text string) []decimal.Decimal {
	runes := []rune(text)
	var out []decimal.Decimal
	for _, loc := range hongBangRe.FindAllStringIndex(text, -1) {
		startRune := utf8.RuneCountInString(text[:loc[0]])
		endRune := utf8.RuneCountInString(text[:loc[1]])
		from := max(0, startRune-25)
		to := min(len(runes), endRune+180)
		snippet := string(runes[from:to])

		area, ok := extractArea(snippet)
		if !ok || !area.IsPositive() {
			continue
		}
		priceBillion, ok := extractPriceBillion(snippet)
		if !ok {
			continue
		}
		out = append(out, priceBillion.Mul(billion).Div(area).Round(2))
	}
	return out
}

func commaDecimal(raw string) (decimal.Decimal, bool) {
	v, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	return v, err == nil
}

// extractArea understands "4x12" style dimensions and "85 m²".
func extractArea(snippet string) (decimal.Decimal, bool) {
	if m := dimensionsRe.FindStringSubmatch(snippet); m != nil {
		w, wok := commaDecimal(m[1])
		l, lok := commaDecimal(m[2])
		if wok && lok {
			return w.Mul(l), true
		}
	}
	if m := areaRe.FindStringSubmatch(snippet); m != nil {
		return commaDecimal(m[1])
	}
	return decimal.Zero, false
}

// extractPriceBillion reads "12 tỷ 5", "9 tỷ 98" or "45 tỷ" in billions.
func extractPriceBillion(snippet string) (decimal.Decimal, bool) {
	m := priceTyRe.FindStringSubmatch(snippet)
	if m == nil {
		return decimal.Zero, false
	}
	major, ok := commaDecimal(m[1])
	if !ok {
		return decimal.Zero, false
	}
	if m[2] == "" {
		return major, true
	}
	minor, err := decimal.NewFromString(m[2])
	if err != nil {
		return major, true
	}
	return major.Add(minor.Shift(-int32(len(m[2])))), true
}

func (s *Sources) fetchHomedy(ctx context.Context) (models.LandPrice, error) {
	body, err := s.client.GetPage(ctx, "homedy.com", s.urls.HomedyURL)
	if err != nil {
		return models.LandPrice{}, err
	}
	p, err := parsePage(body)
	if err != nil {
		return models.LandPrice{}, &apperrors.ErrParseFailure{Source: "homedy.com", Message: err.Error()}
	}
	v, err := s.medianInRange("homedy.com", homedyUnitPrices(p.Text()))
	if err != nil {
		return models.LandPrice{}, err
	}
	return s.landPrice(v, "homedy.com", s.now()), nil
}

// homedyUnitPrices reads the "180,9 tr/m2" figures listing cards show.
func homedyUnitPrices(text string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, m := range perM2Re.FindAllStringSubmatch(text, -1) {
		v, ok := numparse.ParseListing(m[1])
		if !ok {
			continue
		}
		out = append(out, v.Mul(million))
	}
	return out
}

// lastGoodLand is the persisted form of a successful land scrape.
type lastGoodLand struct {
	PricePerM2 string    `json:"price_per_m2"`
	Source     string    `json:"source"`
	Location   string    `json:"location"`
	Unit       string    `json:"unit"`
	Timestamp  time.Time `json:"timestamp"`
}

func (s *Sources) persisting(fetch func(context.Context) (models.LandPrice, error)) func(context.Context) (models.LandPrice, error) {
	return func(ctx context.Context) (models.LandPrice, error) {
		price, err := fetch(ctx)
		if err != nil {
			return price, err
		}
		if s.landLastGood != "" {
			record := lastGoodLand{
				PricePerM2: price.PricePerM2.String(),
				Source:     price.Source,
				Location:   price.Location,
				Unit:       price.Unit,
				Timestamp:  price.Timestamp,
			}
			if err := fileutil.WriteJSON(s.landLastGood, record); err != nil {
				s.logger.Warn("Could not persist land scrape", zap.String("path", s.landLastGood), zap.Error(err))
			}
		}
		return price, nil
	}
}

func (s *Sources) loadLastGoodLand(_ context.Context) (models.LandPrice, error) {
	const source = "last good scrape"
	raw, err := os.ReadFile(s.landLastGood)
	if err != nil {
		return models.LandPrice{}, &apperrors.ErrStorageUnavailable{Path: s.landLastGood, Err: err}
	}
	var record lastGoodLand
	if err := json.Unmarshal(raw, &record); err != nil {
		return models.LandPrice{}, &apperrors.ErrStorageUnavailable{Path: s.landLastGood, Err: err}
	}
	v, err := decimal.NewFromString(record.PricePerM2)
	if err != nil {
		return models.LandPrice{}, &apperrors.ErrParseFailure{Source: source, Message: "bad price " + record.PricePerM2}
	}
	lo, hi := s.landBounds()
	if err := checkRange(source, v, lo, hi); err != nil {
		return models.LandPrice{}, err
	}
	price := s.landPrice(v, record.Source+" (cached)", record.Timestamp)
	if record.Location != "" {
		price.Location = record.Location
	}
	if record.Unit != "" {
		price.Unit = record.Unit
	}
	return price, nil
}

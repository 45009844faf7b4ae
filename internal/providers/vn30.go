package providers

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
	"github.com/tropicaldog17/vngold/internal/models"
	"github.com/tropicaldog17/vngold/internal/numparse"
)

var (
	vn30Min      = decimal.NewFromInt(100)
	vn30Max      = decimal.NewFromInt(10_000)
	vn30Fallback = decimal.RequireFromString("1950.00")
	hundred      = decimal.NewFromInt(100)

	// vietstockChangeRe picks the percentage out of "10.83 (0.54%)".
	vietstockChangeRe = regexp.MustCompile(`\(\s*([-+]?\d+[.,]\d+)\s*%`)
)

// Vn30 returns Vietstock, then the VPS chart feed, then CafeF, then a fixed
// level with no change.
func (s *Sources) Vn30() Chain[models.Vn30Index] {
	return Chain[models.Vn30Index]{
		Name: models.AssetVn30,
		Live: []Strategy[models.Vn30Index]{
			NewStrategy("Vietstock", s.fetchVietstock),
			NewStrategy("VPS", s.fetchVPS),
			NewStrategy("CafeF", s.fetchCafeF),
		},
		Fallback: []Strategy[models.Vn30Index]{
			Constant(FallbackSource, func() models.Vn30Index {
				zero := decimal.Zero
				return models.Vn30Index{IndexValue: vn30Fallback, ChangePercent: &zero, Source: FallbackSource, Timestamp: s.now()}
			}),
		},
	}
}

func inVn30Range(v decimal.Decimal) bool {
	return v.GreaterThan(vn30Min) && v.LessThan(vn30Max)
}

func (s *Sources) fetchVietstock(ctx context.Context) (models.Vn30Index, error) {
	body, err := s.client.GetPage(ctx, "Vietstock", s.urls.VietstockURL)
	if err != nil {
		return models.Vn30Index{}, err
	}
	p, err := parsePage(body)
	if err != nil {
		return models.Vn30Index{}, &apperrors.ErrParseFailure{Source: "Vietstock", Message: err.Error()}
	}
	value, change, ok := extractVietstock(p.Lines())
	if !ok {
		return models.Vn30Index{}, &apperrors.ErrParseFailure{Source: "Vietstock", Message: "VN30-INDEX not found"}
	}
	return models.Vn30Index{IndexValue: value, ChangePercent: change, Source: "Vietstock", Timestamp: s.now()}, nil
}

// extractVietstock expects the label line, then the level, then a change
// line such as "10.83 (0.54%)".
func extractVietstock(lines []string) (decimal.Decimal, *decimal.Decimal, bool) {
	for i, line := range lines {
		if line != "VN30-INDEX" || i+1 >= len(lines) {
			continue
		}
		value, ok := numparse.SanitizeVN(lines[i+1])
		if !ok || !inVn30Range(value) {
			continue
		}
		var change *decimal.Decimal
		if i+2 < len(lines) {
			cl := lines[i+2]
			if strings.Contains(cl, "(") && strings.Contains(cl, "%") {
				if m := vietstockChangeRe.FindStringSubmatch(cl); m != nil {
					if c, ok := numparse.SanitizeVN(m[1]); ok {
						if strings.HasPrefix(m[1], "-") {
							c = c.Neg()
						}
						change = &c
					}
				}
			}
		}
		return value, change, true
	}
	return decimal.Zero, nil, false
}

// vpsResponse is the TradingView-style bar feed.
type vpsResponse struct {
	S string    `json:"s"`
	T []int64   `json:"t"`
	C []float64 `json:"c"`
}

func (s *Sources) vpsBars(ctx context.Context, days int) (vpsResponse, error) {
	now := s.now()
	from := now.Add(-time.Duration(days) * 24 * time.Hour)
	u, err := withQuery(s.urls.VPSHistoryURL, url.Values{
		"from": {strconv.FormatInt(from.Unix(), 10)},
		"to":   {strconv.FormatInt(now.Unix(), 10)},
	})
	if err != nil {
		return vpsResponse{}, &apperrors.ErrSourceUnavailable{Source: "VPS", Err: err}
	}
	var resp vpsResponse
	if err := s.client.GetJSON(ctx, "VPS", u, &resp); err != nil {
		return vpsResponse{}, err
	}
	if resp.S != "ok" || len(resp.C) == 0 {
		return vpsResponse{}, &apperrors.ErrParseFailure{Source: "VPS", Message: "no VN30 bars"}
	}
	return resp, nil
}

func (s *Sources) fetchVPS(ctx context.Context) (models.Vn30Index, error) {
	bars, err := s.vpsBars(ctx, 7)
	if err != nil {
		return models.Vn30Index{}, err
	}
	closes := bars.C
	latest := decimal.NewFromFloat(closes[len(closes)-1])

	var change *decimal.Decimal
	if len(closes) >= 2 {
		prev := decimal.NewFromFloat(closes[len(closes)-2])
		if prev.IsPositive() {
			c := latest.Sub(prev).Div(prev).Mul(hundred).Round(2)
			change = &c
		}
	}
	if err := checkRange("VPS", latest, vn30Min, vn30Max); err != nil {
		return models.Vn30Index{}, err
	}
	return models.Vn30Index{IndexValue: latest, ChangePercent: change, Source: "VPS", Timestamp: s.now()}, nil
}

func (s *Sources) fetchCafeF(ctx context.Context) (models.Vn30Index, error) {
	body, err := s.client.GetPage(ctx, "CafeF", s.urls.CafeFURL)
	if err != nil {
		return models.Vn30Index{}, err
	}
	p, err := parsePage(body)
	if err != nil {
		return models.Vn30Index{}, &apperrors.ErrParseFailure{Source: "CafeF", Message: err.Error()}
	}
	value, change, ok := extractCafeF(p.Lines())
	if !ok {
		return models.Vn30Index{}, &apperrors.ErrParseFailure{Source: "CafeF", Message: "VN30-INDEX not found"}
	}
	return models.Vn30Index{IndexValue: value, ChangePercent: change, Source: "CafeF", Timestamp: s.now()}, nil
}

// extractCafeF scans up to nine lines after the index label for the level
// and reads the change from the line right after it.
func extractCafeF(lines []string) (decimal.Decimal, *decimal.Decimal, bool) {
	for i, line := range lines {
		if !strings.Contains(strings.ToUpper(line), "VN30-INDEX") {
			continue
		}
		for j := i + 1; j < len(lines) && j < i+10; j++ {
			v, ok := numparse.SanitizeVN(lines[j])
			if !ok || !inVn30Range(v) {
				continue
			}
			var change *decimal.Decimal
			if j+1 < len(lines) {
				if c, ok := numparse.SanitizeVN(lines[j+1]); ok && c.Abs().LessThan(hundred) {
					if strings.HasPrefix(strings.TrimSpace(lines[j+1]), "-") {
						c = c.Neg()
					}
					change = &c
				}
			}
			return v, change, true
		}
	}
	return decimal.Zero, nil, false
}

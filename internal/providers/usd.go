package providers

import (
	"context"
	"net/url"
	"regexp"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
	"github.com/tropicaldog17/vngold/internal/models"
	"github.com/tropicaldog17/vngold/internal/numparse"
)

var (
	usdMin      = decimal.NewFromInt(20_000)
	usdMax      = decimal.NewFromInt(35_000)
	usdPageMax  = decimal.NewFromInt(30_000)
	usdFallback = decimal.NewFromInt(26_500)

	// groupedNumberRe matches figures with thousands grouping such as
	// 25.480 or 25,480.50.
	groupedNumberRe = regexp.MustCompile(`\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{1,2})?`)
)

// UsdVnd returns chogia.vn, then EGCurrency, then the official rate plus a
// premium, then a fixed rate.
func (s *Sources) UsdVnd() Chain[models.UsdVndRate] {
	return Chain[models.UsdVndRate]{
		Name: models.AssetUsdVnd,
		Live: []Strategy[models.UsdVndRate]{
			NewStrategy("chogia.vn", s.fetchChogiaUSD),
			NewStrategy("EGCurrency", s.fetchEGCurrency),
			NewStrategy("ExchangeRate API (est.)", s.fetchOpenER),
		},
		Fallback: []Strategy[models.UsdVndRate]{
			Constant(FallbackSource, func() models.UsdVndRate {
				return models.UsdVndRate{SellRate: usdFallback, Source: FallbackSource, Timestamp: s.now()}
			}),
		},
	}
}

// chogiaResponse is the WordPress ajax envelope used by chogia.vn.
type chogiaResponse struct {
	Success bool          `json:"success"`
	Data    []chogiaEntry `json:"data"`
}

type chogiaEntry struct {
	Ngay   string `json:"ngay"`
	GiaBan string `json:"gia_ban"`
}

func (s *Sources) postChogia(ctx context.Context, form url.Values) ([]chogiaEntry, error) {
	var resp chogiaResponse
	if err := s.client.PostForm(ctx, "chogia.vn", s.urls.ChogiaAjaxURL, form, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || len(resp.Data) == 0 {
		return nil, &apperrors.ErrParseFailure{Source: "chogia.vn", Message: "unsuccessful response"}
	}
	return resp.Data, nil
}

func chogiaUSDForm() url.Values {
	return url.Values{"action": {"load_gia_ngoai_te_cho_do_thi"}, "ma": {"USD"}}
}

func (s *Sources) fetchChogiaUSD(ctx context.Context) (models.UsdVndRate, error) {
	entries, err := s.postChogia(ctx, chogiaUSDForm())
	if err != nil {
		return models.UsdVndRate{}, err
	}
	latest := entries[len(entries)-1]
	rate, err := decimal.NewFromString(latest.GiaBan)
	if err != nil {
		return models.UsdVndRate{}, &apperrors.ErrParseFailure{Source: "chogia.vn", Message: "bad gia_ban " + latest.GiaBan}
	}
	if err := checkRange("chogia.vn", rate, usdMin, usdMax); err != nil {
		return models.UsdVndRate{}, err
	}
	return models.UsdVndRate{SellRate: rate, Source: "chogia.vn", Timestamp: s.now()}, nil
}

func (s *Sources) fetchEGCurrency(ctx context.Context) (models.UsdVndRate, error) {
	body, err := s.client.GetPage(ctx, "EGCurrency", s.urls.EGCurrencyURL)
	if err != nil {
		return models.UsdVndRate{}, err
	}
	p, err := parsePage(body)
	if err != nil {
		return models.UsdVndRate{}, &apperrors.ErrParseFailure{Source: "EGCurrency", Message: err.Error()}
	}
	rate, ok := extractSellRate(p)
	if !ok {
		return models.UsdVndRate{}, &apperrors.ErrParseFailure{Source: "EGCurrency", Message: "sell rate not found"}
	}
	return models.UsdVndRate{SellRate: rate, Source: "EGCurrency", Timestamp: s.now()}, nil
}

func inUsdPageRange(v decimal.Decimal) bool {
	return v.GreaterThan(usdMin) && v.LessThan(usdPageMax)
}

// extractSellRate looks near sell labels first, then in price-like
// elements, then at any grouped number on the page.
func extractSellRate(p *page) (decimal.Decimal, bool) {
	lines := p.Lines()
	for i, line := range lines {
		if !hasKeyword(line, []string{"sell", "bán", "selling"}) {
			continue
		}
		for j := i; j < len(lines) && j < i+5; j++ {
			if v, ok := numparse.SanitizeVN(lines[j]); ok && inUsdPageRange(v) {
				return v, true
			}
		}
	}
	for _, text := range p.ClassTexts([]string{"div", "span", "td", "p"}, []string{"price", "rate", "sell"}) {
		if v, ok := numparse.SanitizeVN(text); ok && inUsdPageRange(v) {
			return v, true
		}
	}
	for _, m := range groupedNumberRe.FindAllString(p.Text(), -1) {
		if v, ok := numparse.SanitizeVN(m); ok && inUsdPageRange(v) {
			return v, true
		}
	}
	return decimal.Zero, false
}

type openERResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// fetchOpenER converts the official bank rate into an estimate of the
// free-market rate by applying the configured premium.
func (s *Sources) fetchOpenER(ctx context.Context) (models.UsdVndRate, error) {
	const source = "ExchangeRate API (est.)"
	var resp openERResponse
	if err := s.client.GetJSON(ctx, source, s.urls.OpenERAPIURL, &resp); err != nil {
		return models.UsdVndRate{}, err
	}
	if resp.Result != "success" {
		return models.UsdVndRate{}, &apperrors.ErrParseFailure{Source: source, Message: "result " + resp.Result}
	}
	vnd, ok := resp.Rates["VND"]
	if !ok || vnd == 0 {
		return models.UsdVndRate{}, &apperrors.ErrParseFailure{Source: source, Message: "no VND rate"}
	}
	official := decimal.NewFromFloat(vnd)
	if err := checkRange(source, official, usdMin, usdMax); err != nil {
		return models.UsdVndRate{}, err
	}
	premium, err := decimal.NewFromString(s.urls.BlackMarketPremium)
	if err != nil {
		premium = decimal.NewFromInt(1)
	}
	return models.UsdVndRate{
		SellRate:  official.Mul(premium).Round(2),
		Source:    source,
		Timestamp: s.now(),
	}, nil
}

// checkRange enforces inclusive sanity bounds.
func checkRange(source string, v, min, max decimal.Decimal) error {
	if v.LessThan(min) || v.GreaterThan(max) {
		return &apperrors.ErrOutOfRange{Source: source, Value: v.String(), Min: min.String(), Max: max.String()}
	}
	return nil
}

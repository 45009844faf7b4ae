package providers

import (
	"context"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
	"github.com/tropicaldog17/vngold/internal/models"
	"github.com/tropicaldog17/vngold/internal/numparse"
)

var (
	btcPageMin  = decimal.NewFromInt(1_000_000_000)
	btcPageMax  = decimal.NewFromInt(5_000_000_000)
	btcFallback = decimal.NewFromInt(2_500_000_000)
)

// Bitcoin returns CoinMarketCap, then CoinGecko, then a fixed price.
func (s *Sources) Bitcoin() Chain[models.BitcoinPrice] {
	return Chain[models.BitcoinPrice]{
		Name: models.AssetBitcoin,
		Live: []Strategy[models.BitcoinPrice]{
			NewStrategy("CoinMarketCap", s.fetchCoinMarketCap),
			NewStrategy("CoinGecko", s.fetchCoinGecko),
		},
		Fallback: []Strategy[models.BitcoinPrice]{
			Constant(FallbackSource, func() models.BitcoinPrice {
				return models.BitcoinPrice{BtcToVnd: btcFallback, Source: FallbackSource, Timestamp: s.now()}
			}),
		},
	}
}

func inBtcPageRange(v decimal.Decimal) bool {
	return v.GreaterThan(btcPageMin) && v.LessThan(btcPageMax)
}

func (s *Sources) fetchCoinMarketCap(ctx context.Context) (models.BitcoinPrice, error) {
	body, err := s.client.GetPage(ctx, "CoinMarketCap", s.urls.CoinMarketCapURL)
	if err != nil {
		return models.BitcoinPrice{}, err
	}
	p, err := parsePage(body)
	if err != nil {
		return models.BitcoinPrice{}, &apperrors.ErrParseFailure{Source: "CoinMarketCap", Message: err.Error()}
	}
	rate, ok := extractBtcRate(p)
	if !ok {
		return models.BitcoinPrice{}, &apperrors.ErrParseFailure{Source: "CoinMarketCap", Message: "BTC/VND rate not found"}
	}
	return models.BitcoinPrice{BtcToVnd: rate, Source: "CoinMarketCap", Timestamp: s.now()}, nil
}

func extractBtcRate(p *page) (decimal.Decimal, bool) {
	for _, text := range p.ClassTexts([]string{"span", "div", "p"}, []string{"price", "value", "amount"}) {
		if v, ok := numparse.SanitizeVN(text); ok && inBtcPageRange(v) {
			return v, true
		}
	}
	lines := p.Lines()
	for i, line := range lines {
		if !hasKeyword(line, []string{"vnd", "bitcoin", "btc"}) {
			continue
		}
		for j := max(0, i-3); j < len(lines) && j < i+5; j++ {
			if v, ok := numparse.SanitizeVN(lines[j]); ok && inBtcPageRange(v) {
				return v, true
			}
		}
	}
	for _, m := range groupedNumberRe.FindAllString(p.Text(), -1) {
		if v, ok := numparse.SanitizeVN(m); ok && inBtcPageRange(v) {
			return v, true
		}
	}
	return decimal.Zero, false
}

func (s *Sources) fetchCoinGecko(ctx context.Context) (models.BitcoinPrice, error) {
	var payload map[string]map[string]float64
	if err := s.client.GetJSON(ctx, "CoinGecko", s.urls.CoinGeckoURL, &payload); err != nil {
		return models.BitcoinPrice{}, err
	}
	v, ok := payload["bitcoin"]["vnd"]
	if !ok || v <= 0 {
		return models.BitcoinPrice{}, &apperrors.ErrParseFailure{Source: "CoinGecko", Message: "bitcoin.vnd missing"}
	}
	return models.BitcoinPrice{BtcToVnd: decimal.NewFromFloat(v), Source: "CoinGecko", Timestamp: s.now()}, nil
}

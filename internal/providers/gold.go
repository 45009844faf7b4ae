package providers

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
	"github.com/tropicaldog17/vngold/internal/models"
	"github.com/tropicaldog17/vngold/internal/numparse"
)

var (
	dojiScale      = decimal.NewFromInt(10000)
	dojiMinRaw     = decimal.NewFromInt(1000)
	goldMinPerTael = decimal.NewFromInt(1_000_000)
	goldMaxPerTael = decimal.NewFromInt(100_000_000)
	goldFallback   = decimal.NewFromInt(175_400_000)
)

// Gold returns DOJI, then Mi Hồng, then SJC, then a fixed quote.
func (s *Sources) Gold() Chain[models.GoldPrice] {
	return Chain[models.GoldPrice]{
		Name: models.AssetGold,
		Live: []Strategy[models.GoldPrice]{
			NewStrategy("DOJI", s.fetchDoji),
			NewStrategy("Mi Hồng", s.fetchMihong),
			NewStrategy("SJC", s.fetchSJC),
		},
		Fallback: []Strategy[models.GoldPrice]{
			Constant(FallbackSource, func() models.GoldPrice {
				return models.GoldPrice{
					BuyPrice:  goldFallback,
					SellPrice: goldFallback,
					Unit:      models.UnitVNDPerTael,
					Source:    FallbackSource,
					Timestamp: s.now(),
				}
			}),
		},
	}
}

type dojiRow struct {
	Name string
	Buy  string
	Sell string
}

// parseDojiRows collects every Row element under DGPlist.
func parseDojiRows(body []byte) ([]dojiRow, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }
	var rows []dojiRow
	inList := false
	sawList := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "DGPlist":
				inList, sawList = true, true
			case "Row":
				if !inList {
					continue
				}
				row := dojiRow{}
				for _, a := range t.Attr {
					switch a.Name.Local {
					case "Name":
						row.Name = a.Value
					case "Buy":
						row.Buy = a.Value
					case "Sell":
						row.Sell = a.Value
					}
				}
				rows = append(rows, row)
			}
		case xml.EndElement:
			if t.Name.Local == "DGPlist" {
				inList = false
			}
		}
	}
	if !sawList {
		return nil, &apperrors.ErrParseFailure{Source: "DOJI", Message: "no DGPlist in response"}
	}
	return rows, nil
}

// dojiPrice reads a DOJI figure quoted in units of 10,000 VND.
func dojiPrice(raw string) (decimal.Decimal, bool) {
	v, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
	if err != nil || !v.GreaterThan(dojiMinRaw) {
		return decimal.Zero, false
	}
	return v.Mul(dojiScale), true
}

// pickDojiQuote prefers the Ho Chi Minh City retail row and otherwise takes
// the first Ho Chi Minh City row.
func pickDojiQuote(rows []dojiRow) (buy, sell decimal.Decimal, ok bool) {
	try := func(match func(dojiRow) bool) bool {
		for _, r := range rows {
			if !match(r) {
				continue
			}
			b, bok := dojiPrice(r.Buy)
			sl, sok := dojiPrice(r.Sell)
			if bok && sok {
				buy, sell = b, sl
				return true
			}
			return false
		}
		return false
	}
	if try(func(r dojiRow) bool {
		return strings.Contains(r.Name, "HCM") && strings.Contains(strings.ToLower(r.Name), "lẻ")
	}) {
		return buy, sell, true
	}
	if try(func(r dojiRow) bool { return strings.Contains(r.Name, "HCM") }) {
		return buy, sell, true
	}
	return decimal.Zero, decimal.Zero, false
}

func (s *Sources) fetchDoji(ctx context.Context) (models.GoldPrice, error) {
	body, err := s.client.GetPage(ctx, "DOJI", s.urls.DojiURL)
	if err != nil {
		return models.GoldPrice{}, err
	}
	rows, err := parseDojiRows(body)
	if err != nil {
		return models.GoldPrice{}, err
	}
	buy, sell, ok := pickDojiQuote(rows)
	if !ok {
		return models.GoldPrice{}, &apperrors.ErrParseFailure{Source: "DOJI", Message: "no usable HCM row"}
	}
	return s.goldQuote(buy, sell, "DOJI")
}

func (s *Sources) fetchMihong(ctx context.Context) (models.GoldPrice, error) {
	body, err := s.client.GetPage(ctx, "Mi Hồng", s.urls.MihongURL)
	if err != nil {
		return models.GoldPrice{}, err
	}
	p, err := parsePage(body)
	if err != nil {
		return models.GoldPrice{}, &apperrors.ErrParseFailure{Source: "Mi Hồng", Message: err.Error()}
	}
	buy, bok := mihongPrice(p, "buy")
	sell, sok := mihongPrice(p, "sell")
	if !bok || !sok {
		return models.GoldPrice{}, &apperrors.ErrParseFailure{Source: "Mi Hồng", Message: "SJC prices not found"}
	}
	return s.goldQuote(buy, sell, "Mi Hồng")
}

// mihongPrice looks for the SJC row of the price table first and then for
// a buy/sell keyword followed by a price in the page text.
func mihongPrice(p *page, kind string) (decimal.Decimal, bool) {
	minCol := 1
	if kind == "sell" {
		minCol = 2
	}
	for _, cells := range p.TableRows() {
		if !containsAny(cells, "SJC") {
			continue
		}
		for i := minCol; i < len(cells); i++ {
			if v, ok := numparse.SanitizeVN(cells[i]); ok && v.GreaterThan(goldMinPerTael) {
				return v, true
			}
		}
	}

	keywords := map[string][]string{
		"buy":  {"buy", "mua", "buying"},
		"sell": {"sell", "bán", "selling"},
	}[kind]
	lines := p.Lines()
	for i, line := range lines {
		if !strings.Contains(line, "SJC") {
			continue
		}
		for j := i; j < len(lines) && j < i+15; j++ {
			if !hasKeyword(lines[j], keywords) {
				continue
			}
			for k := j; k < len(lines) && k < j+5; k++ {
				if v, ok := numparse.SanitizeVN(lines[k]); ok && v.GreaterThan(goldMinPerTael) && v.LessThan(goldMaxPerTael) {
					return v, true
				}
			}
		}
	}
	return decimal.Zero, false
}

// fetchSJC reads the SJC price board. The board is usually filled by
// script, in which case the table is empty and the strategy fails.
func (s *Sources) fetchSJC(ctx context.Context) (models.GoldPrice, error) {
	body, err := s.client.GetPage(ctx, "SJC", s.urls.SJCURL)
	if err != nil {
		return models.GoldPrice{}, err
	}
	p, err := parsePage(body)
	if err != nil {
		return models.GoldPrice{}, &apperrors.ErrParseFailure{Source: "SJC", Message: err.Error()}
	}
	for _, cells := range p.TableRows() {
		if !containsAny(cells, "SJC") {
			continue
		}
		var prices []decimal.Decimal
		for _, c := range cells[1:] {
			if v, ok := numparse.SanitizeVN(c); ok && v.GreaterThan(goldMinPerTael) {
				prices = append(prices, v)
			}
		}
		if len(prices) >= 2 {
			return s.goldQuote(prices[0], prices[1], "SJC")
		}
	}
	return models.GoldPrice{}, &apperrors.ErrParseFailure{Source: "SJC", Message: "price table empty"}
}

func (s *Sources) goldQuote(buy, sell decimal.Decimal, source string) (models.GoldPrice, error) {
	q := models.GoldPrice{
		BuyPrice:  buy,
		SellPrice: sell,
		Unit:      models.UnitVNDPerTael,
		Source:    source,
		Timestamp: s.now(),
	}
	if err := q.Validate(); err != nil {
		return models.GoldPrice{}, err
	}
	return q, nil
}

func containsAny(cells []string, needle string) bool {
	for _, c := range cells {
		if strings.Contains(c, needle) {
			return true
		}
	}
	return false
}

func hasKeyword(line string, keywords []string) bool {
	lower := strings.ToLower(line)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

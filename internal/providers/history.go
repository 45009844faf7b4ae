package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
	"github.com/tropicaldog17/vngold/internal/models"
)

// webgiaSellRe captures the "Bán ra" series of the inline Highcharts config.
var webgiaSellRe = regexp.MustCompile(`name:.B.n ra.,\s*data:(\[\[.*?\]\])`)

var thousand = decimal.NewFromInt(1000)

// History returns the live history sources for asset in priority order.
// longestDays is the widest configured lookback. Land has none.
func (s *Sources) History(asset string, longestDays int) []Strategy[models.DaySeries] {
	switch asset {
	case models.AssetGold:
		return []Strategy[models.DaySeries]{
			NewStrategy("webgia.com", s.fetchWebgiaGold),
			NewStrategy("chogia.vn", s.fetchChogiaGoldHistory),
		}
	case models.AssetUsdVnd:
		return []Strategy[models.DaySeries]{
			NewStrategy("chogia.vn", s.fetchChogiaUSDHistory),
		}
	case models.AssetBitcoin:
		days := min(longestDays, s.LiveWindowDays(asset))
		return []Strategy[models.DaySeries]{
			NewStrategy("CoinGecko", func(ctx context.Context) (models.DaySeries, error) {
				return s.fetchCoinGeckoChart(ctx, days)
			}),
		}
	case models.AssetVn30:
		return []Strategy[models.DaySeries]{
			NewStrategy("VPS", func(ctx context.Context) (models.DaySeries, error) {
				return s.fetchVPSHistory(ctx, longestDays)
			}),
		}
	}
	return nil
}

// LiveWindowDays is the longest lookback the live history of asset can
// answer, or 0 when it is not capped. The free CoinGecko tier serves at
// most a year.
func (s *Sources) LiveWindowDays(asset string) int {
	if asset != models.AssetBitcoin {
		return 0
	}
	if s.coingeckoMaxDays <= 0 {
		return 365
	}
	return s.coingeckoMaxDays
}

func dayOf(ms int64) string {
	return models.DayKey(time.UnixMilli(ms).In(vietnamTime))
}

func (s *Sources) fetchWebgiaGold(ctx context.Context) (models.DaySeries, error) {
	body, err := s.client.GetPage(ctx, "webgia.com", s.urls.WebgiaGoldURL)
	if err != nil {
		return nil, err
	}
	return parseWebgiaSeries(body)
}

// parseWebgiaSeries converts [[ts_ms, millions], ...] to full VND per day.
func parseWebgiaSeries(body []byte) (models.DaySeries, error) {
	m := webgiaSellRe.FindSubmatch(body)
	if m == nil {
		return nil, &apperrors.ErrParseFailure{Source: "webgia.com", Message: "sell series not found"}
	}
	var points [][]json.Number
	dec := json.NewDecoder(strings.NewReader(string(m[1])))
	dec.UseNumber()
	if err := dec.Decode(&points); err != nil {
		return nil, &apperrors.ErrParseFailure{Source: "webgia.com", Message: err.Error()}
	}
	out := make(models.DaySeries, len(points))
	for _, p := range points {
		if len(p) < 2 {
			continue
		}
		ts, err := p[0].Float64()
		if err != nil {
			continue
		}
		v, err := decimal.NewFromString(p[1].String())
		if err != nil {
			continue
		}
		out[dayOf(int64(ts))] = v.Mul(million)
	}
	if len(out) == 0 {
		return nil, &apperrors.ErrParseFailure{Source: "webgia.com", Message: "empty sell series"}
	}
	return out, nil
}

func (s *Sources) fetchChogiaGoldHistory(ctx context.Context) (models.DaySeries, error) {
	entries, err := s.postChogia(ctx, url.Values{"action": {"load_gia_vang_cho_do_thi"}, "congty": {"SJC"}})
	if err != nil {
		return nil, err
	}
	return chogiaGoldSeries(entries, s.now()), nil
}

// chogiaGoldSeries reads DD/MM dates and prices in thousands of VND. A month
// later than the current one belongs to the previous year.
func chogiaGoldSeries(entries []chogiaEntry, now time.Time) models.DaySeries {
	out := make(models.DaySeries, len(entries))
	for _, e := range entries {
		dd, mm, ok := strings.Cut(e.Ngay, "/")
		if !ok || e.GiaBan == "" {
			continue
		}
		day, err1 := strconv.Atoi(strings.TrimSpace(dd))
		month, err2 := strconv.Atoi(strings.TrimSpace(mm))
		if err1 != nil || err2 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		year := now.Year()
		if month > int(now.Month()) {
			year--
		}
		v, err := decimal.NewFromString(e.GiaBan)
		if err != nil {
			continue
		}
		out[fmt.Sprintf("%04d-%02d-%02d", year, month, day)] = v.Mul(thousand)
	}
	return out
}

func (s *Sources) fetchChogiaUSDHistory(ctx context.Context) (models.DaySeries, error) {
	entries, err := s.postChogia(ctx, chogiaUSDForm())
	if err != nil {
		return nil, err
	}
	out := make(models.DaySeries, len(entries))
	for _, e := range entries {
		if e.Ngay == "" || e.GiaBan == "" {
			continue
		}
		if _, err := models.ParseDay(e.Ngay); err != nil {
			continue
		}
		v, err := decimal.NewFromString(e.GiaBan)
		if err != nil {
			continue
		}
		out[e.Ngay] = v
	}
	return out, nil
}

type marketChart struct {
	Prices [][]float64 `json:"prices"`
}

func (s *Sources) fetchCoinGeckoChart(ctx context.Context, days int) (models.DaySeries, error) {
	u, err := withQuery(s.urls.CoinGeckoChartURL, url.Values{"days": {strconv.Itoa(days)}})
	if err != nil {
		return nil, &apperrors.ErrSourceUnavailable{Source: "CoinGecko", Err: err}
	}
	var chart marketChart
	if err := s.client.GetJSON(ctx, "CoinGecko", u, &chart); err != nil {
		return nil, err
	}
	out := make(models.DaySeries, len(chart.Prices))
	for _, p := range chart.Prices {
		if len(p) < 2 || p[1] <= 0 {
			continue
		}
		out[dayOf(int64(p[0]))] = decimal.NewFromFloat(p[1])
	}
	if len(out) == 0 {
		return nil, &apperrors.ErrParseFailure{Source: "CoinGecko", Message: "no prices"}
	}
	return out, nil
}

func (s *Sources) fetchVPSHistory(ctx context.Context, days int) (models.DaySeries, error) {
	bars, err := s.vpsBars(ctx, days)
	if err != nil {
		return nil, err
	}
	if len(bars.T) == 0 {
		return nil, &apperrors.ErrParseFailure{Source: "VPS", Message: "no timestamps"}
	}
	out := make(models.DaySeries, len(bars.C))
	for i := 0; i < len(bars.T) && i < len(bars.C); i++ {
		out[dayOf(bars.T[i]*1000)] = decimal.NewFromFloat(bars.C[i])
	}
	return out, nil
}

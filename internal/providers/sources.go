package providers

import (
	"time"

	"go.uber.org/zap"

	"github.com/tropicaldog17/vngold/internal/config"
)

// FallbackSource labels hardcoded last-resort values.
const FallbackSource = "Fallback (Scraping Failed)"

// Chain is the ordered set of strategies for one asset. Live strategies hit
// the network and may be cached; Fallback strategies are local and are
// only consulted once the live side and the cache have nothing.
type Chain[T any] struct {
	Name     string
	Live     []Strategy[T]
	Fallback []Strategy[T]
}

// Sources builds the strategy chains for every asset from configuration.
type Sources struct {
	client *Client
	urls   config.SourcesConfig
	land   config.LandConfig
	// landLastGood is the file holding the last successful land scrape.
	landLastGood     string
	coingeckoMaxDays int
	logger           *zap.Logger
	now              func() time.Time
}

func NewSources(client *Client, cfg *config.Config, logger *zap.Logger) *Sources {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sources{
		client:           client,
		urls:             cfg.Sources,
		land:             cfg.Land,
		landLastGood:     cfg.Storage.LandLastGoodFile,
		coingeckoMaxDays: cfg.History.CoinGeckoMaxDays,
		logger:           logger,
		now:              time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (s *Sources) WithClock(now func() time.Time) *Sources {
	s.now = now
	return s
}

// vietnamTime is the zone the upstream charts stamp their daily points in.
var vietnamTime = time.FixedZone("ICT", 7*60*60)

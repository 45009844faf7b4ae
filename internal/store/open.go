package store

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/tropicaldog17/vngold/internal/db"
)

const DriverJSON = "json"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the configured backend. The returned closer releases the
// database connection, if any.
func Open(driver, jsonPath string, dbConfig *db.Config, logger *zap.Logger) (HistoryStore, io.Closer, error) {
	switch driver {
	case DriverJSON, "":
		return NewJSONFileStore(jsonPath, logger), nopCloser{}, nil
	case db.DriverSQLite, db.DriverPostgres:
		cfg := *dbConfig
		cfg.Driver = driver
		database, err := db.Connect(&cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(database, logger); err != nil {
			database.Close()
			return nil, nil, err
		}
		return NewGormStore(database), database, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

package reporter

import (
	"context"
	"fmt"

	"github.com/kpaschen/fcmerge/lib/datatypes"
	"github.com/kpaschen/fcmerge/lib/settings"
	"go.uber.org/zap"
)

// A TableStore persists merge result tables keyed by table name. Storing a
// table under an existing name replaces it.
type TableStore interface {
	Store(ctx context.Context, table *datatypes.Table) error

	Close() error
}

// NewTableStore returns the store selected by config.Store.
func NewTableStore(config settings.MergeSettings, logger *zap.Logger) (TableStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch config.Store {
	case settings.STORE_PARQUET:
		return NewParquetReporter(config.ResultsDirectory, config.MaxRowsPerRowGroup, logger)
	case settings.STORE_CSV:
		return NewCsvReporter(config.ResultsDirectory, logger)
	case settings.STORE_KAFKA:
		return NewKafkaReporter(config.KafkaURL, config.KafkaTopic, logger), nil
	case settings.STORE_REDIS:
		return NewRedisReporter(config.RedisAddress, logger), nil
	case settings.STORE_NONE:
		return &discardStore{}, nil
	default:
		return nil, fmt.Errorf("unsupported table store %q", config.Store)
	}
}

type discardStore struct{}

func (d *discardStore) Store(_ context.Context, _ *datatypes.Table) error { return nil }

func (d *discardStore) Close() error { return nil }

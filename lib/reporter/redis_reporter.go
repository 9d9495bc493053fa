package reporter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kpaschen/fcmerge/lib/datatypes"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	REDIS_KEY_PREFIX = "fcmerge:table:"
	// Set of all stored table names.
	REDIS_INDEX_KEY = "fcmerge:tables"
)

// RedisReporter stores each table as a JSON string under
// fcmerge:table:<name> and keeps the names in a set.
type RedisReporter struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisReporter(address string, logger *zap.Logger) *RedisReporter {
	return &RedisReporter{
		client: redis.NewClient(&redis.Options{Addr: address}),
		logger: logger,
	}
}

func (r *RedisReporter) Store(ctx context.Context, table *datatypes.Table) error {
	value, err := table.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, REDIS_KEY_PREFIX+table.Name, value, 0)
		pipe.SAdd(ctx, REDIS_INDEX_KEY, table.Name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("storing table %s in redis: %w", table.Name, err)
	}
	r.logger.Info("stored table", zap.String("table", table.Name), zap.Int("rows", len(table.Rows)))
	return nil
}

// Load reads a stored table back.
func (r *RedisReporter) Load(ctx context.Context, name string) (*datatypes.Table, error) {
	value, err := r.client.Get(ctx, REDIS_KEY_PREFIX+name).Bytes()
	if err != nil {
		return nil, err
	}
	table := &datatypes.Table{}
	if err = json.Unmarshal(value, table); err != nil {
		return nil, err
	}
	return table, nil
}

// Tables lists the names of all stored tables.
func (r *RedisReporter) Tables(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, REDIS_INDEX_KEY).Result()
}

func (r *RedisReporter) Close() error {
	return r.client.Close()
}

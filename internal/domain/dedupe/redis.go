package dedupe

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/metrics"
)

const scanBatch = 500

// RedisDeduper shares a window between processes. Keys expire in Redis,
// so Size only counts live ones.
type RedisDeduper struct {
	client redis.UniversalClient
	settings
}

// NewRedisDeduper creates a Redis-backed deduper. Keys are stored as
// <prefix><name>:<key>.
func NewRedisDeduper(client redis.UniversalClient, opts ...Option) *RedisDeduper {
	d := &RedisDeduper{client: client, settings: defaultSettings()}
	for _, opt := range opts {
		opt(&d.settings)
	}
	if d.logger == nil {
		d.logger = logger.Get().Named("dedupe")
	}
	return d
}

func (d *RedisDeduper) key(k string) string {
	return d.prefix + d.name + ":" + k
}

// SeenAndRecord uses SET NX PX, which is atomic across processes. A Redis
// failure lets the key through.
func (d *RedisDeduper) SeenAndRecord(ctx context.Context, key string) bool {
	ok, err := d.client.SetNX(ctx, d.key(key), 1, d.window).Result()
	if err != nil {
		metrics.RecordErrorByComponent("dedupe", "redis")
		d.logger.Warn(ctx, "redis dedupe check failed",
			logger.String("deduper", d.name),
			logger.Error(err),
		)
		return false
	}
	return !ok
}

// Unrecord implements Deduper.
func (d *RedisDeduper) Unrecord(ctx context.Context, key string) {
	if err := d.client.Del(ctx, d.key(key)).Err(); err != nil {
		metrics.RecordErrorByComponent("dedupe", "redis")
		d.logger.Warn(ctx, "redis unrecord failed",
			logger.String("deduper", d.name),
			logger.Error(err),
		)
	}
}

// Size scans the deduper's keyspace.
func (d *RedisDeduper) Size() int64 {
	ctx := context.Background()
	var (
		cursor uint64
		n      int64
	)
	for {
		keys, next, err := d.client.Scan(ctx, cursor, d.prefix+d.name+":*", scanBatch).Result()
		if err != nil {
			d.logger.Warn(ctx, "redis scan failed", logger.Error(err))
			return n
		}
		n += int64(len(keys))
		if next == 0 {
			break
		}
		cursor = next
	}
	metrics.UpdateDedupeSize(d.name, n)
	return n
}

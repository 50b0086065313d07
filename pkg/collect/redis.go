package collect

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/stackreport/pkg/errors"
)

// RedisGetter is the subset of a go-redis client used to read series.
type RedisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// LoadRedisSeries reads JSON-encoded series stored under prefix+name for
// each name. Names with no key are skipped.
func LoadRedisSeries(ctx context.Context, client RedisGetter, prefix string, names []string) ([]Series, error) {
	var out []Series
	for _, name := range names {
		key := prefix + name
		data, err := client.Get(ctx, key).Bytes()
		if stderrors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "redis get %s", key)
		}

		var s Series
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode series %s", key)
		}
		if s.Name == "" {
			s.Name = name
		}
		out = append(out, s)
	}
	return out, nil
}

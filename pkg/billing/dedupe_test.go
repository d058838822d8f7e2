package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSetNX struct {
	set  bool
	err  error
	keys []string
	ttls []time.Duration
}

func (f *fakeSetNX) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	f.keys = append(f.keys, key)
	f.ttls = append(f.ttls, expiration)
	return redis.NewBoolResult(f.set, f.err)
}

func TestRedisEventDeduper_Seen(t *testing.T) {
	t.Parallel()

	t.Run("first delivery is unseen", func(t *testing.T) {
		t.Parallel()

		fake := &fakeSetNX{set: true}
		d := &RedisEventDeduper{client: fake, prefix: "billing:webhook:event:", ttl: time.Hour}

		seen, err := d.Seen(context.Background(), "evt_1")
		require.NoError(t, err)
		assert.False(t, seen)
		require.Len(t, fake.keys, 1)
		assert.Equal(t, "billing:webhook:event:evt_1", fake.keys[0])
		assert.Equal(t, time.Hour, fake.ttls[0])
	})

	t.Run("redelivery is seen", func(t *testing.T) {
		t.Parallel()

		fake := &fakeSetNX{set: false}
		d := &RedisEventDeduper{client: fake, prefix: "billing:webhook:event:", ttl: time.Hour}

		seen, err := d.Seen(context.Background(), "evt_1")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("redis failure surfaces", func(t *testing.T) {
		t.Parallel()

		fake := &fakeSetNX{err: errors.New("connection refused")}
		d := &RedisEventDeduper{client: fake, prefix: "billing:webhook:event:", ttl: time.Hour}

		_, err := d.Seen(context.Background(), "evt_1")
		require.Error(t, err)
	})
}

func TestNewRedisEventDeduper_DefaultTTL(t *testing.T) {
	t.Parallel()

	d := NewRedisEventDeduper(nil, 0)
	assert.Equal(t, defaultDedupeTTL, d.ttl)

	d = NewRedisEventDeduper(nil, time.Minute)
	assert.Equal(t, time.Minute, d.ttl)
}

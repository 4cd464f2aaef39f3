package cooldown_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/bot/cooldown"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*miniredis.Miniredis, *cooldown.Limiter) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return mr, cooldown.New(client, zap.NewNop())
}

func TestAllowWithinWindow(t *testing.T) {
	t.Parallel()

	mr, limiter := setup(t)
	rule := cooldown.Rule{Uses: 3, Window: 3500 * time.Millisecond}
	ctx := t.Context()

	for i := range 3 {
		res, err := limiter.Allow(ctx, "urban", 42, rule)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := limiter.Allow(ctx, "urban", 42, rule)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)
	assert.LessOrEqual(t, res.RetryAfter, rule.Window)

	mr.CheckGet(t, cooldown.Key("urban", 42), "4")
}

func TestWindowExpires(t *testing.T) {
	t.Parallel()

	mr, limiter := setup(t)
	rule := cooldown.Rule{Uses: 1, Window: time.Second}
	ctx := t.Context()

	res, err := limiter.Allow(ctx, "urban", 1, rule)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "urban", 1, rule)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	mr.FastForward(time.Second)

	res, err = limiter.Allow(ctx, "urban", 1, rule)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestBucketsAreSeparate(t *testing.T) {
	t.Parallel()

	_, limiter := setup(t)
	rule := cooldown.Rule{Uses: 1, Window: time.Minute}
	ctx := t.Context()

	for _, tc := range []struct {
		bucket string
		user   uint64
	}{
		{"urban", 1},
		{"urban", 2},
		{"urban random", 1},
	} {
		res, err := limiter.Allow(ctx, tc.bucket, snowflake.ID(tc.user), rule)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "%s/%d", tc.bucket, tc.user)
	}
}

func TestZeroRuleAlwaysAllows(t *testing.T) {
	t.Parallel()

	mr, limiter := setup(t)

	res, err := limiter.Allow(t.Context(), "urban", 1, cooldown.Rule{})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.False(t, mr.Exists(cooldown.Key("urban", 1)))
}

func TestReset(t *testing.T) {
	t.Parallel()

	mr, limiter := setup(t)
	rule := cooldown.Rule{Uses: 1, Window: time.Minute}
	ctx := t.Context()

	_, err := limiter.Allow(ctx, "urban", 1, rule)
	require.NoError(t, err)

	require.NoError(t, limiter.Reset(ctx, "urban", 1))
	assert.False(t, mr.Exists(cooldown.Key("urban", 1)))

	res, err := limiter.Allow(ctx, "urban", 1, rule)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

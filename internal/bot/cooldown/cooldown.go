// Package cooldown limits how often a user may run a command.
package cooldown

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const keyPrefix = "cooldown"

// ErrUnexpectedReply is returned when Redis answers the counter script with
// something other than a count and a window.
var ErrUnexpectedReply = errors.New("unexpected cooldown reply")

// hit counts one use in the current window. The window starts on the first
// use and the key expires when it ends.
var hit = rueidis.NewLuaScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// Rule allows Uses uses per Window.
type Rule struct {
	Uses   int
	Window time.Duration
}

// Result is the outcome of a use.
type Result struct {
	Allowed bool
	// Remaining is how many more uses the window allows.
	Remaining int
	// RetryAfter is how long until the window ends. It is zero when allowed.
	RetryAfter time.Duration
}

// Limiter keeps fixed window counters in Redis.
type Limiter struct {
	client rueidis.Client
	logger *zap.Logger
}

// New creates a Limiter backed by client.
func New(client rueidis.Client, logger *zap.Logger) *Limiter {
	return &Limiter{
		client: client,
		logger: logger.Named("cooldown"),
	}
}

// Key builds the Redis key of a bucket and user.
func Key(bucket string, userID snowflake.ID) string {
	return keyPrefix + ":" + bucket + ":" + userID.String()
}

// Allow counts a use of bucket by userID under rule.
func (l *Limiter) Allow(ctx context.Context, bucket string, userID snowflake.ID, rule Rule) (Result, error) {
	if rule.Uses <= 0 || rule.Window <= 0 {
		return Result{Allowed: true}, nil
	}

	window := max(rule.Window.Milliseconds(), 1)
	values, err := hit.Exec(ctx, l.client, []string{Key(bucket, userID)}, []string{strconv.FormatInt(window, 10)}).ToArray()
	if err != nil {
		return Result{}, fmt.Errorf("failed to count use: %w", err)
	}

	if len(values) != 2 {
		return Result{}, fmt.Errorf("%w: %d values", ErrUnexpectedReply, len(values))
	}

	count, err := values[0].AsInt64()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read use count: %w", err)
	}

	ttl, err := values[1].AsInt64()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read window: %w", err)
	}

	if count > int64(rule.Uses) {
		l.logger.Debug("Cooldown hit",
			zap.String("bucket", bucket),
			zap.Uint64("user_id", uint64(userID)),
			zap.Int64("retry_after_ms", ttl))

		return Result{RetryAfter: time.Duration(ttl) * time.Millisecond}, nil
	}

	return Result{Allowed: true, Remaining: rule.Uses - int(count)}, nil
}

// Reset clears the counter of bucket for userID.
func (l *Limiter) Reset(ctx context.Context, bucket string, userID snowflake.ID) error {
	err := l.client.Do(ctx, l.client.B().Del().Key(Key(bucket, userID)).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to reset cooldown: %w", err)
	}

	return nil
}

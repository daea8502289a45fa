package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// ErrLimitExceeded accompanies a denied Result from limiters that report denial as an error.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Result is the outcome of one hit against a key.
type Result struct {
	Allowed   bool
	Remaining int
}

// Limiter counts hits per key over a trailing window of the given length.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// Denied reports whether a Check outcome rejects the hit. Backend errors are not denials.
func Denied(result *Result, err error) bool {
	if err != nil {
		return errors.Is(err, ErrLimitExceeded)
	}
	return result != nil && !result.Allowed
}

// UserKey is the limiter key for hits of one Telegram user.
func UserKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

package ratelimit

import (
	"errors"
	"slices"
	"time"

	"github.com/Proton-105/joke-bot/pkg/config"
)

// Rules encapsulates the configured per-user limit and its whitelist.
type Rules struct {
	config  config.RateLimitConfig
	adminID int64
}

// NewRules constructs rate limiting rules from configuration settings. The privileged
// user is always whitelisted.
func NewRules(cfg config.RateLimitConfig, adminID int64) *Rules {
	return &Rules{config: cfg, adminID: adminID}
}

// IsWhitelisted returns true if the userID bypasses rate limits.
func (r *Rules) IsWhitelisted(userID int64) bool {
	if userID == r.adminID {
		return true
	}
	return slices.Contains(r.config.Whitelist, userID)
}

// GetPerUserLimit returns the per-user rate limiting rule.
func (r *Rules) GetPerUserLimit() (int, time.Duration, error) {
	return parseRule(r.config.PerUser)
}

func parseRule(rule config.RateLimitRule) (int, time.Duration, error) {
	if rule.Window == "" {
		return rule.Limit, 0, errors.New("window duration is not set")
	}
	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return 0, 0, err
	}
	if window <= 0 {
		return 0, 0, errors.New("window duration must be positive")
	}
	return rule.Limit, window, nil
}

package utils

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/socialbbs/config"
)

var (
	signupCounts   = map[string]int{}
	signupCountsMu sync.Mutex
)

func regKey(parts ...string) string {
	return "reg:" + strings.Join(parts, ":")
}

func signupDay(now time.Time) string {
	return now.Format("20060102")
}

// RegistrationDailyLimitCheck allows up to SignupMaxPerIPPerDay successful signups per IP.
// A zero limit disables the check.
func RegistrationDailyLimitCheck(ip string) bool {
	limit := config.Get().SignupMaxPerIPPerDay
	if limit <= 0 {
		return true
	}
	key := regKey("succday", ip, signupDay(time.Now()))
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		n, err := rc.Get(ctx, key).Int()
		switch {
		case err == redis.Nil:
			return true
		case err != nil:
			// fail-open
			Sugar.Warnf("signup limit lookup failed ip=%s err=%v", ip, err)
			return true
		default:
			return n < limit
		}
	}
	signupCountsMu.Lock()
	defer signupCountsMu.Unlock()
	return signupCounts[key] < limit
}

// RegistrationDailyIncrement records a successful signup for today.
func RegistrationDailyIncrement(ip string) {
	now := time.Now()
	key := regKey("succday", ip, signupDay(now))
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		if err := rc.Incr(ctx, key).Err(); err == nil {
			// expire at the end of the day
			ttl := time.Until(now.Truncate(24 * time.Hour).Add(24 * time.Hour))
			_ = rc.Expire(ctx, key, ttl).Err()
		}
		return
	}
	signupCountsMu.Lock()
	signupCounts[key]++
	signupCountsMu.Unlock()
}

// pruneSignupCounts drops in-memory counters from previous days.
func pruneSignupCounts(now time.Time) {
	suffix := ":" + signupDay(now)
	signupCountsMu.Lock()
	for k := range signupCounts {
		if !strings.HasSuffix(k, suffix) {
			delete(signupCounts, k)
		}
	}
	signupCountsMu.Unlock()
}

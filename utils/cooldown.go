package utils

import (
	"context"
	"sync"
	"time"
)

var (
	cooldowns   = map[string]time.Time{}
	cooldownsMu sync.Mutex
)

func cooldownKey(scope, subject string) string {
	return "cooldown:" + scope + ":" + subject
}

// CooldownTrySet claims a cooldown slot for subject within scope.
// Returns true if the slot was free and is now taken, false while cooling down.
func CooldownTrySet(scope, subject string, cooldown time.Duration) bool {
	key := cooldownKey(scope, subject)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		ok, err := rc.SetNX(ctx, key, "1", cooldown).Result()
		if err == nil {
			return ok
		}
		Sugar.Warnf("cooldown set failed key=%s err=%v", key, err)
	}

	now := time.Now()
	cooldownsMu.Lock()
	defer cooldownsMu.Unlock()
	if until, ok := cooldowns[key]; ok && now.Before(until) {
		return false
	}
	cooldowns[key] = now.Add(cooldown)
	return true
}

// EmailCooldownTrySet throttles outgoing mail per address.
func EmailCooldownTrySet(email string, cooldown time.Duration) bool {
	return CooldownTrySet("email", email, cooldown)
}

// CooldownReset releases a cooldown slot, e.g. after the guarded action failed.
func CooldownReset(scope, subject string) {
	key := cooldownKey(scope, subject)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rc.Del(ctx, key).Err()
	}
	cooldownsMu.Lock()
	delete(cooldowns, key)
	cooldownsMu.Unlock()
}

// pruneCooldowns drops expired in-memory entries.
func pruneCooldowns(now time.Time) {
	cooldownsMu.Lock()
	for k, until := range cooldowns {
		if now.After(until) {
			delete(cooldowns, k)
		}
	}
	cooldownsMu.Unlock()
}

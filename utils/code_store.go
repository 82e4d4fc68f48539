package utils

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Verification codes are short-lived login secrets: 6 random digits,
// bcrypt-hashed at rest, expiring after their TTL and consumed on the
// first successful verification. Redis is preferred so codes survive
// restarts and are shared between instances; a process-local map serves
// as fallback when Redis is unreachable.

type codeEntry struct {
	hash      string
	expiresAt time.Time
}

var (
	codeStore   = map[string]codeEntry{}
	codeStoreMu sync.Mutex
)

// GenerateVerificationCode creates a numeric code with given length.
func GenerateVerificationCode(n int) string {
	if n <= 0 {
		n = 6
	}
	digits := make([]byte, n)
	for i := 0; i < n; i++ {
		// crypto/rand for better unpredictability
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// fallback to time based modulo if crypto fails
			v = big.NewInt(time.Now().UnixNano() % 10)
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits)
}

func codeKey(phone string) string {
	return "verify:phone:" + phone
}

// SaveCode hashes and stores a code for a phone with TTL. A newer code
// always overwrites the previous one. Prefer Redis; fallback to memory.
func SaveCode(phone, code string, ttl time.Duration) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := redisOpContext()
		defer cancel()
		if err := rc.Set(ctx, codeKey(phone), string(hash), ttl).Err(); err == nil {
			return nil
		}
	}
	codeStoreMu.Lock()
	codeStore[phone] = codeEntry{hash: string(hash), expiresAt: time.Now().Add(ttl)}
	codeStoreMu.Unlock()
	return nil
}

// VerifyAndConsumeCode checks a code against the stored hash and deletes
// it on success, so each code authenticates at most one login. A wrong
// guess leaves the code in place until its TTL runs out.
func VerifyAndConsumeCode(phone, code string) bool {
	key := codeKey(phone)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := redisOpContext()
		defer cancel()
		hash, err := rc.Get(ctx, key).Result()
		if err == nil {
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
				return false
			}
			_ = rc.Del(ctx, key).Err()
			return true
		}
		// On Redis error (e.g., network), fall through to memory fallback
	}
	codeStoreMu.Lock()
	defer codeStoreMu.Unlock()
	entry, ok := codeStore[phone]
	if !ok {
		return false
	}
	if time.Now().After(entry.expiresAt) {
		delete(codeStore, phone)
		return false
	}
	if bcrypt.CompareHashAndPassword([]byte(entry.hash), []byte(code)) != nil {
		return false
	}
	delete(codeStore, phone)
	return true
}

// SendCooldownTrySet sets a cooldown key for a phone. Returns true if set,
// false if still cooling down.
func SendCooldownTrySet(phone string, cooldown time.Duration) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := redisOpContext()
		defer cancel()
		key := "cooldown:phone:" + phone
		// NX with TTL
		if ok, err := rc.SetNX(ctx, key, "1", cooldown).Result(); err == nil {
			return ok
		}
	}
	// memory fallback
	key := "cooldown:phone:mem:" + phone
	codeStoreMu.Lock()
	defer codeStoreMu.Unlock()
	if entry, ok := codeStore[key]; ok && time.Now().Before(entry.expiresAt) {
		return false
	}
	codeStore[key] = codeEntry{expiresAt: time.Now().Add(cooldown)}
	return true
}

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"os"
	"time"
)

// DefaultSalt seeds the daily bag when DAILY_SALT is unset. The server and
// the desktop client must agree on it to deal the same letters.
const DefaultSalt = "local_dev_salt"

// SaltFromEnv returns DAILY_SALT, or DefaultSalt when it is empty.
func SaltFromEnv() string {
	if v := os.Getenv("DAILY_SALT"); v != "" {
		return v
	}
	return DefaultSalt
}

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns the letter-bag seed for a date: the first 8 bytes of
// HMAC-SHA256(salt, YYYY-MM-DD). Everyone playing the same day gets the same bag.
func Seed(date time.Time, salt string) uint64 {
	return SeedForKey(DateKey(date), salt)
}

// SeedForKey is Seed for an already formatted date key. It never returns 0.
func SeedForKey(key, salt string) uint64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(key))
	sum := h.Sum(nil)
	n := binary.BigEndian.Uint64(sum[:8])
	if n == 0 {
		return 1
	}
	return n
}

package utils

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// timingPads holds one throwaway hash per bcrypt cost.  Unknown-user
// logins compare against the pad of the configured cost so they take as
// long as a wrong password does.
var (
	padMu      sync.Mutex
	timingPads = map[int][]byte{}
)

func timingPad(cost int) []byte {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	padMu.Lock()
	defer padMu.Unlock()
	if pad, ok := timingPads[cost]; ok {
		return pad
	}
	pad, _ := bcrypt.GenerateFromPassword([]byte("coog-music-timing-pad"), cost)
	timingPads[cost] = pad
	return pad
}

// BurnPasswordCheck performs a throwaway bcrypt comparison at cost.
func BurnPasswordCheck(plain string, cost int) {
	_ = bcrypt.CompareHashAndPassword(timingPad(cost), []byte(plain))
}

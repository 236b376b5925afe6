package core

import (
	"math/rand"
	"time"
)

// NewRand returns a seeded source; seed 0 derives one from the wall clock
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

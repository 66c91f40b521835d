// Package entropy provides the random sources behind every colony draw.
// Production runs read crypto/rand; tests inject a seeded source so that
// scheduling and naming are reproducible.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync"
)

// Source is the randomness every draw in the colony goes through.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n). n must be positive.
	Intn(n int) int
	// Shuffle permutes n elements through swap.
	Shuffle(n int, swap func(i, j int))
}

// Seeded is a deterministic Source backed by math/rand.
type Seeded struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeeded creates a deterministic source for the given seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewSource(seed))}
}

func (s *Seeded) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *Seeded) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *Seeded) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(n, swap)
}

// Crypto draws from crypto/rand. The zero value is ready to use.
type Crypto struct{}

func (Crypto) Float64() float64 {
	return cryptoRandFloat()
}

func (Crypto) Intn(n int) int {
	if n <= 0 {
		panic("entropy: invalid argument to Intn")
	}
	i := int(cryptoRandFloat() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Shuffle is a Fisher-Yates pass over crypto draws.
func (c Crypto) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, c.Intn(i+1))
	}
}

// cryptoRandFloat generates a uniform float64 in [0, 1) using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

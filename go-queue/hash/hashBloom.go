package hash

import (
	"math"

	bitmap "github.com/boljen/go-bitmap"
)

// HashBloom is a bloom filter over TTH values. The digest is already a
// uniformly distributed hash, so the k positions are cut directly out of
// its bits instead of rehashing.
type HashBloom struct {
	bloom bitmap.Bitmap
	k     int
	m     int
	h     int
}

func NewHashBloom() *HashBloom {
	return &HashBloom{}
}

// GetK returns the largest number of hash positions, each h bits wide,
// that still keeps the filter for n items below 2^24 bits.
func GetK(n, h int) int {
	for k := TTH_BITS / h; k > 1; k-- {
		m := GetM(n, k)
		if m>>24 == 0 {
			return k
		}
	}
	return 1
}

// GetM returns the filter size for n items and k positions, rounded up to
// the next 64 bit boundary.
func GetM(n, k int) uint64 {
	m := uint64(math.Ceil(float64(n) * float64(k) / math.Ln2))
	return ((m / 64) + 1) * 64
}

// Reset clears the filter and resizes it to m bits with k positions of h
// bits each. k*h must not exceed TTH_BITS.
func (b *HashBloom) Reset(k, m, h int) {
	b.bloom = bitmap.New(m)
	b.k = k
	b.m = m
	b.h = h
}

func (b *HashBloom) Add(tth TTHValue) {
	for i := 0; i < b.k; i++ {
		b.bloom.Set(b.pos(tth, i), true)
	}
}

func (b *HashBloom) Match(tth TTHValue) bool {
	if b.m == 0 {
		return false
	}
	for i := 0; i < b.k; i++ {
		if !b.bloom.Get(b.pos(tth, i)) {
			return false
		}
	}
	return true
}

// Bytes returns a copy of the filter bits, least significant bit first.
func (b *HashBloom) Bytes() []byte {
	return b.bloom.Data(true)[:(b.m+7)/8]
}

func (b *HashBloom) K() int { return b.k }
func (b *HashBloom) M() int { return b.m }
func (b *HashBloom) H() int { return b.h }

func (b *HashBloom) pos(tth TTHValue, n int) int {
	digest := bitmap.Bitmap(tth[:])
	var x uint64
	start := n * b.h
	for j := 0; j < b.h; j++ {
		if digest.Get(start + j) {
			x |= uint64(1) << uint(j)
		}
	}
	return int(x % uint64(b.m))
}

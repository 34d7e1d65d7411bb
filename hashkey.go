package arena

import "math/rand/v2"

// ensureHashKey lazily seeds the arena's 64-bit hash key on first use. Zero
// is not a valid key (it would make every arena with no explicit
// WithHashKey/WithRandSource collide on re-seeding), so the loop reseeds if
// the source ever returns zero.
func (a *Arena) ensureHashKey() uint64 {
	for a.hashKey == 0 {
		src := a.randSource
		if src == nil {
			src = rand.Uint64
		}
		a.hashKey = src()
	}
	return a.hashKey
}

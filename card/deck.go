package card

import (
	crypto_rand "crypto/rand"
	"encoding/binary"
	"math/rand"
)

func newSeed() rand.Source {
	var b [8]byte
	_, err := crypto_rand.Read(b[:])
	if err != nil {
		panic("cannot seed math/rand package with cryptographically secure random number generator")
	}
	return rand.NewSource(int64(binary.LittleEndian.Uint64(b[:])))
}

// Shuffle returns a uniformly shuffled copy of cards. A nil source is
// seeded from crypto/rand; tests pass a fixed source for reproducible
// deals.
func Shuffle(cards []Card, source rand.Source) []Card {
	if source == nil {
		source = newSeed()
	}
	randGen := rand.New(source)
	result := append([]Card(nil), cards...)
	randGen.Shuffle(len(result), func(i, j int) {
		result[i], result[j] = result[j], result[i]
	})
	return result
}

package field

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// deterministicSeedValue folds the root seed and a label into a stable
// 64-bit seed, so the same catalog entry always draws the same silhouette
// and drift regardless of seeding order.
func deterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

func newDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(deterministicSeedValue(rootSeed, label)))
}

func randRange(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + rng.Float64()*(max-min)
}

func randAngle(rng *rand.Rand) float64 {
	return rng.Float64() * 2 * math.Pi
}

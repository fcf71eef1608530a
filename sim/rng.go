package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SimulationKey identifies a reproducible run: the same key and Config always
// yield the same Report.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// StreamWorkload names the stream of a single run. Its seed is the key itself,
// so --seed N reproduces rand.NewSource(N).
const StreamWorkload = "workload"

// StreamReplication names the stream of replication i.
func StreamReplication(i int) string {
	return fmt.Sprintf("replication_%d", i)
}

// DeriveSeed returns the seed of the named stream under key. Every stream
// other than StreamWorkload is key XOR fnv1a64(name).
func DeriveSeed(key SimulationKey, stream string) int64 {
	if stream == StreamWorkload {
		return int64(key)
	}
	h := fnv.New64a()
	h.Write([]byte(stream))
	return int64(key) ^ int64(h.Sum64())
}

// NewStream returns a fresh generator for the named stream. Streams share no
// state, so each may be handed to its own goroutine.
func NewStream(key SimulationKey, stream string) *rand.Rand {
	return rand.New(rand.NewSource(DeriveSeed(key, stream)))
}

// Package randstream implements splittable, deterministic random
// streams for reproducible training runs.
//
// A Cursor is a value type describing a position in a counter-based
// random stream. Splitting a Cursor deterministically derives a fresh,
// independent sub-stream together with a continuation Cursor, so that
// the same (seed, call sequence) always reproduces the same sequence
// of splits. Cursors are never mutated in place.
package randstream

import "golang.org/x/exp/rand"

// Odd constants for the splitmix64 finalizer and for decorrelating
// sibling streams.
const (
	golden     uint64 = 0x9e3779b97f4a7c15
	mixShift1         = 30
	mixShift2         = 27
	mixShift3         = 31
	mixMul1    uint64 = 0xbf58476d1ce4e5b9
	mixMul2    uint64 = 0x94d049bb133111eb
	sourceSalt uint64 = 0xd1342543de82ef95
)

// mix is the splitmix64 output permutation. It bijectively scrambles
// its input so that related keys yield unrelated streams.
func mix(z uint64) uint64 {
	z = (z ^ (z >> mixShift1)) * mixMul1
	z = (z ^ (z >> mixShift2)) * mixMul2
	return z ^ (z >> mixShift3)
}

// Cursor is a position in a deterministic random stream. The zero
// Cursor is a valid stream seeded with 0.
type Cursor struct {
	Key   uint64
	Count uint64
}

// New returns a Cursor for the stream identified by seed.
func New(seed uint64) Cursor {
	return Cursor{Key: mix(seed + golden)}
}

// Split derives a fresh sub-stream from the Cursor and returns it
// along with the continuation Cursor. The receiver is unchanged; the
// caller must thread the returned continuation to preserve
// reproducibility.
func (c Cursor) Split() (sub, next Cursor) {
	sub = Cursor{Key: mix(c.Key + golden*(c.Count+1))}
	next = Cursor{Key: c.Key, Count: c.Count + 1}
	return sub, next
}

// Source returns a rand.Source seeded deterministically from the
// Cursor. Repeated calls on the same Cursor return identically seeded
// sources.
func (c Cursor) Source() rand.Source {
	return rand.NewSource(mix(c.Key^sourceSalt) + golden*c.Count)
}

// Rand returns a *rand.Rand drawing from the Cursor's Source.
func (c Cursor) Rand() *rand.Rand {
	return rand.New(c.Source())
}

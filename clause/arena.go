package clause

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Index is a stable handle into an Arena, per the "arena/slab allocation
// with indices into a single pool" resource guidance: a dense integer key
// is far cheaper to hash and compare than the Clause tree. Package engine
// does not memoize on it; its memo table is keyed by rule name and
// position.
type Index int

// Arena interns clauses reachable from a set of roots and hands out stable
// Index values, deduplicating structurally identical clauses so that two
// occurrences of e.g. Value("x") in a grammar share one memo slot.
type Arena struct {
	clauses []Clause
	index   map[string]Index // canonical rendering -> Index, for dedup
}

// NewArena builds an Arena containing every clause reachable from roots,
// in post-order (a clause always follows its sub-clauses), matching the
// bottom-up topological order used elsewhere in this kind of IR.
func NewArena(roots ...Clause) *Arena {
	a := &Arena{index: make(map[string]Index)}
	for _, root := range roots {
		a.intern(root)
	}
	return a
}

func (a *Arena) intern(c Clause) Index {
	key := dedupeKey(c)
	if idx, ok := a.index[key]; ok {
		return idx
	}
	for _, child := range c.Children {
		a.intern(child)
	}
	idx := Index(len(a.clauses))
	a.clauses = append(a.clauses, c)
	a.index[key] = idx
	return idx
}

// dedupeKey renders a clause including its children into a string unique
// up to structural equality; cheap enough for grammar-construction-time
// interning (never on the parse hot path).
func dedupeKey(c Clause) string {
	return Render(c) + "#" + c.Kind.String()
}

// Get returns the clause stored at idx.
func (a *Arena) Get(idx Index) Clause { return a.clauses[idx] }

// Len returns the number of distinct clauses interned.
func (a *Arena) Len() int { return len(a.clauses) }

// IndexOf returns the Index a structurally-equal clause was interned
// under, or false if c was never interned into this arena.
func (a *Arena) IndexOf(c Clause) (Index, bool) {
	idx, ok := a.index[dedupeKey(c)]
	return idx, ok
}

// MemoKey packs a clause Index and an input position into a single dense
// hash, suitable as a map key for the engine's memoization table (Design
// Notes: "a hash map keyed by packed (clause-index, position) suffices").
func MemoKey(idx Index, position int) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(idx))
	binary.LittleEndian.PutUint64(buf[8:], uint64(position))
	return xxhash.Sum64(buf[:])
}

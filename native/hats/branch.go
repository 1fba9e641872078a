package hats

import (
	"errors"

	"github.com/holiman/uint256"
)

const (
	// TopDomainBits is the width of the tree identifier packed into the top
	// of a hat id.
	TopDomainBits = 32
	// LevelBits is the width of each lower-level field below the top domain.
	LevelBits = 16
	// MaxLevels is the number of lower-level fields a hat id can carry.
	MaxLevels = 14
)

// ErrTopHat is returned when an operation requires an admin above a hat that
// is already at the top of its tree.
var ErrTopHat = errors.New("hats: top hat has no admin")

// Level returns the depth of the hat id within its tree: the count of
// non-zero lower-level fields. A top hat is level 0.
func Level(id *uint256.Int) uint32 {
	if id == nil {
		return 0
	}
	for level := uint32(MaxLevels); level > 0; level-- {
		if levelField(id, level) != 0 {
			return level
		}
	}
	return 0
}

func levelField(id *uint256.Int, level uint32) uint64 {
	shift := uint(LevelBits * (MaxLevels - level))
	return new(uint256.Int).Rsh(id, shift).Uint64() & (1<<LevelBits - 1)
}

// AncestorAtLevel masks off every field below the requested level, recovering
// the ancestor id at that depth. Level 0 yields the top hat of the tree.
// Requesting a level at or beyond the hat's own depth returns the id
// unchanged.
func AncestorAtLevel(id *uint256.Int, level uint32) *uint256.Int {
	if id == nil {
		return new(uint256.Int)
	}
	if level >= MaxLevels {
		return new(uint256.Int).Set(id)
	}
	shift := uint(LevelBits * (MaxLevels - level))
	out := new(uint256.Int).Rsh(id, shift)
	return out.Lsh(out, shift)
}

// IsInBranch reports whether node sits inside the branch rooted at root. A
// node is in the branch when it equals the root or when any of its ancestors
// does. The scan is bounded by MaxLevels and never recurses.
func IsInBranch(node, root *uint256.Int) bool {
	if node == nil || root == nil || root.IsZero() {
		return false
	}
	if node.Eq(root) {
		return true
	}
	for level := uint32(0); level < Level(node); level++ {
		if AncestorAtLevel(node, level).Eq(root) {
			return true
		}
	}
	return false
}

// ImmediateAdmin returns the hat id one level above the supplied id. Top hats
// have no admin and yield ErrTopHat.
func ImmediateAdmin(id *uint256.Int) (*uint256.Int, error) {
	level := Level(id)
	if level == 0 {
		return nil, ErrTopHat
	}
	return AncestorAtLevel(id, level-1), nil
}

// TopDomain extracts the tree identifier from the top bits of the id.
func TopDomain(id *uint256.Int) uint32 {
	if id == nil {
		return 0
	}
	return uint32(new(uint256.Int).Rsh(id, 256-TopDomainBits).Uint64())
}

// IsAssignable reports whether the id belongs to a tree the directory could
// ever issue. Tree domain 0 is never assigned, which makes low ids safe to
// use as sentinels.
func IsAssignable(id *uint256.Int) bool {
	return TopDomain(id) != 0
}

package hats

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func hatID(domain uint32, levels ...uint16) *uint256.Int {
	id := new(uint256.Int).Lsh(uint256.NewInt(uint64(domain)), 256-TopDomainBits)
	for i, field := range levels {
		shift := uint(LevelBits * (MaxLevels - (i + 1)))
		id.Or(id, new(uint256.Int).Lsh(uint256.NewInt(uint64(field)), shift))
	}
	return id
}

func fullDepth(domain uint32) *uint256.Int {
	levels := make([]uint16, MaxLevels)
	for i := range levels {
		levels[i] = uint16(i + 1)
	}
	return hatID(domain, levels...)
}

func TestLevel(t *testing.T) {
	cases := []struct {
		name string
		id   *uint256.Int
		want uint32
	}{
		{"nil", nil, 0},
		{"zero", new(uint256.Int), 0},
		{"top hat", hatID(1), 0},
		{"level one", hatID(1, 1), 1},
		{"level two", hatID(1, 1, 9), 2},
		{"max depth", fullDepth(1), MaxLevels},
		{"sparse fields count deepest", hatID(1, 0, 5), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Level(tc.id); got != tc.want {
				t.Fatalf("Level() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestAncestorAtLevel(t *testing.T) {
	deep := hatID(3, 1, 2, 3)
	cases := []struct {
		name  string
		level uint32
		want  *uint256.Int
	}{
		{"level zero is top hat", 0, hatID(3)},
		{"level one", 1, hatID(3, 1)},
		{"level two", 2, hatID(3, 1, 2)},
		{"own level returns id", 3, hatID(3, 1, 2, 3)},
		{"beyond max returns id", MaxLevels + 1, hatID(3, 1, 2, 3)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AncestorAtLevel(deep, tc.level); !got.Eq(tc.want) {
				t.Fatalf("AncestorAtLevel(%d) = %s, want %s", tc.level, got.Hex(), tc.want.Hex())
			}
		})
	}
}

func TestIsInBranch(t *testing.T) {
	cases := []struct {
		name string
		node *uint256.Int
		root *uint256.Int
		want bool
	}{
		{"node equals root", hatID(1, 1), hatID(1, 1), true},
		{"direct child", hatID(1, 1, 2), hatID(1, 1), true},
		{"grandchild", hatID(1, 1, 2, 3), hatID(1, 1), true},
		{"top hat roots whole tree", hatID(1, 1, 2, 3), hatID(1), true},
		{"sibling branch", hatID(1, 2, 1), hatID(1, 1), false},
		{"different tree", hatID(2, 1), hatID(1, 1), false},
		{"root deeper than node", hatID(1, 1), hatID(1, 1, 2), false},
		{"zero root never matches", hatID(1, 1), new(uint256.Int), false},
		{"max depth stays inside", fullDepth(1), hatID(1, 1), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsInBranch(tc.node, tc.root); got != tc.want {
				t.Fatalf("IsInBranch() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestImmediateAdmin(t *testing.T) {
	admin, err := ImmediateAdmin(hatID(1, 1, 2))
	if err != nil {
		t.Fatalf("ImmediateAdmin: %v", err)
	}
	if !admin.Eq(hatID(1, 1)) {
		t.Fatalf("ImmediateAdmin = %s, want %s", admin.Hex(), hatID(1, 1).Hex())
	}

	admin, err = ImmediateAdmin(hatID(1, 1))
	if err != nil {
		t.Fatalf("ImmediateAdmin: %v", err)
	}
	if !admin.Eq(hatID(1)) {
		t.Fatalf("ImmediateAdmin = %s, want top hat", admin.Hex())
	}

	if _, err := ImmediateAdmin(hatID(1)); !errors.Is(err, ErrTopHat) {
		t.Fatalf("ImmediateAdmin(top hat) err = %v, want ErrTopHat", err)
	}
}

func TestTopDomain(t *testing.T) {
	if got := TopDomain(hatID(42, 1, 2)); got != 42 {
		t.Fatalf("TopDomain = %d, want 42", got)
	}
	if IsAssignable(uint256.NewInt(1)) {
		t.Fatal("tree domain 0 must never be assignable")
	}
	if !IsAssignable(hatID(1)) {
		t.Fatal("tree domain 1 must be assignable")
	}
}

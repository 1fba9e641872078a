package hats

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Directory abstracts the external hat hierarchy that owns wearer, creation
// and status semantics. Implementations are expected to execute Multicall
// batches transactionally: either every call applies or none do.
type Directory interface {
	// IsWearer reports whether the address currently wears the hat.
	IsWearer(wearer common.Address, hat *uint256.Int) (bool, error)
	// CreateHat mints a new hat under admin and returns the assigned id.
	CreateHat(admin *uint256.Int, details string, maxSupply uint32, eligibility, toggle common.Address, mutable bool, imageURI string) (*uint256.Int, error)
	// NextHatID returns the id the directory would assign to the next hat
	// created under admin.
	NextHatID(admin *uint256.Int) (*uint256.Int, error)
	// SetHatStatus toggles a hat active or inactive.
	SetHatStatus(hat *uint256.Int, active bool) error
	// Multicall forwards an ordered batch of encoded directory calls,
	// applied all-or-nothing.
	Multicall(calls [][]byte) error
}

package treasury

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// State persists proposals, the allowance ledger and module parameters. The
// lifecycle engine exclusively owns proposal writes and ledger credits; the
// withdrawal gateway exclusively owns ledger debits. No other writers exist.
//
// Implementations must return deep copies from getters: the engine and
// gateway stage mutations in memory and only persist them once paired
// external effects succeed.
type State interface {
	ProposalGet(id common.Hash) (*Proposal, bool, error)
	ProposalPut(p *Proposal) error
	AllowanceGet(key LedgerKey) (*uint256.Int, error)
	AllowanceSet(key LedgerKey, remaining *uint256.Int) error
	ParamGet(name string) ([]byte, bool, error)
	ParamSet(name string, value []byte) error
}

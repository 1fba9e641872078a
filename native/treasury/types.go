package treasury

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ProposalState enumerates the lifecycle phases a funding proposal moves
// through. Escalated, Canceled, Rejected and Executed are absorbing: no
// operation leaves them.
type ProposalState uint8

const (
	// StateNone marks an identity that has never been used.
	StateNone ProposalState = iota
	// StateActive marks a proposal awaiting approval.
	StateActive
	// StateApproved marks a proposal whose timelock is running.
	StateApproved
	// StateEscalated marks a proposal pulled by the emergency brake.
	StateEscalated
	// StateCanceled marks a proposal withdrawn by its submitter.
	StateCanceled
	// StateRejected marks a proposal turned down by its approver.
	StateRejected
	// StateExecuted marks a proposal whose allowance has been credited.
	StateExecuted
)

// Valid reports whether the state value is within the supported range.
func (s ProposalState) Valid() bool {
	return s <= StateExecuted
}

// String implements fmt.Stringer for logs, events and error payloads.
func (s ProposalState) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateActive:
		return "active"
	case StateApproved:
		return "approved"
	case StateEscalated:
		return "escalated"
	case StateCanceled:
		return "canceled"
	case StateRejected:
		return "rejected"
	case StateExecuted:
		return "executed"
	default:
		return "invalid"
	}
}

// Terminal reports whether the state admits no further transitions.
func (s ProposalState) Terminal() bool {
	switch s {
	case StateEscalated, StateCanceled, StateRejected, StateExecuted:
		return true
	default:
		return false
	}
}

// PublicExecutionHatID is the sentinel executor role meaning execution is
// open to any caller. Its tree domain (top 32 bits) is zero and the directory
// never issues tree 0, so the value cannot collide with an assignable hat id.
var PublicExecutionHatID = uint256.NewInt(1)

// MaxLedgerAmount caps funding amounts and allowance counters at 2^88-1.
// Credits that would push a counter past the cap trap instead of wrapping.
var MaxLedgerAmount = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 88), 1)

// NativeToken is the sentinel token address denoting the chain's native
// asset.
var NativeToken = common.Address{}

// Proposal captures a single funding proposal drawn against a custodian
// wallet. The identity is content-addressed over every economically relevant
// field plus the submitter and chain identity, so a record can never be
// reused for a different payload.
type Proposal struct {
	ID            common.Hash
	Submitter     common.Address
	FundingAmount *uint256.Int
	State         ProposalState
	FundingToken  common.Address
	ETA           uint64
	TimelockSec   uint32
	Custodian     common.Address
	RecipientHat  *uint256.Int
	ApproverHat   *uint256.Int
	ReservedHat   *uint256.Int
	Multicall     [][]byte
}

// Clone returns a deep copy so callers can mutate the result without touching
// stored records.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	clone := *p
	clone.FundingAmount = cloneAmount(p.FundingAmount)
	clone.RecipientHat = cloneAmount(p.RecipientHat)
	clone.ApproverHat = cloneAmount(p.ApproverHat)
	clone.ReservedHat = cloneAmount(p.ReservedHat)
	if p.Multicall != nil {
		clone.Multicall = make([][]byte, len(p.Multicall))
		for i, call := range p.Multicall {
			clone.Multicall[i] = append([]byte(nil), call...)
		}
	}
	return &clone
}

func cloneAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}

func cloneCalls(calls [][]byte) [][]byte {
	if calls == nil {
		return nil
	}
	out := make([][]byte, len(calls))
	for i, call := range calls {
		out[i] = append([]byte(nil), call...)
	}
	return out
}

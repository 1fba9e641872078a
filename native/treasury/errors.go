package treasury

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	errStateNotConfigured     = errors.New("treasury: state not configured")
	errDirectoryNotConfigured = errors.New("treasury: hat directory not configured")
	errModuleNotConfigured    = errors.New("treasury: allowance module not configured")
	errRoleNotConfigured      = errors.New("treasury: role not configured")

	// ErrProposalNotFound is returned when the identity has no record.
	ErrProposalNotFound = errors.New("treasury: proposal not found")
	// ErrAmountRange is returned when a funding amount exceeds the ledger
	// capacity.
	ErrAmountRange = errors.New("treasury: amount exceeds ledger capacity")
	// ErrRecipientRequired is returned when a proposal names no recipient
	// hat.
	ErrRecipientRequired = errors.New("treasury: recipient hat required")
	// ErrZeroWithdrawal is returned when a withdrawal requests nothing.
	ErrZeroWithdrawal = errors.New("treasury: withdrawal amount must be positive")
	// ErrProposalsPaused gates create, approve and execute while proposal
	// operations are paused.
	ErrProposalsPaused = errors.New("treasury: proposal operations paused")
	// ErrWithdrawalsPaused gates withdrawals while paused.
	ErrWithdrawalsPaused = errors.New("treasury: withdrawals paused")
	// ErrTimelockRequired is returned when the fast path is attempted on a
	// proposal carrying a non-zero timelock.
	ErrTimelockRequired = errors.New("treasury: proposal carries a timelock, approve and execute separately")
)

// AlreadyUsedError reports an identity that already reached a non-None state.
type AlreadyUsedError struct {
	ID common.Hash
}

func (e *AlreadyUsedError) Error() string {
	return fmt.Sprintf("treasury: proposal id %s already used", e.ID.Hex())
}

// InvalidStateError reports an operation attempted in a state that does not
// admit it. The current state is attached so callers can distinguish
// "already executed" from "escalated" from "never approved".
type InvalidStateError struct {
	ID    common.Hash
	State ProposalState
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("treasury: proposal %s in state %s", e.ID.Hex(), e.State)
}

// TimelockPendingError reports an execution attempted before the proposal's
// eta.
type TimelockPendingError struct {
	ETA uint64
	Now uint64
}

func (e *TimelockPendingError) Error() string {
	return fmt.Sprintf("treasury: execution locked until %d, now %d", e.ETA, e.Now)
}

// UnauthorizedError reports a caller lacking the required authority. Hat is
// nil for submitter-only operations.
type UnauthorizedError struct {
	Caller common.Address
	Hat    *uint256.Int
}

func (e *UnauthorizedError) Error() string {
	if e.Hat == nil {
		return fmt.Sprintf("treasury: caller %s not authorized", e.Caller.Hex())
	}
	return fmt.Sprintf("treasury: caller %s does not wear hat %s", e.Caller.Hex(), e.Hat.Hex())
}

// AllowanceExceededError reports a withdrawal larger than the remaining
// allowance.
type AllowanceExceededError struct {
	Remaining *uint256.Int
	Requested *uint256.Int
}

func (e *AllowanceExceededError) Error() string {
	return fmt.Sprintf("treasury: allowance exceeded: remaining %s, requested %s", e.Remaining.Dec(), e.Requested.Dec())
}

// LedgerOverflowError reports a credit that would push an allowance counter
// past MaxLedgerAmount.
type LedgerOverflowError struct {
	Remaining *uint256.Int
	Credit    *uint256.Int
}

func (e *LedgerOverflowError) Error() string {
	return fmt.Sprintf("treasury: ledger overflow: remaining %s, credit %s", e.Remaining.Dec(), e.Credit.Dec())
}

// ReservedHatMismatchError reports a reserved hat id that no longer matches
// the directory's next assignment under its admin, meaning another actor
// consumed the slot.
type ReservedHatMismatchError struct {
	Requested *uint256.Int
	Next      *uint256.Int
}

func (e *ReservedHatMismatchError) Error() string {
	return fmt.Sprintf("treasury: reserved hat %s no longer available, next id %s", e.Requested.Hex(), e.Next.Hex())
}

// BranchError reports a hat resolving outside the required branch.
type BranchError struct {
	Hat  *uint256.Int
	Root *uint256.Int
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("treasury: hat %s outside branch %s", e.Hat.Hex(), e.Root.Hex())
}

// TransferRejectedError reports a token transfer that returned an explicit
// boolean false.
type TransferRejectedError struct {
	Token common.Address
	Ret   []byte
}

func (e *TransferRejectedError) Error() string {
	return fmt.Sprintf("treasury: token %s rejected transfer: 0x%s", e.Token.Hex(), hex.EncodeToString(e.Ret))
}

// MalformedReturnError reports token return data that is neither empty nor a
// well-formed boolean word. It is never treated as success.
type MalformedReturnError struct {
	Token common.Address
	Ret   []byte
}

func (e *MalformedReturnError) Error() string {
	return fmt.Sprintf("treasury: token %s returned malformed data: 0x%s", e.Token.Hex(), hex.EncodeToString(e.Ret))
}

// ExecutionFailedError reports a custodial wallet call that failed outright,
// carrying whatever return data the call produced.
type ExecutionFailedError struct {
	Ret []byte
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("treasury: wallet execution failed: 0x%s", hex.EncodeToString(e.Ret))
}

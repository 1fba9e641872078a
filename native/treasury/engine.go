package treasury

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"hatsgate/core/events"
	"hatsgate/core/types"
	nativecommon "hatsgate/native/common"
	"hatsgate/native/hats"
	paramstate "hatsgate/native/params/state"
)

// Policy captures the runtime knobs controlling proposal admission and
// authorization. Hat ids left nil are treated as zero (unconfigured).
type Policy struct {
	ChainID          uint64
	GateAddress      common.Address
	DirectoryAddress common.Address
	OwnerHat         *uint256.Int
	ProposerHat      *uint256.Int
	ExecutorHat      *uint256.Int
	EscalatorHat     *uint256.Int
	// ApproverBranchRoot is the hat under which per-proposal approver hats
	// are minted.
	ApproverBranchRoot *uint256.Int
	// OpsBranchRoot constrains the admins of reserved hat ids. Zero
	// disables the branch check.
	OpsBranchRoot    *uint256.Int
	DefaultCustodian common.Address
}

// ProposeRequest carries the caller-supplied fields of a new proposal.
type ProposeRequest struct {
	RecipientHat  *uint256.Int
	FundingToken  common.Address
	FundingAmount *uint256.Int
	TimelockSec   uint32
	// ReservedHat optionally pre-reserves a hat id the multicall payload is
	// expected to create. Zero means none.
	ReservedHat *uint256.Int
	// Multicall is an opaque batch forwarded verbatim to the hat directory
	// on execution. Empty means funding-only.
	Multicall [][]byte
	Salt      [32]byte
}

// Engine drives the proposal lifecycle: propose, approve, execute, escalate,
// reject and cancel. It exclusively owns proposal-record writes and ledger
// credits; debits belong to the withdrawal gateway.
type Engine struct {
	state     State
	directory hats.Directory
	emitter   events.Emitter
	guard     *nativecommon.CallGuard
	nowFn     func() time.Time

	chainID          uint64
	gateAddress      common.Address
	directoryAddress common.Address

	ownerHat           *uint256.Int
	proposerHat        *uint256.Int
	executorHat        *uint256.Int
	escalatorHat       *uint256.Int
	approverBranchRoot *uint256.Int
	opsBranchRoot      *uint256.Int
	defaultCustodian   common.Address
}

// NewEngine constructs a lifecycle engine with default no-op dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter:            events.NoopEmitter{},
		guard:              &nativecommon.CallGuard{},
		nowFn:              func() time.Time { return time.Now().UTC() },
		ownerHat:           new(uint256.Int),
		proposerHat:        new(uint256.Int),
		executorHat:        new(uint256.Int),
		escalatorHat:       new(uint256.Int),
		approverBranchRoot: new(uint256.Int),
		opsBranchRoot:      new(uint256.Int),
	}
}

// SetState wires the engine to its persistence backend.
func (e *Engine) SetState(state State) { e.state = state }

// SetDirectory wires the engine to the external hat directory.
func (e *Engine) SetDirectory(directory hats.Directory) { e.directory = directory }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetGuard shares a call guard with other components. Execution and
// withdrawal must reject nested entry into one another, so deployments hand
// the same guard to the engine and the gateway.
func (e *Engine) SetGuard(guard *nativecommon.CallGuard) {
	if guard == nil {
		guard = &nativecommon.CallGuard{}
	}
	e.guard = guard
}

// Guard returns the engine's call guard so a gateway can share it.
func (e *Engine) Guard() *nativecommon.CallGuard { return e.guard }

// SetNowFunc overrides the time source. Nil restores the UTC clock.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if now == nil {
		e.nowFn = func() time.Time { return time.Now().UTC() }
		return
	}
	e.nowFn = now
}

// SetPolicy replaces the engine's runtime policy.
func (e *Engine) SetPolicy(policy Policy) {
	if e == nil {
		return
	}
	e.chainID = policy.ChainID
	e.gateAddress = policy.GateAddress
	e.directoryAddress = policy.DirectoryAddress
	e.ownerHat = cloneAmount(policy.OwnerHat)
	e.proposerHat = cloneAmount(policy.ProposerHat)
	e.executorHat = cloneAmount(policy.ExecutorHat)
	e.escalatorHat = cloneAmount(policy.EscalatorHat)
	e.approverBranchRoot = cloneAmount(policy.ApproverBranchRoot)
	e.opsBranchRoot = cloneAmount(policy.OpsBranchRoot)
	e.defaultCustodian = policy.DefaultCustodian
}

func (e *Engine) now() time.Time {
	if e == nil || e.nowFn == nil {
		return time.Now().UTC()
	}
	return e.nowFn()
}

func (e *Engine) nowUnix() uint64 {
	now := e.now().Unix()
	if now < 0 {
		return 0
	}
	return uint64(now)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errStateNotConfigured
	}
	if e.directory == nil {
		return errDirectoryNotConfigured
	}
	return nil
}

func (e *Engine) requireHat(caller common.Address, hat *uint256.Int) error {
	if hat == nil || hat.IsZero() {
		return errRoleNotConfigured
	}
	wearer, err := e.directory.IsWearer(caller, hat)
	if err != nil {
		return fmt.Errorf("treasury: wearer check failed: %w", err)
	}
	if !wearer {
		return &UnauthorizedError{Caller: caller, Hat: cloneAmount(hat)}
	}
	return nil
}

func (e *Engine) guardProposalsUnpaused() error {
	paused, err := paramstate.ProposalsPaused(e.state)
	if err != nil {
		return err
	}
	if paused {
		return ErrProposalsPaused
	}
	return nil
}

func (e *Engine) loadProposal(id common.Hash) (*Proposal, error) {
	p, ok, err := e.state.ProposalGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || p == nil || p.State == StateNone {
		return nil, ErrProposalNotFound
	}
	return p, nil
}

// Propose admits a new funding proposal. The caller must wear the proposer
// hat and proposal operations must not be paused. A fresh single-use approver
// hat is minted under the approver branch root, and a requested reserved hat
// id is validated against the directory's next assignment before anything is
// stored.
func (e *Engine) Propose(caller common.Address, req ProposeRequest) (*Proposal, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guardProposalsUnpaused(); err != nil {
		return nil, err
	}
	if err := e.requireHat(caller, e.proposerHat); err != nil {
		return nil, err
	}

	recipient := cloneAmount(req.RecipientHat)
	if recipient.IsZero() {
		return nil, ErrRecipientRequired
	}
	amount := cloneAmount(req.FundingAmount)
	if amount.Gt(MaxLedgerAmount) {
		return nil, ErrAmountRange
	}

	id := ProposalID(e.chainID, e.gateAddress, e.directoryAddress, req.Multicall, recipient, req.FundingToken, amount, req.TimelockSec, req.Salt, caller)
	if existing, ok, err := e.state.ProposalGet(id); err != nil {
		return nil, err
	} else if ok && existing != nil && existing.State != StateNone {
		return nil, &AlreadyUsedError{ID: id}
	}

	reserved := cloneAmount(req.ReservedHat)
	if !reserved.IsZero() {
		if err := e.checkReservedHat(reserved); err != nil {
			return nil, err
		}
	}

	if e.approverBranchRoot.IsZero() {
		return nil, errRoleNotConfigured
	}
	approver, err := e.directory.CreateHat(e.approverBranchRoot, "hatsgate approver "+id.Hex(), 1, common.Address{}, common.Address{}, false, "")
	if err != nil {
		return nil, fmt.Errorf("treasury: mint approver hat: %w", err)
	}

	p := &Proposal{
		ID:            id,
		Submitter:     caller,
		FundingAmount: amount,
		State:         StateActive,
		FundingToken:  req.FundingToken,
		ETA:           0,
		TimelockSec:   req.TimelockSec,
		Custodian:     e.defaultCustodian,
		RecipientHat:  recipient,
		ApproverHat:   cloneAmount(approver),
		ReservedHat:   reserved,
		Multicall:     cloneCalls(req.Multicall),
	}
	if err := e.state.ProposalPut(p); err != nil {
		return nil, err
	}
	e.emitter.Emit(treasuryEvent{evt: NewCreatedEvent(p)})
	return p.Clone(), nil
}

// checkReservedHat validates a pre-computed reserved hat id: its admin must
// sit inside the ops branch (when one is configured) and must still be the
// directory's next assignment under that admin. A later creation under the
// same admin shifts the next id, which surfaces here as a mismatch.
func (e *Engine) checkReservedHat(reserved *uint256.Int) error {
	admin, err := hats.ImmediateAdmin(reserved)
	if err != nil {
		return fmt.Errorf("treasury: reserved hat: %w", err)
	}
	if !e.opsBranchRoot.IsZero() && !hats.IsInBranch(admin, e.opsBranchRoot) {
		return &BranchError{Hat: cloneAmount(admin), Root: cloneAmount(e.opsBranchRoot)}
	}
	next, err := e.directory.NextHatID(admin)
	if err != nil {
		return fmt.Errorf("treasury: next hat id: %w", err)
	}
	if !next.Eq(reserved) {
		return &ReservedHatMismatchError{Requested: cloneAmount(reserved), Next: cloneAmount(next)}
	}
	return nil
}

// Approve starts the timelock of an Active proposal. The caller must wear the
// proposal's single-use approver hat. Approval is a one-shot gate: on any
// non-Active proposal it fails with the current state attached.
func (e *Engine) Approve(caller common.Address, id common.Hash) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.guardProposalsUnpaused(); err != nil {
		return err
	}
	p, err := e.loadProposal(id)
	if err != nil {
		return err
	}
	if p.State != StateActive {
		return &InvalidStateError{ID: id, State: p.State}
	}
	if err := e.requireHat(caller, p.ApproverHat); err != nil {
		return err
	}
	p.ETA = e.nowUnix() + uint64(p.TimelockSec)
	p.State = StateApproved
	if err := e.state.ProposalPut(p); err != nil {
		return err
	}
	e.emitter.Emit(treasuryEvent{evt: NewApprovedEvent(p)})
	return nil
}

// Execute credits the allowance ledger and forwards the multicall batch of an
// Approved proposal whose eta has passed. The ledger credit and the external
// batch commit together or not at all.
func (e *Engine) Execute(caller common.Address, id common.Hash) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.guard.Enter(); err != nil {
		return err
	}
	defer e.guard.Exit()

	if err := e.guardProposalsUnpaused(); err != nil {
		return err
	}
	p, err := e.loadProposal(id)
	if err != nil {
		return err
	}
	if p.State != StateApproved {
		return &InvalidStateError{ID: id, State: p.State}
	}
	if err := e.requireExecutor(caller); err != nil {
		return err
	}
	if now := e.nowUnix(); now < p.ETA {
		return &TimelockPendingError{ETA: p.ETA, Now: now}
	}
	remaining, err := e.executeEffects(p)
	if err != nil {
		return err
	}
	e.emitter.Emit(treasuryEvent{evt: NewExecutedEvent(p, remaining)})
	return nil
}

// ApproveAndExecute collapses approval and execution into one atomic call for
// proposals without a timelock. The caller must satisfy both the approver and
// executor gates. No observer can see an Approved-but-unexecuted record on
// this path: the Approved intermediate is never persisted.
func (e *Engine) ApproveAndExecute(caller common.Address, id common.Hash) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.guard.Enter(); err != nil {
		return err
	}
	defer e.guard.Exit()

	if err := e.guardProposalsUnpaused(); err != nil {
		return err
	}
	p, err := e.loadProposal(id)
	if err != nil {
		return err
	}
	if p.State != StateActive {
		return &InvalidStateError{ID: id, State: p.State}
	}
	if p.TimelockSec != 0 {
		return ErrTimelockRequired
	}
	if err := e.requireHat(caller, p.ApproverHat); err != nil {
		return err
	}
	if err := e.requireExecutor(caller); err != nil {
		return err
	}
	p.ETA = e.nowUnix()
	remaining, err := e.executeEffects(p)
	if err != nil {
		return err
	}
	e.emitter.Emit(treasuryEvent{evt: NewApprovedEvent(p)})
	e.emitter.Emit(treasuryEvent{evt: NewExecutedEvent(p, remaining)})
	return nil
}

func (e *Engine) requireExecutor(caller common.Address) error {
	if e.executorHat.Eq(PublicExecutionHatID) {
		return nil
	}
	return e.requireHat(caller, e.executorHat)
}

// executeEffects stages the ledger credit, re-validates any reserved hat id,
// forwards the multicall batch and persists the Executed record. Any failure
// after the credit restores the prior ledger value before reporting upward,
// so the credit and the external batch are never observably split.
func (e *Engine) executeEffects(p *Proposal) (*uint256.Int, error) {
	key := NewLedgerKey(p.Custodian, p.RecipientHat, p.FundingToken)
	remaining, err := e.state.AllowanceGet(key)
	if err != nil {
		return nil, err
	}
	total, err := creditAllowance(remaining, p.FundingAmount)
	if err != nil {
		return nil, err
	}
	if err := e.state.AllowanceSet(key, total); err != nil {
		return nil, err
	}
	rollback := func(cause error) error {
		if rerr := e.state.AllowanceSet(key, remaining); rerr != nil {
			return fmt.Errorf("treasury: rollback failed after %v: %w", cause, rerr)
		}
		return cause
	}
	if p.ReservedHat != nil && !p.ReservedHat.IsZero() {
		if err := e.checkReservedHat(p.ReservedHat); err != nil {
			return nil, rollback(err)
		}
	}
	if len(p.Multicall) > 0 {
		if err := e.directory.Multicall(p.Multicall); err != nil {
			return nil, rollback(fmt.Errorf("treasury: multicall failed: %w", err))
		}
	}
	p.State = StateExecuted
	if err := e.state.ProposalPut(p); err != nil {
		return nil, rollback(err)
	}
	return total, nil
}

// Escalate pulls the emergency brake on an Active or Approved proposal. It
// deliberately bypasses the pause toggles so the brake is always available.
// Any reserved hat is toggled off in the directory as cleanup.
func (e *Engine) Escalate(caller common.Address, id common.Hash) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireHat(caller, e.escalatorHat); err != nil {
		return err
	}
	p, err := e.loadProposal(id)
	if err != nil {
		return err
	}
	if p.State != StateActive && p.State != StateApproved {
		return &InvalidStateError{ID: id, State: p.State}
	}
	return e.closeProposal(p, StateEscalated, NewEscalatedEvent)
}

// Reject turns down an Active proposal. Only the approver may reject, and
// only before approval: once the timelock runs, the exits are Escalate or
// Cancel.
func (e *Engine) Reject(caller common.Address, id common.Hash) error {
	if err := e.ready(); err != nil {
		return err
	}
	p, err := e.loadProposal(id)
	if err != nil {
		return err
	}
	if p.State != StateActive {
		return &InvalidStateError{ID: id, State: p.State}
	}
	if err := e.requireHat(caller, p.ApproverHat); err != nil {
		return err
	}
	return e.closeProposal(p, StateRejected, NewRejectedEvent)
}

// Cancel withdraws an Active or Approved proposal. Only the original
// submitter may cancel.
func (e *Engine) Cancel(caller common.Address, id common.Hash) error {
	if err := e.ready(); err != nil {
		return err
	}
	p, err := e.loadProposal(id)
	if err != nil {
		return err
	}
	if caller != p.Submitter {
		return &UnauthorizedError{Caller: caller}
	}
	if p.State != StateActive && p.State != StateApproved {
		return &InvalidStateError{ID: id, State: p.State}
	}
	return e.closeProposal(p, StateCanceled, NewCanceledEvent)
}

func (e *Engine) closeProposal(p *Proposal, state ProposalState, eventFn func(*Proposal) *types.Event) error {
	if p.ReservedHat != nil && !p.ReservedHat.IsZero() {
		if err := e.directory.SetHatStatus(p.ReservedHat, false); err != nil {
			return fmt.Errorf("treasury: deactivate reserved hat: %w", err)
		}
	}
	p.State = state
	if err := e.state.ProposalPut(p); err != nil {
		return err
	}
	e.emitter.Emit(treasuryEvent{evt: eventFn(p)})
	return nil
}

// Proposal returns a copy of the stored record for the identity.
func (e *Engine) Proposal(id common.Hash) (*Proposal, error) {
	if e == nil || e.state == nil {
		return nil, errStateNotConfigured
	}
	p, err := e.loadProposal(id)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// Allowance returns the remaining allowance for the triple.
func (e *Engine) Allowance(custodian common.Address, recipientHat *uint256.Int, token common.Address) (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, errStateNotConfigured
	}
	return e.state.AllowanceGet(NewLedgerKey(custodian, recipientHat, token))
}

// SetProposerHat updates the proposer role. Owner-gated.
func (e *Engine) SetProposerHat(caller common.Address, hat *uint256.Int) error {
	return e.setPolicyHat(caller, "proposerHat", hat, &e.proposerHat)
}

// SetExecutorHat updates the executor role. PublicExecutionHatID opens
// execution to any caller. Owner-gated.
func (e *Engine) SetExecutorHat(caller common.Address, hat *uint256.Int) error {
	return e.setPolicyHat(caller, "executorHat", hat, &e.executorHat)
}

// SetEscalatorHat updates the escalator role. Owner-gated.
func (e *Engine) SetEscalatorHat(caller common.Address, hat *uint256.Int) error {
	return e.setPolicyHat(caller, "escalatorHat", hat, &e.escalatorHat)
}

func (e *Engine) setPolicyHat(caller common.Address, field string, hat *uint256.Int, target **uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireHat(caller, e.ownerHat); err != nil {
		return err
	}
	*target = cloneAmount(hat)
	e.emitter.Emit(treasuryEvent{evt: NewPolicyEvent(field, (*target).Hex())})
	return nil
}

// SetDefaultCustodian updates the wallet future proposals draw against.
// Existing proposals keep the custodian captured at creation. Owner-gated.
func (e *Engine) SetDefaultCustodian(caller common.Address, custodian common.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireHat(caller, e.ownerHat); err != nil {
		return err
	}
	e.defaultCustodian = custodian
	e.emitter.Emit(treasuryEvent{evt: NewPolicyEvent("defaultCustodian", custodian.Hex())})
	return nil
}

// SetProposalsPaused pauses or resumes proposal operations. Owner-gated.
// Escalation ignores the toggle.
func (e *Engine) SetProposalsPaused(caller common.Address, paused bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireHat(caller, e.ownerHat); err != nil {
		return err
	}
	if err := paramstate.SetProposalsPaused(e.state, paused); err != nil {
		return err
	}
	e.emitter.Emit(treasuryEvent{evt: NewPauseEvent("proposals", paused)})
	return nil
}

// SetWithdrawalsPaused pauses or resumes withdrawals. Owner-gated.
func (e *Engine) SetWithdrawalsPaused(caller common.Address, paused bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireHat(caller, e.ownerHat); err != nil {
		return err
	}
	if err := paramstate.SetWithdrawalsPaused(e.state, paused); err != nil {
		return err
	}
	e.emitter.Emit(treasuryEvent{evt: NewPauseEvent("withdrawals", paused)})
	return nil
}

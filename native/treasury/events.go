package treasury

import (
	"strconv"

	"github.com/holiman/uint256"

	"hatsgate/core/types"
)

const (
	EventTypeProposalCreated   = "treasury.proposal.created"
	EventTypeProposalApproved  = "treasury.proposal.approved"
	EventTypeProposalExecuted  = "treasury.proposal.executed"
	EventTypeProposalEscalated = "treasury.proposal.escalated"
	EventTypeProposalRejected  = "treasury.proposal.rejected"
	EventTypeProposalCanceled  = "treasury.proposal.canceled"
	EventTypeWithdrawal        = "treasury.withdrawal"
	EventTypePauseChanged      = "treasury.pause.changed"
	EventTypePolicyChanged     = "treasury.policy.changed"
)

type treasuryEvent struct {
	evt *types.Event
}

func (t treasuryEvent) EventType() string {
	if t.evt == nil {
		return ""
	}
	return t.evt.Type
}

func (t treasuryEvent) Event() *types.Event { return t.evt }

// NewCreatedEvent returns the canonical payload for a newly created proposal.
// The multicall batch is represented by its digest only, keeping the event
// log bounded regardless of payload size.
func NewCreatedEvent(p *Proposal) *types.Event {
	attrs := make(map[string]string)
	if p == nil {
		return &types.Event{Type: EventTypeProposalCreated, Attributes: attrs}
	}
	attrs["id"] = p.ID.Hex()
	attrs["submitter"] = p.Submitter.Hex()
	attrs["custodian"] = p.Custodian.Hex()
	attrs["token"] = p.FundingToken.Hex()
	attrs["amount"] = cloneAmount(p.FundingAmount).Dec()
	attrs["timelockSec"] = strconv.FormatUint(uint64(p.TimelockSec), 10)
	attrs["recipientHat"] = cloneAmount(p.RecipientHat).Hex()
	attrs["approverHat"] = cloneAmount(p.ApproverHat).Hex()
	if p.ReservedHat != nil && !p.ReservedHat.IsZero() {
		attrs["reservedHat"] = p.ReservedHat.Hex()
	}
	attrs["multicallDigest"] = MulticallDigest(p.Multicall).Hex()
	return &types.Event{Type: EventTypeProposalCreated, Attributes: attrs}
}

// NewApprovedEvent returns the payload emitted when a proposal is approved
// and its timelock starts running.
func NewApprovedEvent(p *Proposal) *types.Event {
	attrs := make(map[string]string)
	if p != nil {
		attrs["id"] = p.ID.Hex()
		attrs["eta"] = strconv.FormatUint(p.ETA, 10)
	}
	return &types.Event{Type: EventTypeProposalApproved, Attributes: attrs}
}

// NewExecutedEvent returns the payload emitted when a proposal executes,
// carrying the recipient's new remaining allowance.
func NewExecutedEvent(p *Proposal, remaining *uint256.Int) *types.Event {
	attrs := make(map[string]string)
	if p != nil {
		attrs["id"] = p.ID.Hex()
		attrs["custodian"] = p.Custodian.Hex()
		attrs["token"] = p.FundingToken.Hex()
		attrs["recipientHat"] = cloneAmount(p.RecipientHat).Hex()
		attrs["amount"] = cloneAmount(p.FundingAmount).Dec()
	}
	attrs["remaining"] = cloneAmount(remaining).Dec()
	return &types.Event{Type: EventTypeProposalExecuted, Attributes: attrs}
}

// NewEscalatedEvent returns the payload emitted when a proposal is escalated.
func NewEscalatedEvent(p *Proposal) *types.Event {
	return newTerminalEvent(EventTypeProposalEscalated, p)
}

// NewRejectedEvent returns the payload emitted when the approver rejects a
// proposal.
func NewRejectedEvent(p *Proposal) *types.Event {
	return newTerminalEvent(EventTypeProposalRejected, p)
}

// NewCanceledEvent returns the payload emitted when the submitter cancels a
// proposal.
func NewCanceledEvent(p *Proposal) *types.Event {
	return newTerminalEvent(EventTypeProposalCanceled, p)
}

func newTerminalEvent(eventType string, p *Proposal) *types.Event {
	attrs := make(map[string]string)
	if p != nil {
		attrs["id"] = p.ID.Hex()
		attrs["state"] = p.State.String()
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

// NewWithdrawalEvent returns the payload emitted after a successful
// withdrawal, carrying the new remaining allowance.
func NewWithdrawalEvent(key LedgerKey, amount, remaining *uint256.Int) *types.Event {
	attrs := map[string]string{
		"custodian":    key.Custodian.Hex(),
		"recipientHat": key.RecipientHat.Hex(),
		"token":        key.Token.Hex(),
		"amount":       cloneAmount(amount).Dec(),
		"remaining":    cloneAmount(remaining).Dec(),
	}
	return &types.Event{Type: EventTypeWithdrawal, Attributes: attrs}
}

// NewPauseEvent returns the payload emitted when a pause toggle changes.
func NewPauseEvent(module string, paused bool) *types.Event {
	attrs := map[string]string{
		"module": module,
		"paused": strconv.FormatBool(paused),
	}
	return &types.Event{Type: EventTypePauseChanged, Attributes: attrs}
}

// NewPolicyEvent returns the payload emitted when an owner-gated policy
// field changes.
func NewPolicyEvent(field, value string) *types.Event {
	attrs := map[string]string{
		"field": field,
		"value": value,
	}
	return &types.Event{Type: EventTypePolicyChanged, Attributes: attrs}
}

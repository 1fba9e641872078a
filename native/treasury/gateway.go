package treasury

import (
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"hatsgate/core/events"
	nativecommon "hatsgate/native/common"
	"hatsgate/native/hats"
	paramstate "hatsgate/native/params/state"
)

// AllowanceModule abstracts the custodial wallet's allowance-transfer module.
// Implementations return the raw return data of the underlying token call so
// the gateway can normalize the heterogeneous success signaling of ERC-20
// tokens. A non-nil error means the wallet call itself failed.
type AllowanceModule interface {
	TransferAllowance(custodian, token, recipient common.Address, amount *uint256.Int) ([]byte, error)
}

// Gateway meters withdrawals against the allowance ledger. It exclusively
// owns ledger debits; the debit and the outward transfer commit together or
// not at all.
type Gateway struct {
	state     State
	directory hats.Directory
	module    AllowanceModule
	emitter   events.Emitter
	guard     *nativecommon.CallGuard
	log       *slog.Logger
}

// NewGateway constructs a withdrawal gateway with default no-op dependencies.
func NewGateway() *Gateway {
	return &Gateway{
		emitter: events.NoopEmitter{},
		guard:   &nativecommon.CallGuard{},
		log:     slog.Default(),
	}
}

// SetState wires the gateway to the shared persistence backend.
func (g *Gateway) SetState(state State) { g.state = state }

// SetDirectory wires the gateway to the external hat directory.
func (g *Gateway) SetDirectory(directory hats.Directory) { g.directory = directory }

// SetAllowanceModule wires the gateway to the custodial wallet's allowance
// module.
func (g *Gateway) SetAllowanceModule(module AllowanceModule) { g.module = module }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (g *Gateway) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		g.emitter = events.NoopEmitter{}
		return
	}
	g.emitter = emitter
}

// SetGuard shares a call guard with the lifecycle engine so withdrawal cannot
// re-enter execution and vice versa.
func (g *Gateway) SetGuard(guard *nativecommon.CallGuard) {
	if guard == nil {
		guard = &nativecommon.CallGuard{}
	}
	g.guard = guard
}

// SetLogger overrides the structured logger. Nil restores the default.
func (g *Gateway) SetLogger(log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	g.log = log
}

// Withdraw debits the caller's allowance and forwards the transfer to the
// custodial wallet. The caller must wear the recipient hat. The ledger is
// debited before the external transfer; a failed transfer restores the debit
// before the error is reported, so the two effects are never observably
// split.
func (g *Gateway) Withdraw(caller common.Address, recipientHat *uint256.Int, custodian common.Address, token common.Address, amount *uint256.Int) error {
	if g == nil || g.state == nil {
		return errStateNotConfigured
	}
	if g.directory == nil {
		return errDirectoryNotConfigured
	}
	if g.module == nil {
		return errModuleNotConfigured
	}
	if err := g.guard.Enter(); err != nil {
		return err
	}
	defer g.guard.Exit()

	paused, err := paramstate.WithdrawalsPaused(g.state)
	if err != nil {
		return err
	}
	if paused {
		return ErrWithdrawalsPaused
	}
	hat := cloneAmount(recipientHat)
	wearer, err := g.directory.IsWearer(caller, hat)
	if err != nil {
		return fmt.Errorf("treasury: wearer check failed: %w", err)
	}
	if !wearer {
		return &UnauthorizedError{Caller: caller, Hat: hat}
	}
	amt := cloneAmount(amount)
	if amt.IsZero() {
		return ErrZeroWithdrawal
	}

	key := NewLedgerKey(custodian, hat, token)
	remaining, err := g.state.AllowanceGet(key)
	if err != nil {
		return err
	}
	updated, err := debitAllowance(remaining, amt)
	if err != nil {
		return err
	}
	if err := g.state.AllowanceSet(key, updated); err != nil {
		return err
	}
	rollback := func(cause error) error {
		if rerr := g.state.AllowanceSet(key, remaining); rerr != nil {
			return fmt.Errorf("treasury: rollback failed after %v: %w", cause, rerr)
		}
		return cause
	}

	ret, err := g.module.TransferAllowance(custodian, token, caller, amt)
	if err != nil {
		g.log.Warn("allowance transfer failed", "custodian", custodian.Hex(), "token", token.Hex(), "err", err)
		return rollback(&ExecutionFailedError{Ret: append([]byte(nil), ret...)})
	}
	if token != NativeToken {
		if err := normalizeTransferReturn(token, ret); err != nil {
			g.log.Warn("token return rejected", "token", token.Hex(), "err", err)
			return rollback(err)
		}
	}

	g.emitter.Emit(treasuryEvent{evt: NewWithdrawalEvent(key, amt, updated)})
	return nil
}

// Allowance returns the remaining allowance for the triple.
func (g *Gateway) Allowance(custodian common.Address, recipientHat *uint256.Int, token common.Address) (*uint256.Int, error) {
	if g == nil || g.state == nil {
		return nil, errStateNotConfigured
	}
	return g.state.AllowanceGet(NewLedgerKey(custodian, recipientHat, token))
}

// normalizeTransferReturn interprets ERC-20 return data. Empty data counts as
// success to cover tokens that return nothing. A 32-byte word must decode to
// boolean true; false is an explicit rejection. Every other shape is
// malformed and never treated as success.
func normalizeTransferReturn(token common.Address, ret []byte) error {
	switch len(ret) {
	case 0:
		return nil
	case 32:
		word := new(uint256.Int).SetBytes(ret)
		if word.IsZero() {
			return &TransferRejectedError{Token: token, Ret: append([]byte(nil), ret...)}
		}
		if word.Eq(uint256.NewInt(1)) {
			return nil
		}
		return &MalformedReturnError{Token: token, Ret: append([]byte(nil), ret...)}
	default:
		return &MalformedReturnError{Token: token, Ret: append([]byte(nil), ret...)}
	}
}

package treasury

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// LedgerKey identifies one allowance counter. Counters are created implicitly
// at zero, credited only by proposal execution and debited only by
// withdrawals.
type LedgerKey struct {
	Custodian    common.Address
	RecipientHat common.Hash
	Token        common.Address
}

// NewLedgerKey builds the key for the (custodian, recipient hat, token)
// triple. The hat id is packed into its 32-byte form so the key stays
// comparable.
func NewLedgerKey(custodian common.Address, recipientHat *uint256.Int, token common.Address) LedgerKey {
	return LedgerKey{
		Custodian:    custodian,
		RecipientHat: common.Hash(cloneAmount(recipientHat).Bytes32()),
		Token:        token,
	}
}

// Bytes returns the flat persistence encoding of the key.
func (k LedgerKey) Bytes() []byte {
	out := make([]byte, 0, len(k.Custodian)+len(k.RecipientHat)+len(k.Token))
	out = append(out, k.Custodian.Bytes()...)
	out = append(out, k.RecipientHat.Bytes()...)
	out = append(out, k.Token.Bytes()...)
	return out
}

// creditAllowance returns remaining+credit, trapping when the total would
// exceed MaxLedgerAmount.
func creditAllowance(remaining, credit *uint256.Int) (*uint256.Int, error) {
	total := new(uint256.Int).Add(remaining, credit)
	if total.Gt(MaxLedgerAmount) || total.Lt(remaining) {
		return nil, &LedgerOverflowError{Remaining: cloneAmount(remaining), Credit: cloneAmount(credit)}
	}
	return total, nil
}

// debitAllowance returns remaining-amount, rejecting debits larger than the
// remaining allowance so the counter can never underflow.
func debitAllowance(remaining, amount *uint256.Int) (*uint256.Int, error) {
	if remaining.Lt(amount) {
		return nil, &AllowanceExceededError{Remaining: cloneAmount(remaining), Requested: cloneAmount(amount)}
	}
	return new(uint256.Int).Sub(remaining, amount), nil
}

package treasury

import (
	"bytes"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// MulticallDigest hashes a multicall batch into a single word. Each call is
// length-prefixed before hashing so call boundaries are unambiguous, and the
// digest cost stays one pass over the payload regardless of batch size.
func MulticallDigest(calls [][]byte) common.Hash {
	var buf bytes.Buffer
	var prefix [4]byte
	for _, call := range calls {
		binary.BigEndian.PutUint32(prefix[:], uint32(len(call)))
		buf.Write(prefix[:])
		buf.Write(call)
	}
	return ethcrypto.Keccak256Hash(buf.Bytes())
}

// ProposalID derives the content-addressed identity of a proposal. The hash
// binds the chain id, the gate and directory addresses, the multicall digest,
// every economic field, a caller-supplied salt and the caller itself. Binding
// the caller prevents a third party from front-running a pending submission
// to squat its identity; the salt lets one caller submit otherwise identical
// proposals.
func ProposalID(chainID uint64, gate, directory common.Address, multicall [][]byte, recipientHat *uint256.Int, token common.Address, amount *uint256.Int, timelockSec uint32, salt [32]byte, caller common.Address) common.Hash {
	var buf bytes.Buffer
	writeWord := func(word [32]byte) { buf.Write(word[:]) }
	writeAddress := func(addr common.Address) {
		var word [32]byte
		copy(word[12:], addr.Bytes())
		writeWord(word)
	}

	writeWord(uint256.NewInt(chainID).Bytes32())
	writeAddress(gate)
	writeAddress(directory)
	writeWord(MulticallDigest(multicall))
	writeWord(cloneAmount(recipientHat).Bytes32())
	writeAddress(token)
	writeWord(cloneAmount(amount).Bytes32())
	writeWord(uint256.NewInt(uint64(timelockSec)).Bytes32())
	writeWord(salt)
	writeAddress(caller)

	return ethcrypto.Keccak256Hash(buf.Bytes())
}

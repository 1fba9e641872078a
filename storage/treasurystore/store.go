package treasurystore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	bolt "go.etcd.io/bbolt"

	"hatsgate/native/treasury"
)

var (
	bucketProposals  = []byte("proposals")
	bucketAllowances = []byte("allowances")
	bucketParams     = []byte("params")
)

// Store is a durable treasury.State backed by bbolt. Proposals and params are
// stored as JSON; allowance counters as 32-byte big-endian words. The ledger
// has no teardown: it lives for the life of the deployment.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path and ensures the buckets
// exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("treasurystore: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketProposals, bucketAllowances, bucketParams} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("treasurystore: init buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type storedProposal struct {
	ID            common.Hash    `json:"id"`
	Submitter     common.Address `json:"submitter"`
	FundingAmount *uint256.Int   `json:"fundingAmount"`
	State         uint8          `json:"state"`
	FundingToken  common.Address `json:"fundingToken"`
	ETA           uint64         `json:"eta"`
	TimelockSec   uint32         `json:"timelockSec"`
	Custodian     common.Address `json:"custodian"`
	RecipientHat  *uint256.Int   `json:"recipientHat"`
	ApproverHat   *uint256.Int   `json:"approverHat"`
	ReservedHat   *uint256.Int   `json:"reservedHat"`
	Multicall     [][]byte       `json:"multicall,omitempty"`
}

func encodeProposal(p *treasury.Proposal) ([]byte, error) {
	clone := p.Clone()
	return json.Marshal(storedProposal{
		ID:            clone.ID,
		Submitter:     clone.Submitter,
		FundingAmount: clone.FundingAmount,
		State:         uint8(clone.State),
		FundingToken:  clone.FundingToken,
		ETA:           clone.ETA,
		TimelockSec:   clone.TimelockSec,
		Custodian:     clone.Custodian,
		RecipientHat:  clone.RecipientHat,
		ApproverHat:   clone.ApproverHat,
		ReservedHat:   clone.ReservedHat,
		Multicall:     clone.Multicall,
	})
}

func decodeProposal(raw []byte) (*treasury.Proposal, error) {
	var rec storedProposal
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("treasurystore: decode proposal: %w", err)
	}
	state := treasury.ProposalState(rec.State)
	if !state.Valid() {
		return nil, fmt.Errorf("treasurystore: invalid proposal state %d", rec.State)
	}
	p := &treasury.Proposal{
		ID:            rec.ID,
		Submitter:     rec.Submitter,
		FundingAmount: rec.FundingAmount,
		State:         state,
		FundingToken:  rec.FundingToken,
		ETA:           rec.ETA,
		TimelockSec:   rec.TimelockSec,
		Custodian:     rec.Custodian,
		RecipientHat:  rec.RecipientHat,
		ApproverHat:   rec.ApproverHat,
		ReservedHat:   rec.ReservedHat,
		Multicall:     rec.Multicall,
	}
	return p.Clone(), nil
}

// ProposalGet implements treasury.State.
func (s *Store) ProposalGet(id common.Hash) (*treasury.Proposal, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketProposals).Get(id.Bytes()); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}
	p, err := decodeProposal(raw)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// ProposalPut implements treasury.State.
func (s *Store) ProposalPut(p *treasury.Proposal) error {
	if p == nil {
		return fmt.Errorf("treasurystore: nil proposal")
	}
	raw, err := encodeProposal(p)
	if err != nil {
		return fmt.Errorf("treasurystore: encode proposal: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProposals).Put(p.ID.Bytes(), raw)
	})
}

// AllowanceGet implements treasury.State. Missing counters read as zero.
func (s *Store) AllowanceGet(key treasury.LedgerKey) (*uint256.Int, error) {
	remaining := new(uint256.Int)
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketAllowances).Get(key.Bytes()); v != nil {
			remaining.SetBytes(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return remaining, nil
}

// AllowanceSet implements treasury.State.
func (s *Store) AllowanceSet(key treasury.LedgerKey, remaining *uint256.Int) error {
	if remaining == nil {
		remaining = new(uint256.Int)
	}
	word := remaining.Bytes32()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAllowances).Put(key.Bytes(), word[:])
	})
}

// ParamGet implements treasury.State.
func (s *Store) ParamGet(name string) ([]byte, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketParams).Get([]byte(name)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return raw, raw != nil, nil
}

// ParamSet implements treasury.State.
func (s *Store) ParamSet(name string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketParams).Put([]byte(name), value)
	})
}

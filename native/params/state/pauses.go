package state

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const pausesKey = "treasury/pauses"

// Reader exposes the minimal parameter store capabilities required to inspect
// pause toggles.
type Reader interface {
	ParamGet(name string) ([]byte, bool, error)
}

// Writer extends Reader with mutation so owner-gated operations can flip the
// toggles.
type Writer interface {
	Reader
	ParamSet(name string, value []byte) error
}

type pausePayload struct {
	Proposals   bool `json:"proposals"`
	Withdrawals bool `json:"withdrawals"`
}

func loadPauses(reader Reader) (pausePayload, error) {
	var payload pausePayload
	if reader == nil {
		return payload, fmt.Errorf("params: reader not configured")
	}
	raw, ok, err := reader.ParamGet(pausesKey)
	if err != nil {
		return payload, fmt.Errorf("params: load pauses: %w", err)
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("params: decode pauses: %w", err)
	}
	return payload, nil
}

func storePauses(store Writer, payload pausePayload) error {
	if store == nil {
		return fmt.Errorf("params: store not configured")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("params: encode pauses: %w", err)
	}
	if err := store.ParamSet(pausesKey, raw); err != nil {
		return fmt.Errorf("params: store pauses: %w", err)
	}
	return nil
}

// ProposalsPaused reports whether proposal operations (create, approve,
// execute) are paused.
func ProposalsPaused(reader Reader) (bool, error) {
	payload, err := loadPauses(reader)
	if err != nil {
		return false, err
	}
	return payload.Proposals, nil
}

// WithdrawalsPaused reports whether withdrawals are paused.
func WithdrawalsPaused(reader Reader) (bool, error) {
	payload, err := loadPauses(reader)
	if err != nil {
		return false, err
	}
	return payload.Withdrawals, nil
}

// SetProposalsPaused flips the proposal pause toggle, leaving the withdrawal
// toggle untouched.
func SetProposalsPaused(store Writer, paused bool) error {
	payload, err := loadPauses(store)
	if err != nil {
		return err
	}
	payload.Proposals = paused
	return storePauses(store, payload)
}

// SetWithdrawalsPaused flips the withdrawal pause toggle, leaving the
// proposal toggle untouched.
func SetWithdrawalsPaused(store Writer, paused bool) error {
	payload, err := loadPauses(store)
	if err != nil {
		return err
	}
	payload.Withdrawals = paused
	return storePauses(store, payload)
}

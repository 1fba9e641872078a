package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"hatsgate/native/treasury"
)

// Config is the TOML deployment configuration for the treasury gate. Hat ids
// are hex (0x-prefixed) or decimal strings; ExecutorHat additionally accepts
// "public" to open execution to any caller.
type Config struct {
	ChainID                uint64 `toml:"ChainID"`
	GateAddress            string `toml:"GateAddress"`
	DirectoryAddress       string `toml:"DirectoryAddress"`
	AllowanceModuleAddress string `toml:"AllowanceModuleAddress"`
	DefaultCustodian       string `toml:"DefaultCustodian"`
	OwnerHat               string `toml:"OwnerHat"`
	ProposerHat            string `toml:"ProposerHat"`
	ExecutorHat            string `toml:"ExecutorHat"`
	EscalatorHat           string `toml:"EscalatorHat"`
	ApproverBranchRoot     string `toml:"ApproverBranchRoot"`
	OpsBranchRoot          string `toml:"OpsBranchRoot"`
	DataDir                string `toml:"DataDir"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./data"
	}
	if _, err := cfg.Policy(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Policy converts the configuration into the engine policy.
func (c *Config) Policy() (treasury.Policy, error) {
	var policy treasury.Policy
	policy.ChainID = c.ChainID

	var err error
	if policy.GateAddress, err = parseAddress("GateAddress", c.GateAddress, true); err != nil {
		return policy, err
	}
	if policy.DirectoryAddress, err = parseAddress("DirectoryAddress", c.DirectoryAddress, true); err != nil {
		return policy, err
	}
	if policy.DefaultCustodian, err = parseAddress("DefaultCustodian", c.DefaultCustodian, true); err != nil {
		return policy, err
	}
	if policy.OwnerHat, err = parseHat("OwnerHat", c.OwnerHat); err != nil {
		return policy, err
	}
	if policy.ProposerHat, err = parseHat("ProposerHat", c.ProposerHat); err != nil {
		return policy, err
	}
	if strings.EqualFold(strings.TrimSpace(c.ExecutorHat), "public") {
		policy.ExecutorHat = new(uint256.Int).Set(treasury.PublicExecutionHatID)
	} else if policy.ExecutorHat, err = parseHat("ExecutorHat", c.ExecutorHat); err != nil {
		return policy, err
	}
	if policy.EscalatorHat, err = parseHat("EscalatorHat", c.EscalatorHat); err != nil {
		return policy, err
	}
	if policy.ApproverBranchRoot, err = parseHat("ApproverBranchRoot", c.ApproverBranchRoot); err != nil {
		return policy, err
	}
	if policy.OpsBranchRoot, err = parseHat("OpsBranchRoot", c.OpsBranchRoot); err != nil {
		return policy, err
	}
	return policy, nil
}

// AllowanceModule returns the configured allowance module address.
func (c *Config) AllowanceModule() (common.Address, error) {
	return parseAddress("AllowanceModuleAddress", c.AllowanceModuleAddress, true)
}

func parseAddress(field, value string, required bool) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if required {
			return common.Address{}, fmt.Errorf("config: %s is required", field)
		}
		return common.Address{}, nil
	}
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("config: %s: invalid address %q", field, value)
	}
	return common.HexToAddress(trimmed), nil
}

func parseHat(field, value string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return new(uint256.Int), nil
	}
	var (
		hat *uint256.Int
		err error
	)
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		hat, err = uint256.FromHex(trimmed)
	} else {
		hat, err = uint256.FromDecimal(trimmed)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %s: invalid hat id %q: %w", field, value, err)
	}
	return hat, nil
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"hatsgate/config"
	paramstate "hatsgate/native/params/state"
	"hatsgate/native/treasury"
	"hatsgate/observability/logging"
	"hatsgate/storage/treasurystore"
)

const usage = `Usage: hatsgate-cli [-config path] <command> [args]

Commands:
  proposal <id>                         Print the stored proposal record
  allowance <custodian> <hat> <token>   Print the remaining allowance
  pauses                                Print the pause toggles
`

type proposalReport struct {
	ID            string `json:"id"`
	Submitter     string `json:"submitter"`
	State         string `json:"state"`
	FundingToken  string `json:"fundingToken"`
	FundingAmount string `json:"fundingAmount"`
	ETA           uint64 `json:"eta"`
	TimelockSec   uint32 `json:"timelockSec"`
	Custodian     string `json:"custodian"`
	RecipientHat  string `json:"recipientHat"`
	ApproverHat   string `json:"approverHat"`
	ReservedHat   string `json:"reservedHat,omitempty"`
	MulticallSize int    `json:"multicallSize"`
	Digest        string `json:"multicallDigest"`
}

func main() {
	configPath := flag.String("config", "./hatsgate.toml", "Path to gate configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logging.Setup("hatsgate-cli", os.Getenv("HATSGATE_ENV"))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("failed to load config: %v", err)
	}
	store, err := treasurystore.Open(filepath.Join(cfg.DataDir, "treasury.db"))
	if err != nil {
		fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	switch args[0] {
	case "proposal":
		if len(args) != 2 {
			fatalf("proposal: expected one id argument")
		}
		runProposal(store, args[1])
	case "allowance":
		if len(args) != 4 {
			fatalf("allowance: expected custodian, hat and token arguments")
		}
		runAllowance(store, args[1], args[2], args[3])
	case "pauses":
		runPauses(store)
	default:
		fatalf("unknown command %q", args[0])
	}
}

func runProposal(store *treasurystore.Store, rawID string) {
	if !strings.HasPrefix(rawID, "0x") || len(rawID) != 66 {
		fatalf("proposal id must be a 32-byte hex hash")
	}
	p, ok, err := store.ProposalGet(common.HexToHash(rawID))
	if err != nil {
		fatalf("failed to load proposal: %v", err)
	}
	if !ok {
		fatalf("proposal %s not found", rawID)
	}

	report := proposalReport{
		ID:            p.ID.Hex(),
		Submitter:     p.Submitter.Hex(),
		State:         p.State.String(),
		FundingToken:  p.FundingToken.Hex(),
		FundingAmount: p.FundingAmount.Dec(),
		ETA:           p.ETA,
		TimelockSec:   p.TimelockSec,
		Custodian:     p.Custodian.Hex(),
		RecipientHat:  p.RecipientHat.Hex(),
		ApproverHat:   p.ApproverHat.Hex(),
		MulticallSize: len(p.Multicall),
		Digest:        treasury.MulticallDigest(p.Multicall).Hex(),
	}
	if p.ReservedHat != nil && !p.ReservedHat.IsZero() {
		report.ReservedHat = p.ReservedHat.Hex()
	}
	emit(report)
}

func runAllowance(store *treasurystore.Store, rawCustodian, rawHat, rawToken string) {
	if !common.IsHexAddress(rawCustodian) {
		fatalf("invalid custodian address %q", rawCustodian)
	}
	if !common.IsHexAddress(rawToken) {
		fatalf("invalid token address %q", rawToken)
	}
	hat, err := parseHat(rawHat)
	if err != nil {
		fatalf("invalid recipient hat %q: %v", rawHat, err)
	}

	key := treasury.NewLedgerKey(common.HexToAddress(rawCustodian), hat, common.HexToAddress(rawToken))
	remaining, err := store.AllowanceGet(key)
	if err != nil {
		fatalf("failed to load allowance: %v", err)
	}
	emit(map[string]string{
		"custodian":    common.HexToAddress(rawCustodian).Hex(),
		"recipientHat": hat.Hex(),
		"token":        common.HexToAddress(rawToken).Hex(),
		"remaining":    remaining.Dec(),
	})
}

func runPauses(store *treasurystore.Store) {
	proposals, err := paramstate.ProposalsPaused(store)
	if err != nil {
		fatalf("failed to load pauses: %v", err)
	}
	withdrawals, err := paramstate.WithdrawalsPaused(store)
	if err != nil {
		fatalf("failed to load pauses: %v", err)
	}
	emit(map[string]bool{
		"proposals":   proposals,
		"withdrawals": withdrawals,
	})
}

func parseHat(value string) (*uint256.Int, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return uint256.FromHex(value)
	}
	return uint256.FromDecimal(value)
}

func emit(v any) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("failed to encode report: %v", err)
	}
	fmt.Println(string(output))
}

func fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}

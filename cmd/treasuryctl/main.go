// Command treasuryctl is a line-oriented shell around a single in-process
// Treasury. It bootstraps from a TOML config file the way the rest of this
// codebase's daemons do, then reads commands from stdin until EOF, printing
// each command's result (or an "error:" line). There is no persistence between runs: the
// treasury, like the module it wraps, lives only in process memory.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"treasuryguard/config"
	"treasuryguard/domain"
	"treasuryguard/observability/logging"
	"treasuryguard/observability/metrics"
	"treasuryguard/policy"
	"treasuryguard/treasury"
)

func main() {
	configFile := flag.String("config", "./treasury.toml", "Path to the treasury configuration file")
	env := flag.String("env", "dev", "Deployment environment label, included on every log line")
	flag.Parse()

	bootLogger := logging.Setup("treasuryctl", *env, "")

	cfg, err := config.Load(*configFile)
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err, "path", *configFile)
		os.Exit(1)
	}

	logger := logging.Setup("treasuryctl", *env, cfg.TreasuryID)

	manager := policy.NewManager()
	tr, err := treasury.New(cfg.TreasuryID, cfg.Signers, cfg.Threshold, cfg.EmergencyThreshold, cfg.EmergencySigners,
		treasury.WithLogger(logger),
		treasury.WithPolicyManager(manager),
		treasury.WithEmergencyCooldownSeconds(cfg.EmergencyCooldownSeconds),
		treasury.WithMetrics(metrics.Treasury()),
	)
	if err != nil {
		logger.Error("failed to construct treasury", "error", err)
		os.Exit(1)
	}

	logger.Info("treasury shell ready", "treasury_id", cfg.TreasuryID, "signers", len(cfg.Signers), "threshold", cfg.Threshold)

	runShell(tr, logger, os.Stdin, os.Stdout)
}

func runShell(tr *treasury.Treasury, logger *slog.Logger, in *os.File, out *os.File) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		cmd := strings.ToLower(fields[0])
		args := fields[1:]

		if err := dispatch(tr, logger, out, cmd, args); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func dispatch(tr *treasury.Treasury, logger *slog.Logger, out *os.File, cmd string, args []string) error {
	now := time.Now().UTC()

	switch cmd {
	case "help":
		printHelp(out)
		return nil

	case "deposit":
		if len(args) < 3 {
			return fmt.Errorf("usage: deposit <depositor> <coin_type> <amount>")
		}
		amount, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[2], err)
		}
		if err := tr.Deposit(args[0], args[1], amount, now); err != nil {
			return err
		}
		fmt.Fprintf(out, "deposited %v %s from %s\n", amount, args[1], args[0])
		return nil

	case "balance":
		if len(args) < 1 {
			for _, bal := range tr.GetAllBalances() {
				fmt.Fprintf(out, "%s: %v\n", bal.CoinType, bal.Amount)
			}
			return nil
		}
		bal := tr.GetBalance(args[0])
		fmt.Fprintf(out, "%s: %v\n", bal.CoinType, bal.Amount)
		return nil

	case "add-signer":
		if len(args) < 2 {
			return fmt.Errorf("usage: add-signer <new_signer> <authorizer>")
		}
		if err := tr.AddSigner(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "added signer %s\n", args[0])
		return nil

	case "remove-signer":
		if len(args) < 2 {
			return fmt.Errorf("usage: remove-signer <signer> <authorizer>")
		}
		if err := tr.RemoveSigner(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "removed signer %s\n", args[0])
		return nil

	case "propose":
		if len(args) < 5 {
			return fmt.Errorf("usage: propose <creator> <category> <recipient> <amount> <coin_type> [description...]")
		}
		creator := args[0]
		category := domain.Category(args[1])
		recipient := args[2]
		amount, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[3], err)
		}
		coinType := args[4]
		description := ""
		if len(args) > 5 {
			description = strings.Join(args[5:], " ")
		}

		txs := []domain.Transaction{{
			TxType:    domain.TxTransfer,
			Recipient: recipient,
			Amount:    amount,
			CoinType:  coinType,
		}}
		proposal, err := tr.CreateProposal(creator, txs, category, description, now)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "proposal %s created, threshold %d, unlocks in %ds\n",
			proposal.ProposalID, proposal.ThresholdRequired, proposal.TimeLockDurationSeconds)
		return nil

	case "sign":
		if len(args) < 2 {
			return fmt.Errorf("usage: sign <proposal_id> <signer>")
		}
		sig := domain.Signature{Signer: args[1], SignatureBytes: []byte(args[1] + ":" + args[0])}
		if err := tr.SignProposal(args[0], args[1], sig, now); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s signed proposal %s\n", args[1], args[0])
		return nil

	case "execute":
		if len(args) < 2 {
			return fmt.Errorf("usage: execute <proposal_id> <executor>")
		}
		if err := tr.ExecuteProposal(args[0], args[1], now); err != nil {
			return err
		}
		fmt.Fprintf(out, "proposal %s executed\n", args[0])
		return nil

	case "cancel":
		if len(args) < 2 {
			return fmt.Errorf("usage: cancel <proposal_id> <actor>")
		}
		if err := tr.CancelProposal(args[0], args[1], now); err != nil {
			return err
		}
		fmt.Fprintf(out, "proposal %s cancelled\n", args[0])
		return nil

	case "show-proposal":
		if len(args) < 1 {
			return fmt.Errorf("usage: show-proposal <proposal_id>")
		}
		proposal, err := tr.GetProposal(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: status=%s threshold=%d/%d signers=%d\n",
			proposal.ProposalID, proposal.Status, len(proposal.Signatures), proposal.ThresholdRequired, len(proposal.Signatures))
		return nil

	case "list-proposals":
		var filter *domain.ProposalStatus
		if len(args) > 0 {
			status := domain.ProposalStatus(args[0])
			filter = &status
		}
		for _, proposal := range tr.ListProposals(filter) {
			fmt.Fprintf(out, "%s [%s] %s\n", proposal.ProposalID, proposal.Status, proposal.Category)
		}
		return nil

	case "freeze":
		if len(args) < 2 {
			return fmt.Errorf("usage: freeze <initiator> <reason...>")
		}
		action, err := tr.TriggerEmergencyFreeze(args[0], strings.Join(args[1:], " "), now)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "emergency action %s created\n", action.ActionID)
		return nil

	case "sign-freeze":
		if len(args) < 2 {
			return fmt.Errorf("usage: sign-freeze <action_id> <signer>")
		}
		sig := domain.Signature{Signer: args[1], SignatureBytes: []byte(args[1] + ":" + args[0])}
		if err := tr.SignEmergencyAction(args[0], args[1], sig, now); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s signed emergency action %s\n", args[1], args[0])
		return nil

	case "execute-freeze":
		if len(args) < 2 {
			return fmt.Errorf("usage: execute-freeze <action_id> <executor>")
		}
		if err := tr.ExecuteEmergencyAction(args[0], args[1], now); err != nil {
			return err
		}
		fmt.Fprintln(out, "treasury frozen")
		return nil

	case "unfreeze":
		if len(args) < 2 {
			return fmt.Errorf("usage: unfreeze <signer> <reason...>")
		}
		if err := tr.UnfreezeTreasury(args[0], strings.Join(args[1:], " "), now); err != nil {
			return err
		}
		fmt.Fprintln(out, "treasury unfrozen")
		return nil

	case "audit-log":
		for _, entry := range tr.GetAuditLogs() {
			fmt.Fprintf(out, "[%s] %s actor=%s proposal=%s\n",
				entry.Timestamp.Format(time.RFC3339), entry.ActionName, entry.Actor, entry.ProposalID)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func printHelp(out *os.File) {
	fmt.Fprintln(out, `commands:
  deposit <depositor> <coin_type> <amount>
  balance [coin_type]
  add-signer <new_signer> <authorizer>
  remove-signer <signer> <authorizer>
  propose <creator> <category> <recipient> <amount> <coin_type> [description...]
  sign <proposal_id> <signer>
  execute <proposal_id> <executor>
  cancel <proposal_id> <actor>
  show-proposal <proposal_id>
  list-proposals [status]
  freeze <initiator> <reason...>
  sign-freeze <action_id> <signer>
  execute-freeze <action_id> <executor>
  unfreeze <signer> <reason...>
  audit-log
  help`)
}

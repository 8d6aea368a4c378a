package main

import (
	"bufio"
	"crypto/ed25519"
	"fmt"
	"os"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/code-payments/squads-index/pkg/cliconfig"
	"github.com/code-payments/squads-index/pkg/indexer"
	"github.com/code-payments/squads-index/pkg/solana"
	"github.com/code-payments/squads-index/pkg/solana/squads"
	"github.com/code-payments/squads-index/pkg/solana/upgradeable"
)

// Rent for the index account plus the transaction fee, in SOL.
const indexCostEstimate = "0.00089588"

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <address>",
		Short: "Create an on-chain index linking a multisig authority to Squads V3",
		Long: "Create an on-chain index linking a multisig authority to Squads V3.\n\n" +
			"The address can be a Squads V3 multisig account or an upgradeable\n" +
			"program whose upgrade authority is controlled by one.",
		Args: cobra.ExactArgs(1),
		RunE: runIndex,
	}
}

func runIndex(cmd *cobra.Command, args []string) error {
	address, err := parseAddress(args[0])
	if err != nil {
		return err
	}

	config := cliconfig.Load()
	payer, err := loadPayer(config)
	if err != nil {
		return err
	}

	sc := newClient(config)
	logPayerFunds(sc, payer)

	var opts []indexer.IndexOption
	if !yesFlag {
		opts = append(opts, indexer.WithConfirmation(confirmIndex))
	}

	outcome, err := indexer.New(sc).Index(address, payer, opts...)
	if err != nil {
		return reportIndexFailure(address, outcome, err)
	}

	target := outcome.Target
	switch {
	case outcome.AlreadyIndexed:
		subject := target.Authority
		if target.Program != nil {
			subject = target.Program
		}
		fmt.Printf("%s already indexed!\n", base58.Encode(subject))
	case outcome.Declined:
		fmt.Println("Exiting without executing instruction")
	default:
		fmt.Printf("Successfully created index for %s\n", base58.Encode(target.Authority))
		if target.Program != nil {
			fmt.Printf("Program %s is now linked to Squads V3!\n", base58.Encode(target.Program))
		} else {
			fmt.Printf("Authority %s is now indexed!\n", base58.Encode(target.Authority))
		}
	}
	return nil
}

// logPayerFunds compares the payer balance against the rent exempt reserve
// the index account needs. Diagnostics only, submission preflight is what
// actually enforces funding.
func logPayerFunds(sc solana.Client, payer ed25519.PrivateKey) {
	if !logrus.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	log := logrus.StandardLogger().WithField("type", "cmd/index")

	balance, err := sc.GetBalance(payer.Public().(ed25519.PublicKey))
	if err != nil {
		log.WithError(err).Debug("failed to get payer balance")
		return
	}

	rent, err := sc.GetMinimumBalanceForRentExemption(0)
	if err != nil {
		log.WithError(err).Debug("failed to get rent exempt reserve")
		return
	}

	log.Debugf("payer balance: %d lamports (index account needs %d plus the fee)", balance, rent)
	if balance < rent {
		log.Warnf("payer balance %d is below the rent exempt reserve %d", balance, rent)
	}
}

// confirmIndex shows what is about to be created and asks for a go-ahead.
func confirmIndex(target *indexer.ResolvedTarget, index ed25519.PublicKey) bool {
	fmt.Printf("%d/%d Multisig account exists\n", target.Record.Threshold, len(target.Record.Members))
	fmt.Printf("Multisig key: %s\n", base58.Encode(target.Multisig))
	fmt.Printf("Authority key: %s\n", base58.Encode(target.Authority))
	fmt.Printf("Index key: %s\n", base58.Encode(index))
	fmt.Println()
	fmt.Printf("Cost: %s SOL\n", indexCostEstimate)

	return promptYesNo(bufio.NewReader(os.Stdin))
}

// reportIndexFailure prints domain outcomes and exits cleanly for them.
// Anything else bubbles up as a real error.
func reportIndexFailure(address ed25519.PublicKey, outcome *indexer.IndexOutcome, err error) error {
	switch err {
	case indexer.ErrAccountNotFound:
		fmt.Printf("Account %s does not exist\n", base58.Encode(address))
		return nil
	case indexer.ErrInvalidAccount:
		fmt.Printf("Invalid account %s\n", base58.Encode(address))
		return nil
	case indexer.ErrAuthorityNotDerivable:
		fmt.Printf("Upgrade authority for %s is not a program derived address\n", base58.Encode(address))
		return nil
	case indexer.ErrMultisigNotFound:
		fmt.Printf("Failed to find multisig for %s\n", base58.Encode(address))
		return nil
	case upgradeable.ErrImmutableProgram:
		fmt.Println("Program is immutable")
		return nil
	case squads.ErrDiscriminatorMismatch, squads.ErrInvalidMultisigData:
		fmt.Printf("Invalid multisig account %s\n", base58.Encode(address))
		return nil
	}

	if outcome != nil && outcome.Submission != nil {
		switch outcome.Submission.State {
		case indexer.SubmitStatePreflightRejected:
			fmt.Printf("Invalid multisig account %s\n", base58.Encode(outcome.Target.Multisig))
			return nil
		case indexer.SubmitStateRetriesExhausted:
			fmt.Printf("Failed to create index account after %d attempts\n", outcome.Submission.Attempts)
			return nil
		}
	}

	return err
}

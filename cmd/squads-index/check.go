package main

import (
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	"github.com/code-payments/squads-index/pkg/cliconfig"
	"github.com/code-payments/squads-index/pkg/indexer"
	"github.com/code-payments/squads-index/pkg/solana/upgradeable"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <address>",
		Short: "Check whether an authority, multisig or program is indexed",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	address, err := parseAddress(args[0])
	if err != nil {
		return err
	}

	outcome, err := indexer.New(newClient(cliconfig.Load())).Check(address)
	if err != nil {
		if err == upgradeable.ErrImmutableProgram {
			fmt.Println("Program is immutable")
			return nil
		}
		return err
	}

	authority := base58.Encode(outcome.Authority)

	if !outcome.Derivable {
		fmt.Printf("Authority %s is not a Program Derived Address ❌\n", authority)
		return nil
	}
	if !outcome.Indexed {
		fmt.Printf("Index account does not exist for %s ❌\n", authority)
		return nil
	}

	fmt.Printf("Index account exists for %s ✅\n", authority)
	if outcome.Program != nil {
		fmt.Printf("\n%s is controlled by a Squads multisig\n", base58.Encode(outcome.Program))
	}
	if outcome.Multisig != nil {
		fmt.Println("\nMultisig details")
		fmt.Printf("Address: %s\n", base58.Encode(outcome.Multisig))
		if outcome.Record != nil {
			fmt.Printf("Threshold: %d/%d\n", outcome.Record.Threshold, len(outcome.Record.Members))
			fmt.Println("Members:")
			for _, member := range outcome.Record.Members {
				fmt.Printf("  %s\n", base58.Encode(member))
			}
		}
	}
	return nil
}

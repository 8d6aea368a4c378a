package main

import (
	"bufio"
	"crypto/ed25519"
	"fmt"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/code-payments/squads-index/pkg/cliconfig"
	"github.com/code-payments/squads-index/pkg/solana"
)

var (
	urlFlag     string
	keypairFlag string
	yesFlag     bool
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:          "squads-index",
	Short:        "Link Squads V3 multisigs to the on-chain authority index",
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if verboseFlag {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&urlFlag, "url", "u", "", "RPC endpoint or cluster alias (main, dev, test, local). Defaults to the Solana CLI config.")
	rootCmd.PersistentFlags().StringVarP(&keypairFlag, "keypair-path", "k", "", "Payer keypair path. Defaults to the Solana CLI config.")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newIndexCmd(), newCheckCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newClient builds the RPC client from the url flag, falling back to the
// Solana CLI config.
func newClient(config *cliconfig.Config) solana.Client {
	endpoint := config.JSONRPCURL
	if urlFlag != "" {
		endpoint = urlFlag
	}
	return solana.New(cliconfig.ResolveEndpoint(endpoint))
}

// loadPayer reads the payer keypair from the keypair-path flag, falling
// back to the Solana CLI config.
func loadPayer(config *cliconfig.Config) (ed25519.PrivateKey, error) {
	path := config.KeypairPath
	if keypairFlag != "" {
		path = keypairFlag
	}
	return cliconfig.LoadKeypair(path)
}

func parseAddress(arg string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(arg)
	if err != nil || len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid address %s", arg)
	}
	return decoded, nil
}

// promptYesNo asks on stdout and keeps asking until the answer is a
// recognizable yes or no. A closed stdin counts as no.
func promptYesNo(reader *bufio.Reader) bool {
	for {
		fmt.Print("(y/n) ")

		input, err := reader.ReadString('\n')
		if err != nil {
			return false
		}

		switch strings.ToLower(strings.TrimSpace(input)) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}

		fmt.Println("Please indicate yes or no.")
	}
}

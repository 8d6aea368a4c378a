package authindex

import (
	"crypto/ed25519"

	"github.com/code-payments/squads-index/pkg/solana"
)

type GetIndexAddressArgs struct {
	Authority ed25519.PublicKey
}

// GetIndexAddress derives the index account marking an authority as indexed.
// The account's existence is the entire marker, it never holds data.
func GetIndexAddress(args *GetIndexAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		ProgramKey,
		args.Authority,
	)
}

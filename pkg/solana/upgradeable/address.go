package upgradeable

import (
	"crypto/ed25519"

	"github.com/code-payments/squads-index/pkg/solana"
)

type GetProgramDataAddressArgs struct {
	ProgramID ed25519.PublicKey
}

// GetProgramDataAddress derives the ProgramData account that holds the
// executable bytes and upgrade authority for a program deployed with the
// upgradeable loader.
func GetProgramDataAddress(args *GetProgramDataAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		ProgramKey,
		args.ProgramID,
	)
}

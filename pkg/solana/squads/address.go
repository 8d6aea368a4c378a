package squads

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/code-payments/squads-index/pkg/solana"
)

var (
	squadPrefix     = []byte("squad")
	authorityPrefix = []byte("authority")
)

type GetAuthorityAddressArgs struct {
	Multisig       ed25519.PublicKey
	AuthorityIndex uint32
}

// GetAuthorityAddress derives the vault authority PDA for a multisig. This is
// the account that signs on behalf of the squad when transactions execute.
func GetAuthorityAddress(args *GetAuthorityAddressArgs) (ed25519.PublicKey, uint8, error) {
	indexBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(indexBytes, args.AuthorityIndex)

	return solana.FindProgramAddressAndBump(
		ProgramKey,
		squadPrefix,
		args.Multisig,
		indexBytes,
		authorityPrefix,
	)
}

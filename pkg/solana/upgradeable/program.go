package upgradeable

import (
	"crypto/ed25519"
	"errors"

	"github.com/mr-tron/base58"
)

var (
	ErrInvalidAccountData = errors.New("invalid program data account")
	ErrImmutableProgram   = errors.New("program has no upgrade authority")
)

// ProgramKey is the address of the BPF upgradeable loader.
var ProgramKey = ed25519.PublicKey(mustBase58Decode("BPFLoaderUpgradeab1e11111111111111111111111"))

// ProgramAccountSize is the size of a program account owned by the loader,
// a 4 byte state tag followed by the 32 byte ProgramData address.
const ProgramAccountSize = 36

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}

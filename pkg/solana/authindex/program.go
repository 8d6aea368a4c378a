package authindex

import (
	"crypto/ed25519"
	"errors"

	"github.com/mr-tron/base58"
)

var (
	ErrNotEnoughAccounts    = errors.New("not enough accounts")
	ErrInvalidSystemProgram = errors.New("invalid system program")
	ErrInvalidPayer         = errors.New("payer must be a signer and writable")
	ErrInvalidIndexAccount  = errors.New("invalid index account")
	ErrIllegalMultisigOwner = errors.New("multisig must be owned by the squads program")
	ErrInvalidAuthority     = errors.New("authority must be derived from the multisig")

	ErrAccountInUse         = errors.New("account already in use")
	ErrInsufficientLamports = errors.New("insufficient lamports for transfer")
	ErrMissingSignature     = errors.New("missing required signature")
)

// ProgramKey is the address of the authority index program.
var ProgramKey = ed25519.PublicKey(mustBase58Decode("idxqM2xnXsym7KL9YQmC8GG6TvdV9XxvHeMWdiswpwr"))

// IndexLamports is the rent exempt reserve for a zero byte account.
const IndexLamports uint64 = 890880

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}

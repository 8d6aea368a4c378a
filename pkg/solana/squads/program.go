package squads

import (
	"crypto/ed25519"
	"errors"
)

var (
	ErrInvalidMultisigData   = errors.New("invalid multisig account data")
	ErrDiscriminatorMismatch = errors.New("account discriminator mismatch")
)

// ProgramKey is the address of the Squads V3 multisig program.
var ProgramKey = ed25519.PublicKey(mustBase58Decode("SMPLecH534NA9acpos4G6x7uf3LWbCAwZQE9e8ZekMu"))

// DefaultAuthorityIndex is the vault authority every squad is created with.
// Squads reserves index 0 for internal use, so the first usable vault is 1.
const DefaultAuthorityIndex uint32 = 1

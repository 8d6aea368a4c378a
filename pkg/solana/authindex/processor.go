package authindex

import (
	"bytes"
	"crypto/ed25519"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/squads-index/pkg/solana/squads"
	"github.com/code-payments/squads-index/pkg/solana/system"
)

// Account is the in-memory view of an account the processor executes
// against.
type Account struct {
	Key        ed25519.PublicKey
	Lamports   uint64
	Data       []byte
	Owner      ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
}

// ProcessInstruction executes the index program against in-memory account
// state. Account ordering follows NewIndexInstruction.
//
// The instruction is idempotent. The first invocation claims the index
// account for the program, every later invocation is a no-op.
func ProcessInstruction(accounts []*Account) error {
	if len(accounts) < 5 {
		return ErrNotEnoughAccounts
	}

	systemProgram := accounts[0]
	authority := accounts[1]
	multisig := accounts[2]
	payer := accounts[3]
	index := accounts[4]

	if !bytes.Equal(systemProgram.Key, system.ProgramKey[:]) {
		return ErrInvalidSystemProgram
	}
	if !payer.IsSigner || !payer.IsWritable {
		return ErrInvalidPayer
	}

	// The index account's authorization is its derivation. Proving the key
	// here stands in for the seed signature on chain.
	indexKey, _, err := GetIndexAddress(&GetIndexAddressArgs{
		Authority: authority.Key,
	})
	if err != nil {
		return err
	}
	if !bytes.Equal(index.Key, indexKey) || !index.IsWritable {
		return ErrInvalidIndexAccount
	}

	if !bytes.Equal(multisig.Owner, squads.ProgramKey) {
		return ErrIllegalMultisigOwner
	}

	derivedAuthority, _, err := squads.GetAuthorityAddress(&squads.GetAuthorityAddressArgs{
		Multisig:       multisig.Key,
		AuthorityIndex: squads.DefaultAuthorityIndex,
	})
	if err != nil {
		return err
	}
	if !bytes.Equal(authority.Key, derivedAuthority) {
		return ErrInvalidAuthority
	}

	if len(multisig.Data) < 8 || !bytes.Equal(multisig.Data[:8], squads.MultisigDiscriminator) {
		return squads.ErrDiscriminatorMismatch
	}

	if len(index.Data) > 0 || bytes.Equal(index.Owner, ProgramKey) {
		logrus.StandardLogger().
			WithField("type", "authindex.processor").
			Debug("authority already indexed")
		return nil
	}

	if index.Lamports == 0 {
		return systemCreateAccount(payer, index, IndexLamports, ProgramKey)
	}

	// The account was funded ahead of creation. Top it up to the rent
	// exempt reserve, then claim it.
	if index.Lamports < IndexLamports {
		if err := systemTransfer(payer, index, IndexLamports-index.Lamports); err != nil {
			return err
		}
	}
	if err := systemAllocate(index, 0); err != nil {
		return err
	}
	return systemAssign(index, ProgramKey)
}

// systemCreateAccount mirrors the system program's CreateAccount, a funded
// transfer followed by an allocate and assign.
func systemCreateAccount(funder, account *Account, lamports uint64, owner ed25519.PublicKey) error {
	if account.Lamports > 0 {
		return ErrAccountInUse
	}
	if err := systemTransfer(funder, account, lamports); err != nil {
		return err
	}
	if err := systemAllocate(account, 0); err != nil {
		return err
	}
	return systemAssign(account, owner)
}

func systemTransfer(from, to *Account, lamports uint64) error {
	if !from.IsSigner {
		return ErrMissingSignature
	}
	if from.Lamports < lamports {
		return ErrInsufficientLamports
	}

	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}

func systemAllocate(account *Account, size uint64) error {
	if len(account.Data) > 0 || !isSystemOwned(account) {
		return ErrAccountInUse
	}

	account.Data = make([]byte, size)
	return nil
}

func systemAssign(account *Account, owner ed25519.PublicKey) error {
	account.Owner = owner
	return nil
}

// Accounts that have never been touched report a zero owner, which is the
// system program's key.
func isSystemOwned(account *Account) bool {
	return len(account.Owner) == 0 || bytes.Equal(account.Owner, system.ProgramKey[:])
}

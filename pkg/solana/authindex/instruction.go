package authindex

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/squads-index/pkg/solana"
	"github.com/code-payments/squads-index/pkg/solana/system"
)

// NewIndexInstruction builds the instruction that registers a multisig
// authority with the index program, returning the derived index account.
func NewIndexInstruction(authority, multisig, payer ed25519.PublicKey) (solana.Instruction, ed25519.PublicKey, error) {
	index, _, err := GetIndexAddress(&GetIndexAddressArgs{
		Authority: authority,
	})
	if err != nil {
		return solana.Instruction{}, nil, err
	}

	// # Account references
	//   0. [] System program
	//   1. [] Multisig authority being indexed
	//   2. [] Multisig the authority is derived from
	//   3. [WRITE, SIGNER] Funding account
	//   4. [WRITE] Index account
	return solana.NewInstruction(
		ProgramKey,
		[]byte{},
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		solana.NewReadonlyAccountMeta(authority, false),
		solana.NewReadonlyAccountMeta(multisig, false),
		solana.NewAccountMeta(payer, true),
		solana.NewAccountMeta(index, false),
	), index, nil
}

type DecompiledIndex struct {
	Authority ed25519.PublicKey
	Multisig  ed25519.PublicKey
	Payer     ed25519.PublicKey
	Index     ed25519.PublicKey
}

func DecompileIndex(m solana.Message, index int) (*DecompiledIndex, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Data) != 0 {
		return nil, errors.Errorf("unexpected data")
	}
	if len(i.Accounts) != 5 {
		return nil, errors.Errorf("invalid number of accounts: %d (expected %d)", len(i.Accounts), 5)
	}

	if !bytes.Equal(m.Accounts[i.Accounts[0]], system.ProgramKey[:]) {
		return nil, errors.Errorf("system program key mismatch")
	}

	return &DecompiledIndex{
		Authority: m.Accounts[i.Accounts[1]],
		Multisig:  m.Accounts[i.Accounts[2]],
		Payer:     m.Accounts[i.Accounts[3]],
		Index:     m.Accounts[i.Accounts[4]],
	}, nil
}

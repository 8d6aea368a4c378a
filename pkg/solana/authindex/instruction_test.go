package authindex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/squads-index/pkg/solana"
	"github.com/code-payments/squads-index/pkg/solana/system"
	"github.com/code-payments/squads-index/pkg/testutil"
)

func TestNewIndexInstruction(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)
	authority, multisig, payer := keys[0], keys[1], keys[2]

	instruction, index, err := NewIndexInstruction(authority, multisig, payer)
	require.NoError(t, err)

	expectedIndex, _, err := GetIndexAddress(&GetIndexAddressArgs{Authority: authority})
	require.NoError(t, err)
	assert.EqualValues(t, expectedIndex, index)

	assert.EqualValues(t, ProgramKey, instruction.Program)
	assert.Empty(t, instruction.Data)

	require.Len(t, instruction.Accounts, 5)
	assert.EqualValues(t, system.ProgramKey[:], instruction.Accounts[0].PublicKey)
	assert.EqualValues(t, authority, instruction.Accounts[1].PublicKey)
	assert.EqualValues(t, multisig, instruction.Accounts[2].PublicKey)
	assert.EqualValues(t, payer, instruction.Accounts[3].PublicKey)
	assert.EqualValues(t, index, instruction.Accounts[4].PublicKey)

	for i, expected := range []struct {
		isSigner   bool
		isWritable bool
	}{
		{false, false},
		{false, false},
		{false, false},
		{true, true},
		{false, true},
	} {
		assert.Equal(t, expected.isSigner, instruction.Accounts[i].IsSigner)
		assert.Equal(t, expected.isWritable, instruction.Accounts[i].IsWritable)
	}

	var tx solana.Transaction
	require.NoError(t, tx.Unmarshal(solana.NewLegacyTransaction(payer, instruction).Marshal()))

	decompiled, err := DecompileIndex(tx.Message, 0)
	require.NoError(t, err)
	assert.EqualValues(t, authority, decompiled.Authority)
	assert.EqualValues(t, multisig, decompiled.Multisig)
	assert.EqualValues(t, payer, decompiled.Payer)
	assert.EqualValues(t, index, decompiled.Index)
}

func TestDecompileNonIndex(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)

	instruction, _, err := NewIndexInstruction(keys[0], keys[1], keys[2])
	require.NoError(t, err)

	_, err = DecompileIndex(solana.NewLegacyTransaction(keys[2], instruction).Message, 1)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "instruction doesn't exist"))

	instruction.Data = []byte{1}
	_, err = DecompileIndex(solana.NewLegacyTransaction(keys[2], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "unexpected data"))
	instruction.Data = nil

	instruction.Accounts = instruction.Accounts[:3]
	_, err = DecompileIndex(solana.NewLegacyTransaction(keys[2], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid number of accounts"), err)

	transfer := system.Transfer(keys[0], keys[1], 123)
	_, err = DecompileIndex(solana.NewLegacyTransaction(keys[2], transfer).Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

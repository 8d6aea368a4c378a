package authindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/squads-index/pkg/solana"
	"github.com/code-payments/squads-index/pkg/testutil"
)

func TestGetIndexAddress(t *testing.T) {
	authority := testutil.GenerateSolanaKeys(t, 1)[0]

	address, bump, err := GetIndexAddress(&GetIndexAddressArgs{
		Authority: authority,
	})
	require.NoError(t, err)
	assert.False(t, solana.IsOnCurve(address))

	direct, err := solana.CreateProgramAddress(ProgramKey, authority, []byte{bump})
	require.NoError(t, err)
	assert.EqualValues(t, address, direct)

	other := testutil.GenerateSolanaKeys(t, 1)[0]
	otherAddress, _, err := GetIndexAddress(&GetIndexAddressArgs{
		Authority: other,
	})
	require.NoError(t, err)
	assert.NotEqualValues(t, address, otherAddress)
}

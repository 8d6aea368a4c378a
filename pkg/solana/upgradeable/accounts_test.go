package upgradeable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/squads-index/pkg/testutil"
)

func TestProgramData_MarshalRoundTrip(t *testing.T) {
	authority := testutil.GenerateSolanaKeys(t, 1)[0]

	expected := &ProgramData{
		Slot:             253642782,
		UpgradeAuthority: authority,
	}

	data := expected.Marshal()
	assert.Len(t, data, ProgramDataHeaderSize)

	actual, err := ParseProgramData(data)
	require.NoError(t, err)
	assert.Equal(t, expected.Slot, actual.Slot)
	assert.EqualValues(t, expected.UpgradeAuthority, actual.UpgradeAuthority)
}

func TestParseProgramData_TrailingExecutableBytes(t *testing.T) {
	authority := testutil.GenerateSolanaKeys(t, 1)[0]

	// On chain the header is followed by the program's ELF bytes.
	data := append((&ProgramData{Slot: 1, UpgradeAuthority: authority}).Marshal(), make([]byte, 4096)...)

	actual, err := ParseProgramData(data)
	require.NoError(t, err)
	assert.EqualValues(t, authority, actual.UpgradeAuthority)
}

func TestParseProgramData_Immutable(t *testing.T) {
	data := (&ProgramData{Slot: 42}).Marshal()

	actual, err := ParseProgramData(data)
	assert.Nil(t, actual)
	assert.ErrorIs(t, err, ErrImmutableProgram)
}

func TestParseProgramData_InvalidData(t *testing.T) {
	authority := testutil.GenerateSolanaKeys(t, 1)[0]

	valid := (&ProgramData{Slot: 1, UpgradeAuthority: authority}).Marshal()

	wrongTag := make([]byte, len(valid))
	copy(wrongTag, valid)
	wrongTag[0] = 2

	for _, tc := range []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", valid[:12]},
		{"wrong_tag", wrongTag},
	} {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := ParseProgramData(tc.data)
			assert.Nil(t, actual)
			assert.ErrorIs(t, err, ErrInvalidAccountData)
		})
	}
}

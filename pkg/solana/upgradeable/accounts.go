package upgradeable

import (
	"crypto/ed25519"

	"github.com/code-payments/squads-index/pkg/solana/binary"
)

// ProgramData is the metadata header of a ProgramData account. The
// executable bytes follow the header and are not retained here.
type ProgramData struct {
	Slot             uint64
	UpgradeAuthority ed25519.PublicKey
}

const ProgramDataHeaderSize = (4 + // state tag
	8 + // deployment slot
	1 + // authority option
	32) // upgrade authority

const programDataStateTag = 3

// ParseProgramData deserializes the metadata header of a ProgramData
// account. Deployments whose upgrade authority has been discarded fail
// with ErrImmutableProgram.
func ParseProgramData(data []byte) (*ProgramData, error) {
	if len(data) < ProgramDataHeaderSize {
		return nil, ErrInvalidAccountData
	}

	var offset int
	var tag uint32
	binary.GetUint32(data[offset:], &tag, &offset)
	if tag != programDataStateTag {
		return nil, ErrInvalidAccountData
	}

	var obj ProgramData
	binary.GetUint64(data[offset:], &obj.Slot, &offset)
	binary.GetOptionalKey32(data[offset:], &obj.UpgradeAuthority, &offset, 1)
	if obj.UpgradeAuthority == nil {
		return nil, ErrImmutableProgram
	}

	return &obj, nil
}

func (obj *ProgramData) Marshal() []byte {
	data := make([]byte, ProgramDataHeaderSize)

	var offset int

	binary.PutUint32(data[offset:], programDataStateTag, &offset)
	binary.PutUint64(data[offset:], obj.Slot, &offset)
	binary.PutOptionalKey32(data[offset:], obj.UpgradeAuthority, &offset, 1)

	return data
}

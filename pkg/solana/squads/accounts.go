package squads

import (
	"bytes"
	"crypto/ed25519"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
)

// Multisig is the on-chain state of a Squads V3 multisig.
type Multisig struct {
	Threshold            uint16
	AuthorityIndex       uint16
	TransactionIndex     uint32
	MsChangeIndex        uint32
	Bump                 uint8
	CreateKey            ed25519.PublicKey
	AllowExternalExecute bool
	Members              []ed25519.PublicKey
}

const MultisigHeaderSize = (8 + // discriminator
	2 + // threshold
	2 + // authority_index
	4 + // transaction_index
	4 + // ms_change_index
	1 + // bump
	32 + // create_key
	1 + // allow_external_execute
	4) // member vector length

const memberSize = ed25519.PublicKeySize

var MultisigDiscriminator = []byte{70, 118, 9, 108, 254, 215, 31, 120}

// ParseMultisig deserializes a multisig from raw account data.
func ParseMultisig(data []byte) (*Multisig, error) {
	var obj Multisig
	if err := obj.Unmarshal(data); err != nil {
		return nil, err
	}
	return &obj, nil
}

func (obj *Multisig) String() string {
	var createKey string
	if obj.CreateKey != nil {
		createKey = base58.Encode(obj.CreateKey)
	}

	members := make([]string, len(obj.Members))
	for i, member := range obj.Members {
		members[i] = base58.Encode(member)
	}

	return "Multisig{" +
		"threshold='" + strconv.Itoa(int(obj.Threshold)) + "'" +
		", authority_index='" + strconv.Itoa(int(obj.AuthorityIndex)) + "'" +
		", transaction_index='" + strconv.Itoa(int(obj.TransactionIndex)) + "'" +
		", ms_change_index='" + strconv.Itoa(int(obj.MsChangeIndex)) + "'" +
		", bump='" + strconv.Itoa(int(obj.Bump)) + "'" +
		", create_key='" + createKey + "'" +
		", allow_external_execute='" + strconv.FormatBool(obj.AllowExternalExecute) + "'" +
		", members='[" + strings.Join(members, ",") + "]'" +
		"}"
}

func (obj *Multisig) Marshal() []byte {
	data := make([]byte, MultisigHeaderSize+memberSize*len(obj.Members))

	var offset int

	putDiscriminator(data, MultisigDiscriminator, &offset)
	putUint16(data, obj.Threshold, &offset)
	putUint16(data, obj.AuthorityIndex, &offset)
	putUint32(data, obj.TransactionIndex, &offset)
	putUint32(data, obj.MsChangeIndex, &offset)
	putUint8(data, obj.Bump, &offset)
	putKey(data, obj.CreateKey, &offset)
	putBool(data, obj.AllowExternalExecute, &offset)
	putUint32(data, uint32(len(obj.Members)), &offset)
	for _, member := range obj.Members {
		putKey(data, member, &offset)
	}

	return data
}

func (obj *Multisig) Unmarshal(data []byte) error {
	if len(data) < 8 {
		return ErrInvalidMultisigData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, MultisigDiscriminator) {
		return ErrDiscriminatorMismatch
	}

	if len(data) < MultisigHeaderSize {
		return ErrInvalidMultisigData
	}

	getUint16(data, &obj.Threshold, &offset)
	getUint16(data, &obj.AuthorityIndex, &offset)
	getUint32(data, &obj.TransactionIndex, &offset)
	getUint32(data, &obj.MsChangeIndex, &offset)
	getUint8(data, &obj.Bump, &offset)
	getKey(data, &obj.CreateKey, &offset)
	getBool(data, &obj.AllowExternalExecute, &offset)

	var memberCount uint32
	getUint32(data, &memberCount, &offset)

	// On-chain accounts are allocated with headroom for future members, so
	// anything beyond the declared member vector is ignored.
	if len(data) < MultisigHeaderSize+memberSize*int(memberCount) {
		return ErrInvalidMultisigData
	}

	obj.Members = make([]ed25519.PublicKey, memberCount)
	for i := range obj.Members {
		getKey(data, &obj.Members[i], &offset)
	}

	return nil
}

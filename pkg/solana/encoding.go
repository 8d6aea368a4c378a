package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/squads-index/pkg/solana/shortvec"
)

func (s TransactionSignature) ToBase58() string {
	return base58.Encode(s.Signature[:])
}

func (t Transaction) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	// Signatures
	_, _ = shortvec.EncodeLen(b, len(t.Signatures))
	for _, s := range t.Signatures {
		_, _ = b.Write(s[:])
	}

	// Message
	_, _ = b.Write(t.Message.Marshal())

	return b.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)

	sigLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read signature length")
	}
	if sigLen*ed25519.SignatureSize > buf.Len() {
		return errors.Errorf("invalid signature length: %d", sigLen)
	}

	t.Signatures = make([]Signature, sigLen)
	for i := 0; i < sigLen; i++ {
		if _, err = io.ReadFull(buf, t.Signatures[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read signature at %d", i)
		}
	}

	return (&t.Message).Unmarshal(buf.Bytes())
}

func (m Message) Marshal() []byte {
	switch m.Version {
	case MessageVersionLegacy:
		return m.marshalLegacy()
	case MessageVersion0:
		return m.marshalV0()
	default:
		panic("unsupported message version")
	}
}

func (m Message) marshalLegacy() []byte {
	b := bytes.NewBuffer(nil)

	// Header
	_ = b.WriteByte(m.Header.NumSignatures)
	_ = b.WriteByte(m.Header.NumReadonlySigned)
	_ = b.WriteByte(m.Header.NumReadOnly)

	// Accounts
	_, _ = shortvec.EncodeLen(b, len(m.Accounts))
	for _, a := range m.Accounts {
		_, _ = b.Write(a)
	}

	// Recent Blockhash
	_, _ = b.Write(m.RecentBlockhash[:])

	// Instructions
	_, _ = shortvec.EncodeLen(b, len(m.Instructions))
	for _, i := range m.Instructions {
		_ = b.WriteByte(i.ProgramIndex)

		// Accounts
		_, _ = shortvec.EncodeLen(b, len(i.Accounts))
		_, _ = b.Write(i.Accounts)

		// Data
		_, _ = shortvec.EncodeLen(b, len(i.Data))
		_, _ = b.Write(i.Data)
	}

	return b.Bytes()
}

func (m Message) marshalV0() []byte {
	b := bytes.NewBuffer(nil)

	// Version Number
	_ = b.WriteByte(byte(m.Version + 127))

	// Header
	_ = b.WriteByte(m.Header.NumSignatures)
	_ = b.WriteByte(m.Header.NumReadonlySigned)
	_ = b.WriteByte(m.Header.NumReadOnly)

	// Accounts
	_, _ = shortvec.EncodeLen(b, len(m.Accounts))
	for _, a := range m.Accounts {
		_, _ = b.Write(a)
	}

	// Recent Blockhash
	_, _ = b.Write(m.RecentBlockhash[:])

	// Instructions
	_, _ = shortvec.EncodeLen(b, len(m.Instructions))
	for _, i := range m.Instructions {
		_ = b.WriteByte(i.ProgramIndex)

		// Accounts
		_, _ = shortvec.EncodeLen(b, len(i.Accounts))
		_, _ = b.Write(i.Accounts)

		// Data
		_, _ = shortvec.EncodeLen(b, len(i.Data))
		_, _ = b.Write(i.Data)
	}

	_, _ = shortvec.EncodeLen(b, len(m.AddressTableLookups))
	for _, addressTableLookup := range m.AddressTableLookups {
		_, _ = b.Write(addressTableLookup.PublicKey)

		_, _ = shortvec.EncodeLen(b, len(addressTableLookup.WritableIndexes))
		_, _ = b.Write(addressTableLookup.WritableIndexes)

		_, _ = shortvec.EncodeLen(b, len(addressTableLookup.ReadonlyIndexes))
		_, _ = b.Write(addressTableLookup.ReadonlyIndexes)
	}

	return b.Bytes()
}

func (m *Message) Unmarshal(b []byte) (err error) {
	if len(b) == 0 {
		return errors.New("message is empty")
	}

	buf := bytes.NewBuffer(b)

	// Versioned messages are prefixed with a version byte that has its high
	// bit set. Legacy messages begin directly with the header, whose first
	// byte is a signature count that never reaches 128.
	if b[0] > 127 {
		m.Version = MessageVersion(b[0] - 127)
		if m.Version != MessageVersion0 {
			return errors.Errorf("unsupported message version: %d", b[0]&0x7f)
		}
		_, _ = buf.ReadByte()
	} else {
		m.Version = MessageVersionLegacy
	}

	// Header
	if m.Header.NumSignatures, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num signatures")
	}
	if m.Header.NumReadonlySigned, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly signatures")
	}
	if m.Header.NumReadOnly, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly")
	}

	// Accounts
	accountLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read account len")
	}
	if accountLen*ed25519.PublicKeySize > buf.Len() {
		return errors.Errorf("invalid account length: %d", accountLen)
	}
	m.Accounts = make([]ed25519.PublicKey, accountLen)
	for i := 0; i < accountLen; i++ {
		m.Accounts[i] = make([]byte, ed25519.PublicKeySize)
		if _, err = io.ReadFull(buf, m.Accounts[i]); err != nil {
			return errors.Wrapf(err, "failed to read account at index %d", i)
		}
	}

	// Recent block hash
	if _, err = io.ReadFull(buf, m.RecentBlockhash[:]); err != nil {
		return errors.Wrap(err, "failed to read recent block hash")
	}

	// Instructions
	instructionLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read instruction len")
	}
	if instructionLen > buf.Len() {
		return errors.Errorf("invalid instruction length: %d", instructionLen)
	}
	m.Instructions = make([]CompiledInstruction, 0, instructionLen)
	for i := 0; i < instructionLen; i++ {
		var c CompiledInstruction

		// Program Index
		if c.ProgramIndex, err = buf.ReadByte(); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] program index", i)
		}
		if m.Version == MessageVersionLegacy && int(c.ProgramIndex) >= len(m.Accounts) {
			return errors.Errorf("program index out of range: %d:%d", i, c.ProgramIndex)
		}

		// Account Indexes
		accountLen, err = shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] account len", i)
		}
		if accountLen > buf.Len() {
			return errors.Errorf("invalid instruction[%d] account length: %d", i, accountLen)
		}
		c.Accounts = make([]byte, accountLen)
		if _, err = io.ReadFull(buf, c.Accounts); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] accounts", i)
		}

		// Indexes in a versioned message may refer to accounts loaded from an
		// address table, which aren't known until the lookups are resolved.
		if m.Version == MessageVersionLegacy {
			for _, index := range c.Accounts {
				if int(index) >= len(m.Accounts) {
					return errors.Errorf("account index out of range: %d:%d", i, index)
				}
			}
		}

		// Data
		dataLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data len", i)
		}
		if dataLen > buf.Len() {
			return errors.Errorf("invalid instruction[%d] data length: %d", i, dataLen)
		}
		c.Data = make([]byte, dataLen)
		if _, err = io.ReadFull(buf, c.Data); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data", i)
		}

		m.Instructions = append(m.Instructions, c)
	}

	if m.Version == MessageVersionLegacy {
		return nil
	}

	// Address table lookups
	lookupLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read address table lookup len")
	}
	if lookupLen > buf.Len() {
		return errors.Errorf("invalid address table lookup length: %d", lookupLen)
	}
	m.AddressTableLookups = make([]MessageAddressTableLookup, 0, lookupLen)
	for i := 0; i < lookupLen; i++ {
		var lookup MessageAddressTableLookup

		lookup.PublicKey = make([]byte, ed25519.PublicKeySize)
		if _, err = io.ReadFull(buf, lookup.PublicKey); err != nil {
			return errors.Wrapf(err, "failed to read address table lookup[%d] key", i)
		}

		writableLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read address table lookup[%d] writable len", i)
		}
		if writableLen > buf.Len() {
			return errors.Errorf("invalid address table lookup[%d] writable length: %d", i, writableLen)
		}
		lookup.WritableIndexes = make([]byte, writableLen)
		if _, err = io.ReadFull(buf, lookup.WritableIndexes); err != nil {
			return errors.Wrapf(err, "failed to read address table lookup[%d] writable indexes", i)
		}

		readonlyLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read address table lookup[%d] readonly len", i)
		}
		if readonlyLen > buf.Len() {
			return errors.Errorf("invalid address table lookup[%d] readonly length: %d", i, readonlyLen)
		}
		lookup.ReadonlyIndexes = make([]byte, readonlyLen)
		if _, err = io.ReadFull(buf, lookup.ReadonlyIndexes); err != nil {
			return errors.Wrapf(err, "failed to read address table lookup[%d] readonly indexes", i)
		}

		m.AddressTableLookups = append(m.AddressTableLookups, lookup)
	}

	return nil
}

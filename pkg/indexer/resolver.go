package indexer

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/squads-index/pkg/solana"
	"github.com/code-payments/squads-index/pkg/solana/squads"
	"github.com/code-payments/squads-index/pkg/solana/upgradeable"
)

var (
	// ErrAccountNotFound indicates there is no account for the given address.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidAccount indicates a Solana account exists at the given
	// address, but it is neither a multisig nor an upgradeable program.
	ErrInvalidAccount = errors.New("account is not a multisig or upgradeable program")
	// ErrAuthorityNotDerivable indicates the authority has a private key, so
	// it cannot be the derived authority of a multisig.
	ErrAuthorityNotDerivable = errors.New("authority is not a program derived address")
)

// ResolvedTarget is a multisig whose authority can be registered, along
// with how the input address led to it.
type ResolvedTarget struct {
	Authority ed25519.PublicKey
	Multisig  ed25519.PublicKey
	Record    *squads.Multisig

	// Program is set when the input address was a program controlled by the
	// multisig rather than the multisig itself.
	Program ed25519.PublicKey
}

// Via reports which kind of address led to the target.
func (t *ResolvedTarget) Via() string {
	if t.Program != nil {
		return "program"
	}
	return "multisig"
}

// Resolver maps a user supplied address to the multisig it denotes, either
// directly or through the program the multisig controls.
type Resolver struct {
	log       *logrus.Entry
	sc        solana.Client
	discovery *Discovery
}

func NewResolver(sc solana.Client, discovery *Discovery) *Resolver {
	return &Resolver{
		log:       logrus.StandardLogger().WithField("type", "indexer/resolver"),
		sc:        sc,
		discovery: discovery,
	}
}

func (r *Resolver) Resolve(address ed25519.PublicKey) (*ResolvedTarget, error) {
	accountInfo, err := r.sc.GetAccountInfo(address, solana.CommitmentConfirmed)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if bytes.Equal(accountInfo.Owner, squads.ProgramKey) {
		record, err := squads.ParseMultisig(accountInfo.Data)
		if err != nil {
			return nil, err
		}

		authority, _, err := squads.GetAuthorityAddress(&squads.GetAuthorityAddressArgs{
			Multisig:       address,
			AuthorityIndex: squads.DefaultAuthorityIndex,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to derive authority")
		}

		return &ResolvedTarget{
			Authority: authority,
			Multisig:  address,
			Record:    record,
		}, nil
	}

	if bytes.Equal(accountInfo.Owner, upgradeable.ProgramKey) && len(accountInfo.Data) == upgradeable.ProgramAccountSize {
		return r.resolveProgram(address)
	}

	return nil, ErrInvalidAccount
}

// resolveProgram maps a program id to the multisig holding its upgrade
// authority. The multisig itself never appears in any account the program
// links to, so it is recovered from the ProgramData account's history.
func (r *Resolver) resolveProgram(programID ed25519.PublicKey) (*ResolvedTarget, error) {
	programData, parsed, err := getProgramData(r.sc, programID)
	if err != nil {
		return nil, err
	}

	if solana.IsOnCurve(parsed.UpgradeAuthority) {
		return nil, ErrAuthorityNotDerivable
	}

	r.log.
		WithField("program", base58.Encode(programID)).
		Info("searching for multisig")

	multisig, err := r.discovery.FindMultisig(programData, parsed.UpgradeAuthority)
	if err != nil {
		return nil, err
	}

	multisigInfo, err := r.sc.GetAccountInfo(multisig, solana.CommitmentConfirmed)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get multisig account")
	}

	record, err := squads.ParseMultisig(multisigInfo.Data)
	if err != nil {
		return nil, err
	}

	return &ResolvedTarget{
		Authority: parsed.UpgradeAuthority,
		Multisig:  multisig,
		Record:    record,
		Program:   programID,
	}, nil
}

// getProgramData fetches and parses the ProgramData account behind an
// upgradeable program id.
func getProgramData(sc solana.Client, programID ed25519.PublicKey) (ed25519.PublicKey, *upgradeable.ProgramData, error) {
	programData, _, err := upgradeable.GetProgramDataAddress(&upgradeable.GetProgramDataAddressArgs{
		ProgramID: programID,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive program data address")
	}

	accountInfo, err := sc.GetAccountInfo(programData, solana.CommitmentConfirmed)
	if err == solana.ErrNoAccountInfo {
		return nil, nil, ErrAccountNotFound
	} else if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get program data account")
	}

	parsed, err := upgradeable.ParseProgramData(accountInfo.Data)
	if err != nil {
		return nil, nil, err
	}

	return programData, parsed, nil
}

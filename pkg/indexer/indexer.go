// Package indexer links Squads V3 multisigs to the on chain index program,
// and reports whether a given authority has been linked.
package indexer

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/squads-index/pkg/solana"
	"github.com/code-payments/squads-index/pkg/solana/authindex"
	"github.com/code-payments/squads-index/pkg/solana/squads"
	"github.com/code-payments/squads-index/pkg/solana/upgradeable"
)

// IndexOutcome reports how an index operation ended.
type IndexOutcome struct {
	Target *ResolvedTarget
	Index  ed25519.PublicKey

	// AlreadyIndexed is set when the index account existed before the
	// operation ran. No transaction is submitted in that case.
	AlreadyIndexed bool

	// Declined is set when the confirmation hook rejected the operation
	// before anything was submitted.
	Declined bool

	// Submission is set once a transaction has been handed to the
	// submission driver.
	Submission *SubmitResult
}

// CheckOutcome reports whether an authority is indexed, along with the
// multisig behind it when one could be recovered.
type CheckOutcome struct {
	Authority ed25519.PublicKey
	Index     ed25519.PublicKey
	Indexed   bool

	// Derivable is false when the authority is an on curve signing key,
	// which can never be indexed.
	Derivable bool

	// Program is set when the input address was an upgradeable program.
	Program ed25519.PublicKey

	// Multisig and Record are set when the multisig behind an indexed
	// authority could be recovered from the index account's history.
	Multisig ed25519.PublicKey
	Record   *squads.Multisig
}

type indexOptions struct {
	confirm func(target *ResolvedTarget, index ed25519.PublicKey) bool
}

type IndexOption func(*indexOptions)

// WithConfirmation installs a hook that runs after resolution and before
// any transaction is submitted. Returning false abandons the operation.
func WithConfirmation(confirm func(target *ResolvedTarget, index ed25519.PublicKey) bool) IndexOption {
	return func(o *indexOptions) {
		o.confirm = confirm
	}
}

// Indexer drives the two operations of the system against a Solana
// cluster.
type Indexer struct {
	log       *logrus.Entry
	sc        solana.Client
	resolver  *Resolver
	discovery *Discovery
	submitter *Submitter
}

func New(sc solana.Client, opts ...DiscoveryOption) *Indexer {
	discovery := NewDiscovery(sc, opts...)
	return &Indexer{
		log:       logrus.StandardLogger().WithField("type", "indexer/indexer"),
		sc:        sc,
		resolver:  NewResolver(sc, discovery),
		discovery: discovery,
		submitter: NewSubmitter(sc),
	}
}

// Index registers the authority of the multisig at, or behind, address
// with the index program.
//
// The operation is idempotent. An authority that is already indexed is
// reported as such without submitting anything.
func (x *Indexer) Index(address ed25519.PublicKey, payer ed25519.PrivateKey, opts ...IndexOption) (*IndexOutcome, error) {
	var options indexOptions
	for _, o := range opts {
		o(&options)
	}

	target, err := x.resolver.Resolve(address)
	if err != nil {
		return nil, err
	}

	instruction, index, err := authindex.NewIndexInstruction(target.Authority, target.Multisig, payer.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build index instruction")
	}

	outcome := &IndexOutcome{
		Target: target,
		Index:  index,
	}

	indexed, err := x.isIndexed(index)
	if err != nil {
		return nil, err
	}
	if indexed {
		outcome.AlreadyIndexed = true
		return outcome, nil
	}

	if options.confirm != nil && !options.confirm(target, index) {
		outcome.Declined = true
		return outcome, nil
	}

	submission, err := x.submitter.SubmitAndConfirm(instruction, payer)
	outcome.Submission = submission
	if err != nil {
		return outcome, err
	}

	x.log.
		WithField("authority", base58.Encode(target.Authority)).
		WithField("signature", base58.Encode(submission.Signature[:])).
		Debug("authority indexed")

	return outcome, nil
}

// Check reports whether the authority at, or behind, address is indexed.
//
// Resolution is lighter than for Index. An address with no account, or
// with an account owned by anything but the upgradeable loader, is taken
// to be the authority itself, so callers can check an authority address
// directly.
func (x *Indexer) Check(address ed25519.PublicKey) (*CheckOutcome, error) {
	authority := address
	outcome := &CheckOutcome{}

	accountInfo, err := x.sc.GetAccountInfo(address, solana.CommitmentConfirmed)
	if err != nil && err != solana.ErrNoAccountInfo {
		return nil, errors.Wrap(err, "failed to get account info")
	}
	if err == nil && bytes.Equal(accountInfo.Owner, upgradeable.ProgramKey) && len(accountInfo.Data) == upgradeable.ProgramAccountSize {
		_, parsed, err := getProgramData(x.sc, address)
		if err != nil {
			return nil, err
		}

		authority = parsed.UpgradeAuthority
		outcome.Program = address
	}

	outcome.Authority = authority

	// An on curve authority has a private key, nothing derived from a
	// multisig can ever live there. Don't bother looking up an index.
	if solana.IsOnCurve(authority) {
		return outcome, nil
	}
	outcome.Derivable = true

	index, _, err := authindex.GetIndexAddress(&authindex.GetIndexAddressArgs{
		Authority: authority,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive index address")
	}
	outcome.Index = index

	indexed, err := x.isIndexed(index)
	if err != nil {
		return nil, err
	}
	if !indexed {
		return outcome, nil
	}
	outcome.Indexed = true

	x.recoverMultisig(outcome)

	return outcome, nil
}

// isIndexed reports whether the index account exists and is owned by the
// index program. Balance alone doesn't count, anyone can transfer
// lamports to the address before it is assigned.
func (x *Indexer) isIndexed(index ed25519.PublicKey) (bool, error) {
	accountInfo, err := x.sc.GetAccountInfo(index, solana.CommitmentConfirmed)
	if err == solana.ErrNoAccountInfo {
		return false, nil
	} else if err != nil {
		return false, errors.Wrap(err, "failed to get index account")
	}

	return bytes.Equal(accountInfo.Owner, authindex.ProgramKey), nil
}

// recoverMultisig fills in the multisig behind an indexed authority from
// the index account's transaction history. Recovery is best effort, the
// index account itself records nothing.
func (x *Indexer) recoverMultisig(outcome *CheckOutcome) {
	log := x.log.WithField("method", "recoverMultisig")

	multisig, err := x.discovery.FindMultisig(outcome.Index, outcome.Authority)
	if err != nil {
		log.WithError(err).Debug("failed to recover multisig")
		return
	}
	outcome.Multisig = multisig

	accountInfo, err := x.sc.GetAccountInfo(multisig, solana.CommitmentConfirmed)
	if err != nil {
		log.WithError(err).Debug("failed to get multisig account")
		return
	}

	record, err := squads.ParseMultisig(accountInfo.Data)
	if err != nil {
		log.WithError(err).Debug("failed to parse multisig account")
		return
	}
	outcome.Record = record
}

package indexer

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/squads-index/pkg/solana"
	"github.com/code-payments/squads-index/pkg/solana/squads"
)

// ErrMultisigNotFound indicates no transaction in the searched history
// references an account whose vault authority matches the target.
var ErrMultisigNotFound = errors.New("multisig not found in transaction history")

// The service caps a single signature listing at 1000 entries, which is
// plenty for the accounts being searched here.
const signatureHistoryLimit = 1000

// Discovery recovers a multisig address from the transaction history of an
// account the multisig has touched, eg. a ProgramData account it upgraded
// or the index account that registered it.
type Discovery struct {
	log      *logrus.Entry
	sc       solana.Client
	progress func(scanned, total int)
}

type DiscoveryOption func(*Discovery)

// WithProgress installs a callback invoked once per scanned transaction.
// Advisory only.
func WithProgress(progress func(scanned, total int)) DiscoveryOption {
	return func(d *Discovery) {
		d.progress = progress
	}
}

func NewDiscovery(sc solana.Client, opts ...DiscoveryOption) *Discovery {
	d := &Discovery{
		log: logrus.StandardLogger().WithField("type", "indexer/discovery"),
		sc:  sc,
	}

	for _, o := range opts {
		o(d)
	}

	if d.progress == nil {
		d.progress = func(scanned, total int) {
			d.log.Infof("[%d/%d] searching transaction history", scanned, total)
		}
	}

	return d
}

// FindMultisig scans the transaction history of search for an account whose
// derived vault authority equals targetAuthority, returning that account.
func (d *Discovery) FindMultisig(search, targetAuthority ed25519.PublicKey) (ed25519.PublicKey, error) {
	history, err := d.sc.GetSignaturesForAddress(search, solana.CommitmentConfirmed, signatureHistoryLimit, "", "")
	if err != nil {
		return nil, errors.Wrap(err, "failed to get signatures for address")
	}

	// Failed transactions cannot have registered anything.
	candidates := make([]*solana.TransactionSignature, 0, len(history))
	for _, entry := range history {
		if entry.Err != nil {
			continue
		}
		candidates = append(candidates, entry)
	}

	// The service returns newest first. The transaction that introduced the
	// multisig is presumed the earliest reference, so scan oldest first.
	total := len(candidates)
	for scanned := 1; scanned <= total; scanned++ {
		entry := candidates[total-scanned]

		d.progress(scanned, total)

		txn, err := d.sc.GetTransaction(entry.Signature, solana.CommitmentConfirmed)
		if err != nil {
			d.log.
				WithError(err).
				WithField("signature", entry.ToBase58()).
				Debug("skipping transaction")
			continue
		}

		if multisig := matchAuthority(txn, targetAuthority); multisig != nil {
			return multisig, nil
		}
	}

	return nil, ErrMultisigNotFound
}

// matchAuthority returns the first account referenced by the transaction
// whose vault authority derivation equals the target.
func matchAuthority(txn solana.ConfirmedTransaction, target ed25519.PublicKey) ed25519.PublicKey {
	accounts := make([]ed25519.PublicKey, 0, len(txn.Transaction.Message.Accounts))
	accounts = append(accounts, txn.Transaction.Message.Accounts...)

	// Versioned transactions load part of their account list from address
	// tables, surfaced through the transaction meta.
	if txn.Meta != nil {
		for _, encoded := range [][]string{txn.Meta.LoadedAddresses.Writable, txn.Meta.LoadedAddresses.Readonly} {
			for _, address := range encoded {
				decoded, err := base58.Decode(address)
				if err != nil {
					continue
				}
				accounts = append(accounts, decoded)
			}
		}
	}

	for _, account := range accounts {
		derived, _, err := squads.GetAuthorityAddress(&squads.GetAuthorityAddressArgs{
			Multisig:       account,
			AuthorityIndex: squads.DefaultAuthorityIndex,
		})
		if err != nil {
			continue
		}

		if bytes.Equal(derived, target) {
			return account
		}
	}

	return nil
}

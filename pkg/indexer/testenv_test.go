package indexer

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/squads-index/pkg/solana"
	"github.com/code-payments/squads-index/pkg/solana/authindex"
	"github.com/code-payments/squads-index/pkg/solana/squads"
	"github.com/code-payments/squads-index/pkg/solana/upgradeable"
	"github.com/code-payments/squads-index/pkg/testutil"
)

// fakeClient is an in memory stand in for the RPC client. Accounts,
// histories and transactions are looked up from maps, and every lookup is
// recorded so tests can assert which calls were made.
type fakeClient struct {
	accounts map[string]solana.AccountInfo
	history  map[string][]*solana.TransactionSignature
	txns     map[solana.Signature]solana.ConfirmedTransaction
	txnErrs  map[solana.Signature]error

	accountLookups []ed25519.PublicKey
	historyLookups []ed25519.PublicKey
	txnLookups     []solana.Signature

	blockhashCalls int
	submitted      []solana.Transaction
	submit         func(solana.Transaction) (solana.Signature, error)
	statuses       map[solana.Signature]*solana.SignatureStatus
}

var _ solana.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{
		accounts: make(map[string]solana.AccountInfo),
		history:  make(map[string][]*solana.TransactionSignature),
		txns:     make(map[solana.Signature]solana.ConfirmedTransaction),
		txnErrs:  make(map[solana.Signature]error),
		statuses: make(map[solana.Signature]*solana.SignatureStatus),
	}
}

func (f *fakeClient) setAccount(key ed25519.PublicKey, info solana.AccountInfo) {
	f.accounts[string(key)] = info
}

func (f *fakeClient) GetAccountInfo(key ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	f.accountLookups = append(f.accountLookups, key)

	info, ok := f.accounts[string(key)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func (f *fakeClient) GetBalance(ed25519.PublicKey) (uint64, error) {
	return 0, nil
}

func (f *fakeClient) GetMinimumBalanceForRentExemption(uint64) (uint64, error) {
	return authindex.IndexLamports, nil
}

func (f *fakeClient) GetLatestBlockhash() (solana.Blockhash, error) {
	f.blockhashCalls++

	var bh solana.Blockhash
	bh[0] = byte(f.blockhashCalls)
	return bh, nil
}

func (f *fakeClient) GetSignatureStatus(sig solana.Signature, _ solana.Commitment) (*solana.SignatureStatus, error) {
	if status, ok := f.statuses[sig]; ok {
		return status, nil
	}
	return &solana.SignatureStatus{ConfirmationStatus: "confirmed"}, nil
}

func (f *fakeClient) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	statuses := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		statuses[i], _ = f.GetSignatureStatus(sig, solana.CommitmentConfirmed)
	}
	return statuses, nil
}

func (f *fakeClient) GetSignaturesForAddress(owner ed25519.PublicKey, _ solana.Commitment, _ uint64, _, _ string) ([]*solana.TransactionSignature, error) {
	f.historyLookups = append(f.historyLookups, owner)
	return f.history[string(owner)], nil
}

func (f *fakeClient) GetTransaction(sig solana.Signature, _ solana.Commitment) (solana.ConfirmedTransaction, error) {
	f.txnLookups = append(f.txnLookups, sig)

	if err, ok := f.txnErrs[sig]; ok {
		return solana.ConfirmedTransaction{}, err
	}

	txn, ok := f.txns[sig]
	if !ok {
		return solana.ConfirmedTransaction{}, errors.New("transaction not found")
	}
	return txn, nil
}

func (f *fakeClient) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	f.submitted = append(f.submitted, txn)

	if f.submit != nil {
		return f.submit(txn)
	}

	var sig solana.Signature
	copy(sig[:], txn.Signature())
	return sig, nil
}

// newTestMultisig returns a generated multisig address along with its
// parsed record and the account info holding the marshaled record.
func newTestMultisig(t *testing.T, members int) (ed25519.PublicKey, *squads.Multisig, solana.AccountInfo) {
	keys := testutil.GenerateSolanaKeys(t, members+2)

	record := &squads.Multisig{
		Threshold:      2,
		AuthorityIndex: 1,
		Bump:           254,
		CreateKey:      keys[1],
		Members:        keys[2:],
	}

	info := solana.AccountInfo{
		Data:     record.Marshal(),
		Owner:    squads.ProgramKey,
		Lamports: 3_000_000,
	}
	return keys[0], record, info
}

func deriveAuthority(t *testing.T, multisig ed25519.PublicKey) ed25519.PublicKey {
	authority, _, err := squads.GetAuthorityAddress(&squads.GetAuthorityAddressArgs{
		Multisig:       multisig,
		AuthorityIndex: squads.DefaultAuthorityIndex,
	})
	require.NoError(t, err)
	return authority
}

func deriveIndex(t *testing.T, authority ed25519.PublicKey) ed25519.PublicKey {
	index, _, err := authindex.GetIndexAddress(&authindex.GetIndexAddressArgs{
		Authority: authority,
	})
	require.NoError(t, err)
	return index
}

// setupProgram installs an upgradeable program account and its ProgramData
// account, and returns the ProgramData address.
func setupProgram(t *testing.T, sc *fakeClient, programID, authority ed25519.PublicKey) ed25519.PublicKey {
	programData, _, err := upgradeable.GetProgramDataAddress(&upgradeable.GetProgramDataAddressArgs{
		ProgramID: programID,
	})
	require.NoError(t, err)

	sc.setAccount(programID, solana.AccountInfo{
		Data:       make([]byte, upgradeable.ProgramAccountSize),
		Owner:      upgradeable.ProgramKey,
		Executable: true,
	})

	record := &upgradeable.ProgramData{
		Slot:             42,
		UpgradeAuthority: authority,
	}
	sc.setAccount(programData, solana.AccountInfo{
		Data:  record.Marshal(),
		Owner: upgradeable.ProgramKey,
	})

	return programData
}

func newHistoryEntry(n byte, failed bool) *solana.TransactionSignature {
	var sig solana.Signature
	sig[0] = n

	entry := &solana.TransactionSignature{Signature: sig}
	if failed {
		entry.Err = solana.NewTransactionError(solana.TransactionErrorInstructionError)
	}
	return entry
}

func newHistoryTransaction(accounts ...ed25519.PublicKey) solana.ConfirmedTransaction {
	return solana.ConfirmedTransaction{
		Transaction: solana.Transaction{
			Message: solana.Message{
				Accounts: accounts,
			},
		},
	}
}

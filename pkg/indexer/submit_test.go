package indexer

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/squads-index/pkg/retry"
	"github.com/code-payments/squads-index/pkg/solana"
	"github.com/code-payments/squads-index/pkg/solana/authindex"
	"github.com/code-payments/squads-index/pkg/testutil"
)

// newTestSubmitter drops the backoff strategy so retry heavy tests don't
// sleep between attempts.
func newTestSubmitter(sc *fakeClient) *Submitter {
	s := NewSubmitter(sc)
	s.strategies = []retry.Strategy{
		retriableSubmissionErrors,
		retry.Limit(submitMaxAttempts),
	}
	return s
}

func testInstruction(t *testing.T) (solana.Instruction, ed25519.PrivateKey) {
	priv := testutil.GenerateSolanaKeypair(t)
	payer := priv.Public().(ed25519.PublicKey)

	multisig, _, _ := newTestMultisig(t, 2)
	instruction, _, err := authindex.NewIndexInstruction(deriveAuthority(t, multisig), multisig, payer)
	require.NoError(t, err)

	return instruction, priv
}

func TestSubmitAndConfirm_Succeeds(t *testing.T) {
	sc := newFakeClient()
	instruction, payer := testInstruction(t)

	result, err := newTestSubmitter(sc).SubmitAndConfirm(instruction, payer)
	require.NoError(t, err)

	assert.Equal(t, SubmitStateSucceeded, result.State)
	assert.Equal(t, 1, result.Attempts)

	require.Len(t, sc.submitted, 1)
	assert.Equal(t, sc.submitted[0].Signature(), result.Signature[:])

	// Signed over the freshly fetched blockhash.
	assert.EqualValues(t, 1, sc.submitted[0].Message.RecentBlockhash[0])
	assert.NotEqual(t, solana.Signature{}, sc.submitted[0].Signatures[0])
}

func TestSubmitAndConfirm_PreflightRejected(t *testing.T) {
	sc := newFakeClient()
	instruction, payer := testInstruction(t)

	rejection := solana.NewTransactionError(solana.TransactionErrorAccountNotFound)
	sc.submit = func(solana.Transaction) (solana.Signature, error) {
		return solana.Signature{}, rejection
	}

	result, err := newTestSubmitter(sc).SubmitAndConfirm(instruction, payer)
	assert.Equal(t, rejection, err)

	assert.Equal(t, SubmitStatePreflightRejected, result.State)
	assert.Equal(t, 1, result.Attempts)
	assert.Len(t, sc.submitted, 1)
}

func TestSubmitAndConfirm_InstructionErrorRejected(t *testing.T) {
	sc := newFakeClient()
	instruction, payer := testInstruction(t)

	sc.submit = func(solana.Transaction) (solana.Signature, error) {
		return solana.Signature{}, &solana.InstructionError{
			Index: 0,
			Err:   errors.New(string(solana.InstructionErrorMissingRequiredSignature)),
		}
	}

	result, err := newTestSubmitter(sc).SubmitAndConfirm(instruction, payer)
	require.Error(t, err)
	assert.IsType(t, &solana.InstructionError{}, err)

	assert.Equal(t, SubmitStatePreflightRejected, result.State)
	assert.Equal(t, 1, result.Attempts)
}

func TestSubmitAndConfirm_FailedConfirmation(t *testing.T) {
	sc := newFakeClient()
	instruction, payer := testInstruction(t)

	var sig solana.Signature
	sig[0] = 7
	sc.submit = func(solana.Transaction) (solana.Signature, error) {
		return sig, nil
	}
	sc.statuses[sig] = &solana.SignatureStatus{
		ErrorResult: solana.NewTransactionError(solana.TransactionErrorInstructionError),
	}

	result, err := newTestSubmitter(sc).SubmitAndConfirm(instruction, payer)
	require.Error(t, err)
	assert.IsType(t, &solana.TransactionError{}, err)

	assert.Equal(t, SubmitStatePreflightRejected, result.State)
	assert.Equal(t, 1, result.Attempts)
}

func TestSubmitAndConfirm_RetriesUntilSuccess(t *testing.T) {
	sc := newFakeClient()
	instruction, payer := testInstruction(t)

	sc.submit = func(txn solana.Transaction) (solana.Signature, error) {
		if len(sc.submitted) < submitMaxAttempts {
			return solana.Signature{}, errors.New("rate limited")
		}

		var sig solana.Signature
		copy(sig[:], txn.Signature())
		return sig, nil
	}

	result, err := newTestSubmitter(sc).SubmitAndConfirm(instruction, payer)
	require.NoError(t, err)

	assert.Equal(t, SubmitStateSucceeded, result.State)
	assert.Equal(t, submitMaxAttempts, result.Attempts)
	assert.Equal(t, submitMaxAttempts, sc.blockhashCalls)

	// Every attempt was built over its own blockhash.
	require.Len(t, sc.submitted, submitMaxAttempts)
	for i, txn := range sc.submitted {
		assert.EqualValues(t, i+1, txn.Message.RecentBlockhash[0])
	}
}

func TestSubmitAndConfirm_RetriesExhausted(t *testing.T) {
	sc := newFakeClient()
	instruction, payer := testInstruction(t)

	sc.submit = func(solana.Transaction) (solana.Signature, error) {
		return solana.Signature{}, errors.New("rate limited")
	}

	result, err := newTestSubmitter(sc).SubmitAndConfirm(instruction, payer)
	require.Error(t, err)

	assert.Equal(t, SubmitStateRetriesExhausted, result.State)
	assert.Equal(t, submitMaxAttempts, result.Attempts)
	assert.Len(t, sc.submitted, submitMaxAttempts)
}

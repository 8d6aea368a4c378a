package indexer

import (
	"crypto/ed25519"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/squads-index/pkg/retry"
	"github.com/code-payments/squads-index/pkg/retry/backoff"
	"github.com/code-payments/squads-index/pkg/solana"
)

type SubmitState uint8

const (
	SubmitStatePending SubmitState = iota
	SubmitStateRetrying
	SubmitStateSucceeded
	SubmitStatePreflightRejected
	SubmitStateRetriesExhausted
)

func (s SubmitState) String() string {
	switch s {
	case SubmitStatePending:
		return "pending"
	case SubmitStateRetrying:
		return "retrying"
	case SubmitStateSucceeded:
		return "succeeded"
	case SubmitStatePreflightRejected:
		return "preflight_rejected"
	case SubmitStateRetriesExhausted:
		return "retries_exhausted"
	}

	return "unknown"
}

// SubmitResult reports how a submission ended. Signature is only set once
// a transaction was accepted by the service.
type SubmitResult struct {
	State     SubmitState
	Signature solana.Signature
	Attempts  int
}

const (
	submitMaxAttempts = 10
	submitBaseDelay   = 500 * time.Millisecond
	submitMaxDelay    = 4 * time.Second
	submitJitter      = 0.1
)

// Submitter drives a transaction to confirmation, retrying transient
// failures with a fresh blockhash each attempt.
type Submitter struct {
	log        *logrus.Entry
	sc         solana.Client
	strategies []retry.Strategy
}

func NewSubmitter(sc solana.Client) *Submitter {
	return &Submitter{
		log: logrus.StandardLogger().WithField("type", "indexer/submitter"),
		sc:  sc,

		// The rejection check runs first so terminal failures never wait
		// out a backoff.
		strategies: []retry.Strategy{
			retriableSubmissionErrors,
			retry.Limit(submitMaxAttempts),
			retry.BackoffWithJitter(backoff.BinaryExponential(submitBaseDelay), submitMaxDelay, submitJitter),
		},
	}
}

// SubmitAndConfirm signs and submits the instruction, then waits for the
// transaction to reach confirmed commitment.
//
// The returned result always reports the terminal state. A non-nil error
// accompanies every state other than SubmitStateSucceeded.
func (s *Submitter) SubmitAndConfirm(instruction solana.Instruction, payer ed25519.PrivateKey) (*SubmitResult, error) {
	result := &SubmitResult{State: SubmitStatePending}

	attempts, err := retry.Retry(
		func() error {
			sig, err := s.submitOnce(instruction, payer)
			if err != nil {
				s.log.WithError(err).Warn("transaction submission failed")
				result.State = SubmitStateRetrying
				return err
			}

			result.State = SubmitStateSucceeded
			result.Signature = sig
			return nil
		},
		s.strategies...,
	)

	result.Attempts = int(attempts)

	if err == nil {
		return result, nil
	}

	if isTransactionRejection(err) {
		result.State = SubmitStatePreflightRejected
		return result, err
	}

	result.State = SubmitStateRetriesExhausted
	return result, errors.Wrap(err, "transaction could not be confirmed")
}

func (s *Submitter) submitOnce(instruction solana.Instruction, payer ed25519.PrivateKey) (solana.Signature, error) {
	blockhash, err := s.sc.GetLatestBlockhash()
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to get latest blockhash")
	}

	txn := solana.NewLegacyTransaction(payer.Public().(ed25519.PublicKey), instruction)
	txn.SetBlockhash(blockhash)
	if err := txn.Sign(payer); err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to sign transaction")
	}

	sig, err := s.sc.SubmitTransaction(txn, solana.CommitmentConfirmed)
	if err != nil {
		return sig, err
	}

	status, err := s.sc.GetSignatureStatus(sig, solana.CommitmentConfirmed)
	if err != nil {
		return sig, errors.Wrap(err, "failed to confirm transaction")
	}
	if status.ErrorResult != nil {
		return sig, status.ErrorResult
	}

	return sig, nil
}

// Rejections are deterministic, resubmitting the same instruction cannot
// succeed.
func isTransactionRejection(err error) bool {
	switch err.(type) {
	case *solana.TransactionError, *solana.InstructionError:
		return true
	}

	return false
}

// retriableSubmissionErrors retries everything that is not a rejection,
// covering rate limits, transient service failures and expired blockhashes.
func retriableSubmissionErrors(_ uint, err error) bool {
	return !isTransactionRejection(err)
}

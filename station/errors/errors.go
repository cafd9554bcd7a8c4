// Package errors defines the sentinel error kinds the gas station surfaces
// to callers.
package errors

import "errors"

var (
	// ErrInsufficientCapacity is returned when the coin pool has no
	// subset of available coins summing to the requested budget.
	ErrInsufficientCapacity = errors.New("insufficient capacity: no coin subset meets the requested budget")

	// ErrDailyCapExceeded is returned when the sponsor has spent up to
	// its rolling daily usage ceiling.
	ErrDailyCapExceeded = errors.New("daily gas usage cap exceeded")

	// ErrUnknownReservation is returned when a reservation id is not
	// present in the store, either because it expired or never existed.
	ErrUnknownReservation = errors.New("unknown reservation")

	// ErrAlreadyReady is returned by a second MarkReadyForExecution call
	// on the same reservation.
	ErrAlreadyReady = errors.New("reservation is already marked ready for execution")

	// ErrInvalidSponsor is returned when a transaction's declared
	// sponsor is not recognized by the signer.
	ErrInvalidSponsor = errors.New("sponsor address is not registered with this station")

	// ErrGasCoinMisuse is returned when a transaction command uses the
	// reserved gas-coin handle as an ordinary argument.
	ErrGasCoinMisuse = errors.New("gas coin can only be used to pay gas")

	// ErrAccessDenied is returned when the predicate engine's access
	// controller denies the transaction.
	ErrAccessDenied = errors.New("transaction denied by access controller")

	// ErrSigningFailed is returned when the signer is unavailable after
	// exhausting its retry budget.
	ErrSigningFailed = errors.New("signing failed after retries")

	// ErrSubmissionFailed is returned when the chain is unreachable
	// after exhausting the submission retry budget.
	ErrSubmissionFailed = errors.New("transaction submission failed after retries")

	// ErrStorageTransient marks a storage-layer error as transient and
	// therefore safe to retry.
	ErrStorageTransient = errors.New("storage backend returned a transient error")
)

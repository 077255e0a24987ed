package model

import "github.com/iliyamo/game-store/internal/apperr"

// PurchaseState tracks one purchase attempt.  Fulfilled and Rejected are
// terminal.
type PurchaseState string

const (
	PurchaseRequested  PurchaseState = "REQUESTED"
	PurchaseValidating PurchaseState = "VALIDATING"
	PurchaseFulfilled  PurchaseState = "FULFILLED"
	PurchaseRejected   PurchaseState = "REJECTED"
)

// PurchaseAttempt records the progress of one attempt and, when rejected,
// the reason code.
type PurchaseAttempt struct {
	PlayerID       uint64
	CatalogEntryID uint64
	State          PurchaseState
	Reason         apperr.Code
}

// NewPurchaseAttempt starts an attempt in the Requested state.
func NewPurchaseAttempt(playerID, entryID uint64) *PurchaseAttempt {
	return &PurchaseAttempt{PlayerID: playerID, CatalogEntryID: entryID, State: PurchaseRequested}
}

// Validate moves Requested to Validating.  Other states are left alone.
func (a *PurchaseAttempt) Validate() {
	if a.State == PurchaseRequested {
		a.State = PurchaseValidating
	}
}

// Fulfill moves Validating to Fulfilled.
func (a *PurchaseAttempt) Fulfill() {
	if a.State == PurchaseValidating {
		a.State = PurchaseFulfilled
	}
}

// Reject ends a non-terminal attempt with the code of err.
func (a *PurchaseAttempt) Reject(err error) {
	if a.Done() {
		return
	}
	a.State = PurchaseRejected
	a.Reason = apperr.CodeOf(err)
}

// Done reports whether the attempt reached a terminal state.
func (a *PurchaseAttempt) Done() bool {
	return a.State == PurchaseFulfilled || a.State == PurchaseRejected
}

package domain

import (
	"fmt"
	"time"
)

// Transition is a moderation lifecycle action. Content edits are not
// transitions and never change moderation status.
type Transition string

const (
	TransitionApprove         Transition = "approve"
	TransitionReject          Transition = "reject"
	TransitionSoftDelete      Transition = "soft_delete"
	TransitionRestore         Transition = "restore"
	TransitionPermanentDelete Transition = "permanent_delete"
)

func ParseTransition(s string) (Transition, error) {
	switch Transition(s) {
	case TransitionApprove, TransitionReject, TransitionSoftDelete,
		TransitionRestore, TransitionPermanentDelete:
		return Transition(s), nil
	}
	return "", fmt.Errorf("unknown transition %q: %w", s, ErrConflict)
}

// ApplyTransition computes the listing as it should be persisted after
// the given action. The input is taken by value; the caller's copy is
// never mutated. ErrConflict is returned when the action is illegal
// from the current state.
//
// Approving an already approved listing (and rejecting an already
// rejected one) is a no-op success. Review decisions require the
// listing to be active; a soft-deleted listing only admits restore and
// permanent deletion. Permanent deletion itself removes the row and is
// executed by the repository; here it only has its precondition
// checked.
//
// UpdatedAt is deliberately left untouched: it tracks content edits,
// and a restore must hand back the listing exactly as it was before the
// soft delete apart from the cleared delete marker.
func ApplyTransition(l Listing, action Transition, now time.Time) (Listing, error) {
	switch action {
	case TransitionApprove:
		if l.IsDeleted() {
			return l, ErrConflict
		}
		l.Status = StatusApproved
	case TransitionReject:
		if l.IsDeleted() {
			return l, ErrConflict
		}
		l.Status = StatusRejected
	case TransitionSoftDelete:
		if l.IsDeleted() {
			return l, ErrConflict
		}
		t := now
		l.DeletedAt = &t
	case TransitionRestore:
		if !l.IsDeleted() {
			return l, ErrConflict
		}
		l.DeletedAt = nil
	case TransitionPermanentDelete:
		if !l.IsDeleted() {
			return l, ErrConflict
		}
	default:
		return l, fmt.Errorf("unknown transition %q: %w", action, ErrConflict)
	}
	return l, nil
}

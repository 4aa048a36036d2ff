package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeListing(status ModerationStatus) Listing {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return Listing{
		ID:           "l1",
		Name:         "Baby Gear Gemach",
		Category:     "baby",
		Neighborhood: "Rechavia",
		Description:  "Strollers and cribs lent out free of charge",
		Address:      "12 Example St",
		Phone:        "02-555-0000",
		Hours:        "Sun-Thu 9-13",
		OwnerID:      "owner-1",
		Status:       status,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func deletedListing(status ModerationStatus) Listing {
	l := activeListing(status)
	t := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	l.DeletedAt = &t
	return l
}

func TestApplyTransitionApprove(t *testing.T) {
	now := time.Now().UTC()

	for _, from := range []ModerationStatus{StatusPending, StatusRejected} {
		got, err := ApplyTransition(activeListing(from), TransitionApprove, now)
		require.NoError(t, err, "approve from %s", from)
		assert.Equal(t, StatusApproved, got.Status)
		assert.Nil(t, got.DeletedAt)
	}

	// Approving an approved listing is a no-op success.
	in := activeListing(StatusApproved)
	got, err := ApplyTransition(in, TransitionApprove, now)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	_, err = ApplyTransition(deletedListing(StatusPending), TransitionApprove, now)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestApplyTransitionReject(t *testing.T) {
	now := time.Now().UTC()

	for _, from := range []ModerationStatus{StatusPending, StatusApproved} {
		got, err := ApplyTransition(activeListing(from), TransitionReject, now)
		require.NoError(t, err, "reject from %s", from)
		assert.Equal(t, StatusRejected, got.Status)
	}

	_, err := ApplyTransition(deletedListing(StatusApproved), TransitionReject, now)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestApplyTransitionSoftDelete(t *testing.T) {
	now := time.Now().UTC()

	for _, from := range []ModerationStatus{StatusPending, StatusApproved, StatusRejected} {
		got, err := ApplyTransition(activeListing(from), TransitionSoftDelete, now)
		require.NoError(t, err)
		require.NotNil(t, got.DeletedAt)
		assert.Equal(t, now, *got.DeletedAt)
		// Review status survives the delete so restore brings the
		// listing back exactly as it was.
		assert.Equal(t, from, got.Status)
	}

	_, err := ApplyTransition(deletedListing(StatusApproved), TransitionSoftDelete, now)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestApplyTransitionRestore(t *testing.T) {
	now := time.Now().UTC()

	for _, from := range []ModerationStatus{StatusPending, StatusApproved, StatusRejected} {
		got, err := ApplyTransition(deletedListing(from), TransitionRestore, now)
		require.NoError(t, err)
		assert.Nil(t, got.DeletedAt)
		assert.Equal(t, from, got.Status)
	}

	_, err := ApplyTransition(activeListing(StatusApproved), TransitionRestore, now)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSoftDeleteThenRestoreRoundTrips(t *testing.T) {
	now := time.Now().UTC()
	original := activeListing(StatusApproved)

	deleted, err := ApplyTransition(original, TransitionSoftDelete, now)
	require.NoError(t, err)

	restored, err := ApplyTransition(deleted, TransitionRestore, now.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, original, restored)
}

func TestApplyTransitionPermanentDelete(t *testing.T) {
	now := time.Now().UTC()

	// Permanent deletion must pass through soft delete first.
	_, err := ApplyTransition(activeListing(StatusApproved), TransitionPermanentDelete, now)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = ApplyTransition(deletedListing(StatusRejected), TransitionPermanentDelete, now)
	assert.NoError(t, err)
}

func TestParseTransition(t *testing.T) {
	for _, valid := range []string{"approve", "reject", "soft_delete", "restore", "permanent_delete"} {
		got, err := ParseTransition(valid)
		require.NoError(t, err)
		assert.Equal(t, Transition(valid), got)
	}

	_, err := ParseTransition("publish")
	assert.ErrorIs(t, err, ErrConflict)
}

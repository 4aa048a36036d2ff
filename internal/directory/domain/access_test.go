package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	anonymous = AnonymousViewer()
	owner     = Viewer{ID: "owner-1", Role: RoleUser}
	stranger  = Viewer{ID: "someone-else", Role: RoleUser}
	moderator = Viewer{ID: "mod-1", Role: RoleModerator}
)

func TestCanView(t *testing.T) {
	tests := []struct {
		name    string
		listing Listing
		viewer  Viewer
		want    bool
	}{
		{"anonymous sees approved", activeListing(StatusApproved), anonymous, true},
		{"anonymous blocked from pending", activeListing(StatusPending), anonymous, false},
		{"anonymous blocked from rejected", activeListing(StatusRejected), anonymous, false},
		{"anonymous blocked from deleted even when approved", deletedListing(StatusApproved), anonymous, false},
		{"stranger blocked from pending", activeListing(StatusPending), stranger, false},
		{"stranger sees approved", activeListing(StatusApproved), stranger, true},
		{"owner sees own pending", activeListing(StatusPending), owner, true},
		{"owner sees own rejected", activeListing(StatusRejected), owner, true},
		{"owner sees own deleted", deletedListing(StatusApproved), owner, true},
		{"moderator sees everything", deletedListing(StatusRejected), moderator, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanView(&tt.listing, tt.viewer))
		})
	}
}

func TestCanViewAnonymousEquivalence(t *testing.T) {
	// For the anonymous viewer, visibility must be exactly
	// "approved and active".
	for _, status := range []ModerationStatus{StatusPending, StatusApproved, StatusRejected} {
		for _, deleted := range []bool{false, true} {
			l := activeListing(status)
			if deleted {
				l = deletedListing(status)
			}
			want := status == StatusApproved && !deleted
			assert.Equal(t, want, CanView(&l, anonymous), "status=%s deleted=%v", status, deleted)
		}
	}
}

func TestCanEdit(t *testing.T) {
	rejected := activeListing(StatusRejected)

	// An owner may rework a rejected listing to resubmit it.
	assert.True(t, CanEdit(&rejected, owner))
	assert.True(t, CanEdit(&rejected, moderator))
	assert.False(t, CanEdit(&rejected, stranger))
	assert.False(t, CanEdit(&rejected, anonymous))

	orphaned := activeListing(StatusApproved)
	orphaned.OwnerID = ""
	assert.False(t, CanEdit(&orphaned, owner))
	assert.True(t, CanEdit(&orphaned, moderator))
}

func TestCanModerate(t *testing.T) {
	l := activeListing(StatusApproved)

	for _, action := range []Transition{TransitionApprove, TransitionReject, TransitionRestore, TransitionPermanentDelete} {
		assert.True(t, CanModerate(&l, moderator, action))
		assert.False(t, CanModerate(&l, owner, action), "owner must not %s", action)
		assert.False(t, CanModerate(&l, stranger, action))
		assert.False(t, CanModerate(&l, anonymous, action))
	}

	// Soft delete is the one transition owners get.
	assert.True(t, CanModerate(&l, owner, TransitionSoftDelete))
	assert.True(t, CanModerate(&l, moderator, TransitionSoftDelete))
	assert.False(t, CanModerate(&l, stranger, TransitionSoftDelete))
}

func TestCanListMatchesCanView(t *testing.T) {
	viewers := []Viewer{anonymous, owner, stranger, moderator}
	listings := []Listing{
		activeListing(StatusPending),
		activeListing(StatusApproved),
		deletedListing(StatusApproved),
	}

	for _, v := range viewers {
		for i := range listings {
			assert.Equal(t, CanView(&listings[i], v), CanList(&listings[i], v))
		}
	}
}

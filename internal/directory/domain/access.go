package domain

// The predicates below are the single source of truth for
// authorization. Every read and mutation path in the directory service
// routes through exactly one of them; no caller checks roles ad hoc.

// CanView reports whether the viewer may read the listing. Approved,
// active listings are public. Hidden listings (pending, rejected, or
// soft-deleted) are visible only to moderators and the owner.
func CanView(l *Listing, v Viewer) bool {
	if l.Status == StatusApproved && !l.IsDeleted() {
		return true
	}
	if v.IsModerator() {
		return true
	}
	return v.Owns(l)
}

// CanEdit reports whether the viewer may change the listing's content.
// Editing is permitted regardless of moderation status so an owner can
// rework a rejected listing.
func CanEdit(l *Listing, v Viewer) bool {
	return v.IsModerator() || v.Owns(l)
}

// CanModerate reports whether the viewer may perform the given
// lifecycle transition. Soft deletion is additionally granted to the
// owner; everything else is moderator-only. The listing argument is
// retained for future per-category delegation.
func CanModerate(l *Listing, v Viewer, action Transition) bool {
	if v.IsModerator() {
		return true
	}
	if action == TransitionSoftDelete {
		return v.Owns(l)
	}
	return false
}

// CanList reports whether the listing may appear in a collection result
// for the viewer. A listing never shows up in an enumeration the viewer
// could not fetch directly.
func CanList(l *Listing, v Viewer) bool {
	return CanView(l, v)
}

package domain

// ListingEvent is the lifecycle notification payload emitted after a
// mutation has been confirmed by storage. The event kind is carried by
// the messaging subject, not the payload.
type ListingEvent struct {
	ListingID string           `json:"listing_id"`
	OwnerID   string           `json:"owner_id,omitempty"`
	Status    ModerationStatus `json:"status"`
	Deleted   bool             `json:"deleted"`
}

func NewListingEvent(l *Listing) ListingEvent {
	return ListingEvent{
		ListingID: l.ID,
		OwnerID:   l.OwnerID,
		Status:    l.Status,
		Deleted:   l.IsDeleted(),
	}
}

package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	MinDescriptionLen = 10
	MinAddressLen     = 5
)

// Submission carries the owner-supplied fields of a new or edited
// listing.
type Submission struct {
	Name         string
	Category     string
	Neighborhood string
	Description  string
	Address      string
	Phone        string
	ManagerPhone string
	Email        string
	Hours        string
	HasFee       bool
	FeeDetails   string
	Website      string
}

// Validate checks the submission constraints and returns a
// ValidationError naming every offending field, or nil when the
// submission is acceptable.
func (s Submission) Validate() error {
	verr := NewValidationError()

	if strings.TrimSpace(s.Name) == "" {
		verr.Add("name", "name is required")
	}
	if strings.TrimSpace(s.Category) == "" {
		verr.Add("category", "category is required")
	}
	if strings.TrimSpace(s.Neighborhood) == "" {
		verr.Add("neighborhood", "neighborhood is required")
	}
	// Length minimums count characters, not bytes; Hebrew text is two
	// bytes per letter.
	if utf8.RuneCountInString(strings.TrimSpace(s.Description)) < MinDescriptionLen {
		verr.Add("description", "description must be at least 10 characters")
	}
	if utf8.RuneCountInString(strings.TrimSpace(s.Address)) < MinAddressLen {
		verr.Add("address", "address must be at least 5 characters")
	}
	if strings.TrimSpace(s.Hours) == "" {
		verr.Add("hours", "hours of operation are required")
	}
	if strings.TrimSpace(s.Phone) == "" {
		verr.Add("phone", "contact phone is required")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// Patch is a partial content update. Nil fields are left unchanged.
type Patch struct {
	Name         *string
	Category     *string
	Neighborhood *string
	Description  *string
	Address      *string
	Phone        *string
	ManagerPhone *string
	Email        *string
	Hours        *string
	HasFee       *bool
	FeeDetails   *string
	Website      *string
}

// ApplyTo merges the patch into the listing in place. The merged result
// must be re-validated before persisting.
func (p Patch) ApplyTo(l *Listing) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Category != nil {
		l.Category = *p.Category
	}
	if p.Neighborhood != nil {
		l.Neighborhood = *p.Neighborhood
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Address != nil {
		l.Address = *p.Address
	}
	if p.Phone != nil {
		l.Phone = *p.Phone
	}
	if p.ManagerPhone != nil {
		l.ManagerPhone = *p.ManagerPhone
	}
	if p.Email != nil {
		l.Email = *p.Email
	}
	if p.Hours != nil {
		l.Hours = *p.Hours
	}
	if p.HasFee != nil {
		l.HasFee = *p.HasFee
	}
	if p.FeeDetails != nil {
		l.FeeDetails = *p.FeeDetails
	}
	if p.Website != nil {
		l.Website = *p.Website
	}
}

// AsSubmission projects the listing's content fields for re-validation
// after a patch.
func (l *Listing) AsSubmission() Submission {
	return Submission{
		Name:         l.Name,
		Category:     l.Category,
		Neighborhood: l.Neighborhood,
		Description:  l.Description,
		Address:      l.Address,
		Phone:        l.Phone,
		ManagerPhone: l.ManagerPhone,
		Email:        l.Email,
		Hours:        l.Hours,
		HasFee:       l.HasFee,
		FeeDetails:   l.FeeDetails,
		Website:      l.Website,
	}
}

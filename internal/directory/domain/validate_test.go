package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() Submission {
	return Submission{
		Name:         "Baby Gear Gemach",
		Category:     "baby",
		Neighborhood: "Rechavia",
		Description:  "Strollers and cribs lent out free",
		Address:      "12 Example St",
		Phone:        "02-555-0000",
		Hours:        "Sun-Thu 9-13",
	}
}

func TestValidateAcceptsCompleteSubmission(t *testing.T) {
	assert.NoError(t, validSubmission().Validate())
}

func TestValidateShortDescription(t *testing.T) {
	sub := validSubmission()
	sub.Description = "short"

	err := sub.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "description")
	assert.Len(t, verr.Fields, 1)

	// Twelve characters clears the threshold.
	sub.Description = "12 chars ok."
	assert.NoError(t, sub.Validate())
}

func TestValidateCollectsEveryOffendingField(t *testing.T) {
	err := Submission{}.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"name", "category", "neighborhood", "description", "address", "hours", "phone"} {
		assert.Contains(t, verr.Fields, field)
	}
}

func TestValidateCountsCharactersNotBytes(t *testing.T) {
	sub := validSubmission()
	sub.Description = "קצרצר" // 5 characters, 10 bytes

	var verr *ValidationError
	require.ErrorAs(t, sub.Validate(), &verr)
	assert.Contains(t, verr.Fields, "description")

	sub.Description = "השאלת ציוד לתינוקות בחינם"
	sub.Address = "רחוב הדוגמה 12"
	assert.NoError(t, sub.Validate())
}

func TestValidateShortAddress(t *testing.T) {
	sub := validSubmission()
	sub.Address = "abc"

	var verr *ValidationError
	require.ErrorAs(t, sub.Validate(), &verr)
	assert.Contains(t, verr.Fields, "address")
}

func TestValidateWhitespaceOnlyFields(t *testing.T) {
	sub := validSubmission()
	sub.Phone = "   "
	sub.Hours = "\t"

	var verr *ValidationError
	require.ErrorAs(t, sub.Validate(), &verr)
	assert.Contains(t, verr.Fields, "phone")
	assert.Contains(t, verr.Fields, "hours")
}

func TestPatchApplyTo(t *testing.T) {
	l := activeListing(StatusApproved)
	newName := "Renamed Gemach"
	hasFee := true
	feeDetails := "10 NIS deposit"

	Patch{Name: &newName, HasFee: &hasFee, FeeDetails: &feeDetails}.ApplyTo(&l)

	assert.Equal(t, "Renamed Gemach", l.Name)
	assert.True(t, l.HasFee)
	assert.Equal(t, "10 NIS deposit", l.FeeDetails)
	// Untouched fields survive.
	assert.Equal(t, "baby", l.Category)
	assert.Equal(t, StatusApproved, l.Status)
}

func TestPrimaryImageFallback(t *testing.T) {
	l := activeListing(StatusApproved)
	assert.Nil(t, l.PrimaryImage())

	l.Images = []Image{
		{ID: "img-1"},
		{ID: "img-2"},
	}
	// No explicit primary: first by insertion order wins.
	require.NotNil(t, l.PrimaryImage())
	assert.Equal(t, "img-1", l.PrimaryImage().ID)

	l.Images[1].Primary = true
	assert.Equal(t, "img-2", l.PrimaryImage().ID)
}

package mailer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kehillahub/gemach-directory/internal/directory/usecase"
	"github.com/kehillahub/gemach-directory/internal/mailer"
)

// The mailer must keep satisfying the notification contract the
// moderation flow depends on.
var _ usecase.Notifier = (*mailer.SMTPMailer)(nil)

func TestNewSMTPMailer(t *testing.T) {
	m := mailer.NewSMTPMailer("smtp.example.test", 587, "noreply@example.test", "secret")
	assert.NotNil(t, m)
}

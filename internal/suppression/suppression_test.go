package suppression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	c := NewChecker(
		[]string{"Example-Brokerage.com", " "},
		[]string{"noreply", "mailer-daemon"},
		[]string{"Me@Example.org"},
		nil,
	)

	tests := []struct {
		email  string
		reason string
	}{
		{"jane@client.com", ReasonNone},
		{"not-an-address", ReasonInvalid},
		{"@client.com", ReasonInvalid},
		{"me@example.org", ReasonSelf},
		{"loan@example-brokerage.com", ReasonDomain},
		{"ops@mail.example-brokerage.com", ReasonDomain},
		{"ops@notexample-brokerage.com", ReasonNone},
		{"NoReply@bank.com", ReasonLocalPart},
		{"noreply+123@bank.com", ReasonLocalPart},
		{"noreplyjones@bank.com", ReasonNone},
		{"MAILER-DAEMON@mx.bank.com", ReasonLocalPart},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.reason, c.Check(tt.email))
			assert.Equal(t, tt.reason != ReasonNone, c.IsSuppressed(tt.email))
		})
	}
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsOfficerOrigin(t *testing.T) {
	cases := []struct {
		role          Role
		officerOrigin bool
	}{
		{AdminRole, true},
		{OfficerRole, true},
		{ApplicantRole, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			message := Message{Sender: User{Role: tc.role}}
			assert.Equal(t, tc.officerOrigin, message.IsOfficerOrigin())
		})
	}
}

func TestMarkReadNeverUnreads(t *testing.T) {
	var message Message
	assert.False(t, message.IsRead)
	assert.Nil(t, message.ReadAt)

	message.MarkRead()
	assert.True(t, message.IsRead)
	firstStamp := message.ReadAt
	assert.NotNil(t, firstStamp)

	message.MarkRead()
	assert.Same(t, firstStamp, message.ReadAt)
}

package bookring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationContent(t *testing.T) {
	tests := []struct {
		name         string
		trigger      TriggerType
		title        string
		description  string
		chatRedirect bool
	}{
		{
			name:        "request to borrow",
			trigger:     TriggerRequestToBorrow,
			title:       "Book Requested",
			description: "Bob requested to borrow Dune. Tap to confirm request.",
		},
		{
			name:        "cancel hold",
			trigger:     TriggerCancelHold,
			title:       "Book Request Cancelled",
			description: "Bob cancelled the requested to borrow Dune.",
		},
		{
			name:         "accept",
			trigger:      TriggerAccept,
			title:        "Borrowing Book Confirmation",
			description:  "Bob accepted to lent Dune to you. Tap to chat.",
			chatRedirect: true,
		},
		{
			name:        "decline",
			trigger:     TriggerDecline,
			title:       "Borrowing Book Declined",
			description: "Bob declined to lent Dune to you.",
		},
		{
			name:         "user returns",
			trigger:      TriggerUserReturns,
			title:        "Book Return Request",
			description:  "Bob wants to return Dune. Tap to chat.",
			chatRedirect: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := notificationContent(tt.trigger, "Bob", "Dune")
			assert.Equal(t, tt.title, content.Title)
			assert.Equal(t, tt.description, content.Description)
			assert.Equal(t, tt.chatRedirect, content.ChatRedirect)
		})
	}
}

func TestNotificationContentUnknownTrigger(t *testing.T) {
	content := notificationContent("no_such_trigger", "Bob", "Dune")
	assert.Equal(t, NotificationContent{}, content)
}

func TestChatBanner(t *testing.T) {
	assert.Equal(t, "Alice placed book borrowing request.", chatBanner(TriggerAccept, "Alice"))
	assert.Equal(t, "Bob placed book return request.", chatBanner(TriggerUserReturns, "Bob"))
	assert.Empty(t, chatBanner(TriggerRequestToBorrow, "Alice"))
	assert.Empty(t, chatBanner(TriggerCancelHold, "Alice"))
	assert.Empty(t, chatBanner(TriggerDecline, "Alice"))
}

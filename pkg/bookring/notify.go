package bookring

import "fmt"

// NotificationContent is what a lifecycle event says to its recipient.
// ChatRedirect hints the client to open the chat thread on tap.
type NotificationContent struct {
	Title        string
	Description  string
	ChatRedirect bool
}

// notificationContent maps a trigger to its notification copy. Pure
// function of the trigger type, the initiator's display name, and the
// book title; nothing else may influence it.
func notificationContent(trigger TriggerType, initiatorName, bookTitle string) NotificationContent {
	switch trigger {
	case TriggerRequestToBorrow:
		return NotificationContent{
			Title:       "Book Requested",
			Description: fmt.Sprintf("%s requested to borrow %s. Tap to confirm request.", initiatorName, bookTitle),
		}
	case TriggerCancelHold:
		return NotificationContent{
			Title:       "Book Request Cancelled",
			Description: fmt.Sprintf("%s cancelled the requested to borrow %s.", initiatorName, bookTitle),
		}
	case TriggerAccept:
		return NotificationContent{
			Title:        "Borrowing Book Confirmation",
			Description:  fmt.Sprintf("%s accepted to lent %s to you. Tap to chat.", initiatorName, bookTitle),
			ChatRedirect: true,
		}
	case TriggerDecline:
		return NotificationContent{
			Title:       "Borrowing Book Declined",
			Description: fmt.Sprintf("%s declined to lent %s to you.", initiatorName, bookTitle),
		}
	case TriggerUserReturns:
		return NotificationContent{
			Title:        "Book Return Request",
			Description:  fmt.Sprintf("%s wants to return %s. Tap to chat.", initiatorName, bookTitle),
			ChatRedirect: true,
		}
	default:
		return NotificationContent{}
	}
}

// chatBanner is the one-line status shown at the top of a chat thread,
// carrying the acting user's display name.
func chatBanner(trigger TriggerType, actorName string) string {
	switch trigger {
	case TriggerAccept:
		return fmt.Sprintf("%s placed book borrowing request.", actorName)
	case TriggerUserReturns:
		return fmt.Sprintf("%s placed book return request.", actorName)
	default:
		return ""
	}
}

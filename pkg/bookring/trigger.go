package bookring

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookring/bookring/pkg/models"
	"github.com/bookring/bookring/pkg/store"
)

// TriggerType names one transition of the borrow lifecycle.
type TriggerType string

const (
	TriggerRequestToBorrow TriggerType = "request_to_borrow"
	TriggerCancelHold      TriggerType = "cancel_hold"
	TriggerAccept          TriggerType = "borrow_request_accept"
	TriggerDecline         TriggerType = "borrow_request_decline"
	TriggerUserReturns     TriggerType = "user_returns"
)

// ErrInvalidTrigger is returned for an unrecognized trigger type.
var ErrInvalidTrigger = errors.New("incorrect trigger type value")

// ErrNoPendingRequest is returned when accept or decline runs against a
// book with no requestor, and when a return runs against a book with no
// bearer.
var ErrNoPendingRequest = errors.New("book has no pending borrow state for this trigger")

// TriggerRequest is the payload of the trigger endpoint: the transition
// to run, the book it applies to, and optionally an existing wishlist to
// reuse on a borrow request.
type TriggerRequest struct {
	Type     TriggerType        `json:"trigger_type"`
	Wishlist *models.WishlistID `json:"wishlist,omitempty"`
	Book     models.BookID      `json:"book"`
}

// triggerOutcome carries what the primary mutation produced into the
// best-effort secondary step. The split makes the failure asymmetry
// explicit: everything before the outcome can fail the trigger,
// everything after it only logs.
type triggerOutcome struct {
	wishlist *models.Wishlist
	book     *models.Book
	notifyTo models.UserID
	chatPeer *models.UserID
}

// HandleTrigger runs one borrow-lifecycle transition for the acting
// user. It returns the created or updated wishlist for request and
// cancel, nil for the other three transitions.
//
// Each transition is a fixed sequence of independently durable store
// writes; there is no cross-store transaction. A crash mid-sequence can
// leave the book updated with the notification missing, and two
// triggers racing on the same book can interleave. Callers needing
// serialization must provide it upstream.
func (a *App) HandleTrigger(ctx context.Context, actor *models.User, req TriggerRequest) (*models.Wishlist, error) {
	var outcome triggerOutcome
	var err error

	switch req.Type {
	case TriggerRequestToBorrow:
		outcome, err = a.requestToBorrow(ctx, actor, req)
	case TriggerCancelHold:
		outcome, err = a.cancelHold(ctx, actor, req)
	case TriggerAccept:
		outcome, err = a.acceptRequest(ctx, actor, req)
	case TriggerDecline:
		outcome, err = a.declineRequest(ctx, actor, req)
	case TriggerUserReturns:
		outcome, err = a.userReturns(ctx, actor, req)
	default:
		return nil, ErrInvalidTrigger
	}
	if err != nil {
		return nil, err
	}

	a.runSecondaryEffects(ctx, req.Type, actor, outcome)

	return outcome.wishlist, nil
}

// requestToBorrow puts the book on hold for the acting user. The
// wishlist is resolved or created before the book patch; the
// notification goes to the owner of the updated book afterwards.
func (a *App) requestToBorrow(ctx context.Context, actor *models.User, req TriggerRequest) (triggerOutcome, error) {
	var wishlist *models.Wishlist
	var err error

	if req.Wishlist != nil {
		requested := models.WishlistRequested
		wishlist, err = a.store.UpdateWishlist(ctx, *req.Wishlist, models.WishlistPatch{Status: &requested})
		if err != nil {
			return triggerOutcome{}, fmt.Errorf("updating wishlist: %w", err)
		}
	} else {
		wishlist = &models.Wishlist{
			OwnerID: actor.ID,
			BookID:  req.Book,
			Status:  models.WishlistRequested,
		}
		if err := a.store.CreateWishlist(ctx, wishlist); err != nil {
			return triggerOutcome{}, fmt.Errorf("creating wishlist: %w", err)
		}
		if err := a.store.AddWishlistRef(ctx, actor.ID, wishlist.ID); err != nil {
			return triggerOutcome{}, fmt.Errorf("linking wishlist to user: %w", err)
		}
	}

	hold := models.BorrowingOnHold
	returnRequested := false
	book, err := a.store.UpdateBook(ctx, wishlist.BookID, models.BookPatch{
		BorrowingStatus: &hold,
		Requestor:       models.SetRef(actor.ID),
		Bearer:          models.ClearRef(),
		ReturnRequested: &returnRequested,
	})
	if err != nil {
		return triggerOutcome{}, fmt.Errorf("updating book: %w", err)
	}

	return triggerOutcome{wishlist: wishlist, book: book, notifyTo: book.OwnerID}, nil
}

// cancelHold releases the acting user's hold: their wishlist entry goes
// back to For Later and the book returns to the resting state.
func (a *App) cancelHold(ctx context.Context, actor *models.User, req TriggerRequest) (triggerOutcome, error) {
	forLater := models.WishlistForLater
	wishlist, err := a.store.UpdateWishlistByOwnerAndBook(ctx, actor.ID, req.Book, models.WishlistPatch{Status: &forLater})
	if err != nil {
		return triggerOutcome{}, fmt.Errorf("updating wishlist: %w", err)
	}

	available := models.BorrowingAvailable
	returnRequested := false
	book, err := a.store.UpdateBook(ctx, wishlist.BookID, models.BookPatch{
		BorrowingStatus: &available,
		Requestor:       models.ClearRef(),
		Bearer:          models.ClearRef(),
		ReturnRequested: &returnRequested,
	})
	if err != nil {
		return triggerOutcome{}, fmt.Errorf("updating book: %w", err)
	}

	return triggerOutcome{wishlist: wishlist, book: book, notifyTo: book.OwnerID}, nil
}

// acceptRequest hands the book to the requestor: the requestor becomes
// the bearer, their wishlist entry is deleted, and a chat thread is
// bootstrapped between the two parties.
func (a *App) acceptRequest(ctx context.Context, actor *models.User, req TriggerRequest) (triggerOutcome, error) {
	related, err := a.store.GetBook(ctx, req.Book)
	if err != nil {
		return triggerOutcome{}, fmt.Errorf("getting book: %w", err)
	}
	if related.RequestorID == nil {
		return triggerOutcome{}, ErrNoPendingRequest
	}
	requestor := *related.RequestorID

	returnRequested := false
	book, err := a.store.UpdateBook(ctx, req.Book, models.BookPatch{
		Requestor:       models.ClearRef(),
		Bearer:          models.SetRef(requestor),
		ReturnRequested: &returnRequested,
	})
	if err != nil {
		return triggerOutcome{}, fmt.Errorf("updating book: %w", err)
	}

	// The request is settled, so the requestor's wishlist entry goes
	// away along with the user's back-reference. A missing entry is
	// tolerated: the interest record may have been removed out of band.
	deleted, err := a.store.DeleteWishlistByOwnerAndBook(ctx, requestor, req.Book)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return triggerOutcome{}, fmt.Errorf("deleting wishlist: %w", err)
	}
	if deleted != nil {
		if err := a.store.RemoveWishlistRef(ctx, requestor, deleted.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return triggerOutcome{}, fmt.Errorf("unlinking wishlist from user: %w", err)
		}
	}

	return triggerOutcome{book: book, notifyTo: requestor, chatPeer: &requestor}, nil
}

// declineRequest turns the requestor away: the book returns to the
// resting state and the requestor's wishlist entry flips to For Later.
func (a *App) declineRequest(ctx context.Context, actor *models.User, req TriggerRequest) (triggerOutcome, error) {
	related, err := a.store.GetBook(ctx, req.Book)
	if err != nil {
		return triggerOutcome{}, fmt.Errorf("getting book: %w", err)
	}
	if related.RequestorID == nil {
		return triggerOutcome{}, ErrNoPendingRequest
	}
	requestor := *related.RequestorID

	available := models.BorrowingAvailable
	returnRequested := false
	book, err := a.store.UpdateBook(ctx, req.Book, models.BookPatch{
		BorrowingStatus: &available,
		Requestor:       models.ClearRef(),
		Bearer:          models.ClearRef(),
		ReturnRequested: &returnRequested,
	})
	if err != nil {
		return triggerOutcome{}, fmt.Errorf("updating book: %w", err)
	}

	forLater := models.WishlistForLater
	if _, err := a.store.UpdateWishlistByOwnerAndBook(ctx, requestor, req.Book, models.WishlistPatch{Status: &forLater}); err != nil {
		return triggerOutcome{}, fmt.Errorf("updating wishlist: %w", err)
	}

	return triggerOutcome{book: book, notifyTo: requestor}, nil
}

// userReturns flags the book for return. Only the flag moves; the
// bearer keeps the book until the owner reacts to the notification.
func (a *App) userReturns(ctx context.Context, actor *models.User, req TriggerRequest) (triggerOutcome, error) {
	related, err := a.store.GetBook(ctx, req.Book)
	if err != nil {
		return triggerOutcome{}, fmt.Errorf("getting book: %w", err)
	}
	if related.BearerID == nil {
		return triggerOutcome{}, ErrNoPendingRequest
	}

	returnRequested := true
	book, err := a.store.UpdateBook(ctx, req.Book, models.BookPatch{
		ReturnRequested: &returnRequested,
	})
	if err != nil {
		return triggerOutcome{}, fmt.Errorf("updating book: %w", err)
	}

	owner := book.OwnerID
	return triggerOutcome{book: book, notifyTo: owner, chatPeer: &owner}, nil
}

// runSecondaryEffects writes the notification and, for the two chatty
// transitions, bootstraps the chat thread. These are best-effort:
// failures are logged and never surfaced, the primary mutation already
// happened.
func (a *App) runSecondaryEffects(ctx context.Context, trigger TriggerType, actor *models.User, outcome triggerOutcome) {
	content := notificationContent(trigger, actor.DisplayName, outcome.book.Title)
	notification := &models.Notification{
		Title:        content.Title,
		Description:  content.Description,
		OwnerID:      outcome.notifyTo,
		InitiatorID:  actor.ID,
		BookID:       outcome.book.ID,
		BookOwnerID:  outcome.book.OwnerID,
		Status:       models.NotificationUnread,
		ChatRedirect: content.ChatRedirect,
	}
	if err := a.store.CreateNotification(ctx, notification); err != nil {
		a.logger.Error().Err(err).
			Str("trigger", string(trigger)).
			Str("recipient", outcome.notifyTo.String()).
			Msg("failed to write notification")
	}

	if outcome.chatPeer != nil {
		if err := a.bootstrapChat(ctx, actor, *outcome.chatPeer, outcome.book, chatBanner(trigger, actor.DisplayName)); err != nil {
			a.logger.Error().Err(err).
				Str("trigger", string(trigger)).
				Str("peer", outcome.chatPeer.String()).
				Msg("failed to bootstrap chat")
		}
	}
}

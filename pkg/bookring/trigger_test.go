package bookring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookring/bookring/pkg/models"
	"github.com/bookring/bookring/pkg/store"
	"github.com/bookring/bookring/pkg/store/memory"
)

func newTestApp(t *testing.T) (*App, *memory.Store) {
	t.Helper()
	s := memory.New()
	return NewWithStore(s, &Config{StoreBackend: "memory"}), s
}

func createTestUser(t *testing.T, s store.Store, name string) *models.User {
	t.Helper()
	user := &models.User{
		Email:       name + "@example.com",
		DisplayName: name,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func createTestBook(t *testing.T, s store.Store, owner *models.User, title string) *models.Book {
	t.Helper()
	book := &models.Book{
		Title:     title,
		Author:    "Some Author",
		OwnerID:   owner.ID,
		Shareable: true,
	}
	require.NoError(t, s.CreateBook(context.Background(), book))
	return book
}

func TestRequestToBorrow(t *testing.T) {
	app, s := newTestApp(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "Alice")
	requestor := createTestUser(t, s, "Bob")
	book := createTestBook(t, s, owner, "Dune")

	wishlist, err := app.HandleTrigger(ctx, requestor, TriggerRequest{
		Type: TriggerRequestToBorrow,
		Book: book.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, wishlist)
	assert.Equal(t, requestor.ID, wishlist.OwnerID)
	assert.Equal(t, book.ID, wishlist.BookID)
	assert.Equal(t, models.WishlistRequested, wishlist.Status)

	updated, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BorrowingOnHold, updated.BorrowingStatus)
	require.NotNil(t, updated.RequestorID)
	assert.Equal(t, requestor.ID, *updated.RequestorID)
	assert.Nil(t, updated.BearerID)
	assert.False(t, updated.ReturnRequested)

	// The new wishlist id lands on the requestor's back-reference list.
	refreshed, err := s.GetUser(ctx, requestor.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.Wishlists.Contains(wishlist.ID))

	notifications, err := s.ListNotifications(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Book Requested", notifications[0].Title)
	assert.Equal(t, "Bob requested to borrow Dune. Tap to confirm request.", notifications[0].Description)
	assert.Equal(t, requestor.ID, notifications[0].InitiatorID)
	assert.Equal(t, owner.ID, notifications[0].BookOwnerID)
	assert.False(t, notifications[0].ChatRedirect)
	assert.Equal(t, models.NotificationUnread, notifications[0].Status)

	// Requesting never opens a chat.
	thread, err := s.GetChatThread(ctx, models.CombinedChatID(owner.ID, requestor.ID))
	require.NoError(t, err)
	assert.Nil(t, thread)
}

func TestRequestToBorrowWithExistingWishlist(t *testing.T) {
	app, s := newTestApp(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "Alice")
	requestor := createTestUser(t, s, "Bob")
	book := createTestBook(t, s, owner, "Dune")

	existing := &models.Wishlist{
		OwnerID: requestor.ID,
		BookID:  book.ID,
		Status:  models.WishlistForLater,
	}
	require.NoError(t, s.CreateWishlist(ctx, existing))

	wishlist, err := app.HandleTrigger(ctx, requestor, TriggerRequest{
		Type:     TriggerRequestToBorrow,
		Wishlist: &existing.ID,
		Book:     book.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, wishlist.ID)
	assert.Equal(t, models.WishlistRequested, wishlist.Status)

	// No second entry was created for the pair.
	all, err := s.ListWishlists(ctx, requestor.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCancelHold(t *testing.T) {
	app, s := newTestApp(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "Alice")
	requestor := createTestUser(t, s, "Bob")
	book := createTestBook(t, s, owner, "Dune")

	_, err := app.HandleTrigger(ctx, requestor, TriggerRequest{Type: TriggerRequestToBorrow, Book: book.ID})
	require.NoError(t, err)

	wishlist, err := app.HandleTrigger(ctx, requestor, TriggerRequest{Type: TriggerCancelHold, Book: book.ID})
	require.NoError(t, err)
	require.NotNil(t, wishlist)
	assert.Equal(t, models.WishlistForLater, wishlist.Status)

	updated, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, updated.Available())

	notifications, err := s.ListNotifications(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	var cancel *models.Notification
	for _, n := range notifications {
		if n.Title == "Book Request Cancelled" {
			cancel = n
		}
	}
	require.NotNil(t, cancel)
	assert.Equal(t, "Bob cancelled the requested to borrow Dune.", cancel.Description)
	assert.False(t, cancel.ChatRedirect)
}

func TestAcceptRequest(t *testing.T) {
	app, s := newTestApp(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "Alice")
	requestor := createTestUser(t, s, "Bob")
	book := createTestBook(t, s, owner, "Dune")

	wishlist, err := app.HandleTrigger(ctx, requestor, TriggerRequest{Type: TriggerRequestToBorrow, Book: book.ID})
	require.NoError(t, err)

	result, err := app.HandleTrigger(ctx, owner, TriggerRequest{Type: TriggerAccept, Book: book.ID})
	require.NoError(t, err)
	assert.Nil(t, result)

	updated, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.RequestorID)
	require.NotNil(t, updated.BearerID)
	assert.Equal(t, requestor.ID, *updated.BearerID)
	assert.False(t, updated.ReturnRequested)
	// Accepting hands the book over without moving the status.
	assert.Equal(t, models.BorrowingOnHold, updated.BorrowingStatus)

	// The settled wishlist entry is gone, and so is its back-reference.
	_, err = s.GetWishlist(ctx, wishlist.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	refreshed, err := s.GetUser(ctx, requestor.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.Wishlists.Contains(wishlist.ID))

	notifications, err := s.ListNotifications(ctx, requestor.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Borrowing Book Confirmation", notifications[0].Title)
	assert.Equal(t, "Alice accepted to lent Dune to you. Tap to chat.", notifications[0].Description)
	assert.True(t, notifications[0].ChatRedirect)

	pair := models.CombinedChatID(owner.ID, requestor.ID)
	thread, err := s.GetChatThread(ctx, pair)
	require.NoError(t, err)
	require.NotNil(t, thread)
	assert.Equal(t, "Alice placed book borrowing request.", thread.Banner)
	assert.Equal(t, book.ID, thread.Book.ID)
	assert.Equal(t, "Dune", thread.Book.Title)
	assert.Empty(t, thread.Messages)

	ownerRefs, err := s.ListChatRefs(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, ownerRefs, 1)
	assert.Equal(t, pair, ownerRefs[0].ChatID)
	assert.Equal(t, requestor.ID, ownerRefs[0].PeerID)
	assert.Equal(t, "Bob", ownerRefs[0].PeerDisplayName)

	requestorRefs, err := s.ListChatRefs(ctx, requestor.ID)
	require.NoError(t, err)
	require.Len(t, requestorRefs, 1)
	assert.Equal(t, owner.ID, requestorRefs[0].PeerID)
	assert.Equal(t, "Alice", requestorRefs[0].PeerDisplayName)
}

func TestAcceptWithoutPendingRequest(t *testing.T) {
	app, s := newTestApp(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "Alice")
	book := createTestBook(t, s, owner, "Dune")

	_, err := app.HandleTrigger(ctx, owner, TriggerRequest{Type: TriggerAccept, Book: book.ID})
	assert.ErrorIs(t, err, ErrNoPendingRequest)

	_, err = app.HandleTrigger(ctx, owner, TriggerRequest{Type: TriggerDecline, Book: book.ID})
	assert.ErrorIs(t, err, ErrNoPendingRequest)

	// No notifications were written for the rejected triggers.
	notifications, err := s.ListNotifications(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestDeclineRequest(t *testing.T) {
	app, s := newTestApp(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "Alice")
	requestor := createTestUser(t, s, "Bob")
	book := createTestBook(t, s, owner, "Dune")

	wishlist, err := app.HandleTrigger(ctx, requestor, TriggerRequest{Type: TriggerRequestToBorrow, Book: book.ID})
	require.NoError(t, err)

	result, err := app.HandleTrigger(ctx, owner, TriggerRequest{Type: TriggerDecline, Book: book.ID})
	require.NoError(t, err)
	assert.Nil(t, result)

	updated, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, updated.Available())

	// The requestor keeps the book bookmarked.
	kept, err := s.GetWishlist(ctx, wishlist.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WishlistForLater, kept.Status)

	notifications, err := s.ListNotifications(ctx, requestor.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Borrowing Book Declined", notifications[0].Title)
	assert.Equal(t, "Alice declined to lent Dune to you.", notifications[0].Description)
	assert.False(t, notifications[0].ChatRedirect)

	// Declining never opens a chat.
	thread, err := s.GetChatThread(ctx, models.CombinedChatID(owner.ID, requestor.ID))
	require.NoError(t, err)
	assert.Nil(t, thread)
}

func TestUserReturns(t *testing.T) {
	app, s := newTestApp(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "Alice")
	borrower := createTestUser(t, s, "Bob")
	book := createTestBook(t, s, owner, "Dune")

	_, err := app.HandleTrigger(ctx, borrower, TriggerRequest{Type: TriggerRequestToBorrow, Book: book.ID})
	require.NoError(t, err)
	_, err = app.HandleTrigger(ctx, owner, TriggerRequest{Type: TriggerAccept, Book: book.ID})
	require.NoError(t, err)

	result, err := app.HandleTrigger(ctx, borrower, TriggerRequest{Type: TriggerUserReturns, Book: book.ID})
	require.NoError(t, err)
	assert.Nil(t, result)

	updated, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, updated.ReturnRequested)
	// The bearer keeps the book until the owner reacts.
	require.NotNil(t, updated.BearerID)
	assert.Equal(t, borrower.ID, *updated.BearerID)
	assert.Equal(t, models.BorrowingOnHold, updated.BorrowingStatus)

	notifications, err := s.ListNotifications(ctx, owner.ID)
	require.NoError(t, err)

	var returned *models.Notification
	for _, n := range notifications {
		if n.Title == "Book Return Request" {
			returned = n
		}
	}
	require.NotNil(t, returned)
	assert.Equal(t, "Bob wants to return Dune. Tap to chat.", returned.Description)
	assert.True(t, returned.ChatRedirect)

	// The existing thread was merged, not recreated: the banner changed
	// and neither side picked up a duplicate chat reference.
	pair := models.CombinedChatID(owner.ID, borrower.ID)
	thread, err := s.GetChatThread(ctx, pair)
	require.NoError(t, err)
	require.NotNil(t, thread)
	assert.Equal(t, "Bob placed book return request.", thread.Banner)

	ownerRefs, err := s.ListChatRefs(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, ownerRefs, 1)
	borrowerRefs, err := s.ListChatRefs(ctx, borrower.ID)
	require.NoError(t, err)
	assert.Len(t, borrowerRefs, 1)
}

func TestUserReturnsWithoutBearer(t *testing.T) {
	app, s := newTestApp(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "Alice")
	book := createTestBook(t, s, owner, "Dune")

	_, err := app.HandleTrigger(ctx, owner, TriggerRequest{Type: TriggerUserReturns, Book: book.ID})
	assert.ErrorIs(t, err, ErrNoPendingRequest)
}

func TestInvalidTrigger(t *testing.T) {
	app, s := newTestApp(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "Alice")
	actor := createTestUser(t, s, "Bob")
	book := createTestBook(t, s, owner, "Dune")

	_, err := app.HandleTrigger(ctx, actor, TriggerRequest{Type: "lend_forever", Book: book.ID})
	assert.ErrorIs(t, err, ErrInvalidTrigger)

	// Nothing moved.
	updated, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, updated.Available())
	wishlists, err := s.ListWishlists(ctx, actor.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, wishlists)
}

func TestTriggerMissingBook(t *testing.T) {
	app, s := newTestApp(t)
	ctx := context.Background()

	actor := createTestUser(t, s, "Bob")

	_, err := app.HandleTrigger(ctx, actor, TriggerRequest{Type: TriggerRequestToBorrow, Book: models.NewBookID()})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// failingNotificationStore breaks notification writes so the tests can
// observe that the primary mutation still succeeds.
type failingNotificationStore struct {
	store.Store
}

func (f *failingNotificationStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return errors.New("notification backend down")
}

func TestNotificationFailureDoesNotFailTrigger(t *testing.T) {
	s := memory.New()
	app := NewWithStore(&failingNotificationStore{Store: s}, &Config{StoreBackend: "memory"})
	ctx := context.Background()

	owner := createTestUser(t, s, "Alice")
	requestor := createTestUser(t, s, "Bob")
	book := createTestBook(t, s, owner, "Dune")

	wishlist, err := app.HandleTrigger(ctx, requestor, TriggerRequest{Type: TriggerRequestToBorrow, Book: book.ID})
	require.NoError(t, err)
	require.NotNil(t, wishlist)

	updated, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BorrowingOnHold, updated.BorrowingStatus)
}

func TestFullLifecycle(t *testing.T) {
	app, s := newTestApp(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "Alice")
	borrower := createTestUser(t, s, "Bob")
	book := createTestBook(t, s, owner, "The Dispossessed")

	// Bob asks, Alice accepts, Bob later asks to return.
	wishlist, err := app.HandleTrigger(ctx, borrower, TriggerRequest{Type: TriggerRequestToBorrow, Book: book.ID})
	require.NoError(t, err)
	require.NotNil(t, wishlist)

	_, err = app.HandleTrigger(ctx, owner, TriggerRequest{Type: TriggerAccept, Book: book.ID})
	require.NoError(t, err)

	_, err = app.HandleTrigger(ctx, borrower, TriggerRequest{Type: TriggerUserReturns, Book: book.ID})
	require.NoError(t, err)

	final, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Nil(t, final.RequestorID)
	require.NotNil(t, final.BearerID)
	assert.Equal(t, borrower.ID, *final.BearerID)
	assert.True(t, final.ReturnRequested)

	ownerNotifications, err := s.ListNotifications(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, ownerNotifications, 2)
	borrowerNotifications, err := s.ListNotifications(ctx, borrower.ID)
	require.NoError(t, err)
	assert.Len(t, borrowerNotifications, 1)
}

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookring/bookring/pkg/models"
	"github.com/bookring/bookring/pkg/store"
)

func TestBookPatchSemantics(t *testing.T) {
	ctx := context.Background()
	s := New()

	owner := models.NewUserID()
	requestor := models.NewUserID()
	book := &models.Book{Title: "Piranesi", Author: "Susanna Clarke", OwnerID: owner, Shareable: true}
	require.NoError(t, s.CreateBook(ctx, book))
	assert.Equal(t, models.BorrowingAvailable, book.BorrowingStatus)

	hold := models.BorrowingOnHold
	updated, err := s.UpdateBook(ctx, book.ID, models.BookPatch{
		BorrowingStatus: &hold,
		Requestor:       models.SetRef(requestor),
	})
	require.NoError(t, err)
	assert.Equal(t, models.BorrowingOnHold, updated.BorrowingStatus)
	require.NotNil(t, updated.RequestorID)
	assert.Equal(t, requestor, *updated.RequestorID)
	assert.Equal(t, "Piranesi", updated.Title, "unnamed fields survive the patch")
	assert.True(t, updated.Shareable)

	// Clearing a ref actually nulls it.
	available := models.BorrowingAvailable
	updated, err = s.UpdateBook(ctx, book.ID, models.BookPatch{
		BorrowingStatus: &available,
		Requestor:       models.ClearRef(),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.RequestorID)
}

func TestUpdateBookNotFound(t *testing.T) {
	s := New()
	_, err := s.UpdateBook(context.Background(), models.NewBookID(), models.BookPatch{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	book := &models.Book{Title: "Original", OwnerID: models.NewUserID()}
	require.NoError(t, s.CreateBook(ctx, book))

	got, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	got.Title = "mutated by caller"

	again, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Title)
}

func TestWishlistByOwnerAndBook(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := models.NewUserID()
	bookID := models.NewBookID()

	w := &models.Wishlist{OwnerID: owner, BookID: bookID, Status: models.WishlistRequested}
	require.NoError(t, s.CreateWishlist(ctx, w))

	forLater := models.WishlistForLater
	updated, err := s.UpdateWishlistByOwnerAndBook(ctx, owner, bookID, models.WishlistPatch{Status: &forLater})
	require.NoError(t, err)
	assert.Equal(t, w.ID, updated.ID)
	assert.Equal(t, models.WishlistForLater, updated.Status)

	deleted, err := s.DeleteWishlistByOwnerAndBook(ctx, owner, bookID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, deleted.ID)

	_, err = s.GetWishlist(ctx, w.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.DeleteWishlistByOwnerAndBook(ctx, owner, bookID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListWishlistsStatusFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := models.NewUserID()

	require.NoError(t, s.CreateWishlist(ctx, &models.Wishlist{OwnerID: owner, BookID: models.NewBookID(), Status: models.WishlistRequested}))
	require.NoError(t, s.CreateWishlist(ctx, &models.Wishlist{OwnerID: owner, BookID: models.NewBookID(), Status: models.WishlistForLater}))
	require.NoError(t, s.CreateWishlist(ctx, &models.Wishlist{OwnerID: models.NewUserID(), BookID: models.NewBookID(), Status: models.WishlistRequested}))

	all, err := s.ListWishlists(ctx, owner, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	requested := models.WishlistRequested
	only, err := s.ListWishlists(ctx, owner, &requested)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, models.WishlistRequested, only[0].Status)
}

func TestWishlistRefs(t *testing.T) {
	ctx := context.Background()
	s := New()
	user := &models.User{Email: "a@example.com", DisplayName: "A"}
	require.NoError(t, s.CreateUser(ctx, user))

	wid := models.NewWishlistID()
	require.NoError(t, s.AddWishlistRef(ctx, user.ID, wid))
	require.NoError(t, s.AddWishlistRef(ctx, user.ID, wid), "adding twice keeps one ref")

	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WishlistIDList{wid}, got.Wishlists)

	require.NoError(t, s.RemoveWishlistRef(ctx, user.ID, wid))
	got, err = s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Wishlists)

	assert.ErrorIs(t, s.AddWishlistRef(ctx, models.NewUserID(), wid), store.ErrNotFound)
}

func TestListBooksFilterAndPaging(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := models.NewUserID()

	titles := []string{"Annihilation", "Borne", "Dead Astronauts"}
	for _, title := range titles {
		require.NoError(t, s.CreateBook(ctx, &models.Book{
			Title: title, Author: "Jeff VanderMeer", Genre: "SF", OwnerID: owner, Shareable: true,
		}))
	}
	require.NoError(t, s.CreateBook(ctx, &models.Book{
		Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", OwnerID: models.NewUserID(),
	}))

	byGenre, err := s.ListBooks(ctx, models.BookFilter{Genre: "SF"})
	require.NoError(t, err)
	assert.Len(t, byGenre, 3)

	byKeyword, err := s.ListBooks(ctx, models.BookFilter{Keyword: "hobbit"})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, "The Hobbit", byKeyword[0].Title)

	shareable := true
	byOwner, err := s.ListBooks(ctx, models.BookFilter{OwnerID: &owner, Shareable: &shareable})
	require.NoError(t, err)
	assert.Len(t, byOwner, 3)

	page, err := s.ListBooks(ctx, models.BookFilter{
		Genre: "SF", SortBy: models.SortByTitle, SortOrder: models.SortAsc, Page: 2, PerPage: 2,
	})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Dead Astronauts", page[0].Title)

	empty, err := s.ListBooks(ctx, models.BookFilter{Genre: "SF", Page: 5, PerPage: 2})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := models.NewUserID()

	first := &models.Notification{Title: "first", OwnerID: owner, InitiatorID: models.NewUserID(), BookID: models.NewBookID(), BookOwnerID: owner}
	require.NoError(t, s.CreateNotification(ctx, first))
	assert.Equal(t, models.NotificationUnread, first.Status)

	second := &models.Notification{Title: "second", OwnerID: owner, InitiatorID: models.NewUserID(), BookID: models.NewBookID(), BookOwnerID: owner}
	require.NoError(t, s.CreateNotification(ctx, second))

	list, err := s.ListNotifications(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].CreatedAt.Before(list[1].CreatedAt), "newest first")

	require.NoError(t, s.MarkNotificationRead(ctx, first.ID))
	list, err = s.ListNotifications(ctx, owner)
	require.NoError(t, err)
	for _, n := range list {
		if n.ID == first.ID {
			assert.Equal(t, models.NotificationRead, n.Status)
		}
	}

	assert.ErrorIs(t, s.MarkNotificationRead(ctx, models.NewNotificationID()), store.ErrNotFound)
}

func TestChatThreadLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, b := models.NewUserID(), models.NewUserID()
	pair := models.CombinedChatID(a, b)

	got, err := s.GetChatThread(ctx, pair)
	require.NoError(t, err)
	assert.Nil(t, got, "absent thread is nil, not an error")

	thread := &models.ChatThread{
		ID:     pair,
		Banner: "A placed book borrowing request.",
		Book:   models.BookSnapshot{ID: models.NewBookID(), Title: "Dune"},
	}
	require.NoError(t, s.CreateChatThread(ctx, thread))

	got, err = s.GetChatThread(ctx, pair)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.Messages)
	assert.Empty(t, got.Messages)

	// Merge replaces banner and snapshot, keeps messages.
	withMsg := *got
	withMsg.Messages = models.ChatMessageList{{Sender: a, Text: "hello"}}
	require.NoError(t, s.CreateChatThread(ctx, &withMsg))

	require.NoError(t, s.MergeChatThread(ctx, pair, "new banner", models.BookSnapshot{Title: "Dune Messiah"}))
	got, err = s.GetChatThread(ctx, pair)
	require.NoError(t, err)
	assert.Equal(t, "new banner", got.Banner)
	assert.Equal(t, "Dune Messiah", got.Book.Title)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hello", got.Messages[0].Text)

	assert.ErrorIs(t, s.MergeChatThread(ctx, models.ChatID("missing"), "x", models.BookSnapshot{}), store.ErrNotFound)
}

func TestChatRefs(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, b := models.NewUserID(), models.NewUserID()
	pair := models.CombinedChatID(a, b)

	require.NoError(t, s.AppendChatRef(ctx, a, models.ChatRef{ChatID: pair, UserID: a, PeerID: b, PeerDisplayName: "B"}))
	require.NoError(t, s.AppendChatRef(ctx, b, models.ChatRef{ChatID: pair, UserID: b, PeerID: a, PeerDisplayName: "A"}))

	refs, err := s.ListChatRefs(ctx, a)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, b, refs[0].PeerID)

	none, err := s.ListChatRefs(ctx, models.NewUserID())
	require.NoError(t, err)
	assert.Empty(t, none)
}

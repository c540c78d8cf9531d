// Package store defines the persistence boundary of the application.
//
// Every entity family gets CRUD-shaped operations plus the targeted
// mutations the borrow lifecycle needs (partial book patches, wishlist
// lookups by owner and book, chat-thread merge). Implementations live in
// the postgres, surrealdb, and memory subpackages and must all satisfy
// the same not-found convention: operations addressing a single record
// by key return ErrNotFound when the record does not exist, except
// GetChatThread which reports absence as (nil, nil) because the caller
// creates the thread on first contact.
package store

import (
	"context"
	"errors"

	"github.com/bookring/bookring/pkg/models"
)

// ErrNotFound is returned when a record addressed by key does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the interface all storage backends implement.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id models.UserID) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id models.UserID) error
	// AddWishlistRef and RemoveWishlistRef keep the wishlist-id list on
	// the user document in step with wishlist creation and deletion.
	AddWishlistRef(ctx context.Context, userID models.UserID, wishlistID models.WishlistID) error
	RemoveWishlistRef(ctx context.Context, userID models.UserID, wishlistID models.WishlistID) error

	// Books
	CreateBook(ctx context.Context, book *models.Book) error
	GetBook(ctx context.Context, id models.BookID) (*models.Book, error)
	// UpdateBook applies a partial patch and returns the updated book.
	UpdateBook(ctx context.Context, id models.BookID, patch models.BookPatch) (*models.Book, error)
	DeleteBook(ctx context.Context, id models.BookID) error
	ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error)

	// Wishlists
	CreateWishlist(ctx context.Context, wishlist *models.Wishlist) error
	GetWishlist(ctx context.Context, id models.WishlistID) (*models.Wishlist, error)
	UpdateWishlist(ctx context.Context, id models.WishlistID, patch models.WishlistPatch) (*models.Wishlist, error)
	// UpdateWishlistByOwnerAndBook patches the single entry linking a
	// user to a book. The (owner, book) pair is unique.
	UpdateWishlistByOwnerAndBook(ctx context.Context, ownerID models.UserID, bookID models.BookID, patch models.WishlistPatch) (*models.Wishlist, error)
	// DeleteWishlistByOwnerAndBook removes the entry and returns the
	// deleted row so callers can unlink the user's back-reference.
	DeleteWishlistByOwnerAndBook(ctx context.Context, ownerID models.UserID, bookID models.BookID) (*models.Wishlist, error)
	ListWishlists(ctx context.Context, ownerID models.UserID, status *models.WishlistStatus) ([]*models.Wishlist, error)

	// Notifications
	CreateNotification(ctx context.Context, notification *models.Notification) error
	ListNotifications(ctx context.Context, ownerID models.UserID) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id models.NotificationID) error

	// Chats
	// GetChatThread returns (nil, nil) when the pair has no thread yet.
	GetChatThread(ctx context.Context, id models.ChatID) (*models.ChatThread, error)
	CreateChatThread(ctx context.Context, thread *models.ChatThread) error
	// MergeChatThread replaces the banner and book snapshot, leaving the
	// message list untouched.
	MergeChatThread(ctx context.Context, id models.ChatID, banner string, book models.BookSnapshot) error
	AppendChatRef(ctx context.Context, userID models.UserID, ref models.ChatRef) error
	ListChatRefs(ctx context.Context, userID models.UserID) ([]models.ChatRef, error)

	// Migrate creates or updates the backend schema.
	Migrate(ctx context.Context) error
	// Close releases the underlying connection.
	Close() error
}

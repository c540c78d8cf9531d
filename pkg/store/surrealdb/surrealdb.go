// Package surrealdb implements the [github.com/bookring/bookring/pkg/store.Store]
// interface on SurrealDB using native SurrealQL over the CBOR protocol.
//
// The store uses the surrealcbor codec so typed IDs marshal to SurrealDB
// RecordIDs (CBOR tag 8) and time.Time values use the native datetime
// format. Partial book and wishlist patches become MERGE operations, and
// every query with user-provided values is parameterized ($param syntax);
// the only interpolated fragments are sort columns validated against a
// fixed vocabulary.
package surrealdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/bookring/bookring/pkg/models"
	"github.com/bookring/bookring/pkg/store"
)

// SurrealStore implements the Store interface using SurrealDB.
type SurrealStore struct {
	db       *surrealdb.DB
	ns       string
	database string
}

var _ store.Store = (*SurrealStore)(nil)

// NewSurrealStore connects to SurrealDB over websockets with the
// surrealcbor codec. The codec is what makes typed IDs and time.Time
// round-trip correctly; the default marshaler does not produce
// SurrealDB-compatible datetimes.
func NewSurrealStore(wsURL, namespace, database, username, password string) (*SurrealStore, error) {
	ctx := context.Background()

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	conf := connection.NewConfig(u)
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)
	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if username != "" && password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": username,
			"pass": password,
		}); err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, namespace, database); err != nil {
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &SurrealStore{db: db, ns: namespace, database: database}, nil
}

// Migrate is a no-op: SurrealDB creates tables implicitly on first
// insert and this deployment runs schemaless.
func (s *SurrealStore) Migrate(ctx context.Context) error {
	return nil
}

// Close closes the database connection
func (s *SurrealStore) Close() error {
	return s.db.Close(context.Background())
}

// isNotFound recognizes the SDK's empty-result errors.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Expected a single or multiple results but got 0") ||
		strings.Contains(errStr, "cannot unmarshal array into Go value")
}

// User operations

func (s *SurrealStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = models.NewUserID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = time.Now()
	}
	_, err := surrealdb.Create[models.User](ctx, s.db, "users", user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	user, err := surrealdb.Select[models.User](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func (s *SurrealStore) UpdateUser(ctx context.Context, user *models.User) error {
	if _, err := s.GetUser(ctx, user.ID); err != nil {
		return err
	}
	user.UpdatedAt = time.Now()
	_, err := surrealdb.Update[models.User](ctx, s.db, user.ID.RecordID(), user)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (s *SurrealStore) DeleteUser(ctx context.Context, id models.UserID) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	_, err := surrealdb.Delete[models.User](ctx, s.db, id.RecordID())
	return err
}

func (s *SurrealStore) AddWishlistRef(ctx context.Context, userID models.UserID, wishlistID models.WishlistID) error {
	// array::union keeps the ref list duplicate-free.
	query := "UPDATE $user SET wishlists = array::union(wishlists ?? [], [$wishlist]), updated_at = time::now()"
	params := map[string]any{
		"user":     userID.RecordID(),
		"wishlist": wishlistID,
	}
	result, err := surrealdb.Query[[]models.User](ctx, s.db, query, params)
	if err != nil {
		return fmt.Errorf("failed to add wishlist ref: %w", err)
	}
	if result == nil || len(*result) == 0 || len((*result)[0].Result) == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *SurrealStore) RemoveWishlistRef(ctx context.Context, userID models.UserID, wishlistID models.WishlistID) error {
	query := "UPDATE $user SET wishlists = array::remove(wishlists ?? [], array::find_index(wishlists ?? [], $wishlist) ?? -1), updated_at = time::now()"
	params := map[string]any{
		"user":     userID.RecordID(),
		"wishlist": wishlistID,
	}
	result, err := surrealdb.Query[[]models.User](ctx, s.db, query, params)
	if err != nil {
		return fmt.Errorf("failed to remove wishlist ref: %w", err)
	}
	if result == nil || len(*result) == 0 || len((*result)[0].Result) == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Book operations

func (s *SurrealStore) CreateBook(ctx context.Context, book *models.Book) error {
	if book.ID.IsZero() {
		book.ID = models.NewBookID()
	}
	if book.BorrowingStatus == "" {
		book.BorrowingStatus = models.BorrowingAvailable
	}
	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now()
	}
	if book.UpdatedAt.IsZero() {
		book.UpdatedAt = time.Now()
	}
	_, err := surrealdb.Create[models.Book](ctx, s.db, "books", book)
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetBook(ctx context.Context, id models.BookID) (*models.Book, error) {
	book, err := surrealdb.Select[models.Book](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	if book == nil {
		return nil, store.ErrNotFound
	}
	return book, nil
}

func (s *SurrealStore) UpdateBook(ctx context.Context, id models.BookID, patch models.BookPatch) (*models.Book, error) {
	if _, err := s.GetBook(ctx, id); err != nil {
		return nil, err
	}

	fields := bookPatchFields(patch)
	if len(fields) == 0 {
		return s.GetBook(ctx, id)
	}
	fields["updated_at"] = time.Now()

	book, err := surrealdb.Merge[models.Book](ctx, s.db, id.RecordID(), fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	return book, nil
}

// bookPatchFields converts a patch into a MERGE document keyed by the
// stored field names; unnamed fields never appear in the merge.
func bookPatchFields(patch models.BookPatch) map[string]any {
	fields := map[string]any{}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Author != nil {
		fields["author"] = *patch.Author
	}
	if patch.Edition != nil {
		fields["edition"] = *patch.Edition
	}
	if patch.Condition != nil {
		fields["condition"] = *patch.Condition
	}
	if patch.Images != nil {
		fields["images"] = *patch.Images
	}
	if patch.Notes != nil {
		fields["notes"] = *patch.Notes
	}
	if patch.Genre != nil {
		fields["genre"] = *patch.Genre
	}
	if patch.Shareable != nil {
		fields["shareable"] = *patch.Shareable
	}
	if patch.ReturnRequested != nil {
		fields["return_requested"] = *patch.ReturnRequested
	}
	if patch.ReadingStatus != nil {
		fields["reading_status"] = *patch.ReadingStatus
	}
	if patch.BorrowingStatus != nil {
		fields["borrowing_status"] = *patch.BorrowingStatus
	}
	if patch.Requestor.Set {
		fields["requestor_id"] = patch.Requestor.ID
	}
	if patch.Bearer.Set {
		fields["bearer_id"] = patch.Bearer.ID
	}
	return fields
}

func (s *SurrealStore) DeleteBook(ctx context.Context, id models.BookID) error {
	if _, err := s.GetBook(ctx, id); err != nil {
		return err
	}
	_, err := surrealdb.Delete[models.Book](ctx, s.db, id.RecordID())
	return err
}

func (s *SurrealStore) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	filter = filter.Normalize()

	var conditions []string
	params := map[string]any{
		"limit": filter.PerPage,
		"start": (filter.Page - 1) * filter.PerPage,
	}
	if filter.Keyword != "" {
		conditions = append(conditions, "(string::lowercase(title) CONTAINS $keyword OR string::lowercase(author) CONTAINS $keyword)")
		params["keyword"] = strings.ToLower(filter.Keyword)
	}
	if filter.Genre != "" {
		conditions = append(conditions, "genre = $genre")
		params["genre"] = filter.Genre
	}
	if filter.ReadingStatus != "" {
		conditions = append(conditions, "reading_status = $reading_status")
		params["reading_status"] = string(filter.ReadingStatus)
	}
	if filter.OwnerID != nil {
		conditions = append(conditions, "owner_id = $owner")
		params["owner"] = *filter.OwnerID
	}
	if filter.Shareable != nil {
		conditions = append(conditions, "shareable = $shareable")
		params["shareable"] = *filter.Shareable
	}

	query := "SELECT * FROM books"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	// Sort column and direction come from the normalized enum, never
	// from raw input.
	query += " ORDER BY " + string(filter.SortBy)
	if filter.SortOrder == models.SortDesc {
		query += " DESC"
	}
	query += " LIMIT $limit START $start"

	result, err := surrealdb.Query[[]models.Book](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	var books []*models.Book
	if result != nil && len(*result) > 0 {
		for i := range (*result)[0].Result {
			books = append(books, &(*result)[0].Result[i])
		}
	}
	return books, nil
}

// Wishlist operations

func (s *SurrealStore) CreateWishlist(ctx context.Context, wishlist *models.Wishlist) error {
	if wishlist.ID.IsZero() {
		wishlist.ID = models.NewWishlistID()
	}
	if wishlist.CreatedAt.IsZero() {
		wishlist.CreatedAt = time.Now()
	}
	if wishlist.UpdatedAt.IsZero() {
		wishlist.UpdatedAt = time.Now()
	}
	_, err := surrealdb.Create[models.Wishlist](ctx, s.db, "wishlists", wishlist)
	if err != nil {
		return fmt.Errorf("failed to create wishlist: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetWishlist(ctx context.Context, id models.WishlistID) (*models.Wishlist, error) {
	wishlist, err := surrealdb.Select[models.Wishlist](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}
	if wishlist == nil {
		return nil, store.ErrNotFound
	}
	return wishlist, nil
}

func (s *SurrealStore) UpdateWishlist(ctx context.Context, id models.WishlistID, patch models.WishlistPatch) (*models.Wishlist, error) {
	if _, err := s.GetWishlist(ctx, id); err != nil {
		return nil, err
	}
	if patch.Status == nil {
		return s.GetWishlist(ctx, id)
	}
	wishlist, err := surrealdb.Merge[models.Wishlist](ctx, s.db, id.RecordID(), map[string]any{
		"status":     *patch.Status,
		"updated_at": time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update wishlist: %w", err)
	}
	return wishlist, nil
}

// findWishlistByOwnerAndBook resolves the unique (owner, book) entry.
func (s *SurrealStore) findWishlistByOwnerAndBook(ctx context.Context, ownerID models.UserID, bookID models.BookID) (*models.Wishlist, error) {
	query := "SELECT * FROM wishlists WHERE owner_id = $owner AND book_id = $book"
	params := map[string]any{
		"owner": ownerID,
		"book":  bookID,
	}
	result, err := surrealdb.Query[[]models.Wishlist](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to find wishlist: %w", err)
	}
	if result == nil || len(*result) == 0 || len((*result)[0].Result) == 0 {
		return nil, store.ErrNotFound
	}
	return &(*result)[0].Result[0], nil
}

func (s *SurrealStore) UpdateWishlistByOwnerAndBook(ctx context.Context, ownerID models.UserID, bookID models.BookID, patch models.WishlistPatch) (*models.Wishlist, error) {
	wishlist, err := s.findWishlistByOwnerAndBook(ctx, ownerID, bookID)
	if err != nil {
		return nil, err
	}
	return s.UpdateWishlist(ctx, wishlist.ID, patch)
}

func (s *SurrealStore) DeleteWishlistByOwnerAndBook(ctx context.Context, ownerID models.UserID, bookID models.BookID) (*models.Wishlist, error) {
	wishlist, err := s.findWishlistByOwnerAndBook(ctx, ownerID, bookID)
	if err != nil {
		return nil, err
	}
	if _, err := surrealdb.Delete[models.Wishlist](ctx, s.db, wishlist.ID.RecordID()); err != nil {
		return nil, fmt.Errorf("failed to delete wishlist: %w", err)
	}
	return wishlist, nil
}

func (s *SurrealStore) ListWishlists(ctx context.Context, ownerID models.UserID, status *models.WishlistStatus) ([]*models.Wishlist, error) {
	query := "SELECT * FROM wishlists WHERE owner_id = $owner"
	params := map[string]any{
		"owner": ownerID,
	}
	if status != nil {
		query += " AND status = $status"
		params["status"] = string(*status)
	}
	query += " ORDER BY created_at"

	result, err := surrealdb.Query[[]models.Wishlist](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlists: %w", err)
	}

	var wishlists []*models.Wishlist
	if result != nil && len(*result) > 0 {
		for i := range (*result)[0].Result {
			wishlists = append(wishlists, &(*result)[0].Result[i])
		}
	}
	return wishlists, nil
}

// Notification operations

func (s *SurrealStore) CreateNotification(ctx context.Context, notification *models.Notification) error {
	if notification.ID.IsZero() {
		notification.ID = models.NewNotificationID()
	}
	if notification.Status == "" {
		notification.Status = models.NotificationUnread
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	_, err := surrealdb.Create[models.Notification](ctx, s.db, "notifications", notification)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *SurrealStore) ListNotifications(ctx context.Context, ownerID models.UserID) ([]*models.Notification, error) {
	query := "SELECT * FROM notifications WHERE owner_id = $owner ORDER BY created_at DESC"
	params := map[string]any{
		"owner": ownerID,
	}
	result, err := surrealdb.Query[[]models.Notification](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	var notifications []*models.Notification
	if result != nil && len(*result) > 0 {
		for i := range (*result)[0].Result {
			notifications = append(notifications, &(*result)[0].Result[i])
		}
	}
	return notifications, nil
}

func (s *SurrealStore) MarkNotificationRead(ctx context.Context, id models.NotificationID) error {
	notification, err := surrealdb.Select[models.Notification](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return store.ErrNotFound
		}
		return fmt.Errorf("failed to get notification: %w", err)
	}
	if notification == nil {
		return store.ErrNotFound
	}
	_, err = surrealdb.Merge[models.Notification](ctx, s.db, id.RecordID(), map[string]any{
		"status": models.NotificationRead,
	})
	return err
}

// Chat operations

func (s *SurrealStore) GetChatThread(ctx context.Context, id models.ChatID) (*models.ChatThread, error) {
	thread, err := surrealdb.Select[models.ChatThread](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chat thread: %w", err)
	}
	return thread, nil
}

func (s *SurrealStore) CreateChatThread(ctx context.Context, thread *models.ChatThread) error {
	if thread.Messages == nil {
		thread.Messages = models.ChatMessageList{}
	}
	now := time.Now()
	if thread.CreatedAt.IsZero() {
		thread.CreatedAt = now
	}
	thread.UpdatedAt = now
	_, err := surrealdb.Create[models.ChatThread](ctx, s.db, thread.ID.RecordID(), thread)
	if err != nil {
		return fmt.Errorf("failed to create chat thread: %w", err)
	}
	return nil
}

func (s *SurrealStore) MergeChatThread(ctx context.Context, id models.ChatID, banner string, book models.BookSnapshot) error {
	thread, err := s.GetChatThread(ctx, id)
	if err != nil {
		return err
	}
	if thread == nil {
		return store.ErrNotFound
	}
	_, err = surrealdb.Merge[models.ChatThread](ctx, s.db, id.RecordID(), map[string]any{
		"banner":     banner,
		"book":       book,
		"updated_at": time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to merge chat thread: %w", err)
	}
	return nil
}

func (s *SurrealStore) AppendChatRef(ctx context.Context, userID models.UserID, ref models.ChatRef) error {
	ref.UserID = userID
	_, err := surrealdb.Create[models.ChatRef](ctx, s.db, "chat_refs", &ref)
	if err != nil {
		return fmt.Errorf("failed to append chat ref: %w", err)
	}
	return nil
}

func (s *SurrealStore) ListChatRefs(ctx context.Context, userID models.UserID) ([]models.ChatRef, error) {
	query := "SELECT * FROM chat_refs WHERE user_id = $user ORDER BY date DESC"
	params := map[string]any{
		"user": userID,
	}
	result, err := surrealdb.Query[[]models.ChatRef](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat refs: %w", err)
	}

	var refs []models.ChatRef
	if result != nil && len(*result) > 0 {
		refs = (*result)[0].Result
	}
	return refs, nil
}

// Package memory is a mutex-guarded in-memory Store used by the test
// suite and by dev mode. It mirrors the not-found and patch semantics of
// the durable backends so the coordinator can be exercised without a
// database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bookring/bookring/pkg/models"
	"github.com/bookring/bookring/pkg/store"
)

// Store keeps everything in maps behind one mutex. Values are copied on
// the way in and out so callers never alias internal state.
type Store struct {
	mu            sync.Mutex
	users         map[models.UserID]models.User
	books         map[models.BookID]models.Book
	wishlists     map[models.WishlistID]models.Wishlist
	notifications map[models.NotificationID]models.Notification
	chats         map[models.ChatID]models.ChatThread
	chatRefs      map[models.UserID][]models.ChatRef
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:         make(map[models.UserID]models.User),
		books:         make(map[models.BookID]models.Book),
		wishlists:     make(map[models.WishlistID]models.Wishlist),
		notifications: make(map[models.NotificationID]models.Notification),
		chats:         make(map[models.ChatID]models.ChatThread),
		chatRefs:      make(map[models.UserID][]models.ChatRef),
	}
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = models.NewUserID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return store.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id models.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) AddWishlistRef(ctx context.Context, userID models.UserID, wishlistID models.WishlistID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	if !u.Wishlists.Contains(wishlistID) {
		u.Wishlists = append(u.Wishlists, wishlistID)
		u.UpdatedAt = time.Now()
		s.users[userID] = u
	}
	return nil
}

func (s *Store) RemoveWishlistRef(ctx context.Context, userID models.UserID, wishlistID models.WishlistID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	kept := u.Wishlists[:0]
	for _, id := range u.Wishlists {
		if id != wishlistID {
			kept = append(kept, id)
		}
	}
	u.Wishlists = kept
	u.UpdatedAt = time.Now()
	s.users[userID] = u
	return nil
}

// Books

func (s *Store) CreateBook(ctx context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if book.ID.IsZero() {
		book.ID = models.NewBookID()
	}
	if book.BorrowingStatus == "" {
		book.BorrowingStatus = models.BorrowingAvailable
	}
	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now
	s.books[book.ID] = *book
	return nil
}

func (s *Store) GetBook(ctx context.Context, id models.BookID) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (s *Store) UpdateBook(ctx context.Context, id models.BookID, patch models.BookPatch) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	patch.Apply(&b)
	b.UpdatedAt = time.Now()
	s.books[id] = b
	return &b, nil
}

func (s *Store) DeleteBook(ctx context.Context, id models.BookID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.books, id)
	return nil
}

func (s *Store) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	filter = filter.Normalize()

	var matched []models.Book
	for _, b := range s.books {
		if !matchBook(b, filter) {
			continue
		}
		matched = append(matched, b)
	}

	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch filter.SortBy {
		case models.SortByTitle:
			less = matched[i].Title < matched[j].Title
		case models.SortByCreatedAt:
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
		default:
			less = matched[i].ID.String() < matched[j].ID.String()
		}
		if filter.SortOrder == models.SortDesc {
			return !less
		}
		return less
	})

	start := (filter.Page - 1) * filter.PerPage
	if start >= len(matched) {
		return nil, nil
	}
	end := start + filter.PerPage
	if end > len(matched) {
		end = len(matched)
	}

	out := make([]*models.Book, 0, end-start)
	for i := start; i < end; i++ {
		b := matched[i]
		out = append(out, &b)
	}
	return out, nil
}

func matchBook(b models.Book, f models.BookFilter) bool {
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		if !strings.Contains(strings.ToLower(b.Title), kw) &&
			!strings.Contains(strings.ToLower(b.Author), kw) {
			return false
		}
	}
	if f.Genre != "" && b.Genre != f.Genre {
		return false
	}
	if f.ReadingStatus != "" && b.ReadingStatus != f.ReadingStatus {
		return false
	}
	if f.OwnerID != nil && b.OwnerID != *f.OwnerID {
		return false
	}
	if f.Shareable != nil && b.Shareable != *f.Shareable {
		return false
	}
	return true
}

// Wishlists

func (s *Store) CreateWishlist(ctx context.Context, wishlist *models.Wishlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wishlist.ID.IsZero() {
		wishlist.ID = models.NewWishlistID()
	}
	now := time.Now()
	wishlist.CreatedAt = now
	wishlist.UpdatedAt = now
	s.wishlists[wishlist.ID] = *wishlist
	return nil
}

func (s *Store) GetWishlist(ctx context.Context, id models.WishlistID) (*models.Wishlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wishlists[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &w, nil
}

func (s *Store) UpdateWishlist(ctx context.Context, id models.WishlistID, patch models.WishlistPatch) (*models.Wishlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wishlists[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	patch.Apply(&w)
	w.UpdatedAt = time.Now()
	s.wishlists[id] = w
	return &w, nil
}

func (s *Store) UpdateWishlistByOwnerAndBook(ctx context.Context, ownerID models.UserID, bookID models.BookID, patch models.WishlistPatch) (*models.Wishlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, w := range s.wishlists {
		if w.OwnerID == ownerID && w.BookID == bookID {
			patch.Apply(&w)
			w.UpdatedAt = time.Now()
			s.wishlists[id] = w
			return &w, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) DeleteWishlistByOwnerAndBook(ctx context.Context, ownerID models.UserID, bookID models.BookID) (*models.Wishlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, w := range s.wishlists {
		if w.OwnerID == ownerID && w.BookID == bookID {
			delete(s.wishlists, id)
			return &w, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListWishlists(ctx context.Context, ownerID models.UserID, status *models.WishlistStatus) ([]*models.Wishlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Wishlist
	for _, w := range s.wishlists {
		if w.OwnerID != ownerID {
			continue
		}
		if status != nil && w.Status != *status {
			continue
		}
		w := w
		out = append(out, &w)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Notifications

func (s *Store) CreateNotification(ctx context.Context, notification *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if notification.ID.IsZero() {
		notification.ID = models.NewNotificationID()
	}
	if notification.Status == "" {
		notification.Status = models.NotificationUnread
	}
	notification.CreatedAt = time.Now()
	s.notifications[notification.ID] = *notification
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, ownerID models.UserID) ([]*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Notification
	for _, n := range s.notifications {
		if n.OwnerID != ownerID {
			continue
		}
		n := n
		out = append(out, &n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id models.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return store.ErrNotFound
	}
	n.Status = models.NotificationRead
	s.notifications[id] = n
	return nil
}

// Chats

func (s *Store) GetChatThread(ctx context.Context, id models.ChatID) (*models.ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.chats[id]
	if !ok {
		return nil, nil
	}
	t.Messages = append(models.ChatMessageList(nil), t.Messages...)
	return &t, nil
}

func (s *Store) CreateChatThread(ctx context.Context, thread *models.ChatThread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	thread.CreatedAt = now
	thread.UpdatedAt = now
	if thread.Messages == nil {
		thread.Messages = models.ChatMessageList{}
	}
	s.chats[thread.ID] = *thread
	return nil
}

func (s *Store) MergeChatThread(ctx context.Context, id models.ChatID, banner string, book models.BookSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.chats[id]
	if !ok {
		return store.ErrNotFound
	}
	t.Banner = banner
	t.Book = book
	t.UpdatedAt = time.Now()
	s.chats[id] = t
	return nil
}

func (s *Store) AppendChatRef(ctx context.Context, userID models.UserID, ref models.ChatRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatRefs[userID] = append(s.chatRefs[userID], ref)
	return nil
}

func (s *Store) ListChatRefs(ctx context.Context, userID models.UserID) ([]models.ChatRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs := s.chatRefs[userID]
	out := make([]models.ChatRef, len(refs))
	copy(out, refs)
	return out, nil
}

func (s *Store) Migrate(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

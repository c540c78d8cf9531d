// Package postgres implements the [github.com/bookring/bookring/pkg/store.Store]
// interface on PostgreSQL using GORM.
//
// Entities map one table per model; list-valued columns (book images,
// wishlist back-references, chat messages) are stored as jsonb through
// the Valuer/Scanner implementations on the model types, and chat-index
// entries are plain rows keyed by (chat_id, user_id). Partial book and
// wishlist patches are translated into GORM Updates maps so unnamed
// columns are never rewritten, and a zero RowsAffected on a keyed update
// surfaces as [store.ErrNotFound].
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/bookring/bookring/pkg/models"
	"github.com/bookring/bookring/pkg/store"
)

// PostgresStore implements the Store interface using PostgreSQL with GORM.
type PostgresStore struct {
	db *gorm.DB
}

var _ store.Store = (*PostgresStore)(nil)

// NewPostgresStore connects to PostgreSQL with the given DSN.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Migrate creates or extends the schema with GORM's AutoMigrate. Safe to
// run repeatedly; it only adds missing tables, columns, and indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Wishlist{},
		&models.Notification{},
		&models.ChatThread{},
		&models.ChatRef{},
	)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// User operations

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *PostgresStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, user *models.User) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"email":        user.Email,
		"display_name": user.DisplayName,
		"photo_url":    user.PhotoURL,
		"reader_type":  user.ReaderType,
		"location":     user.Location,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id models.UserID) error {
	result := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddWishlistRef(ctx context.Context, userID models.UserID, wishlistID models.WishlistID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrNotFound
			}
			return err
		}
		if user.Wishlists.Contains(wishlistID) {
			return nil
		}
		user.Wishlists = append(user.Wishlists, wishlistID)
		return tx.Model(&user).Update("wishlists", user.Wishlists).Error
	})
}

func (s *PostgresStore) RemoveWishlistRef(ctx context.Context, userID models.UserID, wishlistID models.WishlistID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrNotFound
			}
			return err
		}
		kept := user.Wishlists[:0]
		for _, id := range user.Wishlists {
			if id != wishlistID {
				kept = append(kept, id)
			}
		}
		user.Wishlists = kept
		return tx.Model(&user).Update("wishlists", user.Wishlists).Error
	})
}

// Book operations

func (s *PostgresStore) CreateBook(ctx context.Context, book *models.Book) error {
	return s.db.WithContext(ctx).Create(book).Error
}

func (s *PostgresStore) GetBook(ctx context.Context, id models.BookID) (*models.Book, error) {
	var book models.Book
	err := s.db.WithContext(ctx).First(&book, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &book, nil
}

func (s *PostgresStore) UpdateBook(ctx context.Context, id models.BookID, patch models.BookPatch) (*models.Book, error) {
	columns := bookPatchColumns(patch)
	if len(columns) > 0 {
		result := s.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Updates(columns)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, store.ErrNotFound
		}
	}
	return s.GetBook(ctx, id)
}

// bookPatchColumns converts a patch into a GORM Updates map; columns
// absent from the patch stay out of the UPDATE statement entirely.
func bookPatchColumns(patch models.BookPatch) map[string]any {
	columns := map[string]any{}
	if patch.Title != nil {
		columns["title"] = *patch.Title
	}
	if patch.Author != nil {
		columns["author"] = *patch.Author
	}
	if patch.Edition != nil {
		columns["edition"] = *patch.Edition
	}
	if patch.Condition != nil {
		columns["condition"] = *patch.Condition
	}
	if patch.Images != nil {
		columns["images"] = *patch.Images
	}
	if patch.Notes != nil {
		columns["notes"] = *patch.Notes
	}
	if patch.Genre != nil {
		columns["genre"] = *patch.Genre
	}
	if patch.Shareable != nil {
		columns["shareable"] = *patch.Shareable
	}
	if patch.ReturnRequested != nil {
		columns["return_requested"] = *patch.ReturnRequested
	}
	if patch.ReadingStatus != nil {
		columns["reading_status"] = *patch.ReadingStatus
	}
	if patch.BorrowingStatus != nil {
		columns["borrowing_status"] = *patch.BorrowingStatus
	}
	if patch.Requestor.Set {
		columns["requestor_id"] = patch.Requestor.ID
	}
	if patch.Bearer.Set {
		columns["bearer_id"] = patch.Bearer.ID
	}
	return columns
}

func (s *PostgresStore) DeleteBook(ctx context.Context, id models.BookID) error {
	result := s.db.WithContext(ctx).Delete(&models.Book{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	filter = filter.Normalize()

	query := s.db.WithContext(ctx).Model(&models.Book{})
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("title ILIKE ? OR author ILIKE ?", kw, kw)
	}
	if filter.Genre != "" {
		query = query.Where("genre = ?", filter.Genre)
	}
	if filter.ReadingStatus != "" {
		query = query.Where("reading_status = ?", filter.ReadingStatus)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Shareable != nil {
		query = query.Where("shareable = ?", *filter.Shareable)
	}

	order := string(filter.SortBy)
	if filter.SortOrder == models.SortDesc {
		order += " DESC"
	}

	var books []*models.Book
	err := query.Order(order).
		Offset((filter.Page - 1) * filter.PerPage).
		Limit(filter.PerPage).
		Find(&books).Error
	return books, err
}

// Wishlist operations

func (s *PostgresStore) CreateWishlist(ctx context.Context, wishlist *models.Wishlist) error {
	return s.db.WithContext(ctx).Create(wishlist).Error
}

func (s *PostgresStore) GetWishlist(ctx context.Context, id models.WishlistID) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	err := s.db.WithContext(ctx).First(&wishlist, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &wishlist, nil
}

func (s *PostgresStore) UpdateWishlist(ctx context.Context, id models.WishlistID, patch models.WishlistPatch) (*models.Wishlist, error) {
	if patch.Status != nil {
		result := s.db.WithContext(ctx).Model(&models.Wishlist{}).Where("id = ?", id).Update("status", *patch.Status)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, store.ErrNotFound
		}
	}
	return s.GetWishlist(ctx, id)
}

func (s *PostgresStore) UpdateWishlistByOwnerAndBook(ctx context.Context, ownerID models.UserID, bookID models.BookID, patch models.WishlistPatch) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&wishlist, "owner_id = ? AND book_id = ?", ownerID, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrNotFound
			}
			return err
		}
		if patch.Status != nil {
			wishlist.Status = *patch.Status
			return tx.Model(&wishlist).Update("status", wishlist.Status).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &wishlist, nil
}

func (s *PostgresStore) DeleteWishlistByOwnerAndBook(ctx context.Context, ownerID models.UserID, bookID models.BookID) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&wishlist, "owner_id = ? AND book_id = ?", ownerID, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrNotFound
			}
			return err
		}
		return tx.Delete(&wishlist).Error
	})
	if err != nil {
		return nil, err
	}
	return &wishlist, nil
}

func (s *PostgresStore) ListWishlists(ctx context.Context, ownerID models.UserID, status *models.WishlistStatus) ([]*models.Wishlist, error) {
	query := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var wishlists []*models.Wishlist
	err := query.Order("created_at").Find(&wishlists).Error
	return wishlists, err
}

// Notification operations

func (s *PostgresStore) CreateNotification(ctx context.Context, notification *models.Notification) error {
	return s.db.WithContext(ctx).Create(notification).Error
}

func (s *PostgresStore) ListNotifications(ctx context.Context, ownerID models.UserID) ([]*models.Notification, error) {
	var notifications []*models.Notification
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, id models.NotificationID) error {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Update("status", models.NotificationRead)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Chat operations

func (s *PostgresStore) GetChatThread(ctx context.Context, id models.ChatID) (*models.ChatThread, error) {
	var thread models.ChatThread
	err := s.db.WithContext(ctx).First(&thread, "id = ?", string(id)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &thread, nil
}

func (s *PostgresStore) CreateChatThread(ctx context.Context, thread *models.ChatThread) error {
	if thread.Messages == nil {
		thread.Messages = models.ChatMessageList{}
	}
	return s.db.WithContext(ctx).Create(thread).Error
}

func (s *PostgresStore) MergeChatThread(ctx context.Context, id models.ChatID, banner string, book models.BookSnapshot) error {
	result := s.db.WithContext(ctx).Model(&models.ChatThread{}).
		Where("id = ?", string(id)).
		Updates(map[string]any{
			"banner": banner,
			"book":   book,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendChatRef(ctx context.Context, userID models.UserID, ref models.ChatRef) error {
	ref.UserID = userID
	return s.db.WithContext(ctx).Create(&ref).Error
}

func (s *PostgresStore) ListChatRefs(ctx context.Context, userID models.UserID) ([]models.ChatRef, error) {
	var refs []models.ChatRef
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&refs).Error
	return refs, err
}

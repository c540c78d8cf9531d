package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// BorrowingStatus tracks where a book is in the borrow lifecycle
type BorrowingStatus string

const (
	BorrowingAvailable BorrowingStatus = "Available"
	BorrowingOnHold    BorrowingStatus = "On-Hold"
	BorrowingInUse     BorrowingStatus = "In-Use"
)

// ReadingStatus is the owner's personal reading progress for a book
type ReadingStatus string

const (
	ReadingToRead   ReadingStatus = "To Read"
	ReadingReading  ReadingStatus = "Reading"
	ReadingFinished ReadingStatus = "Finished"
)

// Condition describes the physical state of a book
type Condition string

const (
	ConditionLikeNew  Condition = "Like New"
	ConditionVeryGood Condition = "Very Good"
	ConditionGood     Condition = "Good"
	ConditionFair     Condition = "Fair"
	ConditionPoor     Condition = "Poor"
)

// WishlistStatus distinguishes an active borrow request from a bookmark
type WishlistStatus string

const (
	WishlistRequested WishlistStatus = "Requested"
	WishlistForLater  WishlistStatus = "For Later"
)

// NotificationStatus is the read state of a notification
type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

// ReaderType is a self-declared reading pace used for matching
type ReaderType string

const (
	ReaderFast   ReaderType = "Fast"
	ReaderCasual ReaderType = "Casual"
	ReaderSlow   ReaderType = "Slow"
)

// StringList stores a string slice as a JSON column so the same struct
// works against PostgreSQL (jsonb) and SurrealDB (native array).
type StringList []string

// Value implements the driver.Valuer interface for database storage
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface for database retrieval
func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		bytes = []byte(value.(string))
	}
	return json.Unmarshal(bytes, l)
}

func (StringList) GormDataType() string { return "jsonb" }

// WishlistIDList is the list of wishlist back-references kept on a user
type WishlistIDList []WishlistID

func (l WishlistIDList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *WishlistIDList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		bytes = []byte(value.(string))
	}
	return json.Unmarshal(bytes, l)
}

func (WishlistIDList) GormDataType() string { return "jsonb" }

// Contains reports whether id is present in the list.
func (l WishlistIDList) Contains(id WishlistID) bool {
	for _, w := range l {
		if w == id {
			return true
		}
	}
	return false
}

// GeoPoint is a longitude/latitude pair
type GeoPoint struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

func (g GeoPoint) Value() (driver.Value, error) {
	return json.Marshal(g)
}

func (g *GeoPoint) Scan(value any) error {
	if value == nil {
		*g = GeoPoint{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		bytes = []byte(value.(string))
	}
	return json.Unmarshal(bytes, g)
}

func (GeoPoint) GormDataType() string { return "jsonb" }

// BookSnapshot is the denormalized copy of a book embedded in a chat
// thread. It is refreshed on every trigger that touches the thread, so
// staleness is bounded by the last lifecycle event, not fixed at create
// time.
type BookSnapshot struct {
	ID              BookID          `json:"id"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	Images          StringList      `json:"images,omitempty"`
	OwnerID         UserID          `json:"owner_id"`
	BorrowingStatus BorrowingStatus `json:"borrowing_status"`
}

func (s BookSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *BookSnapshot) Scan(value any) error {
	if value == nil {
		*s = BookSnapshot{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		bytes = []byte(value.(string))
	}
	return json.Unmarshal(bytes, s)
}

func (BookSnapshot) GormDataType() string { return "jsonb" }

// SnapshotOf builds the chat-embedded copy of a book.
func SnapshotOf(b *Book) BookSnapshot {
	return BookSnapshot{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Images:          b.Images,
		OwnerID:         b.OwnerID,
		BorrowingStatus: b.BorrowingStatus,
	}
}

// ChatMessage is a single message inside a chat thread. The borrow
// lifecycle never writes messages; they belong to the chat feature and
// are preserved untouched by banner/snapshot merges.
type ChatMessage struct {
	Sender UserID    `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// ChatMessageList stores the thread's messages as a JSON column
type ChatMessageList []ChatMessage

func (l ChatMessageList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]ChatMessage{})
	}
	return json.Marshal(l)
}

func (l *ChatMessageList) Scan(value any) error {
	if value == nil {
		*l = ChatMessageList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		bytes = []byte(value.(string))
	}
	return json.Unmarshal(bytes, l)
}

func (ChatMessageList) GormDataType() string { return "jsonb" }

// User represents an account in the lending network
type User struct {
	ID          UserID         `gorm:"type:uuid;primary_key" json:"id"`
	Email       string         `gorm:"unique;not null" json:"email"`
	DisplayName string         `gorm:"not null" json:"display_name"`
	PhotoURL    string         `json:"photo_url,omitempty"`
	ReaderType  ReaderType     `json:"reader_type,omitempty"`
	Location    GeoPoint       `gorm:"type:jsonb" json:"location"`
	Wishlists   WishlistIDList `gorm:"type:jsonb" json:"wishlists,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook to generate ID if not set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID.IsZero() {
		u.ID = NewUserID()
	}
	return nil
}

// Book is a physical copy owned by one user. Owner never changes;
// requestor and bearer move with the borrow lifecycle.
type Book struct {
	ID              BookID          `gorm:"type:uuid;primary_key" json:"id"`
	Title           string          `gorm:"not null" json:"title"`
	Author          string          `json:"author,omitempty"`
	Edition         string          `json:"edition,omitempty"`
	Condition       Condition       `json:"condition,omitempty"`
	Images          StringList      `gorm:"type:jsonb" json:"images,omitempty"`
	ISBN            string          `json:"isbn,omitempty"`
	Language        string          `json:"language,omitempty"`
	Genre           string          `json:"genre,omitempty"`
	Notes           string          `gorm:"type:text" json:"notes,omitempty"`
	Location        GeoPoint        `gorm:"type:jsonb" json:"location"`
	OwnerID         UserID          `gorm:"type:uuid;not null" json:"owner_id"`
	BearerID        *UserID         `gorm:"type:uuid" json:"bearer_id,omitempty"`
	RequestorID     *UserID         `gorm:"type:uuid" json:"requestor_id,omitempty"`
	ReturnRequested bool            `json:"return_requested"`
	Shareable       bool            `json:"shareable"`
	ReadingStatus   ReadingStatus   `json:"reading_status,omitempty"`
	BorrowingStatus BorrowingStatus `gorm:"not null" json:"borrowing_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook to generate ID and default the borrow state
func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID.IsZero() {
		b.ID = NewBookID()
	}
	if b.BorrowingStatus == "" {
		b.BorrowingStatus = BorrowingAvailable
	}
	return nil
}

// Wishlist links one user to one book they want to borrow. Owner and
// book are immutable; only the status toggles.
type Wishlist struct {
	ID        WishlistID     `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID   UserID         `gorm:"type:uuid;not null;index" json:"owner_id"`
	BookID    BookID         `gorm:"type:uuid;not null;index" json:"book_id"`
	Status    WishlistStatus `gorm:"not null" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (w *Wishlist) BeforeCreate(tx *gorm.DB) error {
	if w.ID.IsZero() {
		w.ID = NewWishlistID()
	}
	return nil
}

// Notification is a record of a lifecycle event addressed to one user.
// Everything except Status is immutable after creation.
type Notification struct {
	ID           NotificationID     `gorm:"type:uuid;primary_key" json:"id"`
	Title        string             `gorm:"not null" json:"title"`
	Description  string             `json:"description"`
	OwnerID      UserID             `gorm:"type:uuid;not null;index" json:"owner_id"`
	InitiatorID  UserID             `gorm:"type:uuid;not null" json:"initiator_id"`
	BookID       BookID             `gorm:"type:uuid;not null" json:"book_id"`
	BookOwnerID  UserID             `gorm:"type:uuid;not null" json:"book_owner_id"`
	Status       NotificationStatus `gorm:"not null" json:"status"`
	ChatRedirect bool               `json:"chat_redirect"`
	CreatedAt    time.Time          `json:"created_at"`
}

// BeforeCreate hook to generate ID and default to unread
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID.IsZero() {
		n.ID = NewNotificationID()
	}
	if n.Status == "" {
		n.Status = NotificationUnread
	}
	return nil
}

// ChatThread is the single conversation shared by a pair of users,
// keyed by their combined pair ID.
type ChatThread struct {
	ID        ChatID          `gorm:"primary_key" json:"id"`
	Messages  ChatMessageList `gorm:"type:jsonb" json:"messages"`
	Banner    string          `json:"banner"`
	Book      BookSnapshot    `gorm:"type:jsonb" json:"book"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ChatRef is one entry in a user's chat index: enough to render the
// conversation list without loading the threads themselves.
type ChatRef struct {
	ChatID          ChatID    `gorm:"primaryKey" json:"chat_id"`
	UserID          UserID    `gorm:"type:uuid;primaryKey" json:"user_id"`
	PeerID          UserID    `gorm:"type:uuid;not null" json:"peer_id"`
	PeerDisplayName string    `json:"peer_display_name"`
	PeerPhotoURL    string    `json:"peer_photo_url,omitempty"`
	Date            time.Time `json:"date"`
}

// Available reports whether the book is in the resting state: no
// requestor, no bearer, no pending return.
func (b *Book) Available() bool {
	return b.BorrowingStatus == BorrowingAvailable &&
		b.RequestorID == nil && b.BearerID == nil && !b.ReturnRequested
}

// ValidateBorrowState checks the cross-field invariant on the borrow
// columns. Available books must carry no participant references.
func (b *Book) ValidateBorrowState() error {
	if b.BorrowingStatus == BorrowingAvailable {
		if b.RequestorID != nil || b.BearerID != nil || b.ReturnRequested {
			return fmt.Errorf("book %s: available but carries borrow state", b.ID)
		}
	}
	return nil
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
)

// UserID is a typed ID for users
type UserID struct {
	uuid uuid.UUID
}

func NewUserID() UserID {
	return UserID{uuid: uuid.New()}
}

func NewUserIDFromUUID(id uuid.UUID) UserID {
	return UserID{uuid: id}
}

func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user ID: %w", err)
	}
	return UserID{uuid: id}, nil
}

func (u UserID) UUID() uuid.UUID { return u.uuid }
func (u UserID) String() string  { return u.uuid.String() }
func (u UserID) IsZero() bool    { return u.uuid == uuid.Nil }

func (u UserID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "users",
		ID:    u.uuid.String(),
	}
}

func (u UserID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.uuid.String())
}

func (u *UserID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	u.uuid = id
	return nil
}

func (u UserID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"users", u.uuid.String()},
	})
}

func (u *UserID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "users", &u.uuid)
}

func (u UserID) Value() (driver.Value, error) {
	if u.IsZero() {
		return nil, nil
	}
	return u.uuid.String(), nil
}

func (u *UserID) Scan(value any) error {
	return scanUUID(value, &u.uuid)
}

func (UserID) GormDataType() string { return "uuid" }

// BookID is a typed ID for books
type BookID struct {
	uuid uuid.UUID
}

func NewBookID() BookID {
	return BookID{uuid: uuid.New()}
}

func NewBookIDFromUUID(id uuid.UUID) BookID {
	return BookID{uuid: id}
}

func ParseBookID(s string) (BookID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return BookID{}, fmt.Errorf("invalid book ID: %w", err)
	}
	return BookID{uuid: id}, nil
}

func (b BookID) UUID() uuid.UUID { return b.uuid }
func (b BookID) String() string  { return b.uuid.String() }
func (b BookID) IsZero() bool    { return b.uuid == uuid.Nil }

func (b BookID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "books",
		ID:    b.uuid.String(),
	}
}

func (b BookID) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.uuid.String())
}

func (b *BookID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	b.uuid = id
	return nil
}

func (b BookID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"books", b.uuid.String()},
	})
}

func (b *BookID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "books", &b.uuid)
}

func (b BookID) Value() (driver.Value, error) {
	if b.IsZero() {
		return nil, nil
	}
	return b.uuid.String(), nil
}

func (b *BookID) Scan(value any) error {
	return scanUUID(value, &b.uuid)
}

func (BookID) GormDataType() string { return "uuid" }

// WishlistID is a typed ID for wishlist entries
type WishlistID struct {
	uuid uuid.UUID
}

func NewWishlistID() WishlistID {
	return WishlistID{uuid: uuid.New()}
}

func NewWishlistIDFromUUID(id uuid.UUID) WishlistID {
	return WishlistID{uuid: id}
}

func ParseWishlistID(s string) (WishlistID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return WishlistID{}, fmt.Errorf("invalid wishlist ID: %w", err)
	}
	return WishlistID{uuid: id}, nil
}

func (w WishlistID) UUID() uuid.UUID { return w.uuid }
func (w WishlistID) String() string  { return w.uuid.String() }
func (w WishlistID) IsZero() bool    { return w.uuid == uuid.Nil }

func (w WishlistID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "wishlists",
		ID:    w.uuid.String(),
	}
}

func (w WishlistID) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.uuid.String())
}

func (w *WishlistID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	w.uuid = id
	return nil
}

func (w WishlistID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"wishlists", w.uuid.String()},
	})
}

func (w *WishlistID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "wishlists", &w.uuid)
}

func (w WishlistID) Value() (driver.Value, error) {
	if w.IsZero() {
		return nil, nil
	}
	return w.uuid.String(), nil
}

func (w *WishlistID) Scan(value any) error {
	return scanUUID(value, &w.uuid)
}

func (WishlistID) GormDataType() string { return "uuid" }

// NotificationID is a typed ID for notifications
type NotificationID struct {
	uuid uuid.UUID
}

func NewNotificationID() NotificationID {
	return NotificationID{uuid: uuid.New()}
}

func NewNotificationIDFromUUID(id uuid.UUID) NotificationID {
	return NotificationID{uuid: id}
}

func ParseNotificationID(s string) (NotificationID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NotificationID{}, fmt.Errorf("invalid notification ID: %w", err)
	}
	return NotificationID{uuid: id}, nil
}

func (n NotificationID) UUID() uuid.UUID { return n.uuid }
func (n NotificationID) String() string  { return n.uuid.String() }
func (n NotificationID) IsZero() bool    { return n.uuid == uuid.Nil }

func (n NotificationID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "notifications",
		ID:    n.uuid.String(),
	}
}

func (n NotificationID) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.uuid.String())
}

func (n *NotificationID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	n.uuid = id
	return nil
}

func (n NotificationID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"notifications", n.uuid.String()},
	})
}

func (n *NotificationID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "notifications", &n.uuid)
}

func (n NotificationID) Value() (driver.Value, error) {
	if n.IsZero() {
		return nil, nil
	}
	return n.uuid.String(), nil
}

func (n *NotificationID) Scan(value any) error {
	return scanUUID(value, &n.uuid)
}

func (NotificationID) GormDataType() string { return "uuid" }

// Helper functions

// scanUUID is a helper for implementing sql.Scanner interface for PostgreSQL/GORM
func scanUUID(value any, target *uuid.UUID) error {
	if value == nil {
		*target = uuid.Nil
		return nil
	}

	switch v := value.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*target = id
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		*target = id
	default:
		return fmt.Errorf("cannot scan type %T into UUID", value)
	}
	return nil
}

// unmarshalCBORID is a helper for unmarshaling SurrealDB RecordID from CBOR.
// SurrealDB uses CBOR tag 8 to identify RecordID types in its binary protocol.
// The RecordID is encoded as [table_name, id_string] within the tag.
func unmarshalCBORID(data []byte, expectedTable string, target *uuid.UUID) error {
	if len(data) == 0 {
		return fmt.Errorf("empty CBOR data")
	}

	// Check if this is a CBOR tag (major type 6)
	majorType := data[0] >> 5
	if majorType != 6 {
		return fmt.Errorf("expected CBOR tag for RecordID, got major type %d", majorType)
	}

	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to unmarshal CBOR tag: %w", err)
	}

	// SurrealDB uses tag 8 for RecordID
	if tag.Number != 8 {
		return fmt.Errorf("expected RecordID tag (8), got %d", tag.Number)
	}

	arr, ok := tag.Content.([]any)
	if !ok || len(arr) != 2 {
		return fmt.Errorf("invalid RecordID format: expected [table, id] array")
	}

	table, ok := arr[0].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: table name must be string")
	}

	if table != expectedTable {
		return fmt.Errorf("expected table %s, got %s", expectedTable, table)
	}

	idStr, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: ID must be string")
	}

	parsedUUID, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid UUID in RecordID: %w", err)
	}

	*target = parsedUUID
	return nil
}

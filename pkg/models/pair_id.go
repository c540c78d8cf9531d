package models

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ChatID identifies the single chat thread shared by a pair of users.
// It is the two user IDs concatenated with the lexicographically larger
// one first, so both participants derive the same key regardless of who
// acts.
type ChatID string

// CombinedChatID builds the pair key for two users. Order of the
// arguments does not matter.
func CombinedChatID(a, b UserID) ChatID {
	if a.String() > b.String() {
		return ChatID(a.String() + b.String())
	}
	return ChatID(b.String() + a.String())
}

func (c ChatID) String() string { return string(c) }
func (c ChatID) IsZero() bool   { return c == "" }

func (c ChatID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "chats",
		ID:    string(c),
	}
}

func (c ChatID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"chats", string(c)},
	})
}

func (c *ChatID) UnmarshalCBOR(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty CBOR data")
	}

	// Tolerate both a RecordID tag and a bare string, since the pair key
	// also travels inside chat-ref documents.
	majorType := data[0] >> 5
	if majorType != 6 {
		var s string
		if err := cbor.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ChatID(s)
		return nil
	}

	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to unmarshal CBOR tag: %w", err)
	}
	if tag.Number != 8 {
		return fmt.Errorf("expected RecordID tag (8), got %d", tag.Number)
	}
	arr, ok := tag.Content.([]any)
	if !ok || len(arr) != 2 {
		return fmt.Errorf("invalid RecordID format: expected [table, id] array")
	}
	table, ok := arr[0].(string)
	if !ok || table != "chats" {
		return fmt.Errorf("expected table chats in RecordID")
	}
	id, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: ID must be string")
	}
	*c = ChatID(id)
	return nil
}

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinedChatID(t *testing.T) {
	a := NewUserID()
	b := NewUserID()

	require.Equal(t, CombinedChatID(a, b), CombinedChatID(b, a),
		"pair id must not depend on argument order")

	// Larger id comes first.
	larger, smaller := a, b
	if b.String() > a.String() {
		larger, smaller = b, a
	}
	assert.Equal(t, ChatID(larger.String()+smaller.String()), CombinedChatID(a, b))
	assert.Len(t, CombinedChatID(a, b).String(), 72)
}

func TestCombinedChatIDSelfPair(t *testing.T) {
	a := NewUserID()
	assert.Equal(t, ChatID(a.String()+a.String()), CombinedChatID(a, a))
}

func TestBookPatchApplyPartial(t *testing.T) {
	owner := NewUserID()
	requestor := NewUserID()
	book := &Book{
		ID:              NewBookID(),
		Title:           "The Dispossessed",
		Author:          "Ursula K. Le Guin",
		Notes:           "first edition",
		OwnerID:         owner,
		Shareable:       true,
		BorrowingStatus: BorrowingAvailable,
	}

	hold := BorrowingOnHold
	patch := BookPatch{
		BorrowingStatus: &hold,
		Requestor:       SetRef(requestor),
	}
	patch.Apply(book)

	assert.Equal(t, BorrowingOnHold, book.BorrowingStatus)
	require.NotNil(t, book.RequestorID)
	assert.Equal(t, requestor, *book.RequestorID)

	// Unnamed fields untouched.
	assert.Equal(t, "The Dispossessed", book.Title)
	assert.Equal(t, "first edition", book.Notes)
	assert.True(t, book.Shareable)
	assert.Nil(t, book.BearerID)
}

func TestBookPatchClearRef(t *testing.T) {
	requestor := NewUserID()
	book := &Book{
		ID:              NewBookID(),
		OwnerID:         NewUserID(),
		RequestorID:     &requestor,
		BorrowingStatus: BorrowingOnHold,
	}

	available := BorrowingAvailable
	patch := BookPatch{
		BorrowingStatus: &available,
		Requestor:       ClearRef(),
		Bearer:          ClearRef(),
	}
	patch.Apply(book)

	assert.Nil(t, book.RequestorID)
	assert.Nil(t, book.BearerID)
	assert.NoError(t, book.ValidateBorrowState())
}

func TestBookPatchZeroRefPatchLeavesField(t *testing.T) {
	bearer := NewUserID()
	book := &Book{ID: NewBookID(), OwnerID: NewUserID(), BearerID: &bearer}

	title := "renamed"
	BookPatch{Title: &title}.Apply(book)

	require.NotNil(t, book.BearerID)
	assert.Equal(t, bearer, *book.BearerID)
}

func TestBookPatchIsEmpty(t *testing.T) {
	assert.True(t, BookPatch{}.IsEmpty())
	assert.False(t, BookPatch{Requestor: ClearRef()}.IsEmpty())
	s := "x"
	assert.False(t, BookPatch{Title: &s}.IsEmpty())
}

func TestValidateBorrowState(t *testing.T) {
	requestor := NewUserID()
	bad := &Book{
		ID:              NewBookID(),
		OwnerID:         NewUserID(),
		BorrowingStatus: BorrowingAvailable,
		RequestorID:     &requestor,
	}
	assert.Error(t, bad.ValidateBorrowState())

	bad.BorrowingStatus = BorrowingOnHold
	assert.NoError(t, bad.ValidateBorrowState())
}

func TestBookFilterNormalize(t *testing.T) {
	f := BookFilter{}.Normalize()
	assert.Equal(t, DefaultPage, f.Page)
	assert.Equal(t, DefaultPerPage, f.PerPage)
	assert.Equal(t, SortByID, f.SortBy)
	assert.Equal(t, SortAsc, f.SortOrder)

	g := BookFilter{Page: 3, PerPage: 5, SortBy: SortByTitle, SortOrder: SortDesc}.Normalize()
	assert.Equal(t, 3, g.Page)
	assert.Equal(t, 5, g.PerPage)
	assert.Equal(t, SortByTitle, g.SortBy)
	assert.Equal(t, SortDesc, g.SortOrder)

	h := BookFilter{SortBy: "bogus", SortOrder: "sideways"}.Normalize()
	assert.Equal(t, SortByID, h.SortBy)
	assert.Equal(t, SortAsc, h.SortOrder)
}

func TestTypedIDJSONRoundTrip(t *testing.T) {
	id := NewBookID()
	data, err := json.Marshal(id)
	require.NoError(t, err)

	var got BookID
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, id, got)
}

func TestParseUserIDRejectsGarbage(t *testing.T) {
	_, err := ParseUserID("not-a-uuid")
	assert.Error(t, err)
}

func TestWishlistIDListContains(t *testing.T) {
	a, b := NewWishlistID(), NewWishlistID()
	l := WishlistIDList{a}
	assert.True(t, l.Contains(a))
	assert.False(t, l.Contains(b))
}

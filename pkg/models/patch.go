package models

// UserRefPatch is a tri-state update for a nullable user reference:
// the zero value leaves the column alone, SetRef writes an id, and
// ClearRef writes null.
type UserRefPatch struct {
	Set bool
	ID  *UserID
}

// SetRef returns a patch that writes the given user id.
func SetRef(id UserID) UserRefPatch {
	return UserRefPatch{Set: true, ID: &id}
}

// ClearRef returns a patch that nulls the reference.
func ClearRef() UserRefPatch {
	return UserRefPatch{Set: true}
}

// BookPatch is a partial update for a book. Nil pointers (and unset
// ref patches) leave the corresponding field untouched; owner is not
// patchable.
type BookPatch struct {
	Title           *string
	Author          *string
	Edition         *string
	Condition       *Condition
	Images          *StringList
	Notes           *string
	Genre           *string
	Shareable       *bool
	ReturnRequested *bool
	ReadingStatus   *ReadingStatus
	BorrowingStatus *BorrowingStatus
	Requestor       UserRefPatch
	Bearer          UserRefPatch
}

// IsEmpty reports whether the patch names no fields at all.
func (p BookPatch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.Edition == nil &&
		p.Condition == nil && p.Images == nil && p.Notes == nil &&
		p.Genre == nil && p.Shareable == nil && p.ReturnRequested == nil &&
		p.ReadingStatus == nil && p.BorrowingStatus == nil &&
		!p.Requestor.Set && !p.Bearer.Set
}

// Apply writes the named fields onto b, leaving the rest alone.
func (p BookPatch) Apply(b *Book) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Edition != nil {
		b.Edition = *p.Edition
	}
	if p.Condition != nil {
		b.Condition = *p.Condition
	}
	if p.Images != nil {
		b.Images = *p.Images
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.Shareable != nil {
		b.Shareable = *p.Shareable
	}
	if p.ReturnRequested != nil {
		b.ReturnRequested = *p.ReturnRequested
	}
	if p.ReadingStatus != nil {
		b.ReadingStatus = *p.ReadingStatus
	}
	if p.BorrowingStatus != nil {
		b.BorrowingStatus = *p.BorrowingStatus
	}
	if p.Requestor.Set {
		b.RequestorID = p.Requestor.ID
	}
	if p.Bearer.Set {
		b.BearerID = p.Bearer.ID
	}
}

// WishlistPatch is a partial update for a wishlist entry. Only the
// status is mutable.
type WishlistPatch struct {
	Status *WishlistStatus
}

// Apply writes the named fields onto w.
func (p WishlistPatch) Apply(w *Wishlist) {
	if p.Status != nil {
		w.Status = *p.Status
	}
}

// Listing defaults and sort vocabulary for book queries.
const (
	DefaultPage    = 1
	DefaultPerPage = 20
)

type SortBy string

const (
	SortByID        SortBy = "id"
	SortByCreatedAt SortBy = "created_at"
	SortByTitle     SortBy = "title"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// BookFilter selects and orders books for listing. Zero values mean
// "no constraint"; Normalize fills in the paging and sort defaults.
type BookFilter struct {
	Keyword       string
	Genre         string
	ReadingStatus ReadingStatus
	OwnerID       *UserID
	Shareable     *bool
	Page          int
	PerPage       int
	SortBy        SortBy
	SortOrder     SortOrder
}

// Normalize returns a copy with defaults applied.
func (f BookFilter) Normalize() BookFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	switch f.SortBy {
	case SortByID, SortByCreatedAt, SortByTitle:
	default:
		f.SortBy = SortByID
	}
	switch f.SortOrder {
	case SortAsc, SortDesc:
	default:
		f.SortOrder = SortAsc
	}
	return f
}

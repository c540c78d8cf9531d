package bookring

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/bookring/bookring/pkg/models"
	"github.com/bookring/bookring/pkg/store"
)

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

// respondError sends a standardized JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps store failures onto the HTTP surface: a
// missing record is the client's problem, anything else is logged in
// full and surfaced as an opaque server error.
func (a *App) respondStoreError(w http.ResponseWriter, err error, notFoundMessage string) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, notFoundMessage)
		return
	}
	a.logger.Error().Err(err).Msg("store operation failed")
	respondError(w, http.StatusInternalServerError, "Internal server error")
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// Trigger handler

func (a *App) handleTrigger(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Book.IsZero() {
		respondError(w, http.StatusBadRequest, "Missing book id")
		return
	}

	wishlist, err := a.HandleTrigger(r.Context(), user, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTrigger):
			respondError(w, http.StatusBadRequest, "Incorrect triggerType value")
		case errors.Is(err, ErrNoPendingRequest):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, store.ErrNotFound):
			respondError(w, http.StatusNotFound, "Book or wishlist not found")
		default:
			a.logger.Error().Err(err).Str("trigger", string(req.Type)).Msg("trigger failed")
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, wishlist)
}

// User handlers

func (a *App) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if user.Email == "" || user.DisplayName == "" {
		respondError(w, http.StatusBadRequest, "Email and display name are required")
		return
	}

	if err := a.store.CreateUser(r.Context(), &user); err != nil {
		a.respondStoreError(w, err, "User not found")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (a *App) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := a.store.GetUser(r.Context(), id)
	if err != nil {
		a.respondStoreError(w, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (a *App) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	user.ID = id

	if err := a.store.UpdateUser(r.Context(), &user); err != nil {
		a.respondStoreError(w, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (a *App) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := a.store.DeleteUser(r.Context(), id); err != nil {
		a.respondStoreError(w, err, "User not found")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Book handlers

// bookUpdateRequest is the public partial update for a book. The borrow
// lifecycle fields (requestor, bearer, borrowing status, return flag)
// are deliberately absent: those move only through triggers.
type bookUpdateRequest struct {
	Title         *string               `json:"title,omitempty"`
	Author        *string               `json:"author,omitempty"`
	Edition       *string               `json:"edition,omitempty"`
	Condition     *models.Condition     `json:"condition,omitempty"`
	Images        *models.StringList    `json:"images,omitempty"`
	Notes         *string               `json:"notes,omitempty"`
	Genre         *string               `json:"genre,omitempty"`
	Shareable     *bool                 `json:"shareable,omitempty"`
	ReadingStatus *models.ReadingStatus `json:"reading_status,omitempty"`
}

func (a *App) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var book models.Book
	if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if book.Title == "" || book.OwnerID.IsZero() {
		respondError(w, http.StatusBadRequest, "Title and owner are required")
		return
	}
	// Borrow state always starts at rest regardless of what the client
	// sent.
	book.BorrowingStatus = models.BorrowingAvailable
	book.RequestorID = nil
	book.BearerID = nil
	book.ReturnRequested = false

	if err := a.store.CreateBook(r.Context(), &book); err != nil {
		a.respondStoreError(w, err, "Book not found")
		return
	}
	respondJSON(w, http.StatusCreated, book)
}

func (a *App) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseBookID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid book ID")
		return
	}

	book, err := a.store.GetBook(r.Context(), id)
	if err != nil {
		a.respondStoreError(w, err, "Book not found")
		return
	}
	respondJSON(w, http.StatusOK, book)
}

func (a *App) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseBookID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid book ID")
		return
	}

	var req bookUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	book, err := a.store.UpdateBook(r.Context(), id, models.BookPatch{
		Title:         req.Title,
		Author:        req.Author,
		Edition:       req.Edition,
		Condition:     req.Condition,
		Images:        req.Images,
		Notes:         req.Notes,
		Genre:         req.Genre,
		Shareable:     req.Shareable,
		ReadingStatus: req.ReadingStatus,
	})
	if err != nil {
		a.respondStoreError(w, err, "Book not found")
		return
	}
	respondJSON(w, http.StatusOK, book)
}

func (a *App) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseBookID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid book ID")
		return
	}

	if err := a.store.DeleteBook(r.Context(), id); err != nil {
		a.respondStoreError(w, err, "Book not found")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleListBooks(w http.ResponseWriter, r *http.Request) {
	filter, err := bookFilterFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	books, err := a.store.ListBooks(r.Context(), filter)
	if err != nil {
		a.respondStoreError(w, err, "Books not found")
		return
	}
	if books == nil {
		books = []*models.Book{}
	}
	respondJSON(w, http.StatusOK, books)
}

func bookFilterFromQuery(r *http.Request) (models.BookFilter, error) {
	q := r.URL.Query()
	filter := models.BookFilter{
		Keyword:       q.Get("keyword"),
		Genre:         q.Get("genre"),
		ReadingStatus: models.ReadingStatus(q.Get("reading_status")),
		SortBy:        models.SortBy(q.Get("sort_by")),
		SortOrder:     models.SortOrder(q.Get("sort_order")),
	}

	if owner := q.Get("owner"); owner != "" {
		id, err := models.ParseUserID(owner)
		if err != nil {
			return models.BookFilter{}, errors.New("Invalid owner ID")
		}
		filter.OwnerID = &id
	}
	if shareable := q.Get("shareable"); shareable != "" {
		v, err := strconv.ParseBool(shareable)
		if err != nil {
			return models.BookFilter{}, errors.New("Invalid shareable value")
		}
		filter.Shareable = &v
	}
	if page := q.Get("page"); page != "" {
		v, err := strconv.Atoi(page)
		if err != nil || v < 1 {
			return models.BookFilter{}, errors.New("Invalid page value")
		}
		filter.Page = v
	}
	if perPage := q.Get("per_page"); perPage != "" {
		v, err := strconv.Atoi(perPage)
		if err != nil || v < 1 {
			return models.BookFilter{}, errors.New("Invalid per_page value")
		}
		filter.PerPage = v
	}

	return filter, nil
}

// Wishlist handlers

type createWishlistRequest struct {
	Book   models.BookID          `json:"book"`
	Status *models.WishlistStatus `json:"status,omitempty"`
}

type deleteWishlistRequest struct {
	Book models.BookID `json:"book"`
}

func (a *App) handleCreateWishlist(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req createWishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Book.IsZero() {
		respondError(w, http.StatusBadRequest, "Missing book id")
		return
	}

	status := models.WishlistForLater
	if req.Status != nil {
		status = *req.Status
	}

	wishlist := &models.Wishlist{
		OwnerID: user.ID,
		BookID:  req.Book,
		Status:  status,
	}
	if err := a.store.CreateWishlist(r.Context(), wishlist); err != nil {
		a.respondStoreError(w, err, "Wishlist not found")
		return
	}
	if err := a.store.AddWishlistRef(r.Context(), user.ID, wishlist.ID); err != nil {
		a.respondStoreError(w, err, "User not found")
		return
	}
	respondJSON(w, http.StatusCreated, wishlist)
}

func (a *App) handleDeleteWishlist(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req deleteWishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Book.IsZero() {
		respondError(w, http.StatusBadRequest, "Missing book id")
		return
	}

	deleted, err := a.store.DeleteWishlistByOwnerAndBook(r.Context(), user.ID, req.Book)
	if err != nil {
		a.respondStoreError(w, err, "Wishlist not found")
		return
	}
	if err := a.store.RemoveWishlistRef(r.Context(), user.ID, deleted.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		a.respondStoreError(w, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, deleted)
}

func (a *App) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseWishlistID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid wishlist ID")
		return
	}

	wishlist, err := a.store.GetWishlist(r.Context(), id)
	if err != nil {
		a.respondStoreError(w, err, "Wishlist not found")
		return
	}
	respondJSON(w, http.StatusOK, wishlist)
}

func (a *App) handleListWishlists(w http.ResponseWriter, r *http.Request) {
	ownerID, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var status *models.WishlistStatus
	if s := r.URL.Query().Get("status"); s != "" {
		v := models.WishlistStatus(s)
		status = &v
	}

	wishlists, err := a.store.ListWishlists(r.Context(), ownerID, status)
	if err != nil {
		a.respondStoreError(w, err, "Wishlists not found")
		return
	}
	if wishlists == nil {
		wishlists = []*models.Wishlist{}
	}
	respondJSON(w, http.StatusOK, wishlists)
}

// Notification handlers

func (a *App) handleListNotifications(w http.ResponseWriter, r *http.Request, user *models.User) {
	notifications, err := a.store.ListNotifications(r.Context(), user.ID)
	if err != nil {
		a.respondStoreError(w, err, "Notifications not found")
		return
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	respondJSON(w, http.StatusOK, notifications)
}

func (a *App) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseNotificationID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if err := a.store.MarkNotificationRead(r.Context(), id); err != nil {
		a.respondStoreError(w, err, "Notification not found")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Chat handlers

func (a *App) handleGetChatThread(w http.ResponseWriter, r *http.Request) {
	pair := models.ChatID(mux.Vars(r)["pairId"])
	if pair.IsZero() {
		respondError(w, http.StatusBadRequest, "Invalid chat ID")
		return
	}

	thread, err := a.store.GetChatThread(r.Context(), pair)
	if err != nil {
		a.respondStoreError(w, err, "Chat not found")
		return
	}
	if thread == nil {
		respondError(w, http.StatusNotFound, "Chat not found")
		return
	}
	respondJSON(w, http.StatusOK, thread)
}

func (a *App) handleListChatRefs(w http.ResponseWriter, r *http.Request) {
	userID, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	refs, err := a.store.ListChatRefs(r.Context(), userID)
	if err != nil {
		a.respondStoreError(w, err, "Chats not found")
		return
	}
	if refs == nil {
		refs = []models.ChatRef{}
	}
	respondJSON(w, http.StatusOK, refs)
}

package bookring

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Run starts the HTTP server and blocks until the context is cancelled
// or the server fails. On cancellation, in-flight requests get up to
// five seconds to complete.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", a.config.ServerPort),
		Handler: a.Router(),
	}

	a.logger.Info().Str("addr", server.Addr).Msg("starting bookring server")

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// Router builds the full route table. Exposed separately so tests can
// drive the handlers through httptest without binding a port.
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()

	// Health check
	api.HandleFunc("/health", a.handleHealth).Methods("GET")

	// The borrow-lifecycle trigger endpoint
	api.HandleFunc("/trigger", a.withUser(a.handleTrigger)).Methods("POST")

	// User routes
	api.HandleFunc("/users", a.handleCreateUser).Methods("POST")
	api.HandleFunc("/users/{id}", a.handleGetUser).Methods("GET")
	api.HandleFunc("/users/{id}", a.handleUpdateUser).Methods("PUT")
	api.HandleFunc("/users/{id}", a.handleDeleteUser).Methods("DELETE")
	api.HandleFunc("/users/{id}/wishlists", a.handleListWishlists).Methods("GET")
	api.HandleFunc("/users/{id}/chats", a.handleListChatRefs).Methods("GET")

	// Book routes
	api.HandleFunc("/books", a.handleCreateBook).Methods("POST")
	api.HandleFunc("/books", a.handleListBooks).Methods("GET")
	api.HandleFunc("/books/{id}", a.handleGetBook).Methods("GET")
	api.HandleFunc("/books/{id}", a.handleUpdateBook).Methods("PUT")
	api.HandleFunc("/books/{id}", a.handleDeleteBook).Methods("DELETE")

	// Wishlist routes
	api.HandleFunc("/wishlists", a.withUser(a.handleCreateWishlist)).Methods("POST")
	api.HandleFunc("/wishlists", a.withUser(a.handleDeleteWishlist)).Methods("DELETE")
	api.HandleFunc("/wishlists/{id}", a.handleGetWishlist).Methods("GET")

	// Notification routes
	api.HandleFunc("/notifications", a.withUser(a.handleListNotifications)).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", a.handleMarkNotificationRead).Methods("PUT")

	// Chat routes
	api.HandleFunc("/chats/{pairId}", a.handleGetChatThread).Methods("GET")

	// Health check route (outside of /api prefix)
	router.HandleFunc("/health", a.handleHealth).Methods("GET")

	return router
}

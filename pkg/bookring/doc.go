// Package bookring is the application core of the book sharing
// service: a community catalog where members list their books, mark
// interest through wishlists, and move books between each other through
// a fixed borrow lifecycle.
//
// The lifecycle advances through five triggers posted to a single
// endpoint: a member requests a book, may cancel the request, the owner
// accepts or declines it, and the holder eventually asks to return it.
// Every trigger performs its primary store mutation first, then writes
// a notification for the affected party and, where the parties need to
// talk, bootstraps a chat thread between them. The secondary writes are
// best-effort and never fail the trigger.
//
// Storage is abstracted behind store.Store with PostgreSQL, SurrealDB,
// and in-memory implementations; the HTTP surface is a gorilla/mux
// route table exposed by Router.
package bookring

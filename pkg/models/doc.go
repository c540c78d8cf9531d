// Package models defines the domain entities of the lending network and
// the typed IDs that carry them across storage backends.
//
// Every entity key is a typed wrapper around a UUID with codecs for the
// three places an ID travels: JSON for the HTTP API, CBOR tag 8 for
// SurrealDB record IDs, and driver.Valuer/sql.Scanner for PostgreSQL.
// The one exception is ChatID, which is not a UUID but the commutative
// concatenation of the two participants' IDs, so both sides of a
// conversation address the same thread.
package models

package bookring

// Command represents a discrete application operation with its specific
// configuration. Each implementation carries the options for one CLI
// sub-command; Parse builds them from command-line arguments and Main
// dispatches on the concrete type.
type Command interface {
	// Name returns the command identifier used for routing.
	Name() string
}

// MigrateCommand initializes or updates the storage schema to match the
// current data model. For PostgreSQL this runs GORM's AutoMigrate; for
// SurrealDB it is a no-op since tables are created on first insert. Safe
// to run repeatedly.
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string {
	return "migrate"
}

// RunCommand starts the HTTP server: the trigger endpoint, entity CRUD,
// notification and chat reads. The server runs until the context is
// cancelled, then shuts down gracefully.
type RunCommand struct{}

func (c *RunCommand) Name() string {
	return "run"
}

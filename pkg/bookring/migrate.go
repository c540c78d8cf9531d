package bookring

import "context"

// Migrate applies schema migrations on the configured store.
func (a *App) Migrate(ctx context.Context, cmd *MigrateCommand) error {
	a.logger.Info().Str("backend", a.config.StoreBackend).Msg("running migrations")
	if err := a.store.Migrate(ctx); err != nil {
		return err
	}
	a.logger.Info().Msg("migrations complete")
	return nil
}

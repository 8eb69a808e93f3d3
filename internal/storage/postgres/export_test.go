package postgres

import "context"

// exec runs raw SQL for test setup and cleanup.
func (r *Repository) exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

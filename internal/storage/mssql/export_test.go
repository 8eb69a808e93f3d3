package mssql

import "context"

// exec runs raw SQL for test setup and cleanup.
func (r *Repository) exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

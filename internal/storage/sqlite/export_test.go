package sqlite

import (
	"context"
	"fmt"
)

// exec runs raw SQL for test setup.
func (r *Repository) exec(ctx context.Context, sqlText string) error {
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

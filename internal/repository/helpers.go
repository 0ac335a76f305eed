package repository

import (
	"database/sql"
	"strings"
)

// nullStr maps the empty string to a SQL NULL so optional columns stay NULL
// instead of accumulating empty strings.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullI64 and nullF64 do the same for optional numeric columns.
func nullI64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullF64(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// isDuplicate reports whether err is a MySQL duplicate-key error (1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// rollbackUnless is deferred by transactional methods; it rolls the
// transaction back when commit never happened.
func rollbackUnless(committed *bool, tx *sql.Tx) {
	if !*committed {
		_ = tx.Rollback()
	}
}

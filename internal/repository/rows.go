package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

func expectRows(result sql.Result, entity string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", entity, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// validID reports whether id can address a UUID key column. Callers treat a
// malformed id as a missing row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			out = append(out, id)
		}
	}
	return out
}

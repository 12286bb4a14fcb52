package store

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// StringSlice persists a []string as a comma-joined column, for the small
// tag lists (crop group membership) that don't warrant a join table.
type StringSlice []string

// Scan implements sql.Scanner.
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = splitNonEmpty(v)
	case []byte:
		*s = splitNonEmpty(string(v))
	default:
		return fmt.Errorf("store: cannot scan %T into StringSlice", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "", nil
	}
	return strings.Join(s, ","), nil
}

func splitNonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

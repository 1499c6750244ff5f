package db

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Placeholder renders the bind parameter for the 1-based argument position.
type Placeholder func(n int) string

// Dollar renders Postgres placeholders ($1, $2, ...).
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Question renders SQLite placeholders.
func Question(int) string { return "?" }

// SetColumn is one column assignment in an UPDATE. Cast, when set, is appended
// to the placeholder (for example "::numeric").
type SetColumn struct {
	Name string
	Cast string
}

// UpdateByKeySQL builds "UPDATE table SET a = $1, b = $2 WHERE key = $3". The
// key is bound after every SET column.
func UpdateByKeySQL(table string, cols []SetColumn, key string, ph Placeholder) (string, error) {
	if len(cols) == 0 {
		return "", eris.New("db: update: no columns specified")
	}

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = %s%s", quoteIdent(c.Name), ph(i+1), c.Cast)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		quoteIdent(table), strings.Join(sets, ", "), quoteIdent(key), ph(len(cols)+1)), nil
}

// quoteIdent double-quotes an identifier. Both Postgres and SQLite accept it.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

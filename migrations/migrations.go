// Package migrations embeds the schema for each storage driver.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Statements returns the migration files for driver in apply order
func Statements(driver string) ([]string, error) {
	names, err := fs.Glob(files, driver+"/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	stmts := make([]string, 0, len(names))
	for _, name := range names {
		data, err := files.ReadFile(name)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, string(data))
	}
	return stmts, nil
}

// Package migrations embeds the per-dialect SQL schema files into the binary.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// FS returns the migration directory for a store driver name
// ("postgres" or "sqlite3"), rooted so *.sql globs match directly.
func FS(driver string) (fs.FS, error) {
	switch driver {
	case "postgres":
		return fs.Sub(files, "postgres")
	case "sqlite3":
		return fs.Sub(files, "sqlite")
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
}

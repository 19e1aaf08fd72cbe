package relation

import (
	"fmt"
	"strings"
)

// Connection descriptor schemes. The scheme selects the database/sql
// driver; the remainder is passed to the driver as its DSN.
const (
	schemeSQLite = "sqlite://"
	schemeMySQL  = "mysql://"
)

// ParseConnect splits a connection descriptor into a database/sql driver
// name and its DSN. A bare path with no scheme is treated as a SQLite
// database file.
func ParseConnect(descriptor string) (driver string, dsn string, err error) {
	switch {
	case descriptor == "":
		return "", "", fmt.Errorf("empty connection descriptor")
	case strings.HasPrefix(descriptor, schemeSQLite):
		return "sqlite", strings.TrimPrefix(descriptor, schemeSQLite), nil
	case strings.HasPrefix(descriptor, schemeMySQL):
		return "mysql", strings.TrimPrefix(descriptor, schemeMySQL), nil
	case strings.Contains(descriptor, "://"):
		scheme := descriptor[:strings.Index(descriptor, "://")]
		return "", "", fmt.Errorf("unsupported connection scheme %q", scheme)
	default:
		return "sqlite", descriptor, nil
	}
}

package migrate

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// Kind is the closed set of failure classes a migration step can produce.
// The orchestrator decides abort-vs-continue by matching on Kind, never by
// searching error strings.
type Kind int

const (
	// KindTableExists is the only recoverable class: the destination
	// already has the table, so the run skips the DDL and keeps going.
	KindTableExists Kind = iota
	KindInvalidDefault
	KindTableNotFound
	KindAccessDenied
	KindPrivilegesRequired
	KindDriver
	KindUnexpected
)

// MySQL server error numbers surfaced by the driver.
const (
	errTableExists        = 1050
	errAccessDenied       = 1045
	errInvalidDefault     = 1067
	errTableNotFound      = 1146
	errPrivilegesRequired = 1227
)

// Classify maps an error from a migration step onto its failure class.
// Driver errors are recognized through their typed server error number;
// anything else is unexpected.
func Classify(err error) Kind {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return KindUnexpected
	}

	switch myErr.Number {
	case errTableExists:
		return KindTableExists
	case errInvalidDefault:
		return KindInvalidDefault
	case errTableNotFound:
		return KindTableNotFound
	case errAccessDenied:
		return KindAccessDenied
	case errPrivilegesRequired:
		return KindPrivilegesRequired
	default:
		return KindDriver
	}
}

// failure converts a classified error into a terminal Outcome. The
// underlying message is always embedded so the caller sees the server's
// own diagnostic.
func failure(err error) Outcome {
	var message string
	switch Classify(err) {
	case KindInvalidDefault:
		message = fmt.Sprintf("Migration failed: invalid default value detected. Error: %v", err)
	case KindTableNotFound:
		message = fmt.Sprintf("Migration failed: table not found. Error: %v", err)
	case KindAccessDenied:
		message = fmt.Sprintf("Migration failed: access denied. Please check permissions. Error: %v", err)
	case KindPrivilegesRequired:
		message = fmt.Sprintf("Migration failed: this operation requires elevated privileges. Please use a user with appropriate permissions. Error: %v", err)
	case KindUnexpected:
		message = fmt.Sprintf("Migration failed: unexpected error: %v", err)
	default:
		message = fmt.Sprintf("Migration failed: %v", err)
	}
	return Outcome{Success: false, Message: message}
}

// Package rewrite sanitizes MySQL CREATE TABLE statements so they can be
// replayed against a destination server with a different version or stricter
// SQL mode than the server that produced them.
package rewrite

import (
	"regexp"
	"strings"
)

var (
	definerRe = regexp.MustCompile("DEFINER=`[^`]+`@`[^`]+`")

	// Matches a single column definition for a temporal column, up to the
	// next comma or newline. `datetime` must come before `date` in the
	// alternation so the longer type name wins.
	temporalColRe = regexp.MustCompile("(?i)`(\\w+)`\\s+(datetime|timestamp|date)[^,\n]+")

	autoIncrementRe = regexp.MustCompile(`AUTO_INCREMENT=\d+ `)
)

// replacements are applied across the whole statement after the per-column
// pass. Each pattern is independent of the others.
var replacements = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`DEFAULT '0000-00-00 00:00:00'`), "DEFAULT NULL"},
	{regexp.MustCompile(`DEFAULT '0000-00-00'`), "DEFAULT NULL"},
	{regexp.MustCompile(`DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP`), "DEFAULT CURRENT_TIMESTAMP"},
	{regexp.MustCompile(`ON UPDATE CURRENT_TIMESTAMP`), ""},
	{regexp.MustCompile(`CHARACTER SET [a-zA-Z0-9_]+ `), ""},
	{regexp.MustCompile(`COLLATE [a-zA-Z0-9_]+ `), ""},
	{regexp.MustCompile(`DEFAULT b'0'`), "DEFAULT 0"},
	{regexp.MustCompile(`DEFAULT b'1'`), "DEFAULT 1"},
}

// Rewrite returns a copy of createStmt with the constructs that commonly
// break cross-server replays removed or normalized: DEFINER clauses,
// zero-date defaults, ON UPDATE CURRENT_TIMESTAMP, explicit character sets
// and collations, bit-literal boolean defaults, and AUTO_INCREMENT start
// values. Unmatched regions pass through unchanged; the function never
// fails and is idempotent.
func Rewrite(createStmt string) string {
	// The destination server will not have the source's principal.
	createStmt = definerRe.ReplaceAllString(createStmt, "")

	// Repair temporal columns whose definitions will be rejected under
	// strict mode before the global pattern pass runs.
	for _, match := range temporalColRe.FindAllStringSubmatch(createStmt, -1) {
		colDef, colName, colType := match[0], match[1], match[2]

		switch {
		case strings.Contains(colDef, "'0000-00-00"):
			// The all-zero sentinel date is an invalid default on
			// strict servers.
			newDef := "`" + colName + "` " + colType + " DEFAULT NULL"
			createStmt = strings.Replace(createStmt, colDef, newDef, 1)
		case strings.Contains(colDef, "CURRENT_TIMESTAMP") && strings.Contains(colDef, "ON UPDATE"):
			// Auto-update-on-modify semantics do not port; keep only
			// the default.
			newDef := "`" + colName + "` " + colType + " DEFAULT CURRENT_TIMESTAMP"
			createStmt = strings.Replace(createStmt, colDef, newDef, 1)
		}
	}

	for _, r := range replacements {
		createStmt = r.pattern.ReplaceAllString(createStmt, r.replacement)
	}

	// The destination assigns its own starting counter.
	createStmt = autoIncrementRe.ReplaceAllString(createStmt, "")

	return createStmt
}

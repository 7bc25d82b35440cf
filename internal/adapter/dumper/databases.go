package dumper

import "strings"

// Logger is the slice of the application logger the dumpers need.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

// systemSchemas are maintained by the server itself and never belong in a
// backup.
var systemSchemas = map[string]struct{}{
	"mysql":              {},
	"sys":                {},
	"performance_schema": {},
	"information_schema": {},
	"innodb":             {},
}

// filterSystemSchemas drops system schemas from a discovered database
// list. Names are folded to lower case before the lookup since the server
// may report them in either case depending on platform.
func filterSystemSchemas(names []string) []string {
	filtered := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := systemSchemas[strings.ToLower(name)]; ok {
			continue
		}
		filtered = append(filtered, name)
	}
	return filtered
}

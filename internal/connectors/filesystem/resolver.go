package filesystem

import (
	"path/filepath"
	"strings"
)

// LocalPath converts a stored document URI to a local path for opening.
// file:// URIs are stripped; bare paths are cleaned. Manually supplied
// text has no URI and yields "".
func LocalPath(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ""
	}
	uri = strings.TrimPrefix(uri, "file://")
	return filepath.Clean(uri)
}

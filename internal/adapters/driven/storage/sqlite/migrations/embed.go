// Package migrations embeds the SQLite schema scripts. Store applies every
// NNN_name.up.sql above the recorded schema version on open.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS

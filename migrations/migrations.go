// Package migrations embeds the SQL schema so binaries can apply it without
// shipping the directory alongside them.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS

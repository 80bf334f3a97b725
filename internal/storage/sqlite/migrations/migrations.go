// Package migrations embeds the save store schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Package migrations carries the postgres schema as embedded golang-migrate files.
package migrations

import "embed"

// FS holds every *.up.sql / *.down.sql pair, named NNNNNN_description.
//
//go:embed *.sql
var FS embed.FS

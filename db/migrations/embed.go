package migrations

import "embed"

// FS holds the goose SQL migrations so the binary does not depend on
// the working directory.
//
//go:embed *.sql
var FS embed.FS

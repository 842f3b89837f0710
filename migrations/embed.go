package migrations

import "embed"

// Files embeds the ordered SQL migrations for the Postgres store.
//
//go:embed *.sql
var Files embed.FS

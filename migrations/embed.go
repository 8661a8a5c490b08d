// Package migrations embeds the SQL schema migrations applied by the
// migrate command and at server start.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

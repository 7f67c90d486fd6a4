// Package schemas bundles the DDL of every store schema generation.
package schemas

import "embed"

//go:embed *.sql
var FS embed.FS

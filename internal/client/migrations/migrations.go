// Package migrations embeds the goose SQL migrations for the local store.
//
// The migration contract is additive only: a new schema version may create
// partitions (tables) but must never drop or alter existing ones, so an
// upgrade can never lose cached data.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

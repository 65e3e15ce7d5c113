// Package checker type-checks component scripts with the TypeScript
// compiler.
//
// esbuild strips types without checking them, so type errors and imports
// used only as types never reach the program build. A Checker runs the real
// compiler over the entry and reports what it finds as pre-emit
// diagnostics.
package checker

import (
	"context"

	"github.com/conneroisu/riotts/internal/errors"
)

// Origin names type-check diagnostics.
const Origin = "typecheck"

// Request describes one entry to check.
type Request struct {
	// EntryFileName is the virtual entry name, e.g. "todo.riot.ts".
	EntryFileName string
	// SourceText is the script buffer.
	SourceText string
	// SearchRoot is the absolute directory of the component; relative
	// imports of the entry are resolved from it.
	SearchRoot string
	// TSConfigPath is the project config the check extends. May be empty.
	TSConfigPath string
	// EntryFiles are the typings compiled before the entry.
	EntryFiles []string
}

// Checker is implemented by TSC and by test doubles.
type Checker interface {
	Check(ctx context.Context, req Request) ([]errors.Diagnostic, error)
}

package resolver

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/riotts/internal/tsconfig"
)

func TestStandardLookupNode(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys,
		"/proj/src/store.ts",
		"/proj/src/util/index.ts",
		"/proj/src/legacy.tsx",
		"/proj/src/shared/format.ts",
		"/proj/node_modules/riot/riot.d.ts",
		"/proj/node_modules/@types/lodash/index.d.ts",
		"/proj/node_modules/@types/scope__pkg/index.d.ts",
	)
	require.NoError(t, afero.WriteFile(fsys, "/proj/node_modules/riot/package.json", []byte(`{"types": "riot.d.ts", "main": "riot.js"}`), 0o644))

	lookup := NewStandardLookup(fsys, tsconfig.CompilerOptions{
		Module:  "commonjs",
		BaseURL: "/proj/src",
	})
	from := "/proj/src/app.riot.ts"

	tests := []struct {
		module   string
		want     string
		ext      string
		external bool
	}{
		{"./store", "/proj/src/store.ts", ".ts", false},
		{"./store.js", "/proj/src/store.ts", ".ts", false},
		{"./util", "/proj/src/util/index.ts", ".ts", false},
		{"./legacy", "/proj/src/legacy.tsx", ".tsx", false},
		{"shared/format", "/proj/src/shared/format.ts", ".ts", false},
		{"riot", "/proj/node_modules/riot/riot.d.ts", ".d.ts", true},
		{"lodash", "/proj/node_modules/@types/lodash/index.d.ts", ".d.ts", true},
		{"@scope/pkg", "/proj/node_modules/@types/scope__pkg/index.d.ts", ".d.ts", true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			m, ok := lookup.Lookup(tt.module, from)
			require.True(t, ok)
			assert.Equal(t, tt.want, m.ResolvedFileName)
			assert.Equal(t, tt.ext, m.Extension)
			assert.Equal(t, tt.external, m.IsExternalLibraryImport)
		})
	}
}

func TestStandardLookupDoesNotResolveTemplates(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/proj/src/todo.riot")

	lookup := NewStandardLookup(fsys, tsconfig.CompilerOptions{})
	_, ok := lookup.Lookup("./todo.riot", "/proj/src/app.riot.ts")
	assert.False(t, ok)
}

func TestStandardLookupAllowJS(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/proj/src/vendor.js")

	_, ok := NewStandardLookup(fsys, tsconfig.CompilerOptions{}).Lookup("./vendor", "/proj/src/a.ts")
	assert.False(t, ok)

	m, ok := NewStandardLookup(fsys, tsconfig.CompilerOptions{AllowJS: true}).Lookup("./vendor", "/proj/src/a.ts")
	require.True(t, ok)
	assert.Equal(t, "/proj/src/vendor.js", m.ResolvedFileName)
}

func TestStandardLookupClassic(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/proj/shared.d.ts", "/proj/src/client/local.ts", "/proj/src/client/dir/index.ts")

	lookup := NewStandardLookup(fsys, tsconfig.CompilerOptions{Module: "esnext"})
	from := "/proj/src/client/app.riot.ts"

	m, ok := lookup.Lookup("shared", from)
	require.True(t, ok)
	assert.Equal(t, "/proj/shared.d.ts", m.ResolvedFileName)

	m, ok = lookup.Lookup("./local", from)
	require.True(t, ok)
	assert.Equal(t, "/proj/src/client/local.ts", m.ResolvedFileName)

	// classic resolution never looks for directory index files
	_, ok = lookup.Lookup("./dir", from)
	assert.False(t, ok)
}

func TestResolverWithStandardLookup(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/proj/src/client/todo.riot", "/proj/src/client/store.ts")

	r := New(fsys, NewStandardLookup(fsys, tsconfig.CompilerOptions{}))
	from := "/proj/src/client/app.riot.ts"

	m, ok := r.Resolve("./store", from, "/proj/src/client")
	require.True(t, ok)
	assert.Equal(t, ".ts", m.Extension)

	m, ok = r.Resolve("./todo.riot", from, "/proj/src/client")
	require.True(t, ok)
	assert.Equal(t, ".riot", m.Extension)
	assert.Equal(t, "/proj/src/client/todo.riot", m.ResolvedFileName)
}

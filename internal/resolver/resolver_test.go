package resolver

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/riotts/internal/logging"
)

func touch(t *testing.T, fsys afero.Fs, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, afero.WriteFile(fsys, p, []byte("//"), 0o644))
	}
}

var never = LookupFunc(func(string, string) (ResolvedModule, bool) {
	return ResolvedModule{}, false
})

func TestResolveStandardLookupWins(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/src/client/widget.d.ts", "/lib/widget.ts")

	standard := LookupFunc(func(name, from string) (ResolvedModule, bool) {
		return ResolvedModule{ResolvedFileName: "/lib/widget.ts", Extension: ".ts"}, true
	})

	r := New(fsys, standard)
	m, ok := r.Resolve("./widget", "/src/client/app.riot.ts", "/src/client")
	require.True(t, ok)
	assert.Equal(t, "/lib/widget.ts", m.ResolvedFileName)
}

func TestFallbackPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		module  string
		wantExt string
		want    string
	}{
		{
			name:    "declaration beats implementation",
			files:   []string{"/root/widget.d.ts", "/root/widget.ts"},
			module:  "./widget",
			wantExt: ".d.ts",
			want:    "/root/widget.d.ts",
		},
		{
			name:    "implementation beats template",
			files:   []string{"/root/widget.ts", "/root/widget.riot"},
			module:  "./widget",
			wantExt: ".ts",
			want:    "/root/widget.ts",
		},
		{
			name:    "template with explicit extension",
			files:   []string{"/root/todo.riot"},
			module:  "./todo.riot",
			wantExt: ".riot",
			want:    "/root/todo.riot",
		},
		{
			name:    "nested directory",
			files:   []string{"/root/components/item.riot"},
			module:  "./components/item.riot",
			wantExt: ".riot",
			want:    "/root/components/item.riot",
		},
		{
			name:    "declaration named with its extension",
			files:   []string{"/root/globals.d.ts"},
			module:  "./globals.d.ts",
			wantExt: ".d.ts",
			want:    "/root/globals.d.ts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			touch(t, fsys, tt.files...)

			m, ok := New(fsys, never).Resolve(tt.module, "/elsewhere/app.riot.ts", "/root")
			require.True(t, ok)
			assert.Equal(t, tt.want, m.ResolvedFileName)
			assert.Equal(t, tt.wantExt, m.Extension)
			assert.False(t, m.IsExternalLibraryImport)
		})
	}
}

func TestFallbackIgnoresDirectories(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/root/widget.d.ts", 0o755))
	touch(t, fsys, "/root/widget.riot")

	m, ok := New(fsys, never).Fallback("./widget", "/root")
	require.True(t, ok)
	assert.Equal(t, ".riot", m.Extension)
}

func TestResolveMiss(t *testing.T) {
	fsys := afero.NewMemMapFs()
	_, ok := New(fsys, never).Resolve("./missing", "/root/a.ts", "/root")
	assert.False(t, ok)
}

func TestResolveTrace(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/root/todo.riot")

	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelInfo, Output: &buf})

	_, ok := New(fsys, never, WithTrace(logger)).Resolve("./todo.riot", "/root/app.ts", "/root")
	require.True(t, ok)
	assert.Contains(t, buf.String(), "resolved by fallback")
	assert.Contains(t, buf.String(), "component=resolver")

	buf.Reset()
	_, _ = New(fsys, never).Resolve("./todo.riot", "/root/app.ts", "/root")
	assert.Empty(t, buf.String())
}

func TestExtensionOf(t *testing.T) {
	assert.Equal(t, ".d.ts", ExtensionOf("/a/typings.d.ts"))
	assert.Equal(t, ".ts", ExtensionOf("/a/app.ts"))
	assert.Equal(t, ".riot", ExtensionOf("todo.riot"))
	assert.Equal(t, "", ExtensionOf("Makefile"))
}

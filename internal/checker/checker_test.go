package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/riotts/internal/errors"
)

const script = "import { Missing } from './nowhere'\nexport const n: number = 'x'\nexport const m: Missing | null = null\n"

func TestCheckWritesProjectAndParsesOutput(t *testing.T) {
	fsys := afero.NewMemMapFs()
	root := filepath.FromSlash("/proj/src/components")
	entry := filepath.Join(root, tempPrefix+"todo.riot.ts")
	project := entry + ".json"

	var gotDir, gotName string
	var gotArgs []string
	var doc struct {
		Extends string   `json:"extends"`
		Files   []string `json:"files"`
		Include []string `json:"include"`
	}
	runner := func(_ context.Context, dir, name string, args []string) ([]byte, error) {
		gotDir, gotName, gotArgs = dir, name, args

		source, err := afero.ReadFile(fsys, entry)
		require.NoError(t, err)
		assert.Equal(t, script, string(source))

		data, err := afero.ReadFile(fsys, project)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &doc))

		out := fmt.Sprintf("%s(1,25): error TS2307: Cannot find module './nowhere' or its corresponding type declarations.\n", tempPrefix+"todo.riot.ts") +
			fmt.Sprintf("%s(2,14): error TS2322: Type 'string' is not assignable to type 'number'.\n", tempPrefix+"todo.riot.ts") +
			"../client/typings.d.ts(3,1): warning TS6133: 'x' is declared but its value is never read.\n" +
			"  Additional context.\n"
		return []byte(out), fmt.Errorf("exit status 2")
	}

	tsc, err := NewTSC("tsc", WithFs(fsys), WithRunner(runner))
	require.NoError(t, err)

	diags, err := tsc.Check(context.Background(), Request{
		EntryFileName: "todo.riot.ts",
		SourceText:    script,
		SearchRoot:    root,
		TSConfigPath:  filepath.FromSlash("/proj/src/tsconfig.json"),
		EntryFiles:    []string{filepath.FromSlash("/proj/src/client/typings.d.ts")},
	})
	require.NoError(t, err)

	assert.Equal(t, root, gotDir)
	assert.Equal(t, "tsc", gotName)
	assert.Equal(t, []string{"--noEmit", "--pretty", "false", "-p", project}, gotArgs)
	assert.Equal(t, "/proj/src/tsconfig.json", doc.Extends)
	assert.Equal(t, []string{"/proj/src/client/typings.d.ts", filepath.ToSlash(entry)}, doc.Files)
	assert.Empty(t, doc.Include)

	require.Len(t, diags, 3)
	assert.Equal(t, "todo.riot.ts", diags[0].File)
	assert.Equal(t, 1, diags[0].Line)
	assert.Equal(t, 24, diags[0].Column)
	assert.Contains(t, diags[0].Message, "Cannot find module './nowhere'")
	assert.Contains(t, diags[0].Message, "[TS2307]")
	assert.Equal(t, "import { Missing } from './nowhere'", diags[0].LineText)

	assert.Equal(t, errors.SeverityError, diags[1].Severity)
	assert.Equal(t, errors.PhasePreEmit, diags[1].Phase)
	assert.Equal(t, Origin, diags[1].Origin)
	assert.Equal(t, "export const n: number = 'x'", diags[1].LineText)

	assert.Equal(t, errors.SeverityWarning, diags[2].Severity)
	assert.Equal(t, "../client/typings.d.ts", diags[2].File)
	assert.Empty(t, diags[2].LineText)
	assert.Equal(t, []string{"Additional context."}, diags[2].Notes)

	exists, _ := afero.Exists(fsys, entry)
	assert.False(t, exists, "check entry must be removed")
	exists, _ = afero.Exists(fsys, project)
	assert.False(t, exists, "check project must be removed")
}

func TestCheckClean(t *testing.T) {
	runner := func(context.Context, string, string, []string) ([]byte, error) {
		return nil, nil
	}
	tsc, err := NewTSC("npx", WithFs(afero.NewMemMapFs()), WithRunner(runner))
	require.NoError(t, err)
	assert.Equal(t, []string{"tsc", "--noEmit", "--pretty", "false", "-p", "p.json"}, tsc.Args("p.json"))

	diags, err := tsc.Check(context.Background(), Request{
		EntryFileName: "a.riot.ts",
		SourceText:    "export const a = 1\n",
		SearchRoot:    filepath.FromSlash("/proj"),
	})
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestCheckCrash(t *testing.T) {
	runner := func(context.Context, string, string, []string) ([]byte, error) {
		return nil, fmt.Errorf("executable file not found in $PATH")
	}
	tsc, err := NewTSC("tsc", WithFs(afero.NewMemMapFs()), WithRunner(runner))
	require.NoError(t, err)

	_, err = tsc.Check(context.Background(), Request{
		EntryFileName: "a.riot.ts",
		SearchRoot:    filepath.FromSlash("/proj"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), errors.ErrCodeCheckerCrashed)
}

func TestCheckRejectsRelativeRoot(t *testing.T) {
	tsc, err := NewTSC("tsc", WithFs(afero.NewMemMapFs()))
	require.NoError(t, err)
	_, err = tsc.Check(context.Background(), Request{EntryFileName: "a.riot.ts", SearchRoot: "src"})
	assert.Error(t, err)
}

func TestNewTSCRejectsUnknownCommand(t *testing.T) {
	_, err := NewTSC("sh -c tsc")
	require.Error(t, err)
	assert.True(t, errors.IsSecurityError(err))

	_, err = NewTSC("node")
	assert.True(t, errors.IsSecurityError(err))
}

func TestParseGlobalDiagnostic(t *testing.T) {
	diags := Parse("error TS5083: Cannot read file '/proj/tsconfig.json'.\n", "/proj", "/proj/x.ts", "x.ts", "")
	require.Len(t, diags, 1)
	assert.Empty(t, diags[0].File)
	assert.Contains(t, diags[0].Message, "TS5083")
}

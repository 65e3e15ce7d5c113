package preprocessor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/riotts/internal/compiler"
	"github.com/conneroisu/riotts/internal/component"
	rterrors "github.com/conneroisu/riotts/internal/errors"
	"github.com/conneroisu/riotts/internal/lint"
)

type spyLinter struct {
	report *lint.Report
	err    error
	calls  int
	source string
	file   string
}

func (s *spyLinter) Lint(_ context.Context, source, file string) (*lint.Report, error) {
	s.calls++
	s.source, s.file = source, file
	if s.report == nil {
		return &lint.Report{}, s.err
	}
	return s.report, s.err
}

type spyCompiler struct {
	result *compiler.Result
	calls  int
	req    compiler.Request
}

func (s *spyCompiler) Compile(_ context.Context, req compiler.Request) (*compiler.Result, error) {
	s.calls++
	s.req = req
	if s.result == nil {
		return &compiler.Result{Code: "code", Map: "{}"}, nil
	}
	return s.result, nil
}

// registration captures what Init registers.
type registration struct {
	calls   int
	tag     string
	ext     string
	handler component.Handler
}

func (r *registration) register(tag, ext string, h component.Handler) {
	r.calls++
	r.tag, r.ext, r.handler = tag, ext, h
}

func memProject(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/.eslintrc", []byte(`{"rules": {"no-debugger": "error"}}`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/work/src/tsconfig.json", []byte(`{"compilerOptions": {"target": "es2017"}}`), 0o644))
	return fs
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.WithDefaults("/work")

	assert.Equal(t, filepath.FromSlash("/work/.eslintrc"), opts.ESLintConfigPath)
	assert.Equal(t, filepath.FromSlash("/work/src"), opts.SourcePath)
	assert.Equal(t, filepath.FromSlash("/work/src/client/typings.d.ts"), opts.RiotTypingsPath)
	assert.Equal(t, filepath.FromSlash("/work/src/tsconfig.json"), opts.TSConfigPath)
	assert.Equal(t, []string{}, opts.AdditionalTypings)
	assert.False(t, opts.DisableCustomResolver)
	assert.False(t, opts.LogModuleResolution)
	assert.Equal(t, lint.EngineESLint, opts.LintEngine)
	assert.Equal(t, "eslint", opts.ESLintCommand)
	assert.False(t, opts.TypeCheck)
	assert.Equal(t, "tsc", opts.TSCCommand)
}

func TestOptionsRelativePathsResolveAgainstWorkingDir(t *testing.T) {
	opts := Options{
		SourcePath:        "web",
		ESLintConfigPath:  "cfg/.eslintrc",
		AdditionalTypings: []string{"types/extra.d.ts", "/abs.d.ts"},
		TSConfigPath:      "tsconfig.app.json",
	}.WithDefaults("/work")

	assert.Equal(t, filepath.FromSlash("/work/web"), opts.SourcePath)
	assert.Equal(t, filepath.FromSlash("/work/cfg/.eslintrc"), opts.ESLintConfigPath)
	assert.Equal(t, filepath.FromSlash("/work/web/client/typings.d.ts"), opts.RiotTypingsPath)
	assert.Equal(t, filepath.FromSlash("/work/tsconfig.app.json"), opts.TSConfigPath)
	assert.Equal(t, []string{filepath.FromSlash("/work/types/extra.d.ts"), "/abs.d.ts"}, opts.AdditionalTypings)

	opts = Options{RiotTypingsPath: "typings/riot.d.ts"}.WithDefaults("/work")
	assert.Equal(t, filepath.FromSlash("/work/typings/riot.d.ts"), opts.RiotTypingsPath)
}

func TestOptionsSuppliedValuesWin(t *testing.T) {
	opts := Options{
		SourcePath:        "/elsewhere",
		ESLintConfigPath:  "/cfg/lint.json",
		AdditionalTypings: []string{"/a.d.ts"},
	}.WithDefaults("/work")

	assert.Equal(t, "/cfg/lint.json", opts.ESLintConfigPath)
	assert.Equal(t, "/elsewhere", opts.SourcePath)
	assert.Equal(t, filepath.FromSlash("/elsewhere/client/typings.d.ts"), opts.RiotTypingsPath)
	assert.Equal(t, filepath.FromSlash("/elsewhere/tsconfig.json"), opts.TSConfigPath)
	assert.Equal(t, []string{filepath.FromSlash("/elsewhere/client/typings.d.ts"), "/a.d.ts"}, opts.Typings())
}

func TestInitRegistersOnce(t *testing.T) {
	var reg registration
	p, err := Init(reg.register, Options{}, WithFs(memProject(t)), WithWorkingDir("/work"), WithCompiler(&spyCompiler{}))
	require.NoError(t, err)

	assert.Equal(t, 1, reg.calls)
	assert.Equal(t, "javascript", reg.tag)
	assert.Equal(t, "ts", reg.ext)
	require.NotNil(t, reg.handler)
	assert.Equal(t, filepath.FromSlash("/work/src"), p.Options().SourcePath)
}

func TestInitTypeCheck(t *testing.T) {
	var reg registration
	_, err := Init(reg.register, Options{TypeCheck: true, TSCCommand: "rm -rf /"},
		WithFs(memProject(t)), WithWorkingDir("/work"), WithLinter(&spyLinter{}))
	require.Error(t, err)
	assert.True(t, rterrors.IsConfigError(err))
	assert.Equal(t, 0, reg.calls)

	_, err = Init(reg.register, Options{TypeCheck: true},
		WithFs(memProject(t)), WithWorkingDir("/work"), WithLinter(&spyLinter{}))
	require.NoError(t, err)
	assert.Equal(t, 1, reg.calls)
}

func TestInitESLintEngineNeedsConfigFile(t *testing.T) {
	var reg registration
	_, err := Init(reg.register, Options{}, WithFs(afero.NewMemMapFs()), WithWorkingDir("/work"))
	require.Error(t, err)
	assert.True(t, rterrors.IsConfigError(err))

	fs := memProject(t)
	require.NoError(t, afero.WriteFile(fs, "/work/eslint.config.js", []byte("export default []\n"), 0o644))
	p, err := Init(reg.register, Options{ESLintConfigPath: "eslint.config.js"}, WithFs(fs), WithWorkingDir("/work"))
	require.NoError(t, err)
	assert.Equal(t, lint.EngineESLint, p.Options().LintEngine)
	assert.Equal(t, filepath.FromSlash("/work/eslint.config.js"), p.Options().ESLintConfigPath)
}

func TestInitConfigErrors(t *testing.T) {
	var reg registration

	builtin := Options{LintEngine: lint.EngineBuiltin}
	_, err := Init(reg.register, builtin, WithFs(afero.NewMemMapFs()), WithWorkingDir("/work"))
	require.Error(t, err)
	assert.True(t, rterrors.IsConfigError(err))

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/.eslintrc", []byte(`{}`), 0o644))
	_, err = Init(reg.register, builtin, WithFs(fs), WithWorkingDir("/work"))
	require.Error(t, err)
	assert.True(t, rterrors.IsConfigError(err))

	assert.Equal(t, 0, reg.calls)
}

func TestHandlerLintFailureSkipsCompile(t *testing.T) {
	linter := &spyLinter{report: &lint.Report{
		Results: []lint.Result{{
			FilePath:     "/work/src/todo.riot",
			Messages:     []lint.Message{{RuleID: "no-debugger", Severity: 2, Message: "Unexpected 'debugger' statement.", Line: 1, Column: 1}},
			ErrorCount:   1,
			WarningCount: 1,
		}},
		ErrorCount:   1,
		WarningCount: 1,
	}}
	comp := &spyCompiler{}
	var out bytes.Buffer

	var reg registration
	_, err := Init(reg.register, Options{},
		WithFs(memProject(t)), WithWorkingDir("/work"),
		WithLinter(linter), WithCompiler(comp), WithReportWriter(&out))
	require.NoError(t, err)

	_, err = reg.handler(context.Background(), "    debugger\n", component.Meta{File: "/work/src/todo.riot"})
	require.Error(t, err)

	assert.Equal(t, 0, comp.calls)
	assert.True(t, rterrors.IsLintFailure(err))
	assert.Contains(t, err.Error(), "Linting reports 1 errors and 1 warnings in Riot components.")
	assert.Contains(t, out.String(), "no-debugger")
	assert.Equal(t, "debugger\n", linter.source)
	assert.Equal(t, "/work/src/todo.riot", linter.file)
}

func TestHandlerWarningsAreFatal(t *testing.T) {
	linter := &spyLinter{report: &lint.Report{WarningCount: 1}}
	comp := &spyCompiler{}

	var reg registration
	_, err := Init(reg.register, Options{}, WithFs(memProject(t)), WithWorkingDir("/work"),
		WithLinter(linter), WithCompiler(comp), WithReportWriter(&bytes.Buffer{}))
	require.NoError(t, err)

	_, err = reg.handler(context.Background(), "x", component.Meta{File: "/work/src/a.riot"})
	assert.True(t, rterrors.IsLintFailure(err))
	assert.Equal(t, 0, comp.calls)
}

func TestHandlerLinterCrash(t *testing.T) {
	linter := &spyLinter{err: errors.New("eslint exploded")}
	comp := &spyCompiler{}

	var reg registration
	_, err := Init(reg.register, Options{}, WithFs(memProject(t)), WithWorkingDir("/work"),
		WithLinter(linter), WithCompiler(comp))
	require.NoError(t, err)

	_, err = reg.handler(context.Background(), "x", component.Meta{File: "/work/src/a.riot"})
	require.Error(t, err)
	assert.False(t, rterrors.IsLintFailure(err))
	assert.Equal(t, 0, comp.calls)
}

func TestHandlerCompileRequest(t *testing.T) {
	comp := &spyCompiler{}

	var reg registration
	_, err := Init(reg.register, Options{AdditionalTypings: []string{"/types/extra.d.ts"}, DisableCustomResolver: true},
		WithFs(memProject(t)), WithWorkingDir("/work"),
		WithLinter(&spyLinter{}), WithCompiler(comp))
	require.NoError(t, err)

	source := "  export default {}\n"
	out, err := reg.handler(context.Background(), source, component.Meta{File: "/work/src/todo/todo.riot"})
	require.NoError(t, err)

	assert.Equal(t, &component.Output{Code: "code", Map: "{}"}, out)
	assert.Equal(t, 1, comp.calls)
	assert.Equal(t, "todo.riot.ts", comp.req.EntryFileName)
	assert.Equal(t, source, comp.req.SourceText)
	assert.Equal(t, filepath.FromSlash("/work/src/todo"), comp.req.SearchRoot)
	assert.True(t, comp.req.DisableCustomResolver)
	assert.Equal(t, []string{filepath.FromSlash("/work/src/client/typings.d.ts"), "/types/extra.d.ts"}, comp.req.EntryFiles)
	require.NotNil(t, comp.req.Options)
	assert.Equal(t, "es2017", comp.req.Options.CompilerOptions.Target)
}

func TestHandlerCompileFailure(t *testing.T) {
	comp := &spyCompiler{result: &compiler.Result{Diagnostics: []rterrors.Diagnostic{{}, {}}}}

	var reg registration
	_, err := Init(reg.register, Options{}, WithFs(memProject(t)), WithWorkingDir("/work"),
		WithLinter(&spyLinter{}), WithCompiler(comp))
	require.NoError(t, err)

	_, err = reg.handler(context.Background(), "x", component.Meta{File: "/work/src/a.riot"})
	require.Error(t, err)
	assert.True(t, rterrors.IsCompileFailure(err))
	assert.Contains(t, err.Error(), "TypeScript compiler reports 2 errors in Riot Components.")
}

func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write(".eslintrc", `{"rules": {"no-debugger": "error", "no-var": "warn"}}`)
	write("src/tsconfig.json", `{"compilerOptions": {"target": "es2019"}}`)
	write("src/client/typings.d.ts", "declare module '*.riot' { const c: any; export default c }\n")
	write("src/child.riot", "<child></child>\n")

	registry := component.NewRegistry()
	var report bytes.Buffer
	_, err := Init(registry.Register, Options{LintEngine: lint.EngineBuiltin}, WithWorkingDir(dir), WithReportWriter(&report))
	require.NoError(t, err)

	processor := component.NewProcessor(registry)
	content := `<parent>
  <child />
  <script lang="ts">
    import Child from "./child"

    export default {
      components: { Child },
      count: 0 as number,
    }
  </script>
</parent>
`
	result, err := processor.Process(context.Background(), filepath.Join(dir, "src", "parent.riot"), content)
	require.NoError(t, err, report.String())
	assert.Contains(t, result.Code, "./child")
	assert.NotContains(t, result.Code, "as number")
	assert.Contains(t, result.Map, "parent.riot.ts")

	_, err = processor.Process(context.Background(), filepath.Join(dir, "src", "bad.riot"),
		"<bad><script lang=\"ts\">\n  var x = 1\n  export default { x }\n</script></bad>")
	require.Error(t, err)
	assert.True(t, rterrors.IsLintFailure(err))
	assert.Contains(t, report.String(), "no-var")
}

func TestEndToEndRelativeSourcePath(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write(".eslintrc", `{"rules": {"no-debugger": "error"}}`)
	write("src/tsconfig.json", `{"compilerOptions": {"target": "es2019"}}`)
	write("src/client/typings.d.ts", "declare module '*.riot' { const c: any; export default c }\n")
	write("src/components/item.riot", "<item></item>\n")

	registry := component.NewRegistry()
	var report bytes.Buffer
	p, err := Init(registry.Register, Options{SourcePath: "src", LintEngine: lint.EngineBuiltin},
		WithWorkingDir(dir), WithReportWriter(&report))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src", "client", "typings.d.ts"), p.Options().RiotTypingsPath)

	processor := component.NewProcessor(registry)
	content := `<todo>
  <script lang="ts">
    import Item from "./item.riot"

    export default {
      components: { Item },
    }
  </script>
</todo>
`
	result, err := processor.Process(context.Background(), filepath.Join(dir, "src", "components", "todo.riot"), content)
	require.NoError(t, err, report.String())
	assert.Contains(t, result.Code, "export default {")
}

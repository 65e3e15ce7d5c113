package lint

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rterrors "github.com/conneroisu/riotts/internal/errors"
)

func mustConfig(t *testing.T, doc string) *Config {
	t.Helper()
	cfg, err := ParseConfig([]byte(doc))
	require.NoError(t, err)
	return cfg
}

func lintText(t *testing.T, doc, text string) *Report {
	t.Helper()
	l, err := New(EngineBuiltin, mustConfig(t, doc))
	require.NoError(t, err)
	report, err := l.Lint(context.Background(), text, "/src/todo.riot")
	require.NoError(t, err)
	return report
}

func TestStripIndent(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"no indent", "a\nb", "a\nb"},
		{"common indent", "    a\n      b\n    c", "a\n  b\nc"},
		{"blank lines ignored", "\n    a\n\n    b\n", "\na\n\nb\n"},
		{"tabs", "\t\ta\n\t\tb", "a\nb"},
		{"empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, StripIndent(tc.input))
		})
	}
}

func TestParseConfig(t *testing.T) {
	cfg := mustConfig(t, `{
		// comments are fine
		"extends": "eslint:recommended",
		"rules": {
			"no-debugger": "error",
			"no-console": 1,
			"max-len": ["warn", 100],
			"no-var": "off",
		},
	}`)

	assert.Equal(t, SeverityError, cfg.Rules["no-debugger"].Severity)
	assert.Equal(t, SeverityWarn, cfg.Rules["no-console"].Severity)
	assert.Equal(t, []interface{}{float64(100)}, cfg.Rules["max-len"].Options)
	assert.Equal(t, []string{"max-len", "no-console", "no-debugger"}, cfg.Enabled())
}

func TestParseConfigRejectsBadSeverity(t *testing.T) {
	_, err := ParseConfig([]byte(`{"rules": {"semi": "loud"}}`))
	require.Error(t, err)

	_, err = ParseConfig([]byte(`{"rules": {"semi": []}}`))
	require.Error(t, err)

	_, err = ParseConfig([]byte(`{"rules": {"semi": 3}}`))
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/.eslintrc", []byte(`{"rules": {"no-debugger": 2}}`), 0o644))

	cfg, err := LoadConfig(fs, "/proj/.eslintrc")
	require.NoError(t, err)
	assert.Equal(t, "/proj/.eslintrc", cfg.Path)
	assert.Equal(t, SeverityError, cfg.Rules["no-debugger"].Severity)

	_, err = LoadConfig(fs, "/proj/missing")
	require.Error(t, err)
	assert.True(t, rterrors.IsConfigError(err))
}

func TestMaskKeepsPositions(t *testing.T) {
	src := "const a = 'debugger' // debugger\n/* console.log */ let b = \"x\"\n"
	masked, literals := mask(src)

	assert.Len(t, masked, len(src))
	assert.NotContains(t, masked, "debugger")
	assert.NotContains(t, masked, "console")
	assert.Contains(t, masked, "let b")
	require.Len(t, literals, 2)
	assert.Equal(t, literal{Line: 1, Column: 11, Quote: '\'', Body: "debugger"}, literals[0])
	assert.Equal(t, 2, literals[1].Line)
}

func TestBuiltinRules(t *testing.T) {
	testCases := []struct {
		name    string
		rules   string
		text    string
		rule    string
		line    int
		column  int
		message string
	}{
		{"debugger", `{"no-debugger": 2}`, "const a = 1\n  debugger\n", "no-debugger", 2, 3, "Unexpected 'debugger' statement."},
		{"console", `{"no-console": 2}`, "console.log(1)\n", "no-console", 1, 1, "Unexpected console statement."},
		{"var", `{"no-var": 2}`, "var x = 1\n", "no-var", 1, 1, "Unexpected var, use let or const instead."},
		{"alert", `{"no-alert": 2}`, "if (x) alert('hi')\n", "no-alert", 1, 8, "Unexpected alert."},
		{"eqeqeq", `{"eqeqeq": 2}`, "if (a == b) {}\n", "eqeqeq", 1, 7, "Expected '===' and instead saw '=='."},
		{"not equal", `{"eqeqeq": 2}`, "if (a != b) {}\n", "eqeqeq", 1, 7, "Expected '!==' and instead saw '!='."},
		{"trailing spaces", `{"no-trailing-spaces": 2}`, "const a = 1  \n", "no-trailing-spaces", 1, 12, "Trailing spaces not allowed."},
		{"tabs", `{"no-tabs": 2}`, "\tconst a = 1\n", "no-tabs", 1, 1, "Unexpected tab character."},
		{"max-len", `{"max-len": [2, 10]}`, "const abc = 12345\n", "max-len", 1, 1, "This line has a length of 17. Maximum allowed is 10."},
		{"semi always", `{"semi": [2, "always"]}`, "const a = 1\n", "semi", 1, 12, "Missing semicolon."},
		{"semi never", `{"semi": [2, "never"]}`, "const a = 1;\n", "semi", 1, 12, "Extra semicolon."},
		{"quotes", `{"quotes": [2, "single"]}`, "const a = \"x\"\n", "quotes", 1, 11, "Strings must use singlequote."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			report := lintText(t, `{"rules": `+tc.rules+`}`, tc.text)
			require.Equal(t, 1, report.ErrorCount, "%+v", report.Results)
			assert.Equal(t, 0, report.WarningCount)
			assert.True(t, report.Failed())

			m := report.Results[0].Messages[0]
			assert.Equal(t, tc.rule, m.RuleID)
			assert.Equal(t, tc.line, m.Line)
			assert.Equal(t, tc.column, m.Column)
			assert.Equal(t, tc.message, m.Message)
		})
	}
}

func TestBuiltinRulesIgnoreStringsAndComments(t *testing.T) {
	text := strings.Join([]string{
		`const a = "debugger == console.log"`,
		`// var x = alert(1)`,
		`/* debugger */`,
		"const t = `a == b`",
		`if (a === b && c !== d && e <= f && g >= h) {}`,
		`obj.alert(1)`,
	}, "\n")

	report := lintText(t, `{"rules": {"no-debugger": 2, "no-console": 2, "no-var": 2, "eqeqeq": 2, "no-alert": 2}}`, text)
	assert.False(t, report.Failed(), "%+v", report.Results)
}

func TestBuiltinSeverities(t *testing.T) {
	report := lintText(t, `{"rules": {"no-debugger": "warn", "no-var": "off"}}`, "var a = 1\ndebugger\n")
	assert.Equal(t, 0, report.ErrorCount)
	assert.Equal(t, 1, report.WarningCount)
	assert.True(t, report.Failed())
}

func TestBuiltinUnknownRulesAreIgnored(t *testing.T) {
	report := lintText(t, `{"rules": {"@typescript-eslint/no-explicit-any": "error"}}`, "let a: any = 1\n")
	assert.False(t, report.Failed())
	assert.Empty(t, report.Results[0].Messages)
}

func TestSemiContinuation(t *testing.T) {
	text := "const a = foo\n  .bar()\nconst b = {\n  c: 1,\n};\nreturn\n"
	report := lintText(t, `{"rules": {"semi": "error"}}`, text)
	require.Equal(t, 1, report.ErrorCount, "%+v", report.Results)
	assert.Equal(t, 6, report.Results[0].Messages[0].Line)
}

func TestMessagesSortedByPosition(t *testing.T) {
	report := lintText(t, `{"rules": {"no-var": 2, "no-debugger": 2}}`, "debugger\nvar a = 1\n")
	msgs := report.Results[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "no-debugger", msgs[0].RuleID)
	assert.Equal(t, "no-var", msgs[1].RuleID)
}

func TestNewUnknownEngine(t *testing.T) {
	_, err := New("jslint", nil)
	require.Error(t, err)
	assert.True(t, rterrors.IsConfigError(err))
	assert.Equal(t, "jslint", rterrors.GetErrorContext(err)["engine"])
}

func TestESLintEngine(t *testing.T) {
	var gotName string
	var gotArgs []string
	var gotStdin string
	runner := func(_ context.Context, name string, args []string, stdin string) ([]byte, error) {
		gotName, gotArgs, gotStdin = name, args, stdin
		return []byte(`[{"filePath":"/src/todo.riot","messages":[{"ruleId":"no-debugger","severity":2,"message":"Unexpected 'debugger' statement.","line":1,"column":1}],"errorCount":1,"warningCount":0}]`),
			errors.New("exit status 1")
	}

	l, err := New(EngineESLint, &Config{Path: "/proj/.eslintrc"}, WithRunner(runner))
	require.NoError(t, err)

	report, err := l.Lint(context.Background(), "debugger\n", "/src/todo.riot")
	require.NoError(t, err)
	assert.Equal(t, 1, report.ErrorCount)
	assert.Equal(t, "eslint", gotName)
	assert.Equal(t, "debugger\n", gotStdin)
	assert.Equal(t, []string{"--stdin", "--stdin-filename", "/src/todo.riot", "--format", "json", "--no-eslintrc", "-c", "/proj/.eslintrc"}, gotArgs)
}

func TestESLintEngineNpx(t *testing.T) {
	e, err := NewESLint("", "npx", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"eslint", "--stdin", "--stdin-filename", "a.riot", "--format", "json"}, e.Args("a.riot"))
}

func TestESLintEngineFlatConfig(t *testing.T) {
	e, err := NewESLint("/proj/eslint.config.mjs", "eslint", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"--stdin", "--stdin-filename", "a.riot", "--format", "json", "-c", "/proj/eslint.config.mjs"}, e.Args("a.riot"))
	assert.NotContains(t, e.Args("a.riot"), "--no-eslintrc")

	assert.True(t, IsFlatConfig("/proj/eslint.config.js"))
	assert.False(t, IsFlatConfig("/proj/.eslintrc.json"))
}

func TestLoadEngineConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/eslint.config.js", []byte("export default [];\n"), 0o644))

	cfg, err := LoadEngineConfig(fs, EngineESLint, "/proj/eslint.config.js")
	require.NoError(t, err)
	assert.Equal(t, "/proj/eslint.config.js", cfg.Path)
	assert.Empty(t, cfg.Rules)

	_, err = LoadEngineConfig(fs, EngineBuiltin, "/proj/eslint.config.js")
	require.Error(t, err, "the builtin engine only reads eslintrc JSON")

	_, err = LoadEngineConfig(fs, EngineESLint, "/proj/.eslintrc")
	require.Error(t, err)
	assert.True(t, rterrors.IsConfigError(err))
}

func TestESLintEngineRejectsUnsafeInput(t *testing.T) {
	_, err := NewESLint("", "rm", nil, nil)
	require.Error(t, err)
	assert.True(t, rterrors.IsSecurityError(err))

	_, err = NewESLint("/tmp/x;rm -rf /", "eslint", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), rterrors.ErrCodeInvalidPath)
	assert.Contains(t, rterrors.GetErrorContext(err), "reason")

	e, err := NewESLint("", "eslint", func(context.Context, string, []string, string) ([]byte, error) {
		t.Fatal("runner must not be called")
		return nil, nil
	}, nil)
	require.NoError(t, err)
	_, err = e.Lint(context.Background(), "", "a.riot|cat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid path: a.riot|cat")
}

func TestESLintEngineCrash(t *testing.T) {
	runner := func(context.Context, string, []string, string) ([]byte, error) {
		return nil, errors.New("exit status 2: Oops! Something went wrong!")
	}
	l, err := New(EngineESLint, nil, WithRunner(runner))
	require.NoError(t, err)

	_, err = l.Lint(context.Background(), "x", "a.riot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eslint did not produce a report")
}

func TestStylishFormat(t *testing.T) {
	results := []Result{
		{FilePath: "/src/clean.riot"},
		{
			FilePath: "/src/todo.riot",
			Messages: []Message{
				{RuleID: "no-debugger", Severity: 2, Message: "Unexpected 'debugger' statement.", Line: 3, Column: 5},
				{RuleID: "max-len", Severity: 1, Message: "Too long.", Line: 12, Column: 1},
			},
			ErrorCount:   1,
			WarningCount: 1,
		},
	}

	out := NewStylish(false).Format(results)
	assert.NotContains(t, out, "clean.riot")
	assert.Contains(t, out, "/src/todo.riot\n")
	assert.Contains(t, out, "  3:5   error    Unexpected 'debugger' statement  no-debugger\n")
	assert.Contains(t, out, "  12:1  warning  Too long                         max-len\n")
	assert.Contains(t, out, "✖ 2 problems (1 error, 1 warning)")

	assert.Empty(t, NewStylish(false).Format([]Result{{FilePath: "a"}}))
}

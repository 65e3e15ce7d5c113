package compiler

import (
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/conneroisu/riotts/internal/resolver"
	"github.com/conneroisu/riotts/internal/tsconfig"
)

// forwardedOptions are the compilerOptions that change how a single file is
// transpiled. Module resolution options are handled by the host instead.
var forwardedOptions = []string{
	"alwaysStrict",
	"experimentalDecorators",
	"importsNotUsedAsValues",
	"jsx",
	"jsxFactory",
	"jsxFragmentFactory",
	"jsxImportSource",
	"preserveValueImports",
	"strict",
	"useDefineForClassFields",
	"verbatimModuleSyntax",
}

func targetFor(opts tsconfig.CompilerOptions) api.Target {
	switch strings.ToLower(opts.Target) {
	case "es3", "es5":
		return api.ES5
	case "es6", "es2015":
		return api.ES2015
	case "es2016":
		return api.ES2016
	case "es2017":
		return api.ES2017
	case "es2018":
		return api.ES2018
	case "es2019":
		return api.ES2019
	case "es2020":
		return api.ES2020
	case "es2021":
		return api.ES2021
	case "es2022":
		return api.ES2022
	default:
		return api.ESNext
	}
}

func formatFor(opts tsconfig.CompilerOptions) api.Format {
	if strings.EqualFold(opts.Module, "commonjs") {
		return api.FormatCommonJS
	}
	return api.FormatESModule
}

func loaderFor(path string) api.Loader {
	switch resolver.ExtensionOf(path) {
	case ".tsx":
		return api.LoaderTSX
	case ".js", ".mjs", ".cjs":
		return api.LoaderJS
	case ".jsx":
		return api.LoaderJSX
	case ".json":
		return api.LoaderJSON
	default:
		return api.LoaderTS
	}
}

func projectOptions(req Request) (tsconfig.CompilerOptions, string) {
	if req.Options == nil {
		return tsconfig.CompilerOptions{}, "{}"
	}
	return req.Options.CompilerOptions, req.Options.TsconfigRaw(forwardedOptions...)
}

// buildOptions configures the program build. Its output is discarded: the
// bundler rewrites module syntax, so the entry is emitted by transformOptions
// instead.
func buildOptions(req Request, root string, entryPoints []string, plugin api.Plugin) api.BuildOptions {
	opts, raw := projectOptions(req)

	return api.BuildOptions{
		EntryPoints:    entryPoints,
		Bundle:         true,
		Write:          false,
		AbsWorkingDir:  root,
		Outdir:         root,
		Outbase:        root,
		EntryNames:     "[dir]/[name]",
		Sourcemap:      api.SourceMapExternal,
		SourcesContent: api.SourcesContentInclude,
		Target:         targetFor(opts),
		Format:         formatFor(opts),
		Platform:       api.PlatformNeutral,
		TreeShaking:    api.TreeShakingFalse,
		LogLevel:       api.LogLevelSilent,
		TsconfigRaw:    raw,
		Plugins:        []api.Plugin{plugin},
	}
}

func absRoot(root string) (string, error) {
	if root == "" {
		return filepath.Abs(".")
	}
	return filepath.Abs(root)
}

// transformOptions emits the entry on its own, keeping its imports and
// exports as written.
func transformOptions(req Request, entryPath string) api.TransformOptions {
	opts, raw := projectOptions(req)
	return api.TransformOptions{
		Loader:         loaderFor(entryPath),
		Sourcefile:     filepath.Base(entryPath),
		Sourcemap:      api.SourceMapExternal,
		SourcesContent: api.SourcesContentInclude,
		Target:         targetFor(opts),
		Format:         formatFor(opts),
		Platform:       api.PlatformNeutral,
		LogLevel:       api.LogLevelSilent,
		TsconfigRaw:    raw,
	}
}

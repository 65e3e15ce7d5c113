package compiler

import (
	"fmt"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/conneroisu/riotts/internal/host"
)

const pluginName = "riotts-host"

// hostPlugin routes every resolve and load request of the build through the
// compilation host. Imports are resolved to prove they exist and then kept
// external, so the emitted module still imports them instead of inlining.
func hostPlugin(h *host.Host) api.Plugin {
	return api.Plugin{
		Name: pluginName,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if args.Kind == api.ResolveEntryPoint {
					return resolveEntryPoint(h, args.Path), nil
				}

				containing := args.Importer
				if containing == "" {
					containing = h.EntryPath()
				}

				m, ok := h.ResolveModule(args.Path, containing)
				if !ok {
					return api.OnResolveResult{
						Errors: []api.Message{{
							Text: fmt.Sprintf("Cannot find module %q or its corresponding type declarations", args.Path),
						}},
					}, nil
				}

				return api.OnResolveResult{
					Path:       args.Path,
					External:   true,
					PluginData: m,
				}, nil
			})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: "file"}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				text, ok := h.SourceText(args.Path)
				if !ok {
					return api.OnLoadResult{
						Errors: []api.Message{{Text: fmt.Sprintf("File %q not found", args.Path)}},
					}, nil
				}
				return api.OnLoadResult{
					Contents:   &text,
					ResolveDir: filepath.Dir(args.Path),
					Loader:     loaderFor(args.Path),
				}, nil
			})
		},
	}
}

// resolveEntryPoint anchors relative program roots at the working
// directory, where configured typings paths are relative to.
func resolveEntryPoint(h *host.Host, path string) api.OnResolveResult {
	if !filepath.IsAbs(path) {
		path = filepath.Join(h.CurrentDirectory(), path)
	}
	if !h.FileExists(path) {
		return api.OnResolveResult{
			Errors: []api.Message{{Text: fmt.Sprintf("File %q not found", path)}},
		}
	}
	return api.OnResolveResult{Path: filepath.Clean(path), Namespace: "file"}
}

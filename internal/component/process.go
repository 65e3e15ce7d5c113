package component

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// LanguageJavaScript is the language tag of script preprocessors.
const LanguageJavaScript = "javascript"

// Result is a processed component.
type Result struct {
	// Source is the component with each preprocessed script block replaced
	// by a plain <script> holding the compiled code.
	Source string
	// Code and Map are the compiled output of the preprocessed script block.
	Code string
	Map  string
	// Preprocessed reports whether a script block was compiled.
	Preprocessed bool
}

// Processor runs the registered script preprocessors over component files.
type Processor struct {
	registry *Registry
}

// NewProcessor creates a processor dispatching through registry.
func NewProcessor(registry *Registry) *Processor {
	return &Processor{registry: registry}
}

// Process compiles the preprocessed script block of the component at file.
// A component may hold at most one such block. Blocks whose language has no
// registered preprocessor are an error; plain JavaScript blocks are kept.
func (p *Processor) Process(ctx context.Context, file, content string) (*Result, error) {
	scripts, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	var target *Script
	for i := range scripts {
		if scripts[i].Lang == "" {
			continue
		}
		if target != nil {
			return nil, fmt.Errorf("%s: more than one preprocessed <script> block", file)
		}
		target = &scripts[i]
	}

	result := &Result{Source: content}
	if target == nil {
		return result, nil
	}

	handler, ok := p.registry.Lookup(LanguageJavaScript, target.Lang)
	if !ok {
		return nil, fmt.Errorf("%s: no preprocessor registered for %s/%s", file, LanguageJavaScript, target.Lang)
	}

	out, err := handler(ctx, target.Content, Meta{File: file, Line: target.Line})
	if err != nil {
		return nil, err
	}

	result.Code = out.Code
	result.Map = out.Map
	result.Preprocessed = true
	result.Source = content[:target.Start] + plainScript(*target, out.Code) + content[target.End:]
	return result, nil
}

// plainScript rebuilds the block without its language attributes.
func plainScript(s Script, code string) string {
	var b strings.Builder
	b.WriteString("<script")
	for _, a := range s.Attrs {
		if a.Name == "lang" || a.Name == "type" {
			continue
		}
		b.WriteString(" ")
		b.WriteString(a.Name)
		if a.Value != "" {
			b.WriteString(`="`)
			b.WriteString(html.EscapeString(a.Value))
			b.WriteString(`"`)
		}
	}
	b.WriteString(">\n")
	b.WriteString(strings.TrimRight(code, "\n"))
	b.WriteString("\n</script>")
	return b.String()
}

package component

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Script is a <script> block of a component file.
type Script struct {
	// Lang is the preprocessor extension taken from the type or lang
	// attribute ("ts" for type="ts", type="text/typescript" or lang="ts");
	// empty for plain JavaScript.
	Lang string
	// Attrs holds the opening tag's attributes in source order.
	Attrs []Attr
	// Content is the text between the tags.
	Content string
	// Start and End delimit the whole element, tags included.
	Start, End int
	// Line is the 1-based line where Content starts.
	Line int
}

// Attr is one attribute of a script tag.
type Attr struct {
	Name  string
	Value string
}

// Parse finds the script blocks of a component file. Every opening tag must
// be closed. Tags inside HTML comments are ignored.
func Parse(content string) ([]Script, error) {
	var (
		scripts   []Script
		open      *Script
		bodyStart int
		offset    int
	)

	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		n := len(z.Raw())

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("parsing component: %w", err)
			}
			if open != nil {
				return nil, fmt.Errorf("unclosed <script> tag at line %d", lineAt(content, open.Start))
			}
			return scripts, nil

		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "script" {
				break
			}
			s := Script{Start: offset}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				s.Attrs = append(s.Attrs, Attr{Name: string(key), Value: string(val)})
			}
			s.Lang = langOf(s.Attrs)
			bodyStart = offset + n
			s.Line = lineAt(content, bodyStart)
			open = &s

		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) != "script" || open == nil {
				break
			}
			open.Content = content[bodyStart:offset]
			open.End = offset + n
			scripts = append(scripts, *open)
			open = nil
		}

		offset += n
	}
}

func langOf(attrs []Attr) string {
	for _, a := range attrs {
		switch a.Name {
		case "lang":
			return strings.ToLower(a.Value)
		case "type":
			v := strings.ToLower(a.Value)
			switch v {
			case "text/typescript", "application/typescript", "typescript":
				return "ts"
			case "", "module", "text/javascript", "application/javascript", "javascript":
				continue
			default:
				return strings.TrimPrefix(v, "text/")
			}
		}
	}
	return ""
}

func lineAt(content string, offset int) int {
	return strings.Count(content[:offset], "\n") + 1
}

// Package markup converts the lightweight markup (markdown) used in content
// descriptions into typeset markup for the document renderer.
package markup

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// RefPrefix marks cross-references to content registry blocks inside
// markdown links, e.g. [Fireball](srd:fireball).
const RefPrefix = "srd:"

var latexEscaper = strings.NewReplacer(
	"\\", "\\textbackslash{}",
	"&", "\\&",
	"%", "\\%",
	"$", "\\$",
	"#", "\\#",
	"_", "\\_",
	"{", "\\{",
	"}", "\\}",
	"~", "\\textasciitilde{}",
	"^", "\\textasciicircum{}",
)

var urlEscaper = strings.NewReplacer(
	"%", "\\%",
	"#", "\\#",
)

// EscapeLaTeX escapes text for inclusion in a LaTeX document.
func EscapeLaTeX(s string) string {
	return latexEscaper.Replace(s)
}

// ToLaTeX converts markdown source to LaTeX body markup. Cross-reference
// links become \hyperref targets pointing at the block's label.
func ToLaTeX(source string) (string, error) {
	src := []byte(source)
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var buf strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading:
			if entering {
				buf.WriteString(headingCommand(node.Level))
			} else {
				buf.WriteString("}\n\n")
			}

		case *ast.Paragraph:
			if !entering {
				buf.WriteString("\n\n")
			}

		case *ast.Text:
			if entering {
				buf.WriteString(EscapeLaTeX(string(node.Segment.Value(src))))
				if node.HardLineBreak() {
					buf.WriteString("\\\\\n")
				} else if node.SoftLineBreak() {
					buf.WriteString("\n")
				}
			}

		case *ast.String:
			if entering {
				buf.WriteString(EscapeLaTeX(string(node.Value)))
			}

		case *ast.Emphasis:
			if entering {
				if node.Level >= 2 {
					buf.WriteString("\\textbf{")
				} else {
					buf.WriteString("\\emph{")
				}
			} else {
				buf.WriteString("}")
			}

		case *ast.CodeSpan:
			if entering {
				buf.WriteString("\\texttt{")
			} else {
				buf.WriteString("}")
			}

		case *ast.Link:
			dest := string(node.Destination)
			if entering {
				if slug, ok := strings.CutPrefix(dest, RefPrefix); ok {
					fmt.Fprintf(&buf, "\\hyperref[%s%s]{", RefPrefix, slug)
				} else {
					fmt.Fprintf(&buf, "\\href{%s}{", urlEscaper.Replace(dest))
				}
			} else {
				buf.WriteString("}")
			}

		case *ast.AutoLink:
			if entering {
				fmt.Fprintf(&buf, "\\url{%s}", urlEscaper.Replace(string(node.URL(src))))
			}
			return ast.WalkSkipChildren, nil

		case *ast.List:
			env := "itemize"
			if node.IsOrdered() {
				env = "enumerate"
			}
			if entering {
				fmt.Fprintf(&buf, "\\begin{%s}\n", env)
			} else {
				fmt.Fprintf(&buf, "\\end{%s}\n\n", env)
			}

		case *ast.ListItem:
			if entering {
				buf.WriteString("\\item ")
			} else {
				buf.WriteString("\n")
			}

		case *ast.Blockquote:
			if entering {
				buf.WriteString("\\begin{quote}\n")
			} else {
				buf.WriteString("\\end{quote}\n\n")
			}

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				buf.WriteString("\\begin{verbatim}\n")
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					line := lines.At(i)
					buf.Write(line.Value(src))
				}
				buf.WriteString("\\end{verbatim}\n\n")
			}
			return ast.WalkSkipChildren, nil

		case *ast.ThematicBreak:
			if entering {
				buf.WriteString("\\par\\noindent\\hrulefill\n\n")
			}

		case *ast.RawHTML, *ast.HTMLBlock:
			// Raw HTML has no LaTeX rendering.
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("walk markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func headingCommand(level int) string {
	switch level {
	case 1:
		return "\\subsection*{"
	case 2:
		return "\\subsubsection*{"
	default:
		return "\\paragraph*{"
	}
}

// Refs returns the slugs of all srd: cross references in the markdown source.
func Refs(source string) []string {
	src := []byte(source)
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var refs []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			if slug, ok := strings.CutPrefix(string(link.Destination), RefPrefix); ok {
				refs = append(refs, slug)
			}
		}
		return ast.WalkContinue, nil
	})
	return refs
}

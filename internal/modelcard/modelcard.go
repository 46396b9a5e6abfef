// Package modelcard reads the README.md model card that ships alongside
// model weights: YAML frontmatter for license and tags, markdown body for
// title and description.
package modelcard

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Card holds the fields a scan surfaces from a model card.
type Card struct {
	Title       string   // first level-1 heading in the body
	Description string   // first paragraph under the title
	License     string   // frontmatter license field
	Tags        []string // frontmatter tags
}

// frontmatterFields is the subset of model card frontmatter we read.
// Unknown fields are ignored.
type frontmatterFields struct {
	License string   `yaml:"license"`
	Tags    []string `yaml:"tags"`
}

// Load reads the model card in dir. A missing README.md is not an error:
// Load returns (nil, nil) so callers can treat cards as optional. The same
// applies when the README carries none of the card fields.
func Load(dir string) (*Card, error) {
	content, err := os.ReadFile(filepath.Join(dir, "README.md"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read model card: %w", err)
	}
	return Parse(content)
}

// Parse decodes model card content: optional YAML frontmatter followed by
// a markdown body.
func Parse(content []byte) (*Card, error) {
	card := &Card{}

	body, frontmatter := extractFrontmatter(content)
	if frontmatter != nil {
		var fields frontmatterFields
		if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
			return nil, fmt.Errorf("parse model card frontmatter: %w", err)
		}
		card.License = fields.License
		card.Tags = fields.Tags
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(body))

	var sawTitle bool
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			if node.Level == 1 && !sawTitle {
				sawTitle = true
				card.Title = strings.TrimSpace(extractText(node, body))
				// Description restarts below the title
				card.Description = ""
			}
		case *ast.Paragraph:
			if card.Description == "" {
				card.Description = strings.TrimSpace(extractText(node, body))
			}
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk model card: %w", err)
	}

	if card.Title == "" && card.Description == "" && card.License == "" && len(card.Tags) == 0 {
		return nil, nil
	}
	return card, nil
}

// extractFrontmatter splits YAML frontmatter off markdown content.
// Returns the body without frontmatter and the frontmatter bytes,
// or the content unchanged and nil when no frontmatter is present.
func extractFrontmatter(content []byte) ([]byte, []byte) {
	lines := bytes.Split(content, []byte("\n"))

	if len(lines) < 3 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return content, nil
	}

	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			frontmatter := bytes.Join(lines[1:i], []byte("\n"))
			body := bytes.Join(lines[i+1:], []byte("\n"))
			return body, frontmatter
		}
	}

	// No closing delimiter
	return content, nil
}

// extractText extracts plain text from an AST node, descending into
// emphasis, links and other inline wrappers.
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.WriteString(extractText(c, source))
	}
	return buf.String()
}

// Package parser turns source files into type declaration trees using
// tree-sitter. Each supported language contributes an extractor that walks
// the AST and reports every type declaration, its declared supertypes, its
// extensibility, and its nesting.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/substratelabs/hsi/internal/types"
)

// FileTypes is the result of parsing one file.
type FileTypes struct {
	// Package is the declaring package or namespace, empty when the
	// language has none or the file declares none.
	Package string
	// Decls are the file's top-level type declarations, with nested and
	// local declarations attached beneath their enclosing declaration.
	Decls []types.TypeDecl
}

// extractor walks one language's AST.
type extractor func(content []byte, root *tree_sitter.Node) FileTypes

type languageSetup struct {
	extensions []string
	language   func() unsafe.Pointer // raw grammar pointer from the binding
	extract    extractor
}

// TypeParser parses source files of every supported language. Parsers are
// created lazily per language and are not safe for concurrent use, so one
// mutex serializes all parsing.
type TypeParser struct {
	mu      sync.Mutex
	setups  map[string]*languageSetup // keyed by extension
	parsers map[string]*tree_sitter.Parser
}

// NewTypeParser creates a parser with every supported language registered.
func NewTypeParser() *TypeParser {
	p := &TypeParser{
		setups:  make(map[string]*languageSetup),
		parsers: make(map[string]*tree_sitter.Parser),
	}
	p.register(setupJava())
	p.register(setupGo())
	p.register(setupTypeScript())
	p.register(setupJavaScript())
	p.register(setupPython())
	p.register(setupCSharp())
	p.register(setupRust())
	p.register(setupCpp())
	p.register(setupPHP())
	return p
}

func (p *TypeParser) register(s *languageSetup) {
	for _, ext := range s.extensions {
		p.setups[ext] = s
	}
}

// Supported reports whether files with the given extension can be parsed.
func (p *TypeParser) Supported(ext string) bool {
	_, ok := p.setups[strings.ToLower(ext)]
	return ok
}

// SupportedExtensions lists every registered extension.
func (p *TypeParser) SupportedExtensions() []string {
	exts := make([]string, 0, len(p.setups))
	for ext := range p.setups {
		exts = append(exts, ext)
	}
	return exts
}

// ParseFile parses one file and extracts its type declarations. Files with
// an unsupported extension return an error.
func (p *TypeParser) ParseFile(ctx context.Context, path string, content []byte) (FileTypes, error) {
	if err := ctx.Err(); err != nil {
		return FileTypes{}, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	setup, ok := p.setups[ext]
	if !ok {
		return FileTypes{}, fmt.Errorf("unsupported file extension: %s", ext)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	parser, ok := p.parsers[ext]
	if !ok {
		parser = tree_sitter.NewParser()
		language := tree_sitter.NewLanguage(setup.language())
		if err := parser.SetLanguage(language); err != nil {
			return FileTypes{}, fmt.Errorf("language setup for %s: %w", ext, err)
		}
		for _, e := range setup.extensions {
			p.parsers[e] = parser
		}
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return FileTypes{}, fmt.Errorf("parse failed: %s", path)
	}
	defer tree.Close()

	return setup.extract(content, tree.RootNode()), nil
}

// nodeText returns the source text of a node.
func nodeText(content []byte, node *tree_sitter.Node) string {
	return string(content[node.StartByte():node.EndByte()])
}

// position returns a node's 1-based line and column.
func position(node *tree_sitter.Node) (line, column int) {
	pos := node.StartPosition()
	return int(pos.Row) + 1, int(pos.Column) + 1
}

// fieldText returns the text of a named field child, or "".
func fieldText(content []byte, node *tree_sitter.Node, field string) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return nodeText(content, child)
}

// collectTypeNames gathers type names from a heritage clause. Plain and
// scoped identifiers are taken as written; generic applications contribute
// their base name with type arguments stripped.
func collectTypeNames(content []byte, clause *tree_sitter.Node, out *[]string) {
	for i := uint(0); i < clause.ChildCount(); i++ {
		child := clause.Child(i)
		switch child.Kind() {
		case "type_identifier", "identifier", "scoped_type_identifier",
			"scoped_identifier", "qualified_name", "name", "qualified_identifier":
			*out = append(*out, nodeText(content, child))
		case "generic_type", "generic_name":
			// Base name only: List<Foo> contributes List.
			if child.ChildCount() > 0 {
				base := child.Child(0)
				switch base.Kind() {
				case "type_identifier", "identifier", "scoped_type_identifier", "name":
					*out = append(*out, nodeText(content, base))
				}
			}
		case "type_list", "extends_interfaces":
			collectTypeNames(content, child, out)
		}
	}
}

package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"

	"github.com/substratelabs/hsi/internal/types"
)

func setupCpp() *languageSetup {
	return &languageSetup{
		extensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".hh"},
		language:   tree_sitter_cpp.Language,
		extract:    extractCpp,
	}
}

// extractCpp handles C++ class and struct specifiers with their base
// class clauses. A `final` virtual specifier marks the type closed.
func extractCpp(content []byte, root *tree_sitter.Node) FileTypes {
	return FileTypes{Decls: cppDecls(content, root, false)}
}

func cppDecls(content []byte, node *tree_sitter.Node, local bool) []types.TypeDecl {
	var out []types.TypeDecl
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "class_specifier", "struct_specifier":
			if decl, ok := cppTypeDecl(content, child, local); ok {
				out = append(out, decl)
			}
		case "function_definition":
			out = append(out, cppDecls(content, child, true)...)
		default:
			out = append(out, cppDecls(content, child, local)...)
		}
	}
	return out
}

func cppTypeDecl(content []byte, node *tree_sitter.Node, local bool) (types.TypeDecl, bool) {
	name := fieldText(content, node, "name")
	body := node.ChildByFieldName("body")
	// A specifier without a body is a forward declaration or a plain type
	// reference, not a definition.
	if name == "" || body == nil {
		return types.TypeDecl{}, false
	}

	line, column := position(node)
	kind := types.KindClass
	if node.Kind() == "struct_specifier" {
		kind = types.KindStruct
	}
	decl := types.TypeDecl{
		Name:   name,
		Kind:   kind,
		Line:   line,
		Column: column,
		Local:  local,
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "virtual_specifier":
			if nodeText(content, child) == "final" {
				decl.Extensibility = types.ExtensibleFinal
			}
		case "base_class_clause":
			collectTypeNames(content, child, &decl.Supertypes)
		}
	}

	decl.Nested = cppDecls(content, body, local)
	return decl, true
}

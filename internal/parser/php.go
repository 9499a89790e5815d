package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"

	"github.com/substratelabs/hsi/internal/types"
)

func setupPHP() *languageSetup {
	return &languageSetup{
		extensions: []string{".php", ".phtml"},
		language:   tree_sitter_php.LanguagePHP,
		extract:    extractPHP,
	}
}

// extractPHP handles PHP classes, interfaces, traits and enums. Classes
// read extends from base_clause and implements from
// class_interface_clause; interfaces read extends from base_clause.
func extractPHP(content []byte, root *tree_sitter.Node) FileTypes {
	var ft FileTypes
	ft.Package = phpNamespace(content, root)
	ft.Decls = phpDecls(content, root, false)
	return ft
}

func phpNamespace(content []byte, node *tree_sitter.Node) string {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "namespace_definition" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			if name := child.Child(j); name.Kind() == "namespace_name" {
				return nodeText(content, name)
			}
		}
	}
	return ""
}

func phpDecls(content []byte, node *tree_sitter.Node, local bool) []types.TypeDecl {
	var out []types.TypeDecl
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "class_declaration", "interface_declaration",
			"trait_declaration", "enum_declaration":
			out = append(out, phpTypeDecl(content, child, local))
		case "anonymous_class":
			out = append(out, phpAnonymousDecl(content, child))
		case "function_definition", "method_declaration", "anonymous_function":
			out = append(out, phpDecls(content, child, true)...)
		default:
			out = append(out, phpDecls(content, child, local)...)
		}
	}
	return out
}

func phpTypeDecl(content []byte, node *tree_sitter.Node, local bool) types.TypeDecl {
	line, column := position(node)
	decl := types.TypeDecl{
		Name:   fieldText(content, node, "name"),
		Line:   line,
		Column: column,
		Local:  local,
	}

	switch node.Kind() {
	case "class_declaration":
		decl.Kind = types.KindClass
	case "interface_declaration":
		decl.Kind = types.KindInterface
	case "trait_declaration":
		decl.Kind = types.KindTrait
	case "enum_declaration":
		decl.Kind = types.KindEnum
		decl.Extensibility = types.ExtensibleFinal
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "final_modifier":
			decl.Extensibility = types.ExtensibleFinal
		case "base_clause", "class_interface_clause":
			collectTypeNames(content, child, &decl.Supertypes)
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		decl.Nested = phpDecls(content, body, local)
	}
	return decl
}

// phpAnonymousDecl handles `new class extends Base { ... }`.
func phpAnonymousDecl(content []byte, node *tree_sitter.Node) types.TypeDecl {
	line, column := position(node)
	decl := types.TypeDecl{
		Kind:          types.KindAnonymous,
		Extensibility: types.ExtensibleAnonymous,
		Line:          line,
		Column:        column,
		Local:         true,
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "base_clause", "class_interface_clause":
			collectTypeNames(content, child, &decl.Supertypes)
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		decl.Nested = phpDecls(content, body, true)
	}
	return decl
}

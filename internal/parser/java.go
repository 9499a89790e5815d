package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/substratelabs/hsi/internal/types"
)

func setupJava() *languageSetup {
	return &languageSetup{
		extensions: []string{".java"},
		language:   tree_sitter_java.Language,
		extract:    extractJava,
	}
}

// extractJava handles Java: classes, interfaces, enums, records and
// annotation types, including local classes inside method bodies and
// anonymous classes at new expressions.
func extractJava(content []byte, root *tree_sitter.Node) FileTypes {
	var ft FileTypes
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child.Kind() != "package_declaration" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			pkg := child.Child(j)
			if k := pkg.Kind(); k == "scoped_identifier" || k == "identifier" {
				ft.Package = nodeText(content, pkg)
			}
		}
	}
	ft.Decls = javaDecls(content, root, false)
	return ft
}

// javaDecls gathers the type declarations at one nesting level. Subtrees
// under methods, constructors, initializers and lambdas count as local.
func javaDecls(content []byte, node *tree_sitter.Node, local bool) []types.TypeDecl {
	var out []types.TypeDecl
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "class_declaration", "interface_declaration", "enum_declaration",
			"record_declaration", "annotation_type_declaration":
			out = append(out, javaTypeDecl(content, child, local))

		case "object_creation_expression":
			if anon, ok := javaAnonymousDecl(content, child); ok {
				out = append(out, anon)
				if args := child.ChildByFieldName("arguments"); args != nil {
					out = append(out, javaDecls(content, args, true)...)
				}
			} else {
				out = append(out, javaDecls(content, child, local)...)
			}

		case "method_declaration", "constructor_declaration",
			"static_initializer", "lambda_expression":
			out = append(out, javaDecls(content, child, true)...)

		default:
			out = append(out, javaDecls(content, child, local)...)
		}
	}
	return out
}

func javaTypeDecl(content []byte, node *tree_sitter.Node, local bool) types.TypeDecl {
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
	case "interface_declaration", "annotation_type_declaration":
		decl.Kind = types.KindInterface
	case "enum_declaration":
		decl.Kind = types.KindEnum
		decl.Extensibility = types.ExtensibleFinal
	case "record_declaration":
		decl.Kind = types.KindRecord
		decl.Extensibility = types.ExtensibleFinal
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "modifiers":
			for j := uint(0); j < child.ChildCount(); j++ {
				switch child.Child(j).Kind() {
				case "final":
					decl.Extensibility = types.ExtensibleFinal
				case "sealed":
					decl.Extensibility = types.ExtensibleSealed
				}
			}
		case "superclass", "super_interfaces", "extends_interfaces":
			collectTypeNames(content, child, &decl.Supertypes)
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		decl.Nested = javaDecls(content, body, local)
	}
	return decl
}

// javaAnonymousDecl recognizes `new Type(...) { ... }`. The constructed
// type becomes the anonymous class's single supertype.
func javaAnonymousDecl(content []byte, node *tree_sitter.Node) (types.TypeDecl, bool) {
	var body *tree_sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child.Kind() == "class_body" {
			body = child
			break
		}
	}
	if body == nil {
		return types.TypeDecl{}, false
	}

	line, column := position(node)
	decl := types.TypeDecl{
		Kind:          types.KindAnonymous,
		Extensibility: types.ExtensibleAnonymous,
		Line:          line,
		Column:        column,
		Local:         true,
	}
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		switch typeNode.Kind() {
		case "type_identifier", "scoped_type_identifier":
			decl.Supertypes = append(decl.Supertypes, nodeText(content, typeNode))
		case "generic_type":
			if typeNode.ChildCount() > 0 {
				base := typeNode.Child(0)
				if k := base.Kind(); k == "type_identifier" || k == "scoped_type_identifier" {
					decl.Supertypes = append(decl.Supertypes, nodeText(content, base))
				}
			}
		}
	}
	decl.Nested = javaDecls(content, body, true)
	return decl, true
}

package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"

	"github.com/substratelabs/hsi/internal/types"
)

func setupCSharp() *languageSetup {
	return &languageSetup{
		extensions: []string{".cs"},
		language:   tree_sitter_csharp.Language,
		extract:    extractCSharp,
	}
}

// extractCSharp handles C# classes, structs, interfaces, enums and
// records. One base_list covers both the base class and the implemented
// interfaces, so every base entry is taken as a supertype.
func extractCSharp(content []byte, root *tree_sitter.Node) FileTypes {
	var ft FileTypes
	ft.Package = csharpNamespace(content, root)
	ft.Decls = csharpDecls(content, root, false)
	return ft
}

// csharpNamespace finds the first namespace declaration, file-scoped or
// block-scoped.
func csharpNamespace(content []byte, node *tree_sitter.Node) string {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "namespace_declaration", "file_scoped_namespace_declaration":
			return fieldText(content, child, "name")
		}
	}
	return ""
}

func csharpDecls(content []byte, node *tree_sitter.Node, local bool) []types.TypeDecl {
	var out []types.TypeDecl
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "class_declaration", "struct_declaration", "interface_declaration",
			"enum_declaration", "record_declaration":
			out = append(out, csharpTypeDecl(content, child, local))
		case "method_declaration", "constructor_declaration", "local_function_statement":
			out = append(out, csharpDecls(content, child, true)...)
		default:
			out = append(out, csharpDecls(content, child, local)...)
		}
	}
	return out
}

func csharpTypeDecl(content []byte, node *tree_sitter.Node, local bool) types.TypeDecl {
	line, column := position(node)
	decl := types.TypeDecl{
		Name:   fieldText(content, node, "name"),
		Line:   line,
		Column: column,
		Local:  local,
	}

	switch node.Kind() {
	case "class_declaration", "record_declaration":
		decl.Kind = types.KindClass
		if node.Kind() == "record_declaration" {
			decl.Kind = types.KindRecord
		}
	case "struct_declaration":
		decl.Kind = types.KindStruct
		decl.Extensibility = types.ExtensibleFinal
	case "interface_declaration":
		decl.Kind = types.KindInterface
	case "enum_declaration":
		decl.Kind = types.KindEnum
		decl.Extensibility = types.ExtensibleFinal
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "modifier":
			switch nodeText(content, child) {
			case "sealed":
				decl.Extensibility = types.ExtensibleSealed
			case "static":
				decl.Extensibility = types.ExtensibleFinal
			}
		case "base_list":
			collectTypeNames(content, child, &decl.Supertypes)
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		decl.Nested = csharpDecls(content, body, local)
	}
	return decl
}

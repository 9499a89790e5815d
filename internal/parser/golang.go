package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/substratelabs/hsi/internal/types"
)

func setupGo() *languageSetup {
	return &languageSetup{
		extensions: []string{".go"},
		language:   tree_sitter_go.Language,
		extract:    extractGo,
	}
}

// extractGo handles Go struct and interface declarations. Go has no
// inheritance, so embedding is recorded as the supertype relation:
// an embedded interface or struct becomes a declared supertype.
func extractGo(content []byte, root *tree_sitter.Node) FileTypes {
	var ft FileTypes
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		switch child.Kind() {
		case "package_clause":
			for j := uint(0); j < child.ChildCount(); j++ {
				if pkg := child.Child(j); pkg.Kind() == "package_identifier" {
					ft.Package = nodeText(content, pkg)
				}
			}
		case "type_declaration":
			ft.Decls = append(ft.Decls, goTypeSpecs(content, child, false)...)
		case "function_declaration", "method_declaration":
			ft.Decls = append(ft.Decls, goFunctionLocals(content, child)...)
		}
	}
	return ft
}

// goFunctionLocals finds type declarations inside a function body.
func goFunctionLocals(content []byte, node *tree_sitter.Node) []types.TypeDecl {
	var out []types.TypeDecl
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		for i := uint(0); i < n.ChildCount(); i++ {
			child := n.Child(i)
			if child.Kind() == "type_declaration" {
				out = append(out, goTypeSpecs(content, child, true)...)
				continue
			}
			walk(child)
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		walk(body)
	}
	return out
}

func goTypeSpecs(content []byte, node *tree_sitter.Node, local bool) []types.TypeDecl {
	var out []types.TypeDecl
	for i := uint(0); i < node.ChildCount(); i++ {
		spec := node.Child(i)
		if spec.Kind() != "type_spec" {
			continue
		}

		var name string
		var underlying *tree_sitter.Node
		for j := uint(0); j < spec.ChildCount(); j++ {
			child := spec.Child(j)
			switch child.Kind() {
			case "type_identifier":
				if name == "" {
					name = nodeText(content, child)
				}
			case "struct_type", "interface_type":
				underlying = child
			}
		}
		if name == "" || underlying == nil {
			continue
		}

		line, column := position(spec)
		decl := types.TypeDecl{
			Name:   name,
			Line:   line,
			Column: column,
			Local:  local,
		}
		if underlying.Kind() == "interface_type" {
			decl.Kind = types.KindInterface
			decl.Supertypes = goEmbeddedInterfaces(content, underlying)
		} else {
			decl.Kind = types.KindStruct
			decl.Supertypes = goEmbeddedStructs(content, underlying)
		}
		out = append(out, decl)
	}
	return out
}

// goEmbeddedInterfaces reads embedded interfaces from type_elem children.
func goEmbeddedInterfaces(content []byte, interfaceType *tree_sitter.Node) []string {
	var supers []string
	for i := uint(0); i < interfaceType.ChildCount(); i++ {
		child := interfaceType.Child(i)
		if child.Kind() != "type_elem" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			ident := child.Child(j)
			if k := ident.Kind(); k == "type_identifier" || k == "qualified_type" {
				supers = append(supers, nodeText(content, ident))
			}
		}
	}
	return supers
}

// goEmbeddedStructs reads embedded fields: a field_declaration with a type
// but no field name.
func goEmbeddedStructs(content []byte, structType *tree_sitter.Node) []string {
	var supers []string
	for i := uint(0); i < structType.ChildCount(); i++ {
		list := structType.Child(i)
		if list.Kind() != "field_declaration_list" {
			continue
		}
		for j := uint(0); j < list.ChildCount(); j++ {
			field := list.Child(j)
			if field.Kind() != "field_declaration" {
				continue
			}
			named := false
			var embedded *tree_sitter.Node
			for k := uint(0); k < field.ChildCount(); k++ {
				child := field.Child(k)
				switch child.Kind() {
				case "field_identifier":
					named = true
				case "type_identifier", "qualified_type":
					embedded = child
				}
			}
			if !named && embedded != nil {
				supers = append(supers, nodeText(content, embedded))
			}
		}
	}
	return supers
}

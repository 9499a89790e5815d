package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/substratelabs/hsi/internal/types"
)

func setupRust() *languageSetup {
	return &languageSetup{
		extensions: []string{".rs"},
		language:   tree_sitter_rust.Language,
		extract:    extractRust,
	}
}

// extractRust handles Rust traits, structs and enums. Trait bounds are
// supertypes of a trait; `impl Trait for Type` makes Trait a supertype of
// Type. Impl blocks are collected in a first pass and merged into the
// matching declarations afterwards, since they can precede the type.
func extractRust(content []byte, root *tree_sitter.Node) FileTypes {
	var decls []types.TypeDecl
	impls := make(map[string][]string) // type name -> implemented traits
	rustWalk(content, root, false, &decls, impls)

	var attach func(ds []types.TypeDecl)
	attach = func(ds []types.TypeDecl) {
		for i := range ds {
			if traits, ok := impls[ds[i].Name]; ok {
				ds[i].Supertypes = append(ds[i].Supertypes, traits...)
			}
			attach(ds[i].Nested)
		}
	}
	attach(decls)

	return FileTypes{Decls: decls}
}

func rustWalk(content []byte, node *tree_sitter.Node, local bool, out *[]types.TypeDecl, impls map[string][]string) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "trait_item":
			*out = append(*out, rustTraitDecl(content, child, local))
		case "struct_item", "enum_item":
			*out = append(*out, rustTypeDecl(content, child, local))
		case "impl_item":
			if typeName, trait, ok := rustTraitImpl(content, child); ok {
				impls[typeName] = append(impls[typeName], trait)
			}
			// Associated types inside impl bodies still count.
			rustWalk(content, child, local, out, impls)
		case "function_item":
			rustWalk(content, child, true, out, impls)
		default:
			rustWalk(content, child, local, out, impls)
		}
	}
}

func rustTraitDecl(content []byte, node *tree_sitter.Node, local bool) types.TypeDecl {
	line, column := position(node)
	decl := types.TypeDecl{
		Name:   fieldText(content, node, "name"),
		Kind:   types.KindTrait,
		Line:   line,
		Column: column,
		Local:  local,
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "trait_bounds" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			bound := child.Child(j)
			switch bound.Kind() {
			case "type_identifier", "scoped_type_identifier":
				decl.Supertypes = append(decl.Supertypes, nodeText(content, bound))
			}
		}
	}
	return decl
}

// rustTypeDecl builds a struct or enum declaration. Neither can be
// subtyped directly; traits attach through impl blocks.
func rustTypeDecl(content []byte, node *tree_sitter.Node, local bool) types.TypeDecl {
	line, column := position(node)
	kind := types.KindStruct
	if node.Kind() == "enum_item" {
		kind = types.KindEnum
	}
	return types.TypeDecl{
		Name:          fieldText(content, node, "name"),
		Kind:          kind,
		Extensibility: types.ExtensibleFinal,
		Line:          line,
		Column:        column,
		Local:         local,
	}
}

// rustTraitImpl recognizes `impl Trait for Type`: the first type
// identifier before "for" is the trait, the one after is the type.
func rustTraitImpl(content []byte, node *tree_sitter.Node) (typeName, trait string, ok bool) {
	sawFor := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "type_identifier", "scoped_type_identifier", "generic_type":
			name := nodeText(content, child)
			if child.Kind() == "generic_type" && child.ChildCount() > 0 {
				name = nodeText(content, child.Child(0))
			}
			if !sawFor {
				trait = name
			} else {
				typeName = name
			}
		case "for":
			sawFor = true
		}
	}
	return typeName, trait, trait != "" && typeName != ""
}

package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/substratelabs/hsi/internal/types"
)

func setupTypeScript() *languageSetup {
	return &languageSetup{
		extensions: []string{".ts", ".tsx"},
		language:   tree_sitter_typescript.LanguageTypescript,
		extract:    extractScript,
	}
}

func setupJavaScript() *languageSetup {
	return &languageSetup{
		extensions: []string{".js", ".jsx"},
		language:   tree_sitter_javascript.Language,
		extract:    extractScript,
	}
}

// extractScript handles TypeScript and JavaScript. The grammars share
// their class shape; interfaces and enums only appear in TypeScript.
func extractScript(content []byte, root *tree_sitter.Node) FileTypes {
	return FileTypes{Decls: scriptDecls(content, root, false)}
}

// scriptDecls gathers declarations at one nesting level. Function bodies
// and class expressions count as local.
func scriptDecls(content []byte, node *tree_sitter.Node, local bool) []types.TypeDecl {
	var out []types.TypeDecl
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "class_declaration", "abstract_class_declaration":
			out = append(out, scriptClassDecl(content, child, local))

		case "class":
			// Class expression: assigned, passed or returned inline.
			out = append(out, scriptClassExpr(content, child))

		case "interface_declaration":
			out = append(out, scriptInterfaceDecl(content, child, local))

		case "enum_declaration":
			line, column := position(child)
			out = append(out, types.TypeDecl{
				Name:          fieldText(content, child, "name"),
				Kind:          types.KindEnum,
				Extensibility: types.ExtensibleFinal,
				Line:          line,
				Column:        column,
				Local:         local,
			})

		case "function_declaration", "generator_function_declaration",
			"method_definition", "arrow_function", "function_expression":
			out = append(out, scriptDecls(content, child, true)...)

		default:
			out = append(out, scriptDecls(content, child, local)...)
		}
	}
	return out
}

func scriptClassDecl(content []byte, node *tree_sitter.Node, local bool) types.TypeDecl {
	line, column := position(node)
	decl := types.TypeDecl{
		Name:   fieldText(content, node, "name"),
		Kind:   types.KindClass,
		Line:   line,
		Column: column,
		Local:  local,
	}
	decl.Supertypes = scriptHeritage(content, node)
	if body := node.ChildByFieldName("body"); body != nil {
		decl.Nested = scriptDecls(content, body, local)
	}
	return decl
}

// scriptClassExpr treats an unnamed class expression as an anonymous type.
func scriptClassExpr(content []byte, node *tree_sitter.Node) types.TypeDecl {
	line, column := position(node)
	decl := types.TypeDecl{
		Name:       fieldText(content, node, "name"),
		Kind:       types.KindClass,
		Line:       line,
		Column:     column,
		Local:      true,
		Supertypes: scriptHeritage(content, node),
	}
	if decl.Name == "" {
		decl.Kind = types.KindAnonymous
		decl.Extensibility = types.ExtensibleAnonymous
	}
	if body := node.ChildByFieldName("body"); body != nil {
		decl.Nested = scriptDecls(content, body, true)
	}
	return decl
}

func scriptInterfaceDecl(content []byte, node *tree_sitter.Node, local bool) types.TypeDecl {
	line, column := position(node)
	decl := types.TypeDecl{
		Name:   fieldText(content, node, "name"),
		Kind:   types.KindInterface,
		Line:   line,
		Column: column,
		Local:  local,
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "extends_type_clause" {
			collectTypeNames(content, child, &decl.Supertypes)
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		decl.Nested = scriptDecls(content, body, local)
	}
	return decl
}

// scriptHeritage reads extends and implements from a class_heritage
// child. JavaScript puts the parent expression directly under
// class_heritage; TypeScript wraps it in extends_clause and
// implements_clause.
func scriptHeritage(content []byte, node *tree_sitter.Node) []string {
	var supers []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "class_heritage" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			clause := child.Child(j)
			switch clause.Kind() {
			case "extends_clause", "implements_clause":
				collectTypeNames(content, clause, &supers)
			case "identifier", "member_expression":
				supers = append(supers, nodeText(content, clause))
			}
		}
	}
	return supers
}

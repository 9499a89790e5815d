package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/substratelabs/hsi/internal/types"
)

func setupPython() *languageSetup {
	return &languageSetup{
		extensions: []string{".py"},
		language:   tree_sitter_python.Language,
		extract:    extractPython,
	}
}

// extractPython handles Python class definitions. Bases appear in the
// argument list of the class statement; classes inside function bodies
// count as local.
func extractPython(content []byte, root *tree_sitter.Node) FileTypes {
	return FileTypes{Decls: pythonDecls(content, root, false)}
}

func pythonDecls(content []byte, node *tree_sitter.Node, local bool) []types.TypeDecl {
	var out []types.TypeDecl
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "class_definition":
			out = append(out, pythonClassDecl(content, child, local))
		case "function_definition":
			out = append(out, pythonDecls(content, child, true)...)
		default:
			out = append(out, pythonDecls(content, child, local)...)
		}
	}
	return out
}

func pythonClassDecl(content []byte, node *tree_sitter.Node, local bool) types.TypeDecl {
	line, column := position(node)
	decl := types.TypeDecl{
		Name:   fieldText(content, node, "name"),
		Kind:   types.KindClass,
		Line:   line,
		Column: column,
		Local:  local,
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "argument_list" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			arg := child.Child(j)
			switch arg.Kind() {
			case "identifier", "attribute":
				decl.Supertypes = append(decl.Supertypes, nodeText(content, arg))
			}
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		decl.Nested = pythonDecls(content, body, local)
	}
	return decl
}

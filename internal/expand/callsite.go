package expand

import (
	"go/ast"
	"go/token"
	"strconv"
)

// callSite is one runtime.Printf call. children are call sites nested in
// its arguments; they are expanded while rendering the argument text.
type callSite struct {
	call       *ast.CallExpr
	start, end int
	children   []*callSite
}

// importName returns the file-local name of the package imported from
// path. ok is false when the package is not imported or is imported for
// side effects only.
func importName(f *ast.File, path, defaultName string) (name string, ok bool) {
	for _, imp := range f.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil || p != path {
			continue
		}
		if imp.Name == nil {
			return defaultName, true
		}
		switch imp.Name.Name {
		case "_", ".":
			continue
		}
		return imp.Name.Name, true
	}
	return "", false
}

// findCallSites returns every <alias>.<marker>(...) call in source order,
// nested into a forest by containment.
func findCallSites(f *ast.File, tf *token.File, alias, marker string) []*callSite {
	if alias == "" {
		return nil
	}
	var flat []*callSite
	ast.Inspect(f, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := ast.Unparen(call.Fun).(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != marker {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); !ok || id.Name != alias {
			return true
		}
		flat = append(flat, &callSite{
			call:  call,
			start: tf.Offset(call.Pos()),
			end:   tf.Offset(call.End()),
		})
		return true
	})
	return nestSites(flat)
}

// nestSites relies on ast.Inspect visiting outer calls before inner ones.
func nestSites(flat []*callSite) []*callSite {
	var roots, stack []*callSite
	for _, s := range flat {
		for len(stack) > 0 && stack[len(stack)-1].end <= s.start {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, s)
		} else {
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, s)
		}
		stack = append(stack, s)
	}
	return roots
}

// identifiers collects every identifier spelled in f; generated record
// names must avoid all of them.
func identifiers(f *ast.File) map[string]struct{} {
	used := make(map[string]struct{})
	ast.Inspect(f, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			used[id.Name] = struct{}{}
		}
		return true
	})
	return used
}

package expand

import (
	"go/ast"
	"go/build/constraint"
	"go/token"
)

// buildLine is a //go:build or // +build comment in the file header.
type buildLine struct {
	start, end int
	expr       constraint.Expr
	plus       bool
}

// headerConstraints returns the build lines that precede the package
// clause. Malformed lines are ignored; the go tool reports them.
func headerConstraints(f *ast.File, tf *token.File) []buildLine {
	var lines []buildLine
	for _, group := range f.Comments {
		if group.Pos() >= f.Package {
			break
		}
		for _, c := range group.List {
			plus := constraint.IsPlusBuild(c.Text)
			if !plus && !constraint.IsGoBuild(c.Text) {
				continue
			}
			expr, err := constraint.Parse(c.Text)
			if err != nil {
				continue
			}
			lines = append(lines, buildLine{
				start: tf.Offset(c.Pos()),
				end:   tf.Offset(c.End()),
				expr:  expr,
				plus:  plus,
			})
		}
	}
	return lines
}

// goBuildWithTag returns the //go:build line that mentions tag.
func goBuildWithTag(lines []buildLine, tag string) (buildLine, bool) {
	for _, l := range lines {
		if !l.plus && mentionsTag(l.expr, tag) {
			return l, true
		}
	}
	return buildLine{}, false
}

func mentionsTag(x constraint.Expr, tag string) bool {
	switch x := x.(type) {
	case *constraint.TagExpr:
		return x.Tag == tag
	case *constraint.NotExpr:
		return mentionsTag(x.X, tag)
	case *constraint.AndExpr:
		return mentionsTag(x.X, tag) || mentionsTag(x.Y, tag)
	case *constraint.OrExpr:
		return mentionsTag(x.X, tag) || mentionsTag(x.Y, tag)
	}
	return false
}

// negateTag replaces tag with !tag (and !tag with tag) everywhere in x, so
// `vprintf && linux` becomes `!vprintf && linux`.
func negateTag(x constraint.Expr, tag string) constraint.Expr {
	switch x := x.(type) {
	case *constraint.TagExpr:
		if x.Tag == tag {
			return &constraint.NotExpr{X: x}
		}
		return x
	case *constraint.NotExpr:
		if t, ok := x.X.(*constraint.TagExpr); ok && t.Tag == tag {
			return t
		}
		return &constraint.NotExpr{X: negateTag(x.X, tag)}
	case *constraint.AndExpr:
		return &constraint.AndExpr{X: negateTag(x.X, tag), Y: negateTag(x.Y, tag)}
	case *constraint.OrExpr:
		return &constraint.OrExpr{X: negateTag(x.X, tag), Y: negateTag(x.Y, tag)}
	}
	return x
}

// Package emit builds the Go expression that replaces a printf call site: a
// function literal that takes the converted arguments as parameters, declares
// a record struct with one field per argument, fills it and hands its address
// to the runtime entry point together with the NUL-terminated format. The
// arguments are evaluated where the call stands, so defer and go statements
// keep their meaning.
package emit

import (
	"fmt"
	"go/parser"
	"strconv"
	"strings"

	"vprintf/internal/layout"
	"vprintf/internal/printf"
)

// Options names the identifiers the expression refers to.
type Options struct {
	// Runtime is the file-local name of the runtime package ("devrt").
	Runtime string
	// Entry is the runtime entry point ("Vprintf").
	Entry string
	// Unsafe is the file-local name of package unsafe.
	Unsafe string
}

func DefaultOptions() Options {
	return Options{Runtime: "devrt", Entry: "Vprintf", Unsafe: "unsafe"}
}

// Call is one resolved call site.
type Call struct {
	// Format is the decoded format literal, without the trailing NUL.
	Format string
	// Args holds the source text of each argument expression.
	Args  []string
	Types []printf.WireType
	// Record is the struct type name, see Names.
	Record string
}

type Result struct {
	Expr   string
	Fields []string
	// Layout is the record on the configured target, Host the same record as
	// the Go compiler lays it out here. Mismatch describes where they differ.
	Layout   layout.RecordLayout
	Host     layout.RecordLayout
	Mismatch string
}

// Expression renders c as a single Go expression. The output is parsed back
// with go/parser before it is returned. eng may be nil, then no layouts are
// computed.
func Expression(c Call, opts Options, eng *layout.Engine) (Result, error) {
	if len(c.Args) != len(c.Types) {
		return Result{}, &printf.ArityError{Want: len(c.Types), Got: len(c.Args)}
	}
	if c.Record == "" {
		return Result{}, fmt.Errorf("emit: empty record name")
	}
	if strings.IndexByte(c.Format, 0) >= 0 {
		return Result{}, fmt.Errorf("emit: format contains a NUL byte")
	}
	opts = opts.withDefaults()

	n := len(c.Types)
	fields := make([]string, n)
	params := make([]string, n)
	names := make([]string, n)
	values := make([]string, n)
	for i, t := range c.Types {
		goType := fieldType(t, opts)
		if goType == "" {
			return Result{}, fmt.Errorf("emit: argument %d has no wire type", i)
		}
		fields[i] = fmt.Sprintf("f%d %s", i, goType)
		names[i] = "a" + strconv.Itoa(i)
		params[i] = names[i] + " " + goType
		values[i] = convert(i, t, strings.TrimSpace(c.Args[i]), opts)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "func(%s) int32 {\n", strings.Join(params, ", "))
	if n == 0 {
		fmt.Fprintf(&b, "\ttype %s struct{}\n", c.Record)
	} else {
		fmt.Fprintf(&b, "\ttype %s struct {\n", c.Record)
		for _, f := range fields {
			fmt.Fprintf(&b, "\t\t%s\n", f)
		}
		b.WriteString("\t}\n")
	}
	fmt.Fprintf(&b, "\tvargs := %s{%s}\n", c.Record, strings.Join(names, ", "))
	fmt.Fprintf(&b, "\treturn %s.%s(%s.StringData(%s), %s.Pointer(&vargs))\n",
		opts.Runtime, opts.Entry, opts.Unsafe, QuoteFormat(c.Format), opts.Unsafe)
	fmt.Fprintf(&b, "}(%s)", strings.Join(values, ", "))

	expr := b.String()
	if _, err := parser.ParseExpr(expr); err != nil {
		return Result{}, fmt.Errorf("emit: generated expression does not parse: %w", err)
	}

	res := Result{Expr: expr, Fields: fields}
	if eng != nil {
		l, err := eng.LayoutOf(c.Types)
		if err != nil {
			return Result{}, fmt.Errorf("emit: %w", err)
		}
		h, err := layout.HostEngine().LayoutOf(c.Types)
		if err != nil {
			return Result{}, fmt.Errorf("emit: %w", err)
		}
		res.Layout, res.Host = l, h
		res.Mismatch = layout.Diff(h, l)
	}
	return res, nil
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Runtime == "" {
		o.Runtime = d.Runtime
	}
	if o.Entry == "" {
		o.Entry = d.Entry
	}
	if o.Unsafe == "" {
		o.Unsafe = d.Unsafe
	}
	return o
}

func fieldType(t printf.WireType, opts Options) string {
	if t == printf.VoidPtr {
		return opts.Unsafe + ".Pointer"
	}
	return t.GoType()
}

// convert wraps argument i so its parameter receives exactly the wire type.
// %s and %p go through the runtime helpers, which take the same Go types
// Printf takes.
func convert(i int, t printf.WireType, arg string, opts Options) string {
	switch t {
	case printf.StrPtr:
		if arg == "nil" {
			return arg
		}
		return opts.Runtime + ".CString(" + arg + ")"
	case printf.VoidPtr:
		return opts.Runtime + ".Pointer(" + strconv.Itoa(i) + ", " + arg + ")"
	}
	return t.GoType() + "(" + arg + ")"
}

// QuoteFormat returns a Go string literal for format with a terminating NUL.
func QuoteFormat(format string) string {
	return strconv.Quote(format + "\x00")
}

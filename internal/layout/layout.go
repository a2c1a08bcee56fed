package layout

import (
	"fmt"

	"vprintf/internal/printf"
)

// FieldLayout places one argument inside the packed record.
type FieldLayout struct {
	Type   printf.WireType `json:"type" yaml:"type"`
	Offset int             `json:"offset" yaml:"offset"`
	Size   int             `json:"size" yaml:"size"`
	Align  int             `json:"align" yaml:"align"`
}

// RecordLayout is the C ABI layout of a packed argument record: fields in
// declaration order, each at its natural alignment, total size rounded up to
// the record alignment.
type RecordLayout struct {
	Target string        `json:"target" yaml:"target"`
	Size   int           `json:"size" yaml:"size"`
	Align  int           `json:"align" yaml:"align"`
	Fields []FieldLayout `json:"fields" yaml:"fields"`
}

// Offsets returns the field offsets in order.
func (l RecordLayout) Offsets() []int {
	out := make([]int, len(l.Fields))
	for i, f := range l.Fields {
		out[i] = f.Offset
	}
	return out
}

// Engine computes record layouts for a Target and caches them by type
// sequence. Safe for concurrent use.
type Engine struct {
	Target Target

	cache *cache
}

// New creates a new Engine for the specified target.
func New(target Target) (*Engine, error) {
	if target.PtrSize <= 0 || target.PtrAlign <= 0 || target.Int64Align <= 0 {
		return nil, &LayoutError{Kind: LayoutErrBadTarget, Target: target.Triple}
	}
	return &Engine{
		Target: target,
		cache:  newCache(),
	}, nil
}

// MustNew is New for the built-in targets.
func MustNew(target Target) *Engine {
	e, err := New(target)
	if err != nil {
		panic(err)
	}
	return e
}

// LayoutOf computes and caches the layout of a record holding types in
// order. An empty record has size 0 and alignment 1.
func (e *Engine) LayoutOf(types []printf.WireType) (RecordLayout, error) {
	if e == nil {
		return RecordLayout{Size: 0, Align: 1}, nil
	}
	key := cacheKeyOf(types)
	if l, ok := e.cache.get(key); ok {
		return l, nil
	}
	l, err := e.recordLayout(types)
	if err != nil {
		return RecordLayout{}, err
	}
	e.cache.put(key, l)
	return l.clone(), nil
}

// SizeOf returns the byte size of a single wire type on the engine target.
func (e *Engine) SizeOf(t printf.WireType) (int, error) {
	l, err := e.scalarLayout(t, 0)
	return l.Size, err
}

// AlignOf returns the in-record alignment of a single wire type.
func (e *Engine) AlignOf(t printf.WireType) (int, error) {
	l, err := e.scalarLayout(t, 0)
	return l.Align, err
}

func (l RecordLayout) clone() RecordLayout {
	l.Fields = append([]FieldLayout(nil), l.Fields...)
	return l
}

var hostEngine = MustNew(Host())

// HostEngine lays records out the way the Go compiler running this process
// lays out the generated record structs.
func HostEngine() *Engine {
	return hostEngine
}

// Diff describes the first place where got and want, two layouts of the same
// type sequence, disagree. It returns "" when every offset and the size match.
func Diff(got, want RecordLayout) string {
	for i := range min(len(got.Fields), len(want.Fields)) {
		g, w := got.Fields[i], want.Fields[i]
		if g.Offset != w.Offset || g.Size != w.Size {
			return fmt.Sprintf("argument %d (%s) is %d bytes at offset %d on %s, %d bytes at offset %d on %s",
				i+1, g.Type.CType(), g.Size, g.Offset, got.Target, w.Size, w.Offset, want.Target)
		}
	}
	if got.Size != want.Size {
		return fmt.Sprintf("record is %d bytes on %s, %d bytes on %s", got.Size, got.Target, want.Size, want.Target)
	}
	return ""
}

package layout

import "vprintf/internal/printf"

func (e *Engine) scalarLayout(t printf.WireType, idx int) (FieldLayout, error) {
	if t.IsPointer() {
		return e.ptrLayout(t), nil
	}
	switch t {
	case printf.I16, printf.U16:
		return FieldLayout{Type: t, Size: 2, Align: 2}, nil
	case printf.I32, printf.U32:
		return FieldLayout{Type: t, Size: 4, Align: 4}, nil
	case printf.I64, printf.U64, printf.F64:
		return FieldLayout{Type: t, Size: 8, Align: e.Target.Int64Align}, nil
	}
	return FieldLayout{}, &LayoutError{Kind: LayoutErrUnknownType, Type: t, Index: idx}
}

func (e *Engine) ptrLayout(t printf.WireType) FieldLayout {
	ptrSize := e.Target.PtrSize
	ptrAlign := e.Target.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return FieldLayout{Type: t, Size: ptrSize, Align: ptrAlign}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (e *Engine) recordLayout(types []printf.WireType) (RecordLayout, error) {
	out := RecordLayout{Target: e.Target.Triple, Size: 0, Align: 1}
	if len(types) == 0 {
		return out, nil
	}
	out.Fields = make([]FieldLayout, len(types))
	size := 0
	align := 1
	for i, t := range types {
		fl, err := e.scalarLayout(t, i)
		if err != nil {
			return RecordLayout{}, err
		}
		size = roundUp(size, fl.Align)
		fl.Offset = size
		out.Fields[i] = fl
		size += fl.Size
		align = maxInt(align, fl.Align)
	}
	out.Size = roundUp(size, align)
	out.Align = align
	return out, nil
}

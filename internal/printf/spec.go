package printf

import "strings"

// Flags is the set of conversion flags; duplicates collapse.
type Flags uint8

const (
	FlagMinus Flags = 1 << iota
	FlagPlus
	FlagZero
	FlagSpace
	FlagHash
)

func flagOf(b byte) (Flags, bool) {
	switch b {
	case '-':
		return FlagMinus, true
	case '+':
		return FlagPlus, true
	case '0':
		return FlagZero, true
	case ' ':
		return FlagSpace, true
	case '#':
		return FlagHash, true
	}
	return 0, false
}

func (f Flags) Has(x Flags) bool {
	return f&x == x
}

func (f Flags) String() string {
	var b strings.Builder
	for _, p := range []struct {
		flag Flags
		ch   byte
	}{{FlagMinus, '-'}, {FlagPlus, '+'}, {FlagZero, '0'}, {FlagSpace, ' '}, {FlagHash, '#'}} {
		if f.Has(p.flag) {
			b.WriteByte(p.ch)
		}
	}
	return b.String()
}

type Size uint8

const (
	SizeNone Size = iota
	SizeShort
	SizeLong
	SizeLongLong
)

func (s Size) String() string {
	switch s {
	case SizeShort:
		return "h"
	case SizeLong:
		return "l"
	case SizeLongLong:
		return "ll"
	}
	return ""
}

// Family groups type characters that share a row of the resolution table.
type Family uint8

const (
	FamilyNone Family = iota
	FamilySigned
	FamilyUnsigned
	FamilyFloat
	FamilyChar
	FamilyStr
	FamilyPointer
)

func familyOf(verb byte) Family {
	switch verb {
	case 'd', 'i':
		return FamilySigned
	case 'u', 'o', 'x', 'X':
		return FamilyUnsigned
	case 'e', 'E', 'f', 'F', 'g', 'G', 'a', 'A':
		return FamilyFloat
	case 'c':
		return FamilyChar
	case 's':
		return FamilyStr
	case 'p':
		return FamilyPointer
	}
	return FamilyNone
}

// ConversionSpec is one resolved "%..." directive. Start and End are byte
// offsets into the format string, End exclusive.
type ConversionSpec struct {
	Start        int
	End          int
	Flags        Flags
	Width        string
	Precision    string
	HasPrecision bool
	Size         Size
	Verb         byte
	Type         WireType
}

// Text reconstructs the directive in canonical flag order.
func (c ConversionSpec) Text() string {
	var b strings.Builder
	b.WriteByte('%')
	b.WriteString(c.Flags.String())
	b.WriteString(c.Width)
	if c.HasPrecision {
		b.WriteByte('.')
		b.WriteString(c.Precision)
	}
	b.WriteString(c.Size.String())
	b.WriteByte(c.Verb)
	return b.String()
}

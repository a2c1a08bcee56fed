package expand

import (
	"errors"
	"strconv"
	"unicode/utf8"
)

var errNotStringLit = errors.New("not a string literal")

// literal is a decoded Go string literal. offs maps every byte of Value to
// its offset inside the literal's source text; offs[len(Value)] is the
// offset of the closing quote.
type literal struct {
	Value string
	offs  []int
}

func decodeLiteral(raw string) (literal, error) {
	if len(raw) < 2 || raw[0] != raw[len(raw)-1] {
		return literal{}, errNotStringLit
	}
	switch raw[0] {
	case '`':
		return decodeRaw(raw), nil
	case '"':
		return decodeInterpreted(raw)
	}
	return literal{}, errNotStringLit
}

// Raw strings drop carriage returns, everything else is verbatim.
func decodeRaw(raw string) literal {
	body := raw[1 : len(raw)-1]
	value := make([]byte, 0, len(body))
	offs := make([]int, 0, len(body)+1)
	for i := 0; i < len(body); i++ {
		if body[i] == '\r' {
			continue
		}
		value = append(value, body[i])
		offs = append(offs, i+1)
	}
	offs = append(offs, len(raw)-1)
	return literal{Value: string(value), offs: offs}
}

func decodeInterpreted(raw string) (literal, error) {
	rest := raw[1 : len(raw)-1]
	value := make([]byte, 0, len(rest))
	offs := make([]int, 0, len(rest)+1)
	pos := 1
	for len(rest) > 0 {
		r, multibyte, tail, err := strconv.UnquoteChar(rest, '"')
		if err != nil {
			return literal{}, err
		}
		n := len(value)
		if multibyte {
			value = utf8.AppendRune(value, r)
		} else {
			// \xNN и \NNN дают ровно один байт
			value = append(value, byte(r))
		}
		for range len(value) - n {
			offs = append(offs, pos)
		}
		pos += len(rest) - len(tail)
		rest = tail
	}
	offs = append(offs, pos)
	return literal{Value: string(value), offs: offs}, nil
}

// sourceRange maps the decoded byte range [start, end) to offsets relative
// to the literal start. The end of a range that does not end inside the
// value lands on the closing quote.
func (l literal) sourceRange(start, end int) (int, int) {
	clamp := func(i int) int {
		return max(0, min(i, len(l.offs)-1))
	}
	return l.offs[clamp(start)], l.offs[clamp(end)]
}

package emit

import "strconv"

// RecordPrefix prefixes generated record type names.
const RecordPrefix = "vprintfArgs"

// Names hands out record type names that do not collide with identifiers
// already used in a file.
type Names struct {
	used map[string]struct{}
	next int
}

// NewNames creates a generator that avoids every name in used.
func NewNames(used map[string]struct{}) *Names {
	if used == nil {
		used = make(map[string]struct{})
	}
	return &Names{used: used}
}

// Fresh returns the next free name: vprintfArgs0, vprintfArgs1, ...
func (n *Names) Fresh() string {
	for {
		name := RecordPrefix + strconv.Itoa(n.next)
		n.next++
		if _, taken := n.used[name]; taken {
			continue
		}
		n.used[name] = struct{}{}
		return name
	}
}

package script

import "strings"

// Layer marks, indexed by layer.
var marks = [MaxLayer + 1]byte{':', '.', '-', '\'', ',', '_', ';'}

// Mark returns the closing mark of a layer.
func Mark(layer int) byte { return marks[layer] }

func markLayer(c byte) int {
	for i, m := range marks {
		if m == c {
			return i
		}
	}
	return -1
}

// primitiveOrder is the canonical order of the singular atoms.
const primitiveOrder = "EUASBT"

var primitives = func() map[byte]*Script {
	m := make(map[byte]*Script, len(primitiveOrder))
	for i := 0; i < len(primitiveOrder); i++ {
		l := primitiveOrder[i]
		m[l] = &Script{
			kind:     KindPrimitive,
			layer:    0,
			letter:   l,
			str:      string(l) + ":",
			cardinal: 1,
		}
	}
	return m
}()

// Remarkable sums of layer 0, from the largest to the smallest so that
// rendering picks the widest name first.
var remarkableSumOrder = []byte{'I', 'F', 'M', 'O'}

var remarkableSums = map[byte]string{
	'O': "UA",
	'M': "SBT",
	'F': "UASBT",
	'I': "EUASBT",
}

// Remarkable products of layer 1: substance and attribute letters to the
// lowercase name, with an empty mode.
var remarkableProducts = map[string]string{
	"UU": "wo", "UA": "wa", "US": "y", "UB": "o", "UT": "e",
	"AU": "wu", "AA": "we", "AS": "u", "AB": "a", "AT": "i",
	"SU": "j", "SA": "g", "SS": "s", "SB": "b", "ST": "t",
	"BU": "h", "BA": "c", "BS": "k", "BB": "m", "BT": "n",
	"TU": "p", "TA": "x", "TS": "d", "TB": "f", "TT": "l",
}

var remarkableProductLetters = func() map[string]string {
	m := make(map[string]string, len(remarkableProducts))
	for pair, name := range remarkableProducts {
		m[name] = pair
	}
	return m
}()

var nulls = func() [MaxLayer + 1]*Script {
	var n [MaxLayer + 1]*Script
	n[0] = primitives['E']
	for l := 1; l <= MaxLayer; l++ {
		prev := n[l-1]
		n[l] = newProduct(prev, prev, prev)
	}
	return n
}()

func primitiveRank(l byte) int {
	return strings.IndexByte(primitiveOrder, l)
}

func renderProduct(s *Script) string {
	sub, attr, mode := s.children[0], s.children[1], s.children[2]
	mark := string(marks[s.layer])

	if s.layer == 1 && mode.IsNull() &&
		sub.kind == KindPrimitive && attr.kind == KindPrimitive &&
		sub.letter != 'E' && attr.letter != 'E' {
		return remarkableProducts[string([]byte{sub.letter, attr.letter})] + mark
	}

	var b strings.Builder
	b.WriteString(sub.str)
	switch {
	case attr.IsNull() && mode.IsNull():
	case mode.IsNull():
		b.WriteString(attr.str)
	default:
		b.WriteString(attr.str)
		b.WriteString(mode.str)
	}
	b.WriteString(mark)
	return b.String()
}

func renderSum(s *Script) string {
	if s.layer == 0 {
		return renderPrimitiveSet(s.children)
	}
	parts := make([]string, len(s.children))
	for i, c := range s.children {
		parts[i] = c.str
	}
	return strings.Join(parts, "+")
}

// renderPrimitiveSet names a set of atoms with the widest remarkable sums
// that fit entirely, then the remaining atoms, in alphabet order.
func renderPrimitiveSet(children []*Script) string {
	present := make(map[byte]bool, len(children))
	for _, c := range children {
		present[c.letter] = true
	}

	named := make(map[byte]byte) // atom -> remarkable letter covering it
	for _, r := range remarkableSumOrder {
		set := remarkableSums[r]
		fits := true
		for i := 0; i < len(set); i++ {
			if !present[set[i]] || named[set[i]] != 0 {
				fits = false
				break
			}
		}
		if !fits {
			continue
		}
		for i := 0; i < len(set); i++ {
			named[set[i]] = r
		}
	}

	var parts []string
	emitted := make(map[byte]bool)
	for i := 0; i < len(primitiveOrder); i++ {
		l := primitiveOrder[i]
		if !present[l] {
			continue
		}
		if r := named[l]; r != 0 {
			if !emitted[r] {
				emitted[r] = true
				parts = append(parts, string(r)+":")
			}
			continue
		}
		parts = append(parts, string(l)+":")
	}
	return strings.Join(parts, "+")
}

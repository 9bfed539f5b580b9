package script

// Compare defines the total order over scripts. It returns a negative
// number when a sorts before b, zero when they are canonically equal and a
// positive number otherwise.
//
// Scripts are ordered by layer, then by cardinal, then products before
// sums. Atoms follow the alphabet order; products compare substance,
// attribute and mode in turn; sums compare their sorted children
// lexicographically. Ordering on cardinal before structure keeps the
// scripts of a layer grouped by size, so walking the order backwards visits
// larger paradigms before the smaller ones they contain, as the dictionary
// rank pass requires.
func Compare(a, b *Script) int {
	if a == b {
		return 0
	}
	if a.str == b.str {
		return 0
	}
	if a.layer != b.layer {
		return cmpInt(a.layer, b.layer)
	}
	if a.cardinal != b.cardinal {
		return cmpInt(a.cardinal, b.cardinal)
	}
	if a.kind != b.kind {
		return cmpInt(kindRank(a.kind), kindRank(b.kind))
	}

	switch a.kind {
	case KindPrimitive:
		return cmpInt(primitiveRank(a.letter), primitiveRank(b.letter))
	case KindMultiplicative:
		for i := 0; i < 3; i++ {
			if c := Compare(a.children[i], b.children[i]); c != 0 {
				return c
			}
		}
		return 0
	default:
		n := min(len(a.children), len(b.children))
		for i := 0; i < n; i++ {
			if c := Compare(a.children[i], b.children[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(a.children), len(b.children))
	}
}

// Less reports whether a sorts strictly before b.
func Less(a, b *Script) bool { return Compare(a, b) < 0 }

func kindRank(k Kind) int {
	switch k {
	case KindPrimitive:
		return 0
	case KindMultiplicative:
		return 1
	default:
		return 2
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

package script

// Table lays the singular sequences of a paradigm out on up to three axes.
// Unused axes have size 1.
type Table struct {
	paradigm *Script
	dim      int
	shape    [3]int
	cells    []*Script // row-major over shape
	index    map[string][3]int
}

// Paradigm is the script whose sequences fill the table.
func (t *Table) Paradigm() *Script { return t.paradigm }

// Dim is the number of axes with more than one value.
func (t *Table) Dim() int { return t.dim }

// Shape returns the size of each axis.
func (t *Table) Shape() [3]int { return t.shape }

// At returns the sequence stored at a cell.
func (t *Table) At(i, j, k int) *Script {
	return t.cells[(i*t.shape[1]+j)*t.shape[2]+k]
}

// Index returns the coordinates of a singular sequence in the table.
func (t *Table) Index(s *Script) ([3]int, bool) {
	c, ok := t.index[s.str]
	return c, ok
}

// Coords returns the coordinates of every singular sequence of s, or false
// when one of them is not in the table.
func (t *Table) Coords(s *Script) ([][3]int, bool) {
	out := make([][3]int, 0, s.cardinal)
	for seq := range s.Sequences() {
		c, ok := t.index[seq.str]
		if !ok {
			return nil, false
		}
		out = append(out, c)
	}
	return out, true
}

// Headers returns the paradigms naming the table: one per tab along the
// third axis for a three dimensional table, the table paradigm otherwise.
func (t *Table) Headers() []*Script {
	if t.shape[2] == 1 {
		return []*Script{t.paradigm}
	}
	out := make([]*Script, 0, t.shape[2])
	for k := 0; k < t.shape[2]; k++ {
		tab := make([]*Script, 0, t.shape[0]*t.shape[1])
		for i := 0; i < t.shape[0]; i++ {
			for j := 0; j < t.shape[1]; j++ {
				tab = append(tab, t.At(i, j, k))
			}
		}
		h, err := Factorize(tab)
		if err != nil {
			continue
		}
		out = append(out, h)
	}
	return out
}

// Tables returns the table decomposition of a paradigm. A product yields one
// table spanned by its paradigmatic children. A sum yields the tables of its
// paradigmatic children followed by one flat table of its singular children.
// Singular scripts have no table.
func (s *Script) Tables() []*Table {
	if !s.IsParadigm() {
		return nil
	}
	switch s.kind {
	case KindMultiplicative:
		return []*Table{productTable(s)}
	case KindAdditive:
		var out []*Table
		var singular []*Script
		for _, c := range s.children {
			if c.IsParadigm() {
				out = append(out, c.Tables()...)
				continue
			}
			singular = append(singular, c)
		}
		if len(singular) > 1 {
			p, _ := NewAdditive(singular...)
			out = append(out, flatTable(p, singular))
		}
		return out
	}
	return nil
}

func productTable(s *Script) *Table {
	var axes [3][]*Script
	var fixed [3]*Script
	var roles []int
	for i, c := range s.children {
		if c.IsParadigm() {
			roles = append(roles, i)
			continue
		}
		fixed[i] = c
	}

	t := &Table{paradigm: s, dim: len(roles), shape: [3]int{1, 1, 1}}
	for d, r := range roles {
		axes[d] = s.children[r].SingularSequences()
		t.shape[d] = len(axes[d])
	}
	for d := len(roles); d < 3; d++ {
		axes[d] = []*Script{nil}
	}

	t.cells = make([]*Script, t.shape[0]*t.shape[1]*t.shape[2])
	t.index = make(map[string][3]int, len(t.cells))
	for i, a := range axes[0] {
		for j, b := range axes[1] {
			for k, c := range axes[2] {
				parts := fixed
				for d, v := range [3]*Script{a, b, c} {
					if d < len(roles) {
						parts[roles[d]] = v
					}
				}
				cell := newProduct(parts[0], parts[1], parts[2])
				t.cells[(i*t.shape[1]+j)*t.shape[2]+k] = cell
				t.index[cell.str] = [3]int{i, j, k}
			}
		}
	}
	return t
}

func flatTable(p *Script, values []*Script) *Table {
	t := &Table{
		paradigm: p,
		dim:      1,
		shape:    [3]int{len(values), 1, 1},
		cells:    make([]*Script, len(values)),
		index:    make(map[string][3]int, len(values)),
	}
	for i, v := range values {
		t.cells[i] = v
		t.index[v.str] = [3]int{i, 0, 0}
	}
	return t
}

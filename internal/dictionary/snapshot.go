package dictionary

import (
	"encoding/json"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/ppiankov/ieml/internal/matrix"
	"github.com/ppiankov/ieml/internal/metrics"
	"github.com/ppiankov/ieml/internal/script"
)

// Snapshot is the serialized state of a defined dictionary. Relations are
// stored as packed bitset rows, one matrix per relation type.
type Snapshot struct {
	Version      string                         `json:"version"`
	Index        []string                       `json:"index"`
	Roots        []string                       `json:"roots"`
	Translations map[Language]map[string]string `json:"translations"`
	Inhibitions  map[string][]string            `json:"inhibitions,omitempty"`
	Ranks        map[string]int                 `json:"ranks"`
	Partitions   map[string][]string            `json:"partitions"`
	Relations    [][][]uint64                   `json:"relations"`
}

// Snapshot captures the dictionary. It must be defined.
func (d *Dictionary) Snapshot(version string) (*Snapshot, error) {
	if !d.defined {
		return nil, ErrNotDefined
	}
	snap := &Snapshot{
		Version:      version,
		Index:        make([]string, len(d.index)),
		Roots:        make([]string, 0, len(d.roots)),
		Translations: make(map[Language]map[string]string, len(Languages)),
		Inhibitions:  make(map[string][]string, len(d.inhibitions)),
		Ranks:        make(map[string]int, len(d.ranks)),
		Partitions:   make(map[string][]string, len(d.partitions)),
		Relations:    make([][][]uint64, relationCount),
	}
	for i, t := range d.index {
		snap.Index[i] = t.Key()
	}
	for _, r := range d.Roots() {
		snap.Roots = append(snap.Roots, r.Key())
	}
	for _, l := range Languages {
		m := make(map[string]string, len(d.translations.byTerm[l]))
		for k, v := range d.translations.byTerm[l] {
			m[k] = v
		}
		snap.Translations[l] = m
	}
	for k, v := range d.inhibitions {
		snap.Inhibitions[k] = append([]string(nil), v...)
	}
	for k, v := range d.ranks {
		snap.Ranks[k] = v
	}
	for k, parts := range d.partitions {
		keys := make([]string, len(parts))
		for i, p := range parts {
			keys[i] = p.Key()
		}
		snap.Partitions[k] = keys
	}
	for i, m := range d.relations {
		snap.Relations[i] = m.Words()
	}
	return snap, nil
}

// Load rebuilds a defined dictionary from a snapshot without recomputing
// relations or ranks. The index must be in script order.
func Load(snap *Snapshot, logger *zap.SugaredLogger) (*Dictionary, error) {
	start := time.Now()
	d := New(logger)

	scripts, err := script.ParseAll(snap.Index)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot index")
	}
	for i := 1; i < len(scripts); i++ {
		if !script.Less(scripts[i-1], scripts[i]) {
			return nil, consistency(ErrSnapshotOrder, scripts[i].Key(), "after %s", scripts[i-1].Key())
		}
	}

	d.index = make([]*Term, len(scripts))
	d.position = make(map[string]int, len(scripts))
	for i, s := range scripts {
		t := &Term{Script: s, Index: i}
		d.index[i] = t
		d.position[s.Key()] = i
		d.terms[s.Key()] = t
	}

	for _, rk := range snap.Roots {
		r, ok := d.terms[rk]
		if !ok {
			return nil, consistency(ErrTermNotFound, rk, "root missing from snapshot index")
		}
		d.roots = append(d.roots, r)
		for seq := range r.Script.Sequences() {
			d.ssRoot[seq.Key()] = r
		}
	}
	for _, t := range d.index {
		first := t.Script.SingularSequences()[0]
		r, ok := d.ssRoot[first.Key()]
		if !ok {
			return nil, consistency(ErrNotInRootParadigm, t.Key(), "")
		}
		d.members[r.Key()] = append(d.members[r.Key()], t)
	}

	for _, l := range Languages {
		for k, text := range snap.Translations[l] {
			if _, ok := d.terms[k]; !ok {
				return nil, consistency(ErrTermNotFound, k, "translated term missing from snapshot index")
			}
			d.translations.byTerm[l][k] = text
			d.translations.byText[l][text] = k
		}
	}
	for k, v := range snap.Inhibitions {
		d.inhibitions[k] = append([]string(nil), v...)
	}

	d.ranks = make(map[string]int, len(snap.Ranks))
	for _, t := range d.index {
		r, ok := snap.Ranks[t.Key()]
		if !ok {
			return nil, consistency(ErrTermNotFound, t.Key(), "no rank in snapshot")
		}
		d.ranks[t.Key()] = r
	}
	d.partitions = make(map[string][]*Term, len(snap.Partitions))
	for pk, keys := range snap.Partitions {
		if _, ok := d.terms[pk]; !ok {
			return nil, consistency(ErrTermNotFound, pk, "partitioned term missing from snapshot index")
		}
		parts := make([]*Term, 0, len(keys))
		for _, k := range keys {
			t, ok := d.terms[k]
			if !ok {
				return nil, consistency(ErrTermNotFound, k, "partition missing from snapshot index")
			}
			parts = append(parts, t)
		}
		d.partitions[pk] = parts
	}

	if len(snap.Relations) != relationCount {
		return nil, errors.Newf("snapshot has %d relation matrices, expected %d", len(snap.Relations), relationCount)
	}
	for i, rows := range snap.Relations {
		m, err := matrix.FromRows(len(d.index), rows)
		if err != nil {
			return nil, errors.Wrapf(err, "relation %s", RelationType(i))
		}
		d.relations[i] = m
	}

	d.link()
	metrics.ObserveStage("load", start)
	d.logger.Infow("dictionary loaded", "version", snap.Version, "terms", len(d.index))
	return d, nil
}

// Encode writes the snapshot as zstd compressed JSON.
func (s *Snapshot) Encode(w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "zstd writer")
	}
	if err := json.NewEncoder(zw).Encode(s); err != nil {
		_ = zw.Close()
		return errors.Wrap(err, "encode snapshot")
	}
	return errors.Wrap(zw.Close(), "flush snapshot")
}

// DecodeSnapshot reads a snapshot written by Encode.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "zstd reader")
	}
	defer zr.Close()

	var snap Snapshot
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	return &snap, nil
}

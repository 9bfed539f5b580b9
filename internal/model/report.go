package model

// ScriptReport describes one parsed script
type ScriptReport struct {
	Input     string   `json:"input"`               // Literal as given
	Canonical string   `json:"canonical"`           // Canonical rendering
	Layer     int      `json:"layer"`               // 0..6
	Kind      string   `json:"kind"`                // primitive, multiplicative, additive
	Cardinal  int      `json:"cardinal"`            // Number of singular sequences
	Sequences []string `json:"sequences,omitempty"` // Singular sequences, when expanded
}

// TermReport describes one dictionary term and its relations
type TermReport struct {
	Script       string              `json:"script"`
	Index        int                 `json:"index"`
	Rank         int                 `json:"rank"`
	Root         string              `json:"root"`
	Parent       string              `json:"parent,omitempty"`
	Translations map[string]string   `json:"translations,omitempty"` // Language code -> text
	Inhibitions  []string            `json:"inhibitions,omitempty"`
	Relations    map[string][]string `json:"relations"` // Relation code -> related scripts
}

// CheckReport is the outcome of one proposition check
type CheckReport struct {
	Line      int    `json:"line"` // 1-based position in the batch
	Input     string `json:"input"`
	Valid     bool   `json:"valid"`
	Root      string `json:"root,omitempty"`
	Canonical string `json:"canonical,omitempty"` // Clauses in depth order
	Outcome   string `json:"outcome"`             // valid, or the structural error kind
	Error     string `json:"error,omitempty"`
}

// BatchSummary aggregates a proposition batch
type BatchSummary struct {
	Total    int            `json:"total"`
	Valid    int            `json:"valid"`
	Invalid  int            `json:"invalid"`
	Outcomes map[string]int `json:"outcomes"`
	Reports  []CheckReport  `json:"reports"`
}

// Summarize counts reports by outcome
func Summarize(reports []CheckReport) BatchSummary {
	s := BatchSummary{
		Total:    len(reports),
		Outcomes: make(map[string]int),
		Reports:  reports,
	}
	for _, r := range reports {
		if r.Valid {
			s.Valid++
		} else {
			s.Invalid++
		}
		s.Outcomes[r.Outcome]++
	}
	return s
}

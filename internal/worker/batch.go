package worker

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ppiankov/ieml/internal/proposition"
	"github.com/ppiankov/ieml/internal/script"
)

// TermLookup reports an error when a script is not a known term. A nil
// lookup accepts every well formed script.
type TermLookup func(s *script.Script) error

// CheckJob validates one proposition given in text form.
type CheckJob struct {
	Index  int
	Input  string
	Lookup TermLookup
}

// Execute parses, checks and orders the proposition
func (j *CheckJob) Execute(ctx context.Context) Result {
	res := &CheckResult{Index: j.Index, Input: j.Input}
	if err := ctx.Err(); err != nil {
		res.Error = err
		return res
	}

	clauses, err := proposition.ParseProposition(j.Input)
	if err != nil {
		res.Error = err
		return res
	}

	if j.Lookup != nil {
		for _, c := range clauses {
			for _, s := range []*script.Script{c.Substance, c.Attribute, c.Mode} {
				if s == nil {
					continue
				}
				if err := j.Lookup(s); err != nil {
					res.Error = errors.Wrapf(err, "term [%s]", s)
					return res
				}
			}
		}
	}

	g := proposition.NewGraph(clauses)
	ordered, err := g.Order()
	if err != nil {
		res.Error = err
		return res
	}

	res.Root = g.Root()
	res.Ordered = ordered
	return res
}

// CheckResult is the outcome of one proposition check
type CheckResult struct {
	Index   int
	Input   string
	Root    *script.Script
	Ordered []proposition.Clause
	Error   error
}

// GetError returns the error from the check result
func (r *CheckResult) GetError() error {
	return r.Error
}

// Canonical renders the ordered clauses, empty on error.
func (r *CheckResult) Canonical() string {
	if r.Error != nil {
		return ""
	}
	return proposition.Render(r.Ordered)
}

// BatchChecker checks many propositions concurrently
type BatchChecker struct {
	lookup      TermLookup
	concurrency int
}

// NewBatchChecker creates a batch checker. lookup may be nil.
func NewBatchChecker(lookup TermLookup, concurrency int) *BatchChecker {
	return &BatchChecker{
		lookup:      lookup,
		concurrency: concurrency,
	}
}

// CheckLines checks every line and returns one result per line, in input
// order.
func (b *BatchChecker) CheckLines(ctx context.Context, lines []string) []*CheckResult {
	if len(lines) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()

	go func() {
		defer pool.Close()
		for i, line := range lines {
			if !pool.Submit(&CheckJob{Index: i, Input: line, Lookup: b.lookup}) {
				return
			}
		}
	}()

	out := make([]*CheckResult, len(lines))
	for result := range pool.Results() {
		r := result.(*CheckResult)
		out[r.Index] = r
	}

	// Lines skipped by a cancellation still get a result.
	for i, r := range out {
		if r == nil {
			out[i] = &CheckResult{Index: i, Input: lines[i], Error: context.Cause(ctx)}
		}
	}
	return out
}

// CheckFile reads propositions from a file and checks them concurrently
func (b *BatchChecker) CheckFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	lines, err := ReadLinesFromFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "read propositions")
	}

	return b.CheckLines(ctx, lines), nil
}

// ReadLinesFromFile reads one proposition per line. Blank lines and lines
// starting with '#' are skipped.
func ReadLinesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}
	defer func() { _ = file.Close() }()

	var lines []string

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan file")
	}

	return lines, nil
}

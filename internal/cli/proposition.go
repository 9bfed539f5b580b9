package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ppiankov/ieml/internal/dictionary"
	"github.com/ppiankov/ieml/internal/model"
	"github.com/ppiankov/ieml/internal/proposition"
	"github.com/ppiankov/ieml/internal/script"
	"github.com/ppiankov/ieml/internal/worker"
)

var (
	withDictionary bool
	concurrency    int
	batchOutput    string
	batchTimeout   time.Duration
)

var propositionCmd = &cobra.Command{
	Use:     "proposition",
	Aliases: []string{"prop"},
	Short:   "Check IEML propositions",
	Long: `A proposition is a list of clauses written as

  [([substance]*[attribute]*[mode])+([substance]*[attribute])]

Read as edges from substance to attribute, the clauses must form one
rooted tree. A valid proposition is printed with its clauses in depth
order from the root, each generation sorted.`,
}

var propositionCheckCmd = &cobra.Command{
	Use:   "check <proposition>",
	Short: "Check one proposition and print its canonical order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lookup, err := termLookup(cmd.Context())
		if err != nil {
			return err
		}

		job := &worker.CheckJob{Input: args[0], Lookup: lookup}
		res := job.Execute(cmd.Context()).(*worker.CheckResult)
		if res.Error != nil {
			return describeCheckError(res.Error)
		}

		pterm.Success.WithWriter(cmd.ErrOrStderr()).Printfln("Valid proposition rooted at [%s]", res.Root)
		fmt.Fprintln(cmd.OutOrStdout(), res.Canonical())
		return nil
	},
}

var propositionBatchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Check every proposition of a file concurrently",
	Long: `Batch reads one proposition per line (blank lines and lines starting
with '#' are skipped) and checks them on a worker pool. Reports keep the
input order.

Example:
  ieml proposition batch propositions.txt
  ieml proposition batch propositions.txt --concurrency 8 --output report.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("concurrency") {
			cfg.Concurrency.Workers = concurrency
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
		defer cancel()

		lookup, err := termLookup(ctx)
		if err != nil {
			return err
		}

		checker := worker.NewBatchChecker(lookup, cfg.Concurrency.Workers)
		results, err := checker.CheckFile(ctx, args[0])
		if err != nil {
			return err
		}

		reports := make([]model.CheckReport, len(results))
		for i, r := range results {
			reports[i] = checkReport(r)
		}
		summary := model.Summarize(reports)

		if batchOutput != "" {
			if err := writeJSON(cmd.OutOrStdout(), batchOutput, summary); err != nil {
				return err
			}
		} else {
			for _, r := range reports {
				if r.Valid {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", r.Line, r.Canonical)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", r.Line, pterm.Red(r.Outcome), r.Error)
				}
			}
		}

		pterm.Info.WithWriter(cmd.ErrOrStderr()).Printfln("%d propositions: %d valid, %d invalid",
			summary.Total, summary.Valid, summary.Invalid)
		if summary.Invalid > 0 {
			return errors.Newf("%d invalid propositions", summary.Invalid)
		}
		return nil
	},
}

// termLookup loads the latest dictionary version when --dictionary is set.
func termLookup(ctx context.Context) (worker.TermLookup, error) {
	if !withDictionary {
		return nil, nil
	}
	d, err := openDictionary(ctx, sourcePath != "")
	if err != nil {
		return nil, err
	}
	return func(s *script.Script) error {
		_, err := d.TermOf(s)
		return err
	}, nil
}

func checkReport(r *worker.CheckResult) model.CheckReport {
	rep := model.CheckReport{
		Line:  r.Index + 1,
		Input: r.Input,
		Valid: r.Error == nil,
	}
	if r.Error != nil {
		rep.Outcome = outcomeOf(r.Error)
		rep.Error = r.Error.Error()
		return rep
	}
	rep.Outcome = "valid"
	rep.Root = r.Root.String()
	rep.Canonical = r.Canonical()
	return rep
}

func outcomeOf(err error) string {
	var se *proposition.StructuralError
	var pe *proposition.ParseError
	switch {
	case errors.As(err, &se):
		return se.Outcome()
	case errors.As(err, &pe):
		return "syntax"
	case errors.Is(err, dictionary.ErrTermNotFound):
		return "unknown_term"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "error"
}

// describeCheckError adds the offending node to structural errors.
func describeCheckError(err error) error {
	var se *proposition.StructuralError
	if errors.As(err, &se) && se.Node != nil {
		return errors.WithHintf(err, "check the clauses attached to [%s]", se.Node)
	}
	return err
}

func init() {
	rootCmd.AddCommand(propositionCmd)
	propositionCmd.AddCommand(propositionCheckCmd, propositionBatchCmd)

	propositionCmd.PersistentFlags().BoolVar(&withDictionary, "dictionary", false, "require every term to be in the latest stored dictionary")
	propositionCmd.PersistentFlags().StringVar(&sourcePath, "source", "", "with --dictionary, build this source instead of loading the store")
	propositionCmd.PersistentFlags().StringVar(&storePath, "store", "", "version store database (default: config dictionary.store)")

	propositionBatchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: config concurrency.workers)")
	propositionBatchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "write the JSON summary to this file ('-' for stdout)")
	propositionBatchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for the batch")
}

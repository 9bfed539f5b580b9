package cli

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ppiankov/ieml/internal/cache"
	"github.com/ppiankov/ieml/internal/logging"
	"github.com/ppiankov/ieml/internal/model"
	"github.com/ppiankov/ieml/internal/script"
)

var (
	scriptJSON bool
	noCache    bool
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Parse, expand and factorize IEML scripts",
}

var scriptParseCmd = &cobra.Command{
	Use:   "parse <script>...",
	Short: "Print the canonical form of scripts",
	Long: `Parse prints the canonical form, layer, kind and cardinal of each script.

Example:
  ieml script parse "O:M:." "U:S:E:."
  ieml script parse --json "M:M:M:."`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reports := make([]model.ScriptReport, 0, len(args))
		for _, arg := range args {
			s, err := script.Parse(arg)
			if err != nil {
				return err
			}
			reports = append(reports, scriptReport(arg, s, false))
		}

		if scriptJSON {
			return writeJSON(cmd.OutOrStdout(), "-", reports)
		}
		data := pterm.TableData{{"Input", "Canonical", "Layer", "Kind", "Cardinal"}}
		for _, r := range reports {
			data = append(data, []string{r.Input, r.Canonical, fmt.Sprint(r.Layer), r.Kind, fmt.Sprint(r.Cardinal)})
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
	},
}

var scriptExpandCmd = &cobra.Command{
	Use:   "expand <script>",
	Short: "List the singular sequences of a script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := script.Parse(args[0])
		if err != nil {
			return err
		}
		if scriptJSON {
			return writeJSON(cmd.OutOrStdout(), "-", scriptReport(args[0], s, true))
		}
		for seq := range s.Sequences() {
			fmt.Fprintln(cmd.OutOrStdout(), seq)
		}
		return nil
	},
}

var scriptTablesCmd = &cobra.Command{
	Use:   "tables <script>",
	Short: "Show the tables of a paradigm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := script.Parse(args[0])
		if err != nil {
			return err
		}
		for _, t := range s.Tables() {
			if err := renderTable(cmd, t); err != nil {
				return err
			}
		}
		return nil
	},
}

var scriptFactorizeCmd = &cobra.Command{
	Use:   "factorize <script>...",
	Short: "Factorize a set of scripts into sum of products form",
	Long: `Factorize expands every argument into its singular sequences and
returns the factorized script denoting exactly that set.

Example:
  ieml script factorize "S:A:A:." "B:A:A:." "T:A:A:."`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		seqs, err := script.ParseAll(args)
		if err != nil {
			return err
		}

		var c cache.Cache
		if cfg.Cache.Enabled && !noCache {
			c = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		}
		f := cache.NewFactorizer(c, cfg.Cache.DiskTTL, logging.Logger)

		s, err := f.Factorize(seqs)
		if err != nil {
			return err
		}
		if scriptJSON {
			return writeJSON(cmd.OutOrStdout(), "-", scriptReport(strings.Join(args, " "), s, false))
		}
		fmt.Fprintln(cmd.OutOrStdout(), s)
		return nil
	},
}

func scriptReport(input string, s *script.Script, expand bool) model.ScriptReport {
	r := model.ScriptReport{
		Input:     input,
		Canonical: s.String(),
		Layer:     s.Layer(),
		Kind:      s.Kind().String(),
		Cardinal:  s.Cardinal(),
	}
	if expand {
		r.Sequences = script.Keys(s.SingularSequences())
	}
	return r
}

// renderTable prints a table tab by tab. One dimensional tables print as
// a single column.
func renderTable(cmd *cobra.Command, t *script.Table) error {
	shape := t.Shape()
	headers := t.Headers()
	for k := 0; k < shape[2]; k++ {
		title := t.Paradigm().String()
		if k < len(headers) {
			title = headers[k].String()
		}
		pterm.DefaultSection.WithWriter(cmd.OutOrStdout()).Println(title)

		var data pterm.TableData
		for i := 0; i < shape[0]; i++ {
			row := make([]string, shape[1])
			for j := 0; j < shape[1]; j++ {
				row[j] = t.At(i, j, k).String()
			}
			data = append(data, row)
		}
		if err := pterm.DefaultTable.WithWriter(cmd.OutOrStdout()).WithData(data).Render(); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(scriptCmd)
	scriptCmd.AddCommand(scriptParseCmd, scriptExpandCmd, scriptTablesCmd, scriptFactorizeCmd)

	scriptCmd.PersistentFlags().BoolVar(&scriptJSON, "json", false, "print JSON")
	scriptFactorizeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the factorization cache")
}

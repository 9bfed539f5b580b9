package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ppiankov/ieml/internal/dictionary"
	"github.com/ppiankov/ieml/internal/logging"
	"github.com/ppiankov/ieml/internal/model"
	"github.com/ppiankov/ieml/internal/store"
)

var (
	sourcePath string
	storePath  string
	termJSON   bool
	noStore    bool
)

var dictionaryCmd = &cobra.Command{
	Use:     "dictionary",
	Aliases: []string{"dict"},
	Short:   "Build and query IEML dictionaries",
	Long: `Dictionary commands build a dictionary from its YAML source, keep each
built version in the local store and query terms and relations.

The source lists root paradigms, terms, inhibited relations and
translations:

  roots: ["O:M:."]
  terms: ["U:M:.", "y.", "o.", "e."]
  translations:
    fr: {"O:M:.": "racine"}
    en: {"O:M:.": "root"}`,
}

var dictionaryBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a dictionary version from its source and store it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := dictionaryConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		src, err := dictionary.LoadSource(cfg.Dictionary.Source)
		if err != nil {
			return err
		}
		start := time.Now()
		v, err := dictionary.NewVersionFromSource(ctx, time.Now().UTC().Truncate(time.Second), src, logging.Logger)
		if err != nil {
			return err
		}

		pterm.Success.WithWriter(cmd.ErrOrStderr()).Printfln("Built %s: %d terms, %d roots in %s",
			v.Name(), v.Dictionary.Len(), len(v.Dictionary.Roots()), time.Since(start).Round(time.Millisecond))

		if noStore {
			return nil
		}
		st, err := store.Open(cfg.Dictionary.Store, logging.Logger)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.Save(ctx, v); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v.Name())
		return nil
	},
}

var dictionaryTermCmd = &cobra.Command{
	Use:   "term <script>",
	Short: "Show a term with its rank, root and relations",
	Long: `Term looks a script up in the latest stored version, or in a fresh
build of the source when --source is given.

Example:
  ieml dictionary term "U:M:."
  ieml dictionary term --source dictionary.yaml --json "y."`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDictionary(cmd.Context(), sourcePath != "")
		if err != nil {
			return err
		}

		t, err := d.Term(args[0])
		if err != nil {
			return err
		}
		r := termReport(d, t)

		if termJSON {
			return writeJSON(cmd.OutOrStdout(), "-", r)
		}
		return renderTermReport(cmd, r)
	},
}

var dictionaryVersionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List stored dictionary versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := dictionaryConfig()
		if err != nil {
			return err
		}
		st, err := store.Open(cfg.Dictionary.Store, logging.Logger)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		records, err := st.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			pterm.Info.WithWriter(cmd.ErrOrStderr()).Println("No stored versions")
			return nil
		}

		data := pterm.TableData{{"Version", "Terms", "Snapshot bytes", "Stored at"}}
		for _, r := range records {
			data = append(data, []string{r.Name, fmt.Sprint(r.Terms), fmt.Sprint(r.Size), r.CreatedAt.Format(time.RFC3339)})
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
	},
}

var dictionaryWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild and store a new version whenever the source changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := dictionaryConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(cfg.Dictionary.Store, logging.Logger)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		registry := dictionary.NewRegistry(logging.Logger)
		if latest, err := st.Latest(ctx); err == nil {
			if err := registry.Publish(latest); err != nil {
				return err
			}
		}

		w := dictionary.NewWatcher(cfg.Dictionary.Source, registry, cfg.Watch.RebuildsPerSecond, logging.Logger)
		w.OnPublish = func(v *dictionary.Version) {
			if err := st.Save(ctx, v); err != nil {
				logging.Logger.Warnw("store version failed", "version", v.Name(), "error", err)
				return
			}
			pterm.Success.WithWriter(cmd.ErrOrStderr()).Printfln("Published %s (%d terms)", v.Name(), v.Dictionary.Len())
		}

		pterm.Info.WithWriter(cmd.ErrOrStderr()).Printfln("Watching %s", cfg.Dictionary.Source)
		return w.Run(ctx)
	},
}

// dictionaryConfig applies the --source and --store flags over the config.
func dictionaryConfig() (model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}
	if sourcePath != "" {
		cfg.Dictionary.Source = sourcePath
	}
	if storePath != "" {
		cfg.Dictionary.Store = storePath
	}
	return cfg, nil
}

// openDictionary builds the source when fromSource is set and loads the
// latest stored version otherwise.
func openDictionary(ctx context.Context, fromSource bool) (*dictionary.Dictionary, error) {
	cfg, err := dictionaryConfig()
	if err != nil {
		return nil, err
	}

	if fromSource {
		src, err := dictionary.LoadSource(cfg.Dictionary.Source)
		if err != nil {
			return nil, err
		}
		return dictionary.Build(ctx, src, logging.Logger)
	}

	st, err := store.Open(cfg.Dictionary.Store, logging.Logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	v, err := st.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("no dictionary version in %s (run 'ieml dictionary build' first): %w", cfg.Dictionary.Store, err)
	}
	return v.Dictionary, nil
}

func termReport(d *dictionary.Dictionary, t *dictionary.Term) model.TermReport {
	r := model.TermReport{
		Script:       t.Key(),
		Index:        t.Index,
		Rank:         t.Rank,
		Root:         t.Root.Key(),
		Translations: make(map[string]string),
		Inhibitions:  t.Inhibitions,
		Relations:    make(map[string][]string),
	}
	if t.Parent != nil {
		r.Parent = t.Parent.Key()
	}
	for l, text := range t.Translations {
		r.Translations[string(l)] = text
	}

	terms := d.Terms()
	for _, rt := range dictionary.RelationTypes {
		cols := d.Rel(rt).RowIndices(t.Index)
		if len(cols) == 0 {
			continue
		}
		related := make([]string, len(cols))
		for i, j := range cols {
			related[i] = terms[j].Key()
		}
		r.Relations[rt.String()] = related
	}
	return r
}

func renderTermReport(cmd *cobra.Command, r model.TermReport) error {
	out := cmd.OutOrStdout()
	pterm.DefaultSection.WithWriter(out).Println(r.Script)

	info := pterm.TableData{
		{"Rank", fmt.Sprint(r.Rank)},
		{"Root", r.Root},
	}
	if r.Parent != "" {
		info = append(info, []string{"Parent", r.Parent})
	}
	langs := make([]string, 0, len(r.Translations))
	for l := range r.Translations {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	for _, l := range langs {
		info = append(info, []string{"Translation " + l, r.Translations[l]})
	}
	if len(r.Inhibitions) > 0 {
		info = append(info, []string{"Inhibits", strings.Join(r.Inhibitions, ", ")})
	}
	if err := pterm.DefaultTable.WithWriter(out).WithData(info).Render(); err != nil {
		return err
	}

	rel := pterm.TableData{{"Relation", "Terms"}}
	for _, rt := range dictionary.RelationTypes {
		if related, ok := r.Relations[rt.String()]; ok {
			rel = append(rel, []string{pterm.LightCyan(rt.Name()), strings.Join(related, " ")})
		}
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(rel).Render()
}

func init() {
	rootCmd.AddCommand(dictionaryCmd)
	dictionaryCmd.AddCommand(dictionaryBuildCmd, dictionaryTermCmd, dictionaryVersionsCmd, dictionaryWatchCmd)

	dictionaryCmd.PersistentFlags().StringVar(&sourcePath, "source", "", "dictionary YAML source (default: config dictionary.source)")
	dictionaryCmd.PersistentFlags().StringVar(&storePath, "store", "", "version store database (default: config dictionary.store)")
	dictionaryBuildCmd.Flags().BoolVar(&noStore, "dry-run", false, "build without storing the version")
	dictionaryTermCmd.Flags().BoolVar(&termJSON, "json", false, "print JSON")
}

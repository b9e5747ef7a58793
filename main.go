// trex — Translation EXchange toolkit: syncs nested YAML message trees
// with the flat JSON exchange format of a translation platform.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/localehub/trex/component"
	"github.com/localehub/trex/config"
	"github.com/localehub/trex/exchange"
	"github.com/localehub/trex/i18n"
	"github.com/localehub/trex/locale"
	"github.com/localehub/trex/lockfile"
	"github.com/localehub/trex/mergetree"
	"github.com/localehub/trex/poexport"
	"github.com/localehub/trex/tree"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "trex",
		Short: "Translation EXchange toolkit for nested YAML message trees",
		Long: `trex — Translation EXchange toolkit.

Developers author messages in nested YAML locale files (plurals, {name}
variables, component interpolation, @:path links). Translators work on a
flat JSON exchange format. trex converts between the two and validates
fetched translations before any file is written.

Commands:
  status      Show project info and per-locale translation statistics
  push        Restructure the source tree into the exchange payload
  pull        Merge fetched translations and write per-locale artifacts
  check       Run the source-locale round-trip self-check
  export-po   Render exchange payloads as gettext PO files`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newStatusCmd(),
		newPushCmd(),
		newPullCmd(),
		newCheckCmd(),
		newExportPOCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("trex version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// Shared project loading
// ---------------------------------------------------------------------------

// workspace bundles everything a command needs: the resolved project, the
// locale registry, and the source tree with component blocks merged in.
type workspace struct {
	proj     *config.Project
	registry *locale.Registry
	source   *tree.Node
	comments *tree.Comments
	// componentNames lists merged component names in file order.
	componentNames []string
	// componentPath maps a component name to the source file it came from.
	componentPath map[string]string
}

func loadWorkspace() (*workspace, error) {
	proj, err := config.Detect(rootDir)
	if err != nil {
		return nil, err
	}
	if len(proj.Locales) == 0 {
		return nil, fmt.Errorf("no locale files found in %s", filepath.Join(proj.RootDir, proj.LocalesDir))
	}

	registry, err := locale.NewRegistry(proj.Locales)
	if err != nil {
		return nil, err
	}

	source, comments, err := tree.ParseFile(proj.LocaleFile(proj.SourceLocale))
	if err != nil {
		return nil, err
	}

	w := &workspace{
		proj:          proj,
		registry:      registry,
		source:        source,
		comments:      comments,
		componentPath: make(map[string]string),
	}
	if err := w.mergeComponents(); err != nil {
		return nil, err
	}
	return w, nil
}

// mergeComponents parses the embedded message block of every component
// source file and grafts it onto the source tree under the component key,
// one subtree per component, comments re-rooted to match.
func (w *workspace) mergeComponents() error {
	files, err := w.proj.ComponentFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	group := tree.NewMapping()
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		body, ok, err := component.Extract(data)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if !ok {
			continue
		}

		name := component.Name(file)
		sub, subComments, err := tree.Parse(body)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if err := group.Put(name, sub); err != nil {
			return fmt.Errorf("%s: duplicate component name %q", file, name)
		}

		prefix := w.proj.ComponentKey + "." + name + "."
		for path, text := range subComments.Inline {
			w.comments.Inline[prefix+path] = text
		}
		for key, text := range subComments.Named {
			w.comments.Named[key] = text
		}

		w.componentNames = append(w.componentNames, name)
		w.componentPath[name] = file
	}

	if len(w.componentNames) == 0 {
		return nil
	}
	if err := w.source.Put(w.proj.ComponentKey, group); err != nil {
		return fmt.Errorf("top-level key %q is taken by the locale file; components cannot merge under it", w.proj.ComponentKey)
	}
	return nil
}

func (w *workspace) sourceLocale() (*locale.Locale, error) {
	return w.registry.Get(w.proj.SourceLocale)
}

// loadMergeTree destructures the fetched exchange payload for one locale
// and applies it onto a fresh merge tree over the source.
func (w *workspace) loadMergeTree(code string) (*mergetree.Tree, error) {
	loc, err := w.registry.Get(code)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(w.proj.ExchangeFile(code))
	if err != nil {
		return nil, fmt.Errorf("reading fetched payload: %w", err)
	}
	payload, err := exchange.Destructure(data, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", w.proj.ExchangeFile(code), err)
	}
	mt := mergetree.New(w.source, loc)
	if err := mt.Apply(payload); err != nil {
		return nil, fmt.Errorf("%s: %w", w.proj.ExchangeFile(code), err)
	}
	return mt, nil
}

// sourceMergeTree returns a merge tree seeded with the source messages
// themselves, used for the source locale's artifacts.
func (w *workspace) sourceMergeTree() (*mergetree.Tree, error) {
	loc, err := w.sourceLocale()
	if err != nil {
		return nil, err
	}
	mt := mergetree.New(w.source, loc)
	err = w.source.Walk(func(path []string, n *tree.Node) error {
		if n.Kind != tree.Leaf {
			return nil
		}
		return mt.Node(path...).Set(n.Msg)
	})
	if err != nil {
		return nil, err
	}
	return mt, nil
}

// sourceStrings flattens the restructured source tree into a map from
// dotted key path to exchange string, the content the lock file hashes.
func (w *workspace) sourceStrings() (map[string]string, error) {
	ex, err := exchange.Restructure(w.source, w.comments)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	var visit func(node *exchange.Tree, path string)
	visit = func(node *exchange.Tree, path string) {
		if node.IsLeaf() {
			out[path] = lockfile.EntryContent(path, node.Leaf().String)
			return
		}
		for _, key := range node.Keys() {
			child, _ := node.Child(key)
			p := key
			if path != "" {
				p = path + "." + key
			}
			visit(child, p)
		}
	}
	visit(ex, "")
	return out, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ---------------------------------------------------------------------------
// status (read-only: project info + translation stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show project info and per-locale translation statistics",
		Long: `Show the detected project layout and translation progress.

Progress is computed from the fetched exchange payloads; locales without
a fetched payload are listed as not fetched. Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}

	return cmd
}

func runStatus() error {
	w, err := loadWorkspace()
	if err != nil {
		return err
	}
	proj := w.proj

	lock, err := lockfile.Load(proj.RootDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Project"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	absRoot, _ := filepath.Abs(proj.RootDir)
	fmt.Fprintf(os.Stderr, "  Root:        %s\n", absRoot)
	fmt.Fprintf(os.Stderr, "  Locales dir: %s\n", proj.LocalesDir)
	fmt.Fprintf(os.Stderr, "  Source:      %s\n", proj.SourceLocale)
	fmt.Fprintf(os.Stderr, "  Locales:     %s\n", strings.Join(proj.Locales, ", "))
	if len(w.componentNames) > 0 {
		fmt.Fprintf(os.Stderr, "  Components:  %s\n", strings.Join(w.componentNames, ", "))
	}
	fmt.Fprintf(os.Stderr, "  Lock file:   %s\n", lock.Summary())
	fmt.Fprintln(os.Stderr)

	total := 0
	w.source.Walk(func(path []string, n *tree.Node) error {
		if n.Kind == tree.Leaf {
			total++
		}
		return nil
	})
	strs, err := w.sourceStrings()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorBlue, i18n.T("Translation Statistics"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "\n%-10s %-12s %-12s %-8s %-8s\n", "Locale", "Translated", "Untrans.", "Stale", "Percent")
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 52))

	for _, code := range proj.TargetLocales() {
		if !fileExists(proj.ExchangeFile(code)) {
			fmt.Fprintf(os.Stderr, "%-10s %-12s %-12s %-8s %-8s\n", code, "not fetched", "-", "-", "-")
			continue
		}
		mt, err := w.loadMergeTree(code)
		if err != nil {
			logWarning("%s: %v", code, err)
			fmt.Fprintf(os.Stderr, "%-10s %-12s %-12s %-8s %-8s\n", code, "error", "-", "-", "-")
			continue
		}
		leafTotal, translated := mt.Stats()
		percent := 0
		if leafTotal > 0 {
			percent = translated * 100 / leafTotal
		}
		stale := len(lock.FilterChanged(code, strs))
		fmt.Fprintf(os.Stderr, "%-10s %-12d %-12d %-8d %d%%\n", code, translated, leafTotal-translated, stale, percent)
	}

	fmt.Fprintln(os.Stderr, strings.Repeat("─", 52))
	fmt.Fprintf(os.Stderr, i18n.T("Source messages: %d")+"\n", total)
	fmt.Fprintln(os.Stderr)
	return nil
}

// ---------------------------------------------------------------------------
// push (restructure the source tree into the exchange payload)
// ---------------------------------------------------------------------------

func newPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Restructure the source tree into the exchange payload",
		Long: `Convert the source locale tree (locale file plus embedded component
blocks) into the flat JSON exchange payload for upload.

Runs the round-trip self-check first; a payload that would not survive
the destructure path is never written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush()
		},
	}

	return cmd
}

func runPush() error {
	w, err := loadWorkspace()
	if err != nil {
		return err
	}

	loc, err := w.sourceLocale()
	if err != nil {
		return err
	}
	if err := mergetree.SelfCheck(w.source, w.comments, loc); err != nil {
		return err
	}

	ex, err := exchange.Restructure(w.source, w.comments)
	if err != nil {
		return err
	}
	payload, err := ex.Marshal()
	if err != nil {
		return err
	}

	out := w.proj.ExchangeFile(w.proj.SourceLocale)
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(out, payload, 0644); err != nil {
		return err
	}
	logSuccess(i18n.T("Exchange payload written: %s"), out)
	return nil
}

// ---------------------------------------------------------------------------
// pull (merge fetched translations and write per-locale artifacts)
// ---------------------------------------------------------------------------

func newPullCmd() *cobra.Command {
	var langs string

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Merge fetched translations and write per-locale artifacts",
		Long: `Merge the fetched per-locale exchange payloads back into the tree
shape: clear half-translated groups, copy linked messages, validate, and
write one artifact per locale plus the generated component blocks.

Every locale is validated before any file is written; a single invalid
payload aborts the whole run with nothing modified.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPull(langs)
		},
	}

	cmd.Flags().StringVar(&langs, "lang", "", "Locales to pull (comma-separated, default: all targets)")

	return cmd
}

// pendingWrite is one artifact held in memory until the whole run
// validates.
type pendingWrite struct {
	path string
	data []byte
}

func runPull(langs string) error {
	w, err := loadWorkspace()
	if err != nil {
		return err
	}

	targets := w.proj.TargetLocales()
	if langs != "" {
		targets = strings.Split(langs, ",")
	}
	if len(targets) == 0 {
		logInfo(i18n.T("No target locales; nothing to pull."))
		return nil
	}

	var writes []pendingWrite
	merged := make(map[string]*mergetree.Tree)

	for _, code := range targets {
		if code == w.proj.SourceLocale {
			return fmt.Errorf("locale %q is the source locale; pull targets only", code)
		}
		mt, err := w.loadMergeTree(code)
		if err != nil {
			return err
		}
		warnings, err := mt.Finalize()
		if err != nil {
			return fmt.Errorf("%s: %w", code, err)
		}
		for _, warning := range warnings {
			logWarning("%s: %s", code, warning)
		}

		artifact, err := mt.Emit(w.proj.ComponentKey)
		if err != nil {
			return fmt.Errorf("%s: %w", code, err)
		}
		writes = append(writes, pendingWrite{path: w.proj.OutFile(code), data: artifact})
		merged[code] = mt
	}

	componentWrites, err := w.renderComponents(merged)
	if err != nil {
		return err
	}
	writes = append(writes, componentWrites...)

	for _, pw := range writes {
		if err := os.MkdirAll(filepath.Dir(pw.path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(pw.path, pw.data, 0644); err != nil {
			return err
		}
		logSuccess(i18n.T("Written: %s"), pw.path)
	}

	if err := w.recordPull(targets); err != nil {
		logWarning("lock file not updated: %v", err)
	}

	logSuccess(i18n.N("Pulled %d locale.", "Pulled %d locales.", len(targets)), len(targets))
	return nil
}

// recordPull checkpoints the current source strings for each pulled
// locale, so status can tell which translations go stale later.
func (w *workspace) recordPull(codes []string) error {
	lock, err := lockfile.Load(w.proj.RootDir)
	if err != nil {
		return err
	}
	strs, err := w.sourceStrings()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(strs))
	for k := range strs {
		keys = append(keys, k)
	}
	for _, code := range codes {
		lock.UpdateBatch(code, strs)
		lock.Clean(code, keys)
	}
	return lock.Save()
}

// renderComponents rebuilds the generated translations block of every
// component source file from the merged locale trees. The source locale
// is always included so components render without a fetched payload.
func (w *workspace) renderComponents(merged map[string]*mergetree.Tree) ([]pendingWrite, error) {
	if len(w.componentNames) == 0 {
		return nil, nil
	}

	srcTree, err := w.sourceMergeTree()
	if err != nil {
		return nil, err
	}

	var writes []pendingWrite
	for _, name := range w.componentNames {
		byLocale := make(map[string][]byte)

		doc, err := srcTree.EmitAt(w.proj.ComponentKey, name)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", name, err)
		}
		byLocale[w.proj.SourceLocale] = doc

		for code, mt := range merged {
			doc, err := mt.EmitAt(w.proj.ComponentKey, name)
			if err != nil {
				return nil, fmt.Errorf("component %s (%s): %w", name, code, err)
			}
			byLocale[code] = doc
		}

		file := w.componentPath[name]
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		out, err := component.WriteTranslations(src, component.ComposeLocales(byLocale))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		writes = append(writes, pendingWrite{path: file, data: out})
	}
	return writes, nil
}

// ---------------------------------------------------------------------------
// check (source-locale round-trip self-check)
// ---------------------------------------------------------------------------

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the source-locale round-trip self-check",
		Long: `Verify the converters against each other: restructuring and then
destructuring the source tree must reproduce it byte for byte. Also
validates link targets and component interpolation groups along the way.

Exits non-zero on the first defect. Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck()
		},
	}

	return cmd
}

func runCheck() error {
	w, err := loadWorkspace()
	if err != nil {
		return err
	}
	loc, err := w.sourceLocale()
	if err != nil {
		return err
	}
	if err := mergetree.SelfCheck(w.source, w.comments, loc); err != nil {
		return err
	}
	logSuccess(i18n.T("Round-trip self-check passed."))
	return nil
}

// ---------------------------------------------------------------------------
// export-po (render exchange payloads as gettext PO files)
// ---------------------------------------------------------------------------

func newExportPOCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export-po",
		Short: "Render exchange payloads as gettext PO files",
		Long: `Export one PO file per target locale for translators who work
offline with PO tooling: msgid is the source exchange string, msgstr the
current translation, and developer comments become extracted comments.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExportPO(outDir)
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default: the project out dir)")

	return cmd
}

func runExportPO(outDir string) error {
	w, err := loadWorkspace()
	if err != nil {
		return err
	}
	if outDir == "" {
		outDir = filepath.Join(w.proj.RootDir, w.proj.OutDir)
	}

	ex, err := exchange.Restructure(w.source, w.comments)
	if err != nil {
		return err
	}

	for _, code := range w.proj.TargetLocales() {
		var mt *mergetree.Tree
		if fileExists(w.proj.ExchangeFile(code)) {
			mt, err = w.loadMergeTree(code)
			if err != nil {
				return err
			}
		} else {
			loc, err := w.registry.Get(code)
			if err != nil {
				return err
			}
			mt = mergetree.New(w.source, loc)
		}

		f, err := poexport.Build(ex, mt)
		if err != nil {
			return fmt.Errorf("%s: %w", code, err)
		}
		path := filepath.Join(outDir, code+".po")
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return err
		}
		if err := f.WriteFile(path); err != nil {
			return err
		}
		total, translated := f.Stats()
		logSuccess(i18n.T("Exported %s (%d/%d translated)"), path, translated, total)
	}
	return nil
}

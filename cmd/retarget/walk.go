package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"retarget/internal/diag"
	"retarget/internal/diagfmt"
	"retarget/internal/observ"
	"retarget/internal/pipeline"
	"retarget/internal/walk"
)

var errFindings = errors.New("retargeting left unresolved references")

func newWalkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walk [flags] [files...]",
		Short: "Retarget the consumer's references and report what broke",
		Long: `Load assembly manifests (.toml, .yaml, .rmd), bind the consumer's references,
retarget the assemblies compiled against other versions and walk them.
Without files, retarget.toml is looked up from the working directory.`,
		RunE: runWalk,
	}
	addInputFlags(cmd)
	cmd.Flags().Int("jobs", 0, "parallel type visits per assembly (0 = GOMAXPROCS)")
	cmd.Flags().Int("max-findings", 0, "stop collecting findings per assembly after this many (0 = unlimited)")
	cmd.Flags().Bool("all", false, "walk every consumer reference, not only retargeted ones")
	cmd.Flags().String("format", "pretty", "output format (pretty|short|table|json)")
	cmd.Flags().Bool("notes", false, "show notes under each diagnostic")
	cmd.Flags().Bool("allow-errors", false, "exit 0 even when findings are errors")
	cmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	return cmd
}

func runWalk(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	switch format {
	case "pretty", "short", "table", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, short, table or json)", format)
	}
	withNotes, err := cmd.Flags().GetBool("notes")
	if err != nil {
		return err
	}
	allowErrors, err := cmd.Flags().GetBool("allow-errors")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	progress, err := parseSwitch("ui", uiValue)
	if err != nil {
		return err
	}
	root := cmd.Root().PersistentFlags()
	quiet, err := root.GetBool("quiet")
	if err != nil {
		return err
	}
	showTimings, err := root.GetBool("timings")
	if err != nil {
		return err
	}
	maxDiagnostics, err := root.GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	in, err := readInputs(cmd, args)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("jobs") {
		in.walk.Jobs, _ = cmd.Flags().GetInt("jobs")
	}
	if cmd.Flags().Changed("max-findings") {
		in.walk.MaxFindings, _ = cmd.Flags().GetInt("max-findings")
	}
	if cmd.Flags().Changed("all") {
		in.walk.All, _ = cmd.Flags().GetBool("all")
	}
	if in.walk.Jobs < 0 || in.walk.MaxFindings < 0 {
		return errors.New("--jobs and --max-findings must not be negative")
	}

	req := in.request()
	var timer *observ.Timer
	if showTimings {
		timer = observ.NewTimer()
		req.Timer = timer
	}

	out := cmd.OutOrStdout()
	var res *pipeline.Result
	if showProgress(progress, format, quiet, isTerminal(os.Stdout)) {
		res, err = runWithUI(cmd.Context(), out, "retarget", req)
	} else {
		res, err = pipeline.Run(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	switch format {
	case "json":
		err = writeWalkJSON(out, res, timer, withNotes, maxDiagnostics)
	case "short":
		_, err = io.WriteString(out, diag.FormatShortDiagnostics(mergeFindings(res).Items(), withNotes))
	case "table":
		err = writeWalkTables(out, res)
		if timer != nil && !quiet {
			fmt.Fprint(errOut, timer.Summary())
		}
	default:
		var timing *diag.Diagnostic
		if timer != nil && !quiet {
			timing = timer.Diagnostic(diag.Location{})
		}
		err = writeWalkPretty(out, res, timing, diagfmt.PrettyOpts{
			Color:     useColor(cmd),
			ShowNotes: withNotes,
			Max:       maxDiagnostics,
			Width:     terminalWidth() / 2,
		}, quiet)
	}
	if err != nil {
		return err
	}
	if timer != nil && quiet && format != "json" {
		printStageTimings(errOut, res.Timings)
	}
	if res.HasErrors() && !allowErrors {
		return errFindings
	}
	return nil
}

// mergeFindings collects the findings of every report into one sorted bag.
// A type shared by several walked assemblies is reported once.
func mergeFindings(res *pipeline.Result) *diag.Bag {
	n := 1
	for _, rep := range res.Reports {
		n += len(rep.Findings)
	}
	bag := diag.NewBag(n)
	r := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	for _, rep := range res.Reports {
		for _, f := range rep.Findings {
			d := f.Diagnostic
			r.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
		}
	}
	bag.Sort()
	return bag
}

// writeWalkPretty prints every report's diagnostics as one sorted list,
// then a summary line per report.
func writeWalkPretty(out io.Writer, res *pipeline.Result, timing *diag.Diagnostic, opts diagfmt.PrettyOpts, quiet bool) error {
	bag := mergeFindings(res)
	bag.Add(timing)
	if len(res.Reports) == 0 && !quiet {
		if _, err := fmt.Fprintln(out, "no assembly needed retargeting"); err != nil {
			return err
		}
	}
	if err := diagfmt.Pretty(out, bag, opts); err != nil {
		return err
	}
	if quiet {
		return nil
	}
	for _, rep := range res.Reports {
		if _, err := fmt.Fprintf(out, "%s: %d findings%s\n", rep.Assembly, len(rep.Findings), truncatedNote(rep)); err != nil {
			return err
		}
	}
	return nil
}

func truncatedNote(rep *walk.Report) string {
	if rep.Truncated {
		return " (truncated)"
	}
	return ""
}

func writeWalkTables(out io.Writer, res *pipeline.Result) error {
	width := terminalWidth() / 2
	for _, rep := range res.Reports {
		if err := rep.WriteTable(out, width); err != nil {
			return err
		}
	}
	return nil
}

type walkReportJSON struct {
	Assembly  string                    `json:"assembly"`
	Counts    walk.Counts               `json:"counts"`
	Truncated bool                      `json:"truncated,omitempty"`
	Findings  diagfmt.DiagnosticsOutput `json:"findings"`
}

type walkOutputJSON struct {
	Retargeted []string         `json:"retargeted"`
	Reports    []walkReportJSON `json:"reports"`
	Timings    *observ.Report   `json:"timings,omitempty"`
}

func writeWalkJSON(out io.Writer, res *pipeline.Result, timer *observ.Timer, withNotes bool, maxDiagnostics int) error {
	doc := walkOutputJSON{Reports: make([]walkReportJSON, 0, len(res.Reports))}
	for _, w := range res.Resolution.Wrappers() {
		doc.Retargeted = append(doc.Retargeted, w.Identity().String())
	}
	for _, rep := range res.Reports {
		doc.Reports = append(doc.Reports, walkReportJSON{
			Assembly:  rep.Assembly,
			Counts:    rep.Counts,
			Truncated: rep.Truncated,
			Findings:  diagfmt.BuildDiagnosticsOutput(rep.Diagnostics(), diagfmt.JSONOpts{Max: maxDiagnostics, IncludeNotes: withNotes}),
		})
	}
	if timer != nil {
		r := timer.Report()
		doc.Timings = &r
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

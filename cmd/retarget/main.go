// Command retarget binds assemblies compiled against older references to
// the consumer's newer ones and reports what no longer resolves.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"retarget/internal/version"
)

// session owns what the persistent pre-run sets up and main tears down.
type session struct {
	cleanups []func()
	// failed is set before close when the command returned an error.
	failed bool
}

func (s *session) onClose(fn func()) { s.cleanups = append(s.cleanups, fn) }

func (s *session) close() {
	for _, fn := range slices.Backward(s.cleanups) {
		fn()
	}
	s.cleanups = nil
}

func newRootCmd(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:           "retarget",
		Short:         "Assembly retargeting and reference checks",
		Long:          `retarget rebinds assemblies to a consumer's references and reports types and members that no longer resolve`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			applyColor(cmd)
			stopProf, err := setupProfiling(cmd)
			if err != nil {
				return err
			}
			s.onClose(stopProf)
			stopTrace, err := setupTracing(cmd, s)
			if err != nil {
				return err
			}
			s.onClose(stopTrace)
			return nil
		},
	}

	root.AddCommand(newWalkCmd())
	root.AddCommand(newLookupCmd())
	root.AddCommand(newPackCmd())
	root.AddCommand(newVersionCmd())

	flags := root.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	flags.String("trace", "", "write trace events to a file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "events kept in ring mode")
	flags.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval")

	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")
	return root
}

// main runs the root command and exits with status 1 on any error.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	s := &session{}
	err := newRootCmd(s).ExecuteContext(ctx)
	s.failed = err != nil
	s.close()
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "retarget:", err)
		os.Exit(1)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of stdout, or 0 when it is not a terminal.
func terminalWidth() int {
	if !isTerminal(os.Stdout) {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

func useColor(cmd *cobra.Command) bool {
	flag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false
	}
	mode, err := parseSwitch("color", flag)
	if err != nil {
		return false
	}
	return mode.resolve(isTerminal(os.Stdout))
}

func applyColor(cmd *cobra.Command) {
	color.NoColor = !useColor(cmd)
}

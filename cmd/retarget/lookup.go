package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"retarget/internal/diag"
	"retarget/internal/pipeline"
	"retarget/internal/retargeting"
	"retarget/internal/symbols"
)

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup --in ASSEMBLY [flags] TYPE [files...]",
		Short: "Show a type as the consumer sees it",
		Long: `Resolve the consumer's references, then look up a top-level type by its full
metadata name (Namespace.Name, with a backtick arity for generics) in one
of them and list its members with any use-site errors.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runLookup,
	}
	addInputFlags(cmd)
	cmd.Flags().String("in", "", "consumer reference to look in (required)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func runLookup(cmd *cobra.Command, args []string) error {
	asmName, err := cmd.Flags().GetString("in")
	if err != nil {
		return err
	}
	typeName := args[0]
	in, err := readInputs(cmd, args[1:])
	if err != nil {
		return err
	}
	req := in.request()
	req.NoWalk = true
	res, err := pipeline.Run(cmd.Context(), req)
	if err != nil {
		return err
	}
	asm := res.Resolution.ByName(asmName)
	if asm == nil {
		return fmt.Errorf("%w: %s is not a consumer reference", pipeline.ErrUnknownAssembly, asmName)
	}
	t := asm.LookupTopLevelType(symbols.TopLevelName(typeName), true)
	out := cmd.OutOrStdout()
	if et, ok := t.(symbols.ErrorTypeSymbol); ok {
		d := et.ErrorInfo()
		if d == nil {
			return fmt.Errorf("%s: type %s not found", asm.Identity(), typeName)
		}
		return fmt.Errorf("%s: %s %s", asm.Identity(), d.Code.ID(), d.Message)
	}
	return describeType(out, asm, t)
}

func describeType(out io.Writer, asm symbols.AssemblySymbol, t symbols.NamedTypeSymbol) error {
	origin := symbols.ContainingAssembly(t)
	status := "unchanged"
	if _, ok := asm.(*retargeting.Assembly); ok {
		status = "retargeted"
	}
	if _, err := fmt.Fprintf(out, "%s (%s) in %s [%s]\n", symbols.DisplayString(t), t.TypeKind(), origin.Identity(), status); err != nil {
		return err
	}
	if b := t.BaseType(); b != nil {
		writeLine(out, "base", symbols.DisplayString(b), b.UseSiteDiagnostic())
	}
	for _, i := range t.Interfaces() {
		writeLine(out, "interface", symbols.DisplayString(i), i.UseSiteDiagnostic())
	}
	var broken int
	for _, m := range t.Members() {
		kind, d := memberInfo(m)
		if kind == "" {
			continue
		}
		if d.IsError() {
			broken++
		}
		writeLine(out, kind, symbols.DisplayString(m), d)
	}
	if broken > 0 {
		return fmt.Errorf("%d members of %s do not resolve", broken, symbols.FullName(t))
	}
	return nil
}

func memberInfo(m symbols.Symbol) (string, *diag.Diagnostic) {
	switch v := m.(type) {
	case symbols.FieldSymbol:
		return "field", symbols.FirstError(v.Type())
	case symbols.MethodSymbol:
		sig := []symbols.TypeWithModifiers{v.ReturnType()}
		for _, p := range v.Parameters() {
			sig = append(sig, p.Type())
		}
		return "method", symbols.FirstError(sig...)
	case symbols.PropertySymbol:
		return "property", symbols.FirstError(v.Type())
	case symbols.EventSymbol:
		return "event", symbols.FirstError(v.Type())
	case symbols.NamedTypeSymbol:
		return "nested", v.UseSiteDiagnostic()
	}
	return "", nil
}

func writeLine(out io.Writer, kind, name string, d *diag.Diagnostic) {
	if d.IsError() {
		fmt.Fprintf(out, "  %-9s %s  !! %s %s\n", kind, name, d.Code.ID(), d.Message)
		return
	}
	fmt.Fprintf(out, "  %-9s %s\n", kind, name)
}


// Package pipeline orchestrates a retargeting run: load assembly files,
// bind them into a universe, resolve a consumer's references and walk the
// assemblies that had to be retargeted.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"retarget/internal/metadata"
	"retarget/internal/observ"
	"retarget/internal/refs"
	"retarget/internal/retargeting"
	"retarget/internal/symbols"
	"retarget/internal/trace"
	"retarget/internal/walk"
)

var (
	ErrUnknownAssembly   = errors.New("unknown assembly")
	ErrAmbiguousAssembly = errors.New("ambiguous assembly name")
)

// ConsumerRef names one reference of the consuming compilation. An empty
// Version selects the only assembly with that name.
type ConsumerRef struct {
	Name    string
	Version string
	Embed   bool
}

type Request struct {
	Files    []string
	Consumer []ConsumerRef
	// WalkAll walks every consumer reference, not only retargeted ones.
	WalkAll bool
	// NoWalk stops after the retarget stage.
	NoWalk          bool
	Jobs            int
	MaxFindings     int
	LocalTypePolicy retargeting.LocalTypePolicy
	Progress        ProgressSink
	Timer           *observ.Timer
}

type Result struct {
	Universe   *metadata.Universe
	Resolution *refs.Resolution
	Reports    []*walk.Report
	Timings    Timings
}

// HasErrors reports whether any walk report has an error finding.
func (r *Result) HasErrors() bool {
	for _, rep := range r.Reports {
		if rep.HasErrors() {
			return true
		}
	}
	return false
}

// Run executes every stage in order and stops at the first failure.
func Run(ctx context.Context, req *Request) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return nil, fmt.Errorf("missing pipeline request")
	}
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("no assembly files")
	}
	tracer := trace.FromContext(ctx)
	span, ctx := trace.Start(ctx, trace.ScopeRun, "pipeline.run")
	defer span.End("")

	res := &Result{}
	emitQueued(req.Progress, req.Files)

	// load
	start := time.Now()
	phase := req.Timer.Begin(string(StageLoad))
	var defs []*metadata.AssemblyDef
	for _, path := range req.Files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		emit(req.Progress, path, StageLoad, StatusWorking, nil, 0)
		fileStart := time.Now()
		b, err := metadata.LoadFile(path)
		if err != nil {
			emit(req.Progress, path, StageLoad, StatusError, err, time.Since(fileStart))
			return res, err
		}
		for i := range b.Assemblies {
			defs = append(defs, &b.Assemblies[i])
		}
		emit(req.Progress, path, StageLoad, StatusDone, nil, time.Since(fileStart))
	}
	req.Timer.End(phase, strconv.Itoa(len(defs))+" assemblies")
	res.Timings.Set(StageLoad, time.Since(start))

	// bind
	start = time.Now()
	phase = req.Timer.Begin(string(StageBind))
	emit(req.Progress, "", StageBind, StatusWorking, nil, 0)
	u, err := metadata.NewUniverse(defs)
	if err != nil {
		emit(req.Progress, "", StageBind, StatusError, err, time.Since(start))
		return res, err
	}
	res.Universe = u
	req.Timer.End(phase, "")
	res.Timings.Set(StageBind, time.Since(start))
	emit(req.Progress, "", StageBind, StatusDone, nil, res.Timings.Duration(StageBind))

	// retarget
	start = time.Now()
	phase = req.Timer.Begin(string(StageRetarget))
	emit(req.Progress, "", StageRetarget, StatusWorking, nil, 0)
	in, err := consumerReferences(u, req.Consumer)
	if err == nil {
		res.Resolution, err = refs.Resolve(ctx, in, refs.Options{Linker: u, LocalTypePolicy: req.LocalTypePolicy, Tracer: tracer})
	}
	if err != nil {
		emit(req.Progress, "", StageRetarget, StatusError, err, time.Since(start))
		return res, err
	}
	req.Timer.End(phase, strconv.Itoa(len(res.Resolution.Retargeted))+" retargeted")
	res.Timings.Set(StageRetarget, time.Since(start))
	emit(req.Progress, "", StageRetarget, StatusDone, nil, res.Timings.Duration(StageRetarget))
	if req.NoWalk {
		return res, nil
	}

	// walk
	start = time.Now()
	phase = req.Timer.Begin(string(StageWalk))
	targets := res.Resolution.Assemblies
	if !req.WalkAll {
		targets = make([]symbols.AssemblySymbol, 0, len(res.Resolution.Retargeted))
		for _, w := range res.Resolution.Wrappers() {
			targets = append(targets, w)
		}
	}
	var findings int
	for _, asm := range targets {
		name := asm.Identity().String()
		emit(req.Progress, name, StageWalk, StatusWorking, nil, 0)
		asmStart := time.Now()
		rep, err := walk.Assembly(ctx, asm, walk.Options{Jobs: req.Jobs, MaxFindings: req.MaxFindings, Tracer: tracer})
		if err != nil {
			emit(req.Progress, name, StageWalk, StatusError, err, time.Since(asmStart))
			return res, err
		}
		findings += len(rep.Findings)
		res.Reports = append(res.Reports, rep)
		emit(req.Progress, name, StageWalk, StatusDone, nil, time.Since(asmStart))
	}
	req.Timer.End(phase, strconv.Itoa(findings)+" findings")
	res.Timings.Set(StageWalk, time.Since(start))
	span.Attr("findings", strconv.Itoa(findings))
	return res, nil
}

// consumerReferences picks the consumer's assemblies from the universe.
func consumerReferences(u *metadata.Universe, consumer []ConsumerRef) ([]refs.Reference, error) {
	out := make([]refs.Reference, 0, len(consumer))
	for _, c := range consumer {
		var a *metadata.Assembly
		if c.Version != "" {
			v, err := symbols.ParseVersion(c.Version)
			if err != nil {
				return nil, fmt.Errorf("consumer reference %s: %w", c.Name, err)
			}
			found, ok := u.Lookup(symbols.AssemblyIdentity{Name: c.Name, Version: v})
			if !ok {
				return nil, fmt.Errorf("%w: %s, Version=%s", ErrUnknownAssembly, c.Name, c.Version)
			}
			a = found
		} else {
			switch same := u.ByName(c.Name); len(same) {
			case 0:
				return nil, fmt.Errorf("%w: %s", ErrUnknownAssembly, c.Name)
			case 1:
				a = same[0]
			default:
				return nil, fmt.Errorf("%w: %s has %d versions", ErrAmbiguousAssembly, c.Name, len(same))
			}
		}
		out = append(out, refs.Reference{Assembly: a, EmbedInteropTypes: c.Embed})
	}
	return out, nil
}

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, f := range files {
		sink.OnEvent(Event{Item: f, Stage: StageLoad, Status: StatusQueued})
	}
}

func emit(sink ProgressSink, item string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Item: item, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}

package trace

import (
	"fmt"
	"strings"
)

// Level controls how much of a run is recorded.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // the run span only; ring mode dumps it when a command fails
	LevelPhase        // plus stage spans (resolve, walk)
	LevelDetail       // plus one event per assembly or module
	LevelDebug        // plus per-symbol outcomes
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("Level(%d)", l)
}

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (expected %s)", s, strings.Join(levelNames[:], "|"))
}

// finest is the deepest scope each level records.
var finest = [...]Scope{
	LevelError:  ScopeRun,
	LevelPhase:  ScopeStage,
	LevelDetail: ScopeAssembly,
	LevelDebug:  ScopeSymbol,
}

// ShouldEmit reports whether events of scope are recorded at l.
func (l Level) ShouldEmit(scope Scope) bool {
	if int(l) >= len(finest) {
		return false
	}
	return scope != 0 && scope <= finest[l]
}

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	ScopeRun      Scope = iota + 1 // one command or pipeline run
	ScopeStage                     // reference resolution, a walk
	ScopeAssembly                  // one assembly or module
	ScopeSymbol                    // one type or member
)

var scopeNames = [...]string{"", "run", "stage", "assembly", "symbol"}

func (s Scope) String() string {
	if s != 0 && int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return fmt.Sprintf("Scope(%d)", s)
}

package game

import (
	"fmt"
	"strings"

	"github.com/zeusync/unseen/internal/core/spacetime"
)

// Phase is the session state machine. Only PhasePlaying accepts non-restart actions.
type Phase uint8

const (
	PhasePlaying Phase = iota
	PhaseWon
	PhaseDetected
	// PhaseParadox is reserved for causality violations; no rule enters it yet.
	PhaseParadox
	PhaseRestarted
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseWon:
		return "won"
	case PhaseDetected:
		return "detected"
	case PhaseParadox:
		return "paradox"
	case PhaseRestarted:
		return "restarted"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

type ActionKind uint8

const (
	ActionMove ActionKind = iota + 1
	ActionWait
	ActionUseRift
	ActionPush
	ActionPull
	ActionRestart
)

func (k ActionKind) String() string {
	switch k {
	case ActionMove:
		return "move"
	case ActionWait:
		return "wait"
	case ActionUseRift:
		return "use_rift"
	case ActionPush:
		return "push"
	case ActionPull:
		return "pull"
	case ActionRestart:
		return "restart"
	default:
		return fmt.Sprintf("ActionKind(%d)", uint8(k))
	}
}

// Action is a player intent. Dir is meaningful for move, push and pull only.
type Action struct {
	Kind ActionKind
	Dir  spacetime.Direction
}

func Move(dir spacetime.Direction) Action { return Action{Kind: ActionMove, Dir: dir} }
func Wait() Action                        { return Action{Kind: ActionWait} }
func UseRift() Action                     { return Action{Kind: ActionUseRift} }
func Push(dir spacetime.Direction) Action { return Action{Kind: ActionPush, Dir: dir} }
func Pull(dir spacetime.Direction) Action { return Action{Kind: ActionPull, Dir: dir} }
func Restart() Action                     { return Action{Kind: ActionRestart} }

func (a Action) directional() bool {
	return a.Kind == ActionMove || a.Kind == ActionPush || a.Kind == ActionPull
}

func (a Action) String() string {
	if a.directional() {
		return a.Kind.String() + " " + a.Dir.String()
	}
	return a.Kind.String()
}

// ParseAction reads the textual form produced by Action.String.
func ParseAction(s string) (Action, error) {
	kind, dir, _ := strings.Cut(strings.TrimSpace(strings.ToLower(s)), " ")
	var a Action
	switch kind {
	case "move":
		a.Kind = ActionMove
	case "wait":
		return Wait(), nil
	case "use_rift", "rift":
		return UseRift(), nil
	case "push":
		a.Kind = ActionPush
	case "pull":
		a.Kind = ActionPull
	case "restart":
		return Restart(), nil
	default:
		return Action{}, fmt.Errorf("unknown action %q", s)
	}
	for _, d := range spacetime.AllDirections() {
		if d.String() == dir {
			a.Dir = d
			return a, nil
		}
	}
	return Action{}, fmt.Errorf("unknown direction in action %q", s)
}

// Displacement records one entity moving during a turn.
type Displacement struct {
	ID   spacetime.EntityID
	From spacetime.Position
	To   spacetime.Position
}

// Outcome describes what an action did. The set of implementations is closed.
type Outcome interface {
	fmt.Stringer
	isOutcome()
}

type (
	Moved struct {
		From spacetime.Position
		To   spacetime.Position
	}
	Waited struct {
		At spacetime.Position
	}
	Rifted struct {
		From spacetime.Position
		To   spacetime.Position
	}
	Pushed struct {
		PlayerTo spacetime.Position
		Pushed   []Displacement
	}
	Pulled struct {
		PlayerTo spacetime.Position
		Pulled   Displacement
	}
	Restarted struct{}

	Won struct {
		At spacetime.Position
	}
	// Detected overrides the nominal outcome when an enemy perceived the player.
	Detected struct {
		By       spacetime.EntityID
		SeenAt   spacetime.Position
		EnemyPos spacetime.Position
	}
)

func (Moved) isOutcome()     {}
func (Waited) isOutcome()    {}
func (Rifted) isOutcome()    {}
func (Pushed) isOutcome()    {}
func (Pulled) isOutcome()    {}
func (Restarted) isOutcome() {}
func (Won) isOutcome()       {}
func (Detected) isOutcome()  {}

func (o Moved) String() string  { return fmt.Sprintf("moved %s -> %s", o.From, o.To) }
func (o Waited) String() string { return fmt.Sprintf("waited at %s", o.At) }
func (o Rifted) String() string { return fmt.Sprintf("rifted %s -> %s", o.From, o.To) }
func (o Pushed) String() string {
	return fmt.Sprintf("pushed %d entities, player at %s", len(o.Pushed), o.PlayerTo)
}
func (o Pulled) String() string {
	return fmt.Sprintf("pulled %s to %s, player at %s", o.Pulled.ID, o.Pulled.To, o.PlayerTo)
}
func (Restarted) String() string  { return "restarted" }
func (o Won) String() string      { return fmt.Sprintf("won at %s", o.At) }
func (o Detected) String() string { return fmt.Sprintf("detected by %s at %s", o.By, o.SeenAt) }

// Result is a committed transition. State is a fresh value; the input state is untouched.
type Result struct {
	State       *State
	Outcome     Outcome
	Moved       []Displacement
	Propagation *spacetime.PropagationResult
}

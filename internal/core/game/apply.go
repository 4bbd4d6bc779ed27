package game

import (
	"github.com/zeusync/unseen/internal/core/detection"
	"github.com/zeusync/unseen/internal/core/observability/log"
	"github.com/zeusync/unseen/internal/core/spacetime"
)

// Validate reports whether a is legal in s without computing anything else.
func (s *State) Validate(a Action) error {
	if a.Kind == ActionRestart {
		return nil
	}
	_, err := s.prepare(a)
	return err
}

// Preview returns the nominal outcome of a without committing it. Win and detection are
// only decided by Apply.
func (s *State) Preview(a Action) (Outcome, error) {
	if a.Kind == ActionRestart {
		return Restarted{}, nil
	}
	p, err := s.prepare(a)
	if err != nil {
		return nil, err
	}
	return p.outcome, nil
}

// Apply validates and commits a, returning a fresh State. s is never modified.
func (s *State) Apply(a Action) (Result, error) {
	if a.Kind == ActionRestart {
		return s.restart(), nil
	}
	p, err := s.prepare(a)
	if err != nil {
		return Result{}, err
	}
	return s.commit(a, p, false)
}

// Simulate is Apply without logging, for callers that explore many hypothetical turns.
func (s *State) Simulate(a Action) (Result, error) {
	if a.Kind == ActionRestart {
		return s.restart(), nil
	}
	p, err := s.prepare(a)
	if err != nil {
		return Result{}, err
	}
	return s.commit(a, p, true)
}

func (s *State) restart() Result {
	next := &State{
		cube:      s.initial.cube.Clone(),
		worldLine: s.initial.worldLine.Clone(),
		playerID:  s.playerID,
		phase:     PhasePlaying,
		config:    s.config,
		initial:   s.initial,
	}
	return Result{State: next, Outcome: Restarted{}}
}

func (s *State) commit(a Action, p plan, quiet bool) (Result, error) {
	from := s.PlayerPosition()
	next := s.clone()

	if err := next.movePlayer(from, p.to, p.viaRift); err != nil {
		return Result{}, err
	}
	moved := []Displacement{{ID: s.playerID, From: from, To: p.to}}

	var propagation *spacetime.PropagationResult
	if len(p.moved) > 0 {
		ids := make([]spacetime.EntityID, 0, len(p.moved))
		for _, d := range p.moved {
			original, ok := s.cube.EntityAtTime(d.ID, from.T)
			if !ok {
				return Result{}, internalError("moved entity vanished before commit", &spacetime.EntityError{ID: d.ID, T: from.T, Err: spacetime.ErrEntityNotFound}).
					WithContext("entity_id", d.ID)
			}
			if err := next.cube.SpawnOrReplace(original.AtPosition(d.To)); err != nil {
				return Result{}, internalError("relocating moved entity", err).
					WithContext("entity_id", d.ID)
			}
			ids = append(ids, d.ID)
			moved = append(moved, d)
		}

		// Propagation is best effort: warnings are reported, failures never fail the turn.
		res, err := spacetime.Propagate(next.cube, p.to.T, spacetime.OnlyEntities(ids...))
		if err == nil {
			propagation = &res
			if !quiet {
				logPropagationWarnings(res)
			}
		}
	}

	next.history = append(next.history, a)
	next.turn = next.worldLine.CurrentTurn()

	outcome := next.finalize(p.outcome, quiet)
	return Result{State: next, Outcome: outcome, Moved: moved, Propagation: propagation}, nil
}

// movePlayer extends the world line and relocates the single player instance.
func (s *State) movePlayer(from, to spacetime.Position, viaRift bool) error {
	extend := s.worldLine.Extend
	if viaRift {
		extend = s.worldLine.ExtendViaRift
	}
	if err := extend(to); err != nil {
		return internalError("world line rejected a validated step", err).
			WithContext("from", from).
			WithContext("to", to)
	}

	player, ok := s.cube.EntityAtTime(s.playerID, from.T)
	if ok {
		_, _ = s.cube.DespawnAt(s.playerID, from.T)
		player = player.AtPosition(to)
	} else {
		player = spacetime.NewEntityWithID(s.playerID, to, spacetime.Player{})
	}
	if err := s.cube.SpawnOrReplace(player); err != nil {
		return internalError("placing player", err).WithContext("to", to)
	}
	return nil
}

// finalize runs detection, then the exit check. Detection wins a tie.
func (s *State) finalize(nominal Outcome, quiet bool) Outcome {
	logger := log.Provide()
	if quiet {
		logger = log.Nop()
	}
	if res, ok := detection.Check(s.cube, s.worldLine, s.config.Detection, s.config.LightSpeed); ok {
		s.phase = PhaseDetected
		logger.Info("player detected",
			log.String("level_id", s.config.LevelID),
			log.Int("turn", s.turn),
			log.Stringer("enemy", res.EnemyID),
			log.Stringer("seen_at", res.PlayerPosition),
		)
		return Detected{By: res.EnemyID, SeenAt: res.PlayerPosition, EnemyPos: res.EnemyPosition}
	}

	at := s.PlayerPosition()
	if s.cube.IsExit(at) {
		s.phase = PhaseWon
		logger.Info("level won",
			log.String("level_id", s.config.LevelID),
			log.Int("turn", s.turn),
			log.Stringer("at", at),
		)
		return Won{At: at}
	}
	return nominal
}

func logPropagationWarnings(res spacetime.PropagationResult) {
	logger := log.Provide()
	for _, w := range res.Warnings {
		fields := []log.Field{
			log.String("kind", w.Kind.String()),
			log.Stringer("entity", w.Entity),
			log.Stringer("position", w.Pos),
		}
		if w.Kind == spacetime.WarnCollision {
			fields = append(fields, log.Stringer("other", w.Other))
		}
		logger.Warn("propagation warning", fields...)
	}
}

// ValidActions enumerates every legal action: per direction move, push and pull, then wait,
// rift and restart. An inactive state has none.
func (s *State) ValidActions() []Action {
	if !s.IsActive() {
		return nil
	}
	var out []Action
	for _, dir := range spacetime.AllDirections() {
		for _, a := range []Action{Move(dir), Push(dir), Pull(dir)} {
			if s.Validate(a) == nil {
				out = append(out, a)
			}
		}
	}
	for _, a := range []Action{Wait(), UseRift()} {
		if s.Validate(a) == nil {
			out = append(out, a)
		}
	}
	return append(out, Restart())
}

// Reachable pairs a player destination with the action that reaches it.
type Reachable struct {
	Position spacetime.Position
	Action   Action
}

// ReachablePositions lists destinations of legal moves, wait and rift.
func (s *State) ReachablePositions() []Reachable {
	if !s.IsActive() {
		return nil
	}
	var out []Reachable
	candidates := make([]Action, 0, 6)
	for _, dir := range spacetime.AllDirections() {
		candidates = append(candidates, Move(dir))
	}
	candidates = append(candidates, Wait(), UseRift())
	for _, a := range candidates {
		if p, err := s.prepare(a); err == nil {
			out = append(out, Reachable{Position: p.to, Action: a})
		}
	}
	return out
}

package game

import (
	"github.com/zeusync/unseen/internal/core/spacetime"
	"github.com/zeusync/unseen/internal/core/worldline"
)

// plan is a validated action ready to be committed.
type plan struct {
	to      spacetime.Position
	viaRift bool
	moved   []Displacement
	outcome Outcome
}

// validateMoveTarget checks, in order: time overflow, bounds, blocking entities, self-intersection.
func (s *State) validateMoveTarget(target spacetime.Position, ignore ...spacetime.EntityID) *MoveError {
	if me := s.validateEntityTarget(target, ignore...); me != nil {
		return me
	}
	if s.worldLine.Contains(target) {
		return selfIntersection(target)
	}
	return nil
}

// validateEntityTarget is validateMoveTarget without the world-line check, for pushed entities.
func (s *State) validateEntityTarget(target spacetime.Position, ignore ...spacetime.EntityID) *MoveError {
	if target.T >= s.cube.Depth() {
		return timeOverflow(target, s.cube.Depth())
	}
	if err := s.cube.ValidatePosition(target); err != nil {
		return outOfBounds(target, err)
	}
	if blocker, ok := s.BlockingEntityAt(target, ignore...); ok {
		return blockedBy(target, blocker)
	}
	return nil
}

func (s *State) planStep(target spacetime.Position, outcome Outcome) (plan, error) {
	if me := s.validateMoveTarget(target); me != nil {
		return plan{}, moveBlocked(me)
	}
	return plan{to: target, outcome: outcome}, nil
}

func (s *State) planMove(dir spacetime.Direction) (plan, error) {
	from := s.PlayerPosition()
	to := from.Step(dir)
	return s.planStep(to, Moved{From: from, To: to})
}

func (s *State) planWait() (plan, error) {
	at := s.PlayerPosition().Wait()
	return s.planStep(at, Waited{At: at})
}

func (s *State) planRift() (plan, error) {
	from := s.PlayerPosition()
	target, ok := s.cube.RiftTarget(from)
	if !ok {
		return plan{}, NewActionError(ErrorCodeNoRiftHere, "no rift at current position", nil).
			WithContext("position", from)
	}
	if err := s.cube.ValidatePosition(target); err != nil {
		return plan{}, NewActionError(ErrorCodeInvalidRiftTarget, "rift target is invalid: out of bounds", err).
			WithContext("target", target)
	}
	if s.worldLine.Contains(target) {
		return plan{}, NewActionError(ErrorCodeInvalidRiftTarget, "rift target is invalid: self-intersection", worldline.ErrSelfIntersection).
			WithContext("target", target)
	}
	return plan{to: target, viaRift: true, outcome: Rifted{From: from, To: target}}, nil
}

type chainLink struct {
	id   spacetime.EntityID
	from spacetime.Position
}

// pushChain collects consecutive pushable entities in front of start, at most limit+1 of them
// so that an overlong chain is distinguishable from a full one.
func pushChain(cube *spacetime.Cube, start spacetime.Position, dir spacetime.Direction, limit int) []chainLink {
	var chain []chainLink
	cur := start.Move(dir)
	for len(chain) <= limit {
		var (
			link  chainLink
			found bool
		)
		for _, e := range cube.EntitiesAt(cur) {
			if e.IsPushable() {
				link, found = chainLink{id: e.ID(), from: cur}, true
				break
			}
		}
		if !found {
			break
		}
		chain = append(chain, link)
		cur = cur.Move(dir)
	}
	return chain
}

func (s *State) planPush(dir spacetime.Direction) (plan, error) {
	current := s.PlayerPosition()
	limit := s.config.MaxPushChain

	chain := pushChain(s.cube, current, dir, limit)
	if len(chain) == 0 {
		return plan{}, NewActionError(ErrorCodeNothingToPush, "nothing to push", nil).
			WithContext("direction", dir)
	}
	if len(chain) > limit {
		return plan{}, NewActionError(ErrorCodePushChainTooLong, "push chain too long", nil).
			WithContext("chain_length", len(chain)).
			WithContext("max", limit)
	}

	ignore := make([]spacetime.EntityID, 0, len(chain)+1)
	for _, link := range chain {
		ignore = append(ignore, link.id)
	}
	ignore = append(ignore, s.playerID)

	playerTo := current.Step(dir)
	if me := s.validateMoveTarget(playerTo, ignore...); me != nil {
		return plan{}, moveBlocked(me)
	}

	moved := make([]Displacement, 0, len(chain))
	for _, link := range chain {
		to := link.from.Step(dir)
		if me := s.validateEntityTarget(to, ignore...); me != nil {
			return plan{}, NewActionError(ErrorCodePushBlocked, "push blocked", me).
				WithContext("blocked_at", to)
		}
		moved = append(moved, Displacement{ID: link.id, From: link.from, To: to})
	}

	return plan{
		to:      playerTo,
		moved:   moved,
		outcome: Pushed{PlayerTo: playerTo, Pushed: moved},
	}, nil
}

func (s *State) planPull(dir spacetime.Direction) (plan, error) {
	current := s.PlayerPosition()
	pullFrom := current.Move(dir.Opposite())

	var (
		target   spacetime.Entity
		found    bool
		obstacle *spacetime.Entity
	)
	for _, e := range s.cube.EntitiesAt(pullFrom) {
		if e.IsPullable() {
			target, found = e, true
			break
		}
		if e.BlocksMovement() && obstacle == nil {
			obstacle = &e
		}
	}
	if !found {
		if obstacle != nil {
			return plan{}, NewActionError(ErrorCodeNotPullable, "entity not pullable", nil).
				WithContext("entity_id", obstacle.ID())
		}
		return plan{}, NewActionError(ErrorCodeNothingToPull, "nothing to pull", nil).
			WithContext("direction", dir)
	}

	ignore := []spacetime.EntityID{target.ID(), s.playerID}
	playerTo := current.Step(dir)
	if me := s.validateMoveTarget(playerTo, ignore...); me != nil {
		return plan{}, moveBlocked(me)
	}

	boxTo := current.Tick()
	if me := s.validateEntityTarget(boxTo, ignore...); me != nil {
		return plan{}, NewActionError(ErrorCodePushBlocked, "pull blocked", me).
			WithContext("blocked_at", boxTo)
	}

	d := Displacement{ID: target.ID(), From: pullFrom, To: boxTo}
	return plan{
		to:      playerTo,
		moved:   []Displacement{d},
		outcome: Pulled{PlayerTo: playerTo, Pulled: d},
	}, nil
}

// prepare validates any non-restart action against the current state.
func (s *State) prepare(a Action) (plan, error) {
	if !s.IsActive() {
		return plan{}, notActive(s.phase)
	}
	switch a.Kind {
	case ActionMove:
		return s.planMove(a.Dir)
	case ActionWait:
		return s.planWait()
	case ActionUseRift:
		return s.planRift()
	case ActionPush:
		return s.planPush(a.Dir)
	case ActionPull:
		return s.planPull(a.Dir)
	default:
		return plan{}, NewActionError(ErrorCodeMoveBlocked, "unknown action", &MoveError{Reason: MoveInvalidDirection, Target: s.PlayerPosition()}).
			WithContext("action", a.Kind)
	}
}

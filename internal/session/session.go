// Package session owns the current game state of one player and turns actions into published events.
package session

import (
	"errors"
	"sync"

	"github.com/zeusync/unseen/internal/core/events/bus"
	"github.com/zeusync/unseen/internal/core/game"
	"github.com/zeusync/unseen/internal/core/observability/log"
)

var (
	ErrNilState      = errors.New("session requires a game state")
	ErrUndoDisabled  = errors.New("undo is disabled for this level")
	ErrNothingToUndo = errors.New("nothing to undo")
)

// TurnApplied is the payload of bus.TypeTurnApplied.
type TurnApplied struct {
	Action game.Action
	Result game.Result
}

// ActionRejected is the payload of bus.TypeActionRejected.
type ActionRejected struct {
	Action game.Action
	Code   game.ErrorCode
	Err    error
}

// TurnUndone is the payload of bus.TypeTurnUndone.
type TurnUndone struct {
	Undone game.Action
	State  *game.State
}

// Session serialises actions against a single game.State value. It is safe for concurrent use;
// event handlers run after the session lock is released and may call back into the session.
type Session struct {
	mu        sync.Mutex
	state     *game.State
	undo      []*game.State
	undoLimit int

	logger log.Log
	bus    bus.EventBus
	source string
}

type Option func(*Session)

func WithLogger(logger log.Log) Option {
	return func(s *Session) { s.logger = logger }
}

func WithBus(b bus.EventBus) Option {
	return func(s *Session) { s.bus = b }
}

// WithUndoLimit bounds the undo stack. Zero keeps every turn.
func WithUndoLimit(n int) Option {
	return func(s *Session) { s.undoLimit = max(n, 0) }
}

func New(state *game.State, opts ...Option) (*Session, error) {
	if state == nil {
		return nil, ErrNilState
	}
	s := &Session{state: state, source: state.Config().LevelID}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Provide()
	}
	s.logger = s.logger.With(log.String("level_id", s.source))
	return s, nil
}

// Factory creates sessions that share a logger and a bus.
type Factory func(state *game.State, opts ...Option) (*Session, error)

func NewFactory(logger log.Log, b bus.EventBus) Factory {
	return func(state *game.State, opts ...Option) (*Session, error) {
		return New(state, append([]Option{WithLogger(logger), WithBus(b)}, opts...)...)
	}
}

// State returns the current state value.
func (s *Session) State() *game.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UndoDepth is the number of turns that can be undone.
func (s *Session) UndoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo)
}

func (s *Session) CanUndo() bool {
	return s.UndoDepth() > 0
}

// Apply commits a against the current state. Rejected actions leave the session unchanged.
func (s *Session) Apply(a game.Action) (game.Result, error) {
	s.mu.Lock()
	prev := s.state
	res, err := prev.Apply(a)
	if err != nil {
		s.mu.Unlock()
		s.logger.Debug("action rejected",
			log.Int("turn", prev.Turn()),
			log.Stringer("action", a),
			log.Int("code", int(game.GetErrorCode(err))),
			log.Error(err),
		)
		s.publish(bus.NewEvent(bus.TypeActionRejected, s.source, prev.Turn(),
			ActionRejected{Action: a, Code: game.GetErrorCode(err), Err: err}))
		return game.Result{}, err
	}

	s.state = res.State
	switch {
	case a.Kind == game.ActionRestart:
		s.undo = s.undo[:0]
	case prev.Config().AllowUndo:
		s.pushUndo(prev)
	}
	s.mu.Unlock()

	s.logger.Debug("action applied",
		log.Int("turn", res.State.Turn()),
		log.Stringer("action", a),
		log.Stringer("outcome", res.Outcome),
		log.Stringer("phase", res.State.Phase()),
	)
	s.publish(turnEvents(s.source, a, res)...)
	return res, nil
}

// Restart is Apply(game.Restart()).
func (s *Session) Restart() (game.Result, error) {
	return s.Apply(game.Restart())
}

// Undo restores the state before the latest applied action.
func (s *Session) Undo() (*game.State, error) {
	s.mu.Lock()
	if !s.state.Config().AllowUndo {
		s.mu.Unlock()
		return nil, ErrUndoDisabled
	}
	if len(s.undo) == 0 {
		s.mu.Unlock()
		return nil, ErrNothingToUndo
	}
	undone := s.state.History()
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.state = prev
	s.mu.Unlock()

	var last game.Action
	if len(undone) > 0 {
		last = undone[len(undone)-1]
	}
	s.logger.Debug("turn undone",
		log.Int("turn", prev.Turn()),
		log.Stringer("action", last),
	)
	s.publish(bus.NewEvent(bus.TypeTurnUndone, s.source, prev.Turn(), TurnUndone{Undone: last, State: prev}))
	return prev, nil
}

func (s *Session) pushUndo(st *game.State) {
	s.undo = append(s.undo, st)
	if s.undoLimit > 0 && len(s.undo) > s.undoLimit {
		s.undo = append(s.undo[:0], s.undo[len(s.undo)-s.undoLimit:]...)
	}
}

func (s *Session) publish(events ...bus.Event) {
	if s.bus == nil || len(events) == 0 {
		return
	}
	if err := s.bus.PublishBatch(events...); err != nil {
		s.logger.Warn("event handlers returned errors", log.Error(err))
	}
}

// turnEvents lists the notifications for one committed turn in publication order.
func turnEvents(source string, a game.Action, res game.Result) []bus.Event {
	turn := res.State.Turn()
	events := []bus.Event{bus.NewEvent(bus.TypeTurnApplied, source, turn, TurnApplied{Action: a, Result: res})}
	if res.Propagation != nil {
		for _, w := range res.Propagation.Warnings {
			events = append(events, bus.NewEvent(bus.TypePropagationWarning, source, turn, w))
		}
	}
	switch o := res.Outcome.(type) {
	case game.Won:
		events = append(events, bus.NewEvent(bus.TypeLevelWon, source, turn, o))
	case game.Detected:
		events = append(events, bus.NewEvent(bus.TypePlayerDetected, source, turn, o))
	case game.Restarted:
		events = append(events, bus.NewEvent(bus.TypeLevelRestarted, source, turn, o))
	}
	return events
}

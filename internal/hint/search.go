// Package hint finds a short winning action sequence from a game state.
//
// Search is best-first over simulated states, ordered by turns taken plus the spatial distance
// to the nearest exit. Children of a node are simulated concurrently; every child is an
// independent clone, so the parent state is only read.
package hint

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/unseen/internal/core/game"
	"github.com/zeusync/unseen/internal/core/observability/log"
)

var (
	ErrNilState        = errors.New("hint search requires a state")
	ErrNotActive       = errors.New("hint search requires a state in progress")
	ErrNoSolution      = errors.New("no winning sequence exists from this state")
	ErrBudgetExhausted = errors.New("hint search node budget exhausted")
)

const DefaultMaxNodes = 5000

// Plan is a winning sequence. Final is the won state reached by applying Actions in order.
type Plan struct {
	Actions  []game.Action
	Final    *game.State
	Expanded int
}

type options struct {
	maxNodes int
	workers  int
	logger   log.Log
}

type Option func(*options)

// WithMaxNodes caps the number of expanded states.
func WithMaxNodes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxNodes = n
		}
	}
}

// WithWorkers caps concurrent simulations per expansion.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithLogger(logger log.Log) Option {
	return func(o *options) { o.logger = logger }
}

type node struct {
	state   *game.State
	actions []game.Action
}

// Search explores from start until it pops a won state, runs out of states, exceeds the node
// budget, or ctx is done. Restart is never part of a plan, and detected states are pruned.
func Search(ctx context.Context, start *game.State, opts ...Option) (Plan, error) {
	o := options{maxNodes: DefaultMaxNodes, workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Provide()
	}

	if start == nil {
		return Plan{}, ErrNilState
	}
	if !start.IsActive() {
		return Plan{}, ErrNotActive
	}

	began := time.Now()
	open := newFrontier()
	seen := map[uint64]struct{}{dedupeKey(start): {}}
	open.push(&node{state: start}, heuristic(start))

	expanded := 0
	for {
		if err := ctx.Err(); err != nil {
			return Plan{Expanded: expanded}, err
		}
		n, ok := open.pop()
		if !ok {
			o.logger.Debug("hint search exhausted", log.Int("expanded", expanded))
			return Plan{Expanded: expanded}, ErrNoSolution
		}
		if n.state.HasWon() {
			o.logger.Debug("hint found",
				log.Int("expanded", expanded),
				log.Int("length", len(n.actions)),
				log.Duration("elapsed", time.Since(began)),
			)
			return Plan{Actions: n.actions, Final: n.state, Expanded: expanded}, nil
		}
		if expanded >= o.maxNodes {
			o.logger.Debug("hint search budget exhausted", log.Int("expanded", expanded))
			return Plan{Expanded: expanded}, ErrBudgetExhausted
		}
		expanded++

		children, err := expand(ctx, n, o.workers)
		if err != nil {
			return Plan{Expanded: expanded}, err
		}
		for _, child := range children {
			if child.state.Phase() == game.PhaseDetected {
				continue
			}
			key := dedupeKey(child.state)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			open.push(child, len(child.actions)+heuristic(child.state))
		}
	}
}

// expand simulates every legal non-restart action of n. Children keep ValidActions order.
func expand(ctx context.Context, n *node, workers int) ([]*node, error) {
	actions := n.state.ValidActions()
	children := make([]*node, len(actions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, a := range actions {
		if a.Kind == game.ActionRestart {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := n.state.Simulate(a)
			if err != nil {
				var ae *game.ActionError
				if errors.As(err, &ae) && ae.IsInternal() {
					return err
				}
				return nil
			}
			children[i] = &node{state: res.State, actions: append(slices.Clip(n.actions), a)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.DeleteFunc(children, func(c *node) bool { return c == nil }), nil
}

// dedupeKey identifies a state by its cube and world line. Detection reads the whole world
// line, so two histories ending in the same cube are only equivalent if their paths match too.
func dedupeKey(s *game.State) uint64 {
	return s.WorldDigest()
}

// heuristic is the Manhattan distance from the player to the nearest exit in the player's slice.
func heuristic(s *game.State) int {
	at := s.PlayerPosition()
	slice, err := s.Cube().Slice(at.T)
	if err != nil {
		return 0
	}
	best := -1
	for _, e := range slice.AllEntities() {
		if !e.IsExit() {
			continue
		}
		d := at.Spatial().ManhattanDistance(e.Position().Spatial())
		if best < 0 || d < best {
			best = d
		}
	}
	return max(best, 0)
}

// Replay simulates actions from start in order and returns the final state. It stops at the
// first rejected action.
func Replay(start *game.State, actions []game.Action) (*game.State, error) {
	cur := start
	for i, a := range actions {
		res, err := cur.Simulate(a)
		if err != nil {
			return cur, fmt.Errorf("replay step %d (%s): %w", i, a, err)
		}
		cur = res.State
	}
	return cur, nil
}

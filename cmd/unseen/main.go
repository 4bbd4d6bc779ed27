package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zeusync/unseen/internal/core/game"
	"github.com/zeusync/unseen/internal/core/observability/log"
	"github.com/zeusync/unseen/internal/hint"
	"github.com/zeusync/unseen/internal/injector"
	"github.com/zeusync/unseen/internal/levels"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML game config")
		logLevel   = flag.String("log-level", "info", "debug, info, warn, error or fatal")
		levelID    = flag.String("level", "push", "demo level: "+strings.Join(levels.IDs(), ", "))
		maxNodes   = flag.Int("max-nodes", hint.DefaultMaxNodes, "hint search node budget")
		timeout    = flag.Duration("timeout", 10*time.Second, "hint search time limit")
	)
	flag.Parse()

	lvl, err := log.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, lvl, *configPath, *levelID, *maxNodes, *timeout); err != nil {
		log.Provide().Error("unseen failed", log.Error(err))
		_ = log.Provide().Sync()
		os.Exit(1)
	}
	_ = log.Provide().Sync()
}

func run(ctx context.Context, lvl log.Level, configPath, levelID string, maxNodes int, timeout time.Duration) error {
	newSession := injector.InitializeSessionFactory(lvl)
	logger := log.Provide()

	cfg := game.DefaultConfig()
	if configPath != "" {
		loaded, err := game.LoadConfigFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	state, err := levels.Load(levelID, cfg)
	if err != nil {
		return err
	}
	sess, err := newSession(state)
	if err != nil {
		return err
	}
	logger.Info("level loaded",
		log.String("level_id", state.Config().LevelID),
		log.String("level_name", state.Config().LevelName),
		log.Stringer("player", state.PlayerPosition()),
	)

	searchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	plan, err := hint.Search(searchCtx, sess.State(), hint.WithMaxNodes(maxNodes))
	switch {
	case errors.Is(err, hint.ErrNoSolution), errors.Is(err, hint.ErrBudgetExhausted), errors.Is(err, context.DeadlineExceeded):
		logger.Warn("no hint available", log.Error(err), log.Int("expanded", plan.Expanded))
		return nil
	case err != nil:
		return err
	}
	logger.Info("hint found", log.Int("length", len(plan.Actions)), log.Int("expanded", plan.Expanded))

	for _, a := range plan.Actions {
		res, err := sess.Apply(a)
		if err != nil {
			return fmt.Errorf("replaying hint: %w", err)
		}
		logger.Info("turn",
			log.Int("turn", res.State.Turn()),
			log.Stringer("action", a),
			log.Stringer("outcome", res.Outcome),
		)
	}

	final := sess.State()
	logger.Info("level finished",
		log.Stringer("phase", final.Phase()),
		log.Int("turns", final.Turn()),
		log.Uint64("digest", final.Digest()),
	)
	return nil
}

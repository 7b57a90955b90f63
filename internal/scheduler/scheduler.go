package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jthistle/mahjong-back/engine"
	"github.com/jthistle/mahjong-back/internal/game"
	"github.com/jthistle/mahjong-back/internal/registry"
)

const (
	// DefaultTick is the sweep interval.
	DefaultTick = 500 * time.Millisecond
	// DefaultClaimWindow is how long a discard stays claimable before the
	// turn is forced onward.
	DefaultClaimWindow = 5 * time.Second
)

// Scheduler sweeps every live game on a fixed tick and drives the
// transitions no player action triggers: dealing the first round, forcing
// the turn past expired claim windows, resolving finished rounds and
// evicting finished games.
type Scheduler struct {
	reg         *registry.Registry
	log         *logrus.Logger
	tick        time.Duration
	claimWindow time.Duration
}

func New(reg *registry.Registry, log *logrus.Logger, tick, claimWindow time.Duration) *Scheduler {
	if tick <= 0 {
		tick = DefaultTick
	}
	if claimWindow <= 0 {
		claimWindow = DefaultClaimWindow
	}
	return &Scheduler{reg: reg, log: log, tick: tick, claimWindow: claimWindow}
}

// Run sweeps until ctx is cancelled. The loop self-corrects: each sweep is
// scheduled against the wall clock, so a slow sweep shortens the following
// wait instead of drifting the cycle.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.WithFields(logrus.Fields{
		"tick":        s.tick,
		"claimWindow": s.claimWindow,
	}).Info("scheduler running")

	next := time.Now().Add(s.tick)
	timer := time.NewTimer(s.tick)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		s.Sweep(ctx)

		next = next.Add(s.tick)
		wait := time.Until(next)
		if wait < 0 {
			// Sweep overran one or more ticks; resynchronize.
			next = time.Now().Add(s.tick)
			wait = s.tick
		}
		timer.Reset(wait)
	}
}

// Sweep visits every live game once.
func (s *Scheduler) Sweep(ctx context.Context) {
	for _, g := range s.reg.Snapshot() {
		s.visit(ctx, g)
	}
}

// visit applies at most one transition to g. ErrLocked means a player
// action won the race; the next sweep retries.
func (s *Scheduler) visit(ctx context.Context, g *game.Game) {
	switch g.Stage() {
	case engine.StageFinished:
		s.reg.Evict(g.ID)

	case engine.StagePregame:
		if g.PlayersFull() && g.AllReady() {
			if err := g.NewRound(ctx); err != nil && !errors.Is(err, game.ErrLocked) {
				s.log.WithError(err).WithField("game", g.ID).Error("start first round")
			}
		}

	case engine.StagePlay:
		if g.RoundOver() {
			s.resolveRound(ctx, g)
			return
		}
		if g.TurnState() != engine.TurnWaitingForClaims {
			return
		}
		// Skip games mid-mutation: the pending action may consume the
		// discard this sweep would otherwise claim-expire.
		if g.Locked() {
			return
		}
		if g.LastEventAge() < s.claimWindow {
			return
		}
		if err := g.NextTurn(ctx); err != nil && !errors.Is(err, game.ErrLocked) && !errors.Is(err, engine.ErrRejected) {
			s.log.WithError(err).WithField("game", g.ID).Error("advance turn")
		}
	}
}

// resolveRound converts a closed round into its follow-up: a won round ends
// the game, a drawn round deals the next one.
func (s *Scheduler) resolveRound(ctx context.Context, g *game.Game) {
	if g.RoundWon() {
		if err := g.FinishGame(ctx); err != nil && !errors.Is(err, game.ErrLocked) {
			s.log.WithError(err).WithField("game", g.ID).Error("finish won game")
		}
		return
	}
	if err := g.NewRound(ctx); err != nil && !errors.Is(err, game.ErrLocked) {
		s.log.WithError(err).WithField("game", g.ID).Error("deal next round")
	}
}

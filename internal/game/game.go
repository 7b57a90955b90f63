package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jthistle/mahjong-back/engine"
	"github.com/jthistle/mahjong-back/internal/cache"
	"github.com/jthistle/mahjong-back/internal/database"
)

// MaxPlayers is the fixed table size.
const MaxPlayers = 4

var (
	// ErrLocked means another mutation is in flight; the caller should
	// retry rather than queue.
	ErrLocked = errors.New("game is busy")
	// ErrGameFull rejects joins once every seat is taken.
	ErrGameFull = errors.New("game is full")
	// ErrUnknownPlayer means the hash matches no seated player.
	ErrUnknownPlayer = errors.New("player not in game")
	// ErrNotPregame rejects roster changes after the game has started.
	ErrNotPregame = errors.New("game already started")
)

// Player is one seat at the table. Hash is the client-held identity token;
// seat order is the index in the Players slice. Readiness matters only
// during pregame and is not persisted: after a restart players ready up
// again.
type Player struct {
	Hash     string `json:"hash"`
	Nickname string `json:"nickname"`
	Ready    bool   `json:"-"`
}

// Game wraps an engine.State with identity, the roster, locking and
// persistence. All mutations go through withMutation: they take the write
// lock without queueing (busy callers get ErrLocked), persist the record
// while the lock is held, and publish any new events to the historian.
type Game struct {
	ID uuid.UUID

	joinCode string
	log      *logrus.Entry

	mu       sync.RWMutex
	inFlight atomic.Bool

	state   *engine.State
	players []Player

	store database.Store
}

// New creates an empty pregame game under the given join code and persists
// the initial record. The caller owns join-code uniqueness; the registry
// regenerates on collision before handing the code in.
func New(ctx context.Context, store database.Store, log *logrus.Logger, joinCode string) (*Game, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	g := &Game{
		ID:       id,
		joinCode: joinCode,
		state:    engine.NewState(MaxPlayers, time.Now().UnixNano()),
		store:    store,
		log:      log.WithField("game", id),
	}
	if err := store.CreateGame(ctx, g.record()); err != nil {
		return nil, fmt.Errorf("persist new game: %w", err)
	}
	g.log.WithField("joinCode", g.joinCode).Info("game created")
	return g, nil
}

// FromRecord rebuilds a game from its stored record by replaying the event
// log. The stage emerges from the fold; the stored stage column exists only
// for SQL filtering.
func FromRecord(rec database.GameRecord, store database.Store, log *logrus.Logger) (*Game, error) {
	events, err := engine.DecodeEvents(rec.Events)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", rec.ID, err)
	}
	state := engine.NewState(MaxPlayers, time.Now().UnixNano())
	if err := state.Replay(events); err != nil {
		return nil, fmt.Errorf("game %s: %w", rec.ID, err)
	}

	var players []Player
	if len(rec.Players) > 0 {
		if err := json.Unmarshal(rec.Players, &players); err != nil {
			return nil, fmt.Errorf("game %s: decode players: %w", rec.ID, err)
		}
	}

	return &Game{
		ID:       rec.ID,
		joinCode: rec.JoinCode,
		state:    state,
		players:  players,
		store:    store,
		log:      log.WithField("game", rec.ID),
	}, nil
}

var joinCodeRng = rand.New(rand.NewSource(time.Now().UnixNano()))
var joinCodeMu sync.Mutex

// NewJoinCode returns a random 6-letter upper-case code. Uniqueness among
// live games is the registry's job.
func NewJoinCode() string {
	joinCodeMu.Lock()
	defer joinCodeMu.Unlock()
	code := make([]byte, 6)
	for i := range code {
		code[i] = byte('A' + joinCodeRng.Intn(26))
	}
	return string(code)
}

// record snapshots the game for persistence. Callers must hold the lock.
func (g *Game) record() database.GameRecord {
	events, err := engine.EncodeEvents(g.state.Events)
	if err != nil {
		// The log only ever contains events the codec produced.
		g.log.WithError(err).Error("encode event log")
		events = []byte("[]")
	}
	players, err := json.Marshal(g.players)
	if err != nil {
		g.log.WithError(err).Error("encode players")
		players = []byte("[]")
	}
	return database.GameRecord{
		ID:       g.ID,
		JoinCode: g.joinCode,
		Players:  players,
		Stage:    int(g.state.Stage),
		Events:   events,
	}
}

// withMutation runs op under the write lock. A concurrent mutation returns
// ErrLocked immediately instead of queueing. If op appended events, the
// record is persisted before the lock is released and the new events are
// published to the historian.
func (g *Game) withMutation(ctx context.Context, op func() error) error {
	if !g.mu.TryLock() {
		return ErrLocked
	}
	g.inFlight.Store(true)
	defer func() {
		g.inFlight.Store(false)
		g.mu.Unlock()
	}()

	before := len(g.state.Events)
	opErr := op()
	if len(g.state.Events) == before {
		return opErr
	}

	if err := g.store.UpdateGame(ctx, g.record()); err != nil {
		// In-memory state is ahead of the store; the next successful
		// persist carries the full log, so play continues.
		g.log.WithError(err).Error("persist game")
	}
	g.publishEvents(g.state.Events[before:], before)
	return opErr
}

// publishEvents sends events to the historian stream asynchronously.
// Callers must hold the lock; firstIndex is the log index of events[0].
func (g *Game) publishEvents(events []engine.Event, firstIndex int) {
	if cache.Rdb == nil {
		return
	}
	records := make([]cache.GameEventRecord, 0, len(events))
	for i, ev := range events {
		payload, err := engine.EncodeEvent(ev)
		if err != nil {
			g.log.WithError(err).Error("encode event for historian")
			continue
		}
		records = append(records, cache.GameEventRecord{
			GameID:    g.ID,
			Index:     firstIndex + i,
			EventType: string(ev.Type()),
			Payload:   payload,
			Timestamp: ev.Time(),
		})
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for _, rec := range records {
			if err := cache.PublishGameEvent(ctx, rec); err != nil {
				g.log.WithError(err).WithField("index", rec.Index).
					Warn("publish event to historian")
				return
			}
		}
	}()
}

func now() int64 { return time.Now().UnixMilli() }

// UserEvent applies a player-submitted action. The acting seat is resolved
// from the caller's hash, never from the payload.
func (g *Game) UserEvent(ctx context.Context, playerHash string, ev engine.Event) error {
	return g.withMutation(ctx, func() error {
		seat := g.playerIndex(playerHash)
		if seat < 0 {
			return ErrUnknownPlayer
		}
		return g.state.UserEvent(seat, ev, now())
	})
}

// NewRound deals the next round. Used by the scheduler when the table is
// full and ready, and again after a drawn round.
func (g *Game) NewRound(ctx context.Context) error {
	return g.withMutation(ctx, func() error {
		return g.state.NewRound(now())
	})
}

// NextTurn force-advances past an expired claim window.
func (g *Game) NextTurn(ctx context.Context) error {
	return g.withMutation(ctx, func() error {
		return g.state.AdvanceTurn(now())
	})
}

// FinishGame ends the game for everyone.
func (g *Game) FinishGame(ctx context.Context) error {
	return g.withMutation(ctx, func() error {
		return g.state.EndGame(now())
	})
}

// AddPlayer seats a new player during pregame. Joining again with the same
// hash is a no-op reconnect.
func (g *Game) AddPlayer(ctx context.Context, playerHash, nickname string) error {
	if !g.mu.TryLock() {
		return ErrLocked
	}
	defer g.mu.Unlock()

	if g.playerIndex(playerHash) >= 0 {
		return nil
	}
	if g.state.Stage != engine.StagePregame {
		return ErrNotPregame
	}
	if len(g.players) >= MaxPlayers {
		return ErrGameFull
	}
	g.players = append(g.players, Player{Hash: playerHash, Nickname: nickname})
	if err := g.store.UpdateGame(ctx, g.record()); err != nil {
		g.log.WithError(err).Error("persist roster")
	}
	g.log.WithField("nickname", nickname).Info("player joined")
	return nil
}

// SetReady flags a seated player as ready (or not) for the first deal.
func (g *Game) SetReady(ctx context.Context, playerHash string, ready bool) error {
	if !g.mu.TryLock() {
		return ErrLocked
	}
	defer g.mu.Unlock()

	seat := g.playerIndex(playerHash)
	if seat < 0 {
		return ErrUnknownPlayer
	}
	if g.state.Stage != engine.StagePregame {
		return ErrNotPregame
	}
	g.players[seat].Ready = ready
	if err := g.store.UpdateGame(ctx, g.record()); err != nil {
		g.log.WithError(err).Error("persist roster")
	}
	return nil
}

// PlayerLeave handles a player abandoning the table. Leaving always ends
// the game for everyone, whatever the stage: there is no partial-player
// continuation, and an abandoned pregame lobby is finished rather than
// left waiting for a seat that will never fill.
func (g *Game) PlayerLeave(ctx context.Context, playerHash string) error {
	return g.withMutation(ctx, func() error {
		seat := g.playerIndex(playerHash)
		if seat < 0 {
			return ErrUnknownPlayer
		}
		g.log.WithField("nickname", g.players[seat].Nickname).Info("player left, ending game")
		return g.state.EndGame(now())
	})
}

// playerIndex resolves a hash to a seat, or -1. Callers must hold the lock.
func (g *Game) playerIndex(playerHash string) int {
	for i, p := range g.players {
		if p.Hash == playerHash {
			return i
		}
	}
	return -1
}

// ---------------------------------------------------------------------------
// Readers. These take the read lock and never block on each other.
// ---------------------------------------------------------------------------

// Locked reports whether a mutation is in flight right now. Advisory: the
// answer can be stale by the time the caller acts on it.
func (g *Game) Locked() bool { return g.inFlight.Load() }

func (g *Game) JoinCode() string {
	return g.joinCode
}

func (g *Game) Stage() engine.Stage {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.Stage
}

func (g *Game) TurnState() engine.TurnState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.TurnState
}

func (g *Game) RoundOver() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.RoundOver()
}

func (g *Game) RoundWon() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.RoundWon()
}

// Players returns a copy of the roster in seat order.
func (g *Game) Players() []Player {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Player, len(g.players))
	copy(out, g.players)
	return out
}

// PlayerIndex resolves a hash to its seat, or -1.
func (g *Game) PlayerIndex(playerHash string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.playerIndex(playerHash)
}

// PlayersFull reports a fully seated table.
func (g *Game) PlayersFull() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.players) == MaxPlayers
}

// AllReady reports whether every seated player has readied up.
func (g *Game) AllReady() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.players) == 0 {
		return false
	}
	for _, p := range g.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (g *Game) EventCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.state.Events)
}

// EventsSince returns the events appended at or after index n, for clients
// polling the log.
func (g *Game) EventsSince(n int) []engine.Event {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n < 0 || n > len(g.state.Events) {
		return nil
	}
	out := make([]engine.Event, len(g.state.Events)-n)
	copy(out, g.state.Events[n:])
	return out
}

// LastEventAge returns how long ago the newest event was appended, or a
// very large duration for an empty log.
func (g *Game) LastEventAge() time.Duration {
	g.mu.RLock()
	defer g.mu.RUnlock()
	at := g.state.LastEventTime()
	if at == 0 {
		return time.Duration(1<<62 - 1)
	}
	return time.Duration(time.Now().UnixMilli()-at) * time.Millisecond
}

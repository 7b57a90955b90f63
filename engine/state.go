package engine

import (
	"fmt"
	"math/rand"
)

// Stage is the coarse game lifecycle. The integer values are the durable
// storage codes and must never change.
type Stage int

const (
	StageFinished Stage = 0
	StagePregame  Stage = 1
	StagePlay     Stage = 2
)

func (s Stage) String() string {
	switch s {
	case StageFinished:
		return "FINISHED"
	case StagePregame:
		return "PREGAME"
	case StagePlay:
		return "PLAY"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// TurnState is the within-turn state machine. It is TurnNone outside PLAY
// and between rounds.
type TurnState string

const (
	TurnNone              TurnState = ""
	TurnWaitingForDiscard TurnState = "waitingForDiscard"
	TurnWaitingForClaims  TurnState = "waitingForClaims"
)

// State is the derived game state: a pure fold over the append-only event
// log. Replaying the full log from an empty State deterministically
// reproduces hands, discards, melds, turn pointer and stage; the wall is
// reproduced as a multiset (its order is rebuilt randomly and never
// observed by replayed events, which carry their tiles).
//
// State carries no locking and never persists anything; the service layer
// wraps it with both.
type State struct {
	NumPlayers int
	Events     []Event
	Stage      Stage
	East       int
	Turn       int
	TurnState  TurnState
	Wall       []Tile
	Hidden     [][]Tile
	Discards   []Tile
	Declared   [][]TileSet

	eastSet   bool
	roundOver bool
	roundWon  bool
	rng       *rand.Rand
}

// NewState builds an empty pregame state for numPlayers seats. The rng
// seed controls wall shuffles only.
func NewState(numPlayers int, seed int64) *State {
	s := &State{
		NumPlayers: numPlayers,
		Stage:      StagePregame,
		TurnState:  TurnNone,
		Hidden:     make([][]Tile, numPlayers),
		Declared:   make([][]TileSet, numPlayers),
		rng:        rand.New(rand.NewSource(seed)),
	}
	for i := range s.Hidden {
		s.Hidden[i] = []Tile{}
		s.Declared[i] = []TileSet{}
	}
	s.Wall = NewWall(s.rng)
	return s
}

// Replay folds a stored log into s. Any integrity fault aborts with the
// offending event index; a log that fails to replay is unreconcilable.
func (s *State) Replay(events []Event) error {
	for i, ev := range events {
		if err := s.append(ev); err != nil {
			return fmt.Errorf("replay event %d (%s): %w", i, ev.Type(), err)
		}
	}
	return nil
}

// append records ev in the log and applies it to the derived state.
func (s *State) append(ev Event) error {
	if err := s.apply(ev); err != nil {
		return err
	}
	s.Events = append(s.Events, ev)
	return nil
}

// apply performs the internal workings of one event. It is the only place
// derived state mutates.
func (s *State) apply(ev Event) error {
	switch e := ev.(type) {
	case RoundStartEvent:
		s.Stage = StagePlay
		s.TurnState = TurnNone
		s.roundOver = false
		s.roundWon = false
		s.Wall = NewWall(s.rng)
		s.Discards = s.Discards[:0]
		for i := range s.Hidden {
			s.Hidden[i] = s.Hidden[i][:0]
			s.Declared[i] = s.Declared[i][:0]
		}

	case SetEastEvent:
		if err := s.checkSeat(e.Player); err != nil {
			return err
		}
		s.East = e.Player
		s.eastSet = true

	case StartTurnEvent:
		if err := s.checkSeat(e.Player); err != nil {
			return err
		}
		s.Turn = e.Player
		s.TurnState = TurnWaitingForDiscard

	case PickupWallEvent:
		if err := s.checkSeat(e.Player); err != nil {
			return err
		}
		return moveTile(&s.Wall, &s.Hidden[e.Player], e.Tile)

	case PickupTableEvent:
		if err := s.checkSeat(e.Player); err != nil {
			return err
		}
		if err := moveTile(&s.Discards, &s.Hidden[e.Player], e.Tile); err != nil {
			return err
		}
		s.Turn = e.Player
		s.TurnState = TurnWaitingForDiscard

	case DiscardEvent:
		if err := s.checkSeat(e.Player); err != nil {
			return err
		}
		if err := moveTile(&s.Hidden[e.Player], &s.Discards, e.Tile); err != nil {
			return err
		}
		s.TurnState = TurnWaitingForClaims

	case DeclareEvent:
		if err := s.checkSeat(e.Player); err != nil {
			return err
		}
		taken := make([]Tile, 0, len(e.Set.Tiles))
		for _, t := range e.Set.Tiles {
			if err := moveTile(&s.Hidden[e.Player], &taken, t); err != nil {
				return err
			}
		}
		s.Declared[e.Player] = append(s.Declared[e.Player], TileSet{
			Tiles:     taken,
			Concealed: e.Set.Concealed,
		})

	case AugmentDeclaredEvent:
		if err := s.checkSeat(e.Player); err != nil {
			return err
		}
		target := -1
		for i, set := range s.Declared[e.Player] {
			if set.IsPung() && set.Tiles[0].Is(e.Tile) {
				target = i
				break
			}
		}
		if target < 0 {
			return fmt.Errorf("%w: no declared pung of %v", ErrTileNotFound, e.Tile)
		}
		rest, ok := removeTile(s.Hidden[e.Player], e.Tile)
		if !ok {
			return fmt.Errorf("%w: %v", ErrTileNotFound, e.Tile)
		}
		s.Hidden[e.Player] = rest
		set := s.Declared[e.Player][target]
		set.Tiles = append(set.Tiles, e.Tile)
		s.Declared[e.Player][target] = set

	case MahjongEvent:
		if err := s.checkSeat(e.Player); err != nil {
			return err
		}
		s.roundWon = true

	case RoundEndEvent:
		s.TurnState = TurnNone
		s.roundOver = true

	case GameEndEvent:
		s.Stage = StageFinished
		s.TurnState = TurnNone

	default:
		return fmt.Errorf("unknown event %T", ev)
	}
	return nil
}

func (s *State) checkSeat(player int) error {
	if player < 0 || player >= s.NumPlayers {
		return fmt.Errorf("invalid seat %d", player)
	}
	return nil
}

// RoundOver reports a closed round awaiting either a new round or game end.
func (s *State) RoundOver() bool { return s.roundOver }

// RoundWon reports whether the current (or just-closed) round ended in a
// validated mahjong.
func (s *State) RoundWon() bool { return s.roundWon }

// LastEventTime returns the timestamp of the newest event, or 0 for an
// empty log.
func (s *State) LastEventTime() int64 {
	if len(s.Events) == 0 {
		return 0
	}
	return s.Events[len(s.Events)-1].Time()
}

// LastDiscard returns the most recent discard, if any.
func (s *State) LastDiscard() (Tile, bool) {
	if len(s.Discards) == 0 {
		return Tile{}, false
	}
	return s.Discards[len(s.Discards)-1], true
}

// TileCount returns the total number of tiles across wall, hands, discards
// and declared melds. It is WallSize for every reachable in-round state.
func (s *State) TileCount() int {
	n := len(s.Wall) + len(s.Discards)
	for i := range s.Hidden {
		n += len(s.Hidden[i])
		for _, set := range s.Declared[i] {
			n += len(set.Tiles)
		}
	}
	return n
}

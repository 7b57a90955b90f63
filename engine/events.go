package engine

import (
	"encoding/json"
	"fmt"
)

// EventType tags an event record. Values are the durable wire names and
// must never change.
type EventType string

const (
	EventRoundStart      EventType = "ROUND_START"
	EventSetEast         EventType = "SET_EAST"
	EventStartTurn       EventType = "START_TURN"
	EventPickupWall      EventType = "PICKUP_WALL"
	EventPickupTable     EventType = "PICKUP_TABLE"
	EventDiscard         EventType = "DISCARD"
	EventDeclare         EventType = "DECLARE"
	EventAugmentDeclared EventType = "AUGMENT_DECLARED"
	EventMahjong         EventType = "MAHJONG"
	EventRoundEnd        EventType = "ROUND_END"
	EventGameEnd         EventType = "GAME_END"
)

// Event is one immutable record of the append-only log. Each event type is
// its own variant carrying only the fields relevant to it; the log is the
// single source of truth and all derived state is a fold over it.
type Event interface {
	Type() EventType
	// Time is the event timestamp in Unix milliseconds.
	Time() int64
}

// RoundStartEvent resets the round: fresh wall, empty hands and discards.
type RoundStartEvent struct {
	At int64
}

// SetEastEvent fixes the dealer seat for the round.
type SetEastEvent struct {
	At     int64
	Player int
}

// StartTurnEvent opens a player's turn; they now owe a discard.
type StartTurnEvent struct {
	At     int64
	Player int
}

// PickupWallEvent moves one tile from the wall into a player's hand.
type PickupWallEvent struct {
	At     int64
	Player int
	Tile   Tile
}

// PickupTableEvent moves the most recent discard into a player's hand.
// When submitted by a player it additionally carries the claimed set; the
// internally appended form carries the tile alone.
type PickupTableEvent struct {
	At     int64
	Player int
	Tile   Tile
	Set    *TileSet
}

// DiscardEvent moves a tile from a player's hand onto the discard pile and
// opens the claim window.
type DiscardEvent struct {
	At     int64
	Player int
	Tile   Tile
}

// DeclareEvent moves a meld's tiles from a player's hand into their
// declared melds.
type DeclareEvent struct {
	At     int64
	Player int
	Set    TileSet
}

// AugmentDeclaredEvent promotes a previously declared pung to a kong with
// the matching fourth tile from the player's hand.
type AugmentDeclaredEvent struct {
	At     int64
	Player int
	Tile   Tile
}

// MahjongEvent records a validated winning declaration.
type MahjongEvent struct {
	At     int64
	Player int
}

// RoundEndEvent closes the round; the game returns to a pre-round state.
type RoundEndEvent struct {
	At int64
}

// GameEndEvent terminates the game for everyone.
type GameEndEvent struct {
	At int64
}

func (e RoundStartEvent) Type() EventType      { return EventRoundStart }
func (e SetEastEvent) Type() EventType         { return EventSetEast }
func (e StartTurnEvent) Type() EventType       { return EventStartTurn }
func (e PickupWallEvent) Type() EventType      { return EventPickupWall }
func (e PickupTableEvent) Type() EventType     { return EventPickupTable }
func (e DiscardEvent) Type() EventType         { return EventDiscard }
func (e DeclareEvent) Type() EventType         { return EventDeclare }
func (e AugmentDeclaredEvent) Type() EventType { return EventAugmentDeclared }
func (e MahjongEvent) Type() EventType         { return EventMahjong }
func (e RoundEndEvent) Type() EventType        { return EventRoundEnd }
func (e GameEndEvent) Type() EventType         { return EventGameEnd }

func (e RoundStartEvent) Time() int64      { return e.At }
func (e SetEastEvent) Time() int64         { return e.At }
func (e StartTurnEvent) Time() int64       { return e.At }
func (e PickupWallEvent) Time() int64      { return e.At }
func (e PickupTableEvent) Time() int64     { return e.At }
func (e DiscardEvent) Time() int64         { return e.At }
func (e DeclareEvent) Time() int64         { return e.At }
func (e AugmentDeclaredEvent) Time() int64 { return e.At }
func (e MahjongEvent) Time() int64         { return e.At }
func (e RoundEndEvent) Time() int64        { return e.At }
func (e GameEndEvent) Time() int64         { return e.At }

// ---------------------------------------------------------------------------
// Wire codec — flat JSON records, the durable format. Must round-trip
// exactly: replaying a decoded log reproduces the encoded one.
// ---------------------------------------------------------------------------

// eventRecord is the flat wire shape shared by all event types.
type eventRecord struct {
	Type   EventType `json:"type"`
	Time   int64     `json:"time"`
	Player *int      `json:"player,omitempty"`
	Tile   *Tile     `json:"tile,omitempty"`
	Set    *TileSet  `json:"tileSet,omitempty"`
}

func toRecord(ev Event) eventRecord {
	rec := eventRecord{Type: ev.Type(), Time: ev.Time()}
	switch e := ev.(type) {
	case SetEastEvent:
		rec.Player = &e.Player
	case StartTurnEvent:
		rec.Player = &e.Player
	case PickupWallEvent:
		rec.Player, rec.Tile = &e.Player, &e.Tile
	case PickupTableEvent:
		rec.Player, rec.Tile, rec.Set = &e.Player, &e.Tile, e.Set
	case DiscardEvent:
		rec.Player, rec.Tile = &e.Player, &e.Tile
	case DeclareEvent:
		set := e.Set
		rec.Player, rec.Set = &e.Player, &set
	case AugmentDeclaredEvent:
		rec.Player, rec.Tile = &e.Player, &e.Tile
	case MahjongEvent:
		rec.Player = &e.Player
	}
	return rec
}

func fromRecord(rec eventRecord) (Event, error) {
	player := func() (int, error) {
		if rec.Player == nil {
			return 0, fmt.Errorf("event %s: missing player", rec.Type)
		}
		return *rec.Player, nil
	}
	tile := func() (Tile, error) {
		if rec.Tile == nil {
			return Tile{}, fmt.Errorf("event %s: missing tile", rec.Type)
		}
		return *rec.Tile, nil
	}

	switch rec.Type {
	case EventRoundStart:
		return RoundStartEvent{At: rec.Time}, nil
	case EventRoundEnd:
		return RoundEndEvent{At: rec.Time}, nil
	case EventGameEnd:
		return GameEndEvent{At: rec.Time}, nil
	case EventSetEast:
		p, err := player()
		if err != nil {
			return nil, err
		}
		return SetEastEvent{At: rec.Time, Player: p}, nil
	case EventStartTurn:
		p, err := player()
		if err != nil {
			return nil, err
		}
		return StartTurnEvent{At: rec.Time, Player: p}, nil
	case EventMahjong:
		p, err := player()
		if err != nil {
			return nil, err
		}
		return MahjongEvent{At: rec.Time, Player: p}, nil
	case EventPickupWall:
		p, err := player()
		if err != nil {
			return nil, err
		}
		t, err := tile()
		if err != nil {
			return nil, err
		}
		return PickupWallEvent{At: rec.Time, Player: p, Tile: t}, nil
	case EventPickupTable:
		p, err := player()
		if err != nil {
			return nil, err
		}
		t, err := tile()
		if err != nil {
			return nil, err
		}
		return PickupTableEvent{At: rec.Time, Player: p, Tile: t, Set: rec.Set}, nil
	case EventDiscard:
		p, err := player()
		if err != nil {
			return nil, err
		}
		t, err := tile()
		if err != nil {
			return nil, err
		}
		return DiscardEvent{At: rec.Time, Player: p, Tile: t}, nil
	case EventAugmentDeclared:
		p, err := player()
		if err != nil {
			return nil, err
		}
		t, err := tile()
		if err != nil {
			return nil, err
		}
		return AugmentDeclaredEvent{At: rec.Time, Player: p, Tile: t}, nil
	case EventDeclare:
		p, err := player()
		if err != nil {
			return nil, err
		}
		if rec.Set == nil {
			return nil, fmt.Errorf("event %s: missing tileSet", rec.Type)
		}
		return DeclareEvent{At: rec.Time, Player: p, Set: *rec.Set}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", rec.Type)
	}
}

// EncodeEvent serializes a single event as one flat JSON record.
func EncodeEvent(ev Event) ([]byte, error) {
	return json.Marshal(toRecord(ev))
}

// EncodeEvents serializes a log as an ordered JSON array of flat records.
func EncodeEvents(events []Event) ([]byte, error) {
	records := make([]eventRecord, len(events))
	for i, ev := range events {
		records[i] = toRecord(ev)
	}
	return json.Marshal(records)
}

// DecodeEvents parses a log previously produced by EncodeEvents. An empty
// or nil payload decodes to an empty log.
func DecodeEvents(data []byte) ([]Event, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var records []eventRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode event log: %w", err)
	}
	events := make([]Event, len(records))
	for i, rec := range records {
		ev, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		events[i] = ev
	}
	return events, nil
}

package engine

import (
	"errors"
	"testing"
)

// selfDrawWin puts player 0 on turn owing a discard with the given hand.
func selfDrawWin(t *testing.T, hand []Tile) *State {
	t.Helper()
	s := newPlayState(t)
	s.Hidden[0] = hand
	mustAppend(t, s, StartTurnEvent{At: 1, Player: 0})
	return s
}

func TestMahjongSelfDrawPungsAndPair(t *testing.T) {
	s := selfDrawWin(t, tiles(
		repeatTile(circ(1), 3),
		repeatTile(circ(4), 3),
		repeatTile(circ(8), 3),
		repeatTile(wind(2), 3),
		repeatTile(drag(1), 2),
	))

	if err := s.UserEvent(0, MahjongEvent{}, 5); err != nil {
		t.Fatalf("mahjong: %v", err)
	}
	if !s.RoundWon() || !s.RoundOver() {
		t.Errorf("roundWon=%v roundOver=%v, want both true", s.RoundWon(), s.RoundOver())
	}
	if len(s.Hidden[0]) != 0 {
		t.Errorf("winning hand should be fully declared, %d tiles remain", len(s.Hidden[0]))
	}
	if len(s.Declared[0]) != 5 {
		t.Fatalf("declared melds = %d, want 5", len(s.Declared[0]))
	}
	// The pair is declared first.
	if !s.Declared[0][0].IsPair() {
		t.Errorf("first declared meld should be the pair: %+v", s.Declared[0][0])
	}

	// MAHJONG then ROUND_END close the log.
	n := len(s.Events)
	if s.Events[n-1].Type() != EventRoundEnd || s.Events[n-2].Type() != EventMahjong {
		t.Errorf("log tail = %s, %s", s.Events[n-2].Type(), s.Events[n-1].Type())
	}
}

func TestMahjongWithChow(t *testing.T) {
	s := selfDrawWin(t, tiles(
		repeatTile(bamb(2), 3),
		repeatTile(bamb(9), 3),
		repeatTile(wind(4), 3),
		[]Tile{bamb(5), bamb(6), bamb(7)},
		repeatTile(drag(3), 2),
	))

	if err := s.UserEvent(0, MahjongEvent{}, 5); err != nil {
		t.Fatalf("mahjong: %v", err)
	}
	var chows int
	for _, set := range s.Declared[0] {
		if set.IsChow() {
			chows++
		}
	}
	if chows != 1 {
		t.Errorf("declared chows = %d, want 1", chows)
	}
}

func TestMahjongFiveTilePungShadowsChow(t *testing.T) {
	// 3-3-3-4-5: pung extraction would eat the chow's 3. The pair 3-3 plus
	// chow 3-4-5 is the only winning split.
	s := selfDrawWin(t, []Tile{char(3), char(3), char(3), char(4), char(5)})
	s.Declared[0] = []TileSet{
		newSet(repeatTile(char(7), 3), false),
		newSet(repeatTile(char(9), 3), false),
		newSet(repeatTile(wind(1), 3), false),
	}

	if err := s.UserEvent(0, MahjongEvent{}, 5); err != nil {
		t.Fatalf("mahjong: %v", err)
	}
	if !s.RoundWon() {
		t.Error("round should be won")
	}
}

func TestMahjongSecondChowRejected(t *testing.T) {
	s := selfDrawWin(t, []Tile{char(3), char(4), char(5), char(8), char(8)})
	s.Declared[0] = []TileSet{
		newSet([]Tile{char(1), char(2), char(3)}, false),
		newSet(repeatTile(char(9), 3), false),
		newSet(repeatTile(wind(1), 3), false),
	}

	err := s.UserEvent(0, MahjongEvent{}, 5)
	if !errors.Is(err, ErrRejected) {
		t.Errorf("got %v, want ErrRejected", err)
	}
	if s.RoundWon() {
		t.Error("round must not be won")
	}
}

func TestMahjongMixedSuitsRejected(t *testing.T) {
	s := selfDrawWin(t, tiles(
		repeatTile(circ(1), 3),
		repeatTile(bamb(4), 3),
		repeatTile(circ(8), 3),
		repeatTile(wind(2), 3),
		repeatTile(drag(1), 2),
	))

	n := len(s.Events)
	if err := s.UserEvent(0, MahjongEvent{}, 5); !errors.Is(err, ErrRejected) {
		t.Errorf("got %v, want ErrRejected", err)
	}
	if len(s.Events) != n {
		t.Error("rejected mahjong must append nothing")
	}
}

func TestMahjongIncompleteHandRejected(t *testing.T) {
	s := selfDrawWin(t, tiles(
		repeatTile(circ(1), 3),
		repeatTile(circ(4), 3),
		[]Tile{circ(6), circ(7), circ(9)},
		repeatTile(wind(2), 3),
		repeatTile(drag(1), 2),
	))
	if err := s.UserEvent(0, MahjongEvent{}, 5); !errors.Is(err, ErrRejected) {
		t.Errorf("got %v, want ErrRejected", err)
	}
}

func TestMahjongOffDiscard(t *testing.T) {
	s := newPlayState(t)
	s.Hidden[2] = tiles(
		repeatTile(circ(2), 3),
		repeatTile(circ(5), 3),
		repeatTile(circ(9), 3),
		repeatTile(drag(2), 3),
		one(wind(3)),
	)
	openClaimWindow(t, s, wind(3))

	before := len(s.Events)
	if err := s.UserEvent(2, MahjongEvent{}, 5); err != nil {
		t.Fatalf("mahjong off discard: %v", err)
	}

	// The claimed discard is picked up before anything is declared.
	if s.Events[before].Type() != EventPickupTable {
		t.Errorf("first appended event = %s, want PICKUP_TABLE", s.Events[before].Type())
	}
	if !s.RoundWon() || !s.RoundOver() {
		t.Errorf("roundWon=%v roundOver=%v, want both true", s.RoundWon(), s.RoundOver())
	}
	if len(s.Discards) != 0 {
		t.Error("winning claim should empty the discard pile of its tile")
	}
}

func TestMahjongOffDiscardRequiresClaimWindow(t *testing.T) {
	s := newPlayState(t)
	s.Hidden[2] = repeatTile(circ(2), 2)
	mustAppend(t, s, StartTurnEvent{At: 1, Player: 0})

	// No discard pending: seat 2 cannot win off the table.
	if err := s.UserEvent(2, MahjongEvent{}, 5); !errors.Is(err, ErrRejected) {
		t.Errorf("got %v, want ErrRejected", err)
	}
}

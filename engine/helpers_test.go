package engine

import (
	"math/rand"
	"testing"
)

// Tile shorthands for tests.
func circ(v int) Tile { return Tile{Suit: SuitCircles, Value: v} }
func bamb(v int) Tile { return Tile{Suit: SuitBamboo, Value: v} }
func char(v int) Tile { return Tile{Suit: SuitCharacters, Value: v} }
func wind(v int) Tile { return Tile{Suit: SuitWinds, Value: v} }
func drag(v int) Tile { return Tile{Suit: SuitDragons, Value: v} }

// repeatTile returns n copies of t.
func repeatTile(t Tile, n int) []Tile {
	tiles := make([]Tile, n)
	for i := range tiles {
		tiles[i] = t
	}
	return tiles
}

// tiles concatenates tile groups into one hand.
func tiles(groups ...[]Tile) []Tile {
	var out []Tile
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// one wraps a single tile as a group for use with tiles().
func one(t Tile) []Tile { return []Tile{t} }

// newPlayState builds a 4-seat state forced directly into PLAY for rules
// tests that arrange hands and the wall by hand. Conservation is the
// test's responsibility.
func newPlayState(t *testing.T) *State {
	t.Helper()
	s := NewState(4, 1)
	s.Stage = StagePlay
	s.Wall = nil
	return s
}

// mustAppend applies ev or fails the test.
func mustAppend(t *testing.T, s *State, ev Event) {
	t.Helper()
	if err := s.append(ev); err != nil {
		t.Fatalf("append %s: %v", ev.Type(), err)
	}
}

// tileMultiset maps tile -> count for order-insensitive comparison.
func tileMultiset(groups ...[]Tile) map[Tile]int {
	m := make(map[Tile]int)
	for _, g := range groups {
		for _, t := range g {
			m[t]++
		}
	}
	return m
}

// allTiles gathers every tile reachable from s: wall, hands, discards and
// declared melds.
func allTiles(s *State) []Tile {
	var out []Tile
	out = append(out, s.Wall...)
	out = append(out, s.Discards...)
	for i := range s.Hidden {
		out = append(out, s.Hidden[i]...)
		for _, set := range s.Declared[i] {
			out = append(out, set.Tiles...)
		}
	}
	return out
}

// checkConservation fails unless s still holds exactly the full tile set.
func checkConservation(t *testing.T, s *State) {
	t.Helper()
	if got := s.TileCount(); got != WallSize {
		t.Fatalf("tile conservation broken: have %d tiles, want %d", got, WallSize)
	}
	full := tileMultiset(NewWall(rand.New(rand.NewSource(0))))
	got := tileMultiset(allTiles(s))
	for tile, n := range full {
		if got[tile] != n {
			t.Fatalf("tile %v: have %d copies, want %d", tile, got[tile], n)
		}
	}
}

package engine

import (
	"fmt"
	"math/rand"
	"sort"
)

// Suit identifies a tile family. The three numbered suits run 1–9, winds
// 1–4 and dragons 1–3. Flowers and seasons are reserved in the type but
// never enter the wall.
type Suit string

const (
	SuitCircles    Suit = "CIRCLES"
	SuitBamboo     Suit = "BAMBOO"
	SuitCharacters Suit = "CHARACTERS"
	SuitWinds      Suit = "WINDS"
	SuitDragons    Suit = "DRAGONS"
	SuitFlowers    Suit = "FLOWERS"
	SuitSeasons    Suit = "SEASONS"
)

// numberedSuits are the suits a hand can be "locked" to.
var numberedSuits = []Suit{SuitCircles, SuitBamboo, SuitCharacters}

// IsNumbered reports whether s is one of the three 1–9 suits.
func (s Suit) IsNumbered() bool {
	return s == SuitCircles || s == SuitBamboo || s == SuitCharacters
}

// IsHonor reports whether s is winds or dragons. Honor tiles are exempt
// from the chosen-suit lock.
func (s Suit) IsHonor() bool {
	return s == SuitWinds || s == SuitDragons
}

// Tile is a value object: two tiles are the same tile iff suit and value
// match. Duplicates (up to four per face) are expected and always matched
// by value, never by identity.
type Tile struct {
	Suit  Suit `json:"suit"`
	Value int  `json:"value"`
}

func (t Tile) String() string {
	return fmt.Sprintf("%d-%s", t.Value, t.Suit)
}

// Is reports structural equality with other.
func (t Tile) Is(other Tile) bool {
	return t.Suit == other.Suit && t.Value == other.Value
}

// Wall size facts: 27 distinct faces, four copies each.
const (
	CopiesPerTile = 4
	WallSize      = 108
	TilesPerHand  = 13
)

// NewWall builds the full 108-tile set and shuffles it with rng.
func NewWall(rng *rand.Rand) []Tile {
	wall := make([]Tile, 0, WallSize)
	for _, suit := range numberedSuits {
		for v := 1; v <= 9; v++ {
			for c := 0; c < CopiesPerTile; c++ {
				wall = append(wall, Tile{Suit: suit, Value: v})
			}
		}
	}
	for v := 1; v <= 4; v++ {
		for c := 0; c < CopiesPerTile; c++ {
			wall = append(wall, Tile{Suit: SuitWinds, Value: v})
		}
	}
	for v := 1; v <= 3; v++ {
		for c := 0; c < CopiesPerTile; c++ {
			wall = append(wall, Tile{Suit: SuitDragons, Value: v})
		}
	}
	rng.Shuffle(len(wall), func(i, j int) {
		wall[i], wall[j] = wall[j], wall[i]
	})
	return wall
}

// ---------------------------------------------------------------------------
// Collection primitives — linear scans over small ad hoc tile collections.
// ---------------------------------------------------------------------------

// indexOfTile returns the index of the first tile equal to t, or -1.
func indexOfTile(tiles []Tile, t Tile) int {
	for i, other := range tiles {
		if other.Is(t) {
			return i
		}
	}
	return -1
}

// containsTile reports whether t occurs in tiles.
func containsTile(tiles []Tile, t Tile) bool {
	return indexOfTile(tiles, t) >= 0
}

// countTile counts occurrences of t in tiles.
func countTile(tiles []Tile, t Tile) int {
	n := 0
	for _, other := range tiles {
		if other.Is(t) {
			n++
		}
	}
	return n
}

// removeTile removes one instance of t from tiles, returning the shortened
// slice and whether the tile was found.
func removeTile(tiles []Tile, t Tile) ([]Tile, bool) {
	i := indexOfTile(tiles, t)
	if i < 0 {
		return tiles, false
	}
	return append(tiles[:i], tiles[i+1:]...), true
}

// moveTile transfers one instance of t from src to dst. A missing tile is a
// data-integrity fault: the caller's event log no longer reconciles.
func moveTile(src, dst *[]Tile, t Tile) error {
	rest, ok := removeTile(*src, t)
	if !ok {
		return fmt.Errorf("%w: %v", ErrTileNotFound, t)
	}
	*src = rest
	*dst = append(*dst, t)
	return nil
}

// sortTiles orders tiles by suit then value, in place.
func sortTiles(tiles []Tile) {
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Suit != tiles[j].Suit {
			return tiles[i].Suit < tiles[j].Suit
		}
		return tiles[i].Value < tiles[j].Value
	})
}

// isMatchingRun reports whether every tile is the same face (pung or kong
// material, length checked by the caller).
func isMatchingRun(tiles []Tile) bool {
	if len(tiles) == 0 {
		return false
	}
	for _, t := range tiles[1:] {
		if !t.Is(tiles[0]) {
			return false
		}
	}
	return true
}

// isConsecutiveRun reports whether tiles form a chow: exactly three
// consecutive values in one numbered suit.
func isConsecutiveRun(tiles []Tile) bool {
	if len(tiles) != 3 {
		return false
	}
	suit := tiles[0].Suit
	if !suit.IsNumbered() {
		return false
	}
	values := make([]int, 0, 3)
	for _, t := range tiles {
		if t.Suit != suit {
			return false
		}
		values = append(values, t.Value)
	}
	sort.Ints(values)
	return values[1] == values[0]+1 && values[2] == values[1]+1
}

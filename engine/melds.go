package engine

// TileSet is a declared meld: an ordered tile list plus a concealed flag.
// A pung is three identical tiles, a kong four, a chow three consecutive
// same-suit numbered tiles, a pair two identical tiles.
type TileSet struct {
	Tiles     []Tile `json:"tiles"`
	Concealed bool   `json:"concealed"`
}

// IsPung reports a three-of-a-kind set.
func (ts TileSet) IsPung() bool {
	return len(ts.Tiles) == 3 && isMatchingRun(ts.Tiles)
}

// IsKong reports a four-of-a-kind set.
func (ts TileSet) IsKong() bool {
	return len(ts.Tiles) == 4 && isMatchingRun(ts.Tiles)
}

// IsChow reports a consecutive same-suit run of three.
func (ts TileSet) IsChow() bool {
	return isConsecutiveRun(ts.Tiles)
}

// IsPair reports two identical tiles.
func (ts TileSet) IsPair() bool {
	return len(ts.Tiles) == 2 && isMatchingRun(ts.Tiles)
}

// newSet copies and sorts tiles into a TileSet. Declared melds are always
// stored sorted by value.
func newSet(tiles []Tile, concealed bool) TileSet {
	cp := make([]Tile, len(tiles))
	copy(cp, tiles)
	sortTiles(cp)
	return TileSet{Tiles: cp, Concealed: concealed}
}

// FindPungsKongs scans a hand for three- and four-of-a-kind groups. Each
// tile face is reported at most once even when several matching subsets
// exist.
func FindPungsKongs(hand []Tile) []TileSet {
	var found []TileSet
	seen := make([]Tile, 0, len(hand))
	for _, t := range hand {
		if containsTile(seen, t) {
			continue
		}
		seen = append(seen, t)
		n := countTile(hand, t)
		if n < 3 {
			continue
		}
		group := make([]Tile, n)
		for i := range group {
			group[i] = t
		}
		found = append(found, TileSet{Tiles: group, Concealed: true})
	}
	return found
}

// CheckChowAndPair decomposes exactly five tiles into one pair plus one
// chow. Every candidate pair is tried; the first decomposition wins.
func CheckChowAndPair(tiles []Tile) (pair, chow TileSet, ok bool) {
	if len(tiles) != 5 {
		return TileSet{}, TileSet{}, false
	}
	tried := make([]Tile, 0, 2)
	for _, t := range tiles {
		if countTile(tiles, t) < 2 || containsTile(tried, t) {
			continue
		}
		tried = append(tried, t)

		rest := make([]Tile, len(tiles))
		copy(rest, tiles)
		rest, _ = removeTile(rest, t)
		rest, _ = removeTile(rest, t)
		if isConsecutiveRun(rest) {
			return newSet([]Tile{t, t}, false), newSet(rest, false), true
		}
	}
	return TileSet{}, TileSet{}, false
}

// ChosenSuit returns the single numbered suit used by the declared melds,
// or "" when no numbered meld has been declared yet. Melds spanning two
// numbered suits are permanently illegal and reported as ErrMixedSuits.
func ChosenSuit(declared []TileSet) (Suit, error) {
	var chosen Suit
	for _, set := range declared {
		for _, t := range set.Tiles {
			if !t.Suit.IsNumbered() {
				continue
			}
			if chosen == "" {
				chosen = t.Suit
			} else if chosen != t.Suit {
				return "", ErrMixedSuits
			}
		}
	}
	return chosen, nil
}

// hasChow reports whether any declared meld is a chow. A complete hand may
// contain at most one.
func hasChow(declared []TileSet) bool {
	for _, set := range declared {
		if set.IsChow() {
			return true
		}
	}
	return false
}

package engine

// Winning-hand detection. A complete hand decomposes, under the
// chosen-suit lock, into any number of pungs/kongs, exactly one pair, and
// at most one chow across hidden and declared melds.

// checkMahjong tests the candidate hand (hidden tiles plus, when claiming
// off the table, the pending discard) and on success appends the pickup
// (when claiming), the discovered melds, MAHJONG and ROUND_END. On
// failure nothing is appended.
func (s *State) checkMahjong(player int, usingDiscard bool, now int64) error {
	hand := make([]Tile, len(s.Hidden[player]))
	copy(hand, s.Hidden[player])

	var claimed Tile
	if usingDiscard {
		last, ok := s.LastDiscard()
		if !ok {
			return ErrRejected
		}
		claimed = last
		hand = append(hand, claimed)
	}

	melds, err := winningMelds(hand, s.Declared[player])
	if err != nil {
		return err
	}

	if usingDiscard {
		if err := s.append(PickupTableEvent{At: now, Player: player, Tile: claimed}); err != nil {
			return err
		}
	}
	for _, set := range melds {
		if err := s.append(DeclareEvent{At: now, Player: player, Set: set}); err != nil {
			return err
		}
	}
	if err := s.append(MahjongEvent{At: now, Player: player}); err != nil {
		return err
	}
	return s.append(RoundEndEvent{At: now})
}

// winningMelds decomposes hand against the already-declared melds,
// returning the remaining melds in declaration order: pair first, then
// newly found pungs, then the chow.
func winningMelds(hand []Tile, declared []TileSet) ([]TileSet, error) {
	chosen, err := ChosenSuit(declared)
	if err != nil {
		return nil, err
	}
	// Every numbered tile must share the single chosen suit; honors are
	// always allowed.
	for _, t := range hand {
		if !t.Suit.IsNumbered() {
			continue
		}
		if chosen == "" {
			chosen = t.Suit
		} else if t.Suit != chosen {
			return nil, ErrRejected
		}
	}
	chowUsed := hasChow(declared)

	// Five tiles with no chow declared: try chow+pair before pung
	// extraction, which would otherwise eat tiles belonging to the chow
	// (e.g. 3-3-3-4-5 holds the pair 3-3 and the chow 3-4-5).
	if len(hand) == 5 && !chowUsed {
		if pair, chow, ok := CheckChowAndPair(hand); ok {
			return []TileSet{pair, chow}, nil
		}
	}

	rest := make([]Tile, len(hand))
	copy(rest, hand)
	var pungs []TileSet
	for _, group := range FindPungsKongs(hand) {
		face := group.Tiles[0]
		pung := []Tile{face, face, face}
		for range pung {
			var ok bool
			if rest, ok = removeTile(rest, face); !ok {
				return nil, ErrRejected
			}
		}
		pungs = append(pungs, newSet(pung, false))
	}

	switch {
	case len(rest) == 2 && isMatchingRun(rest):
		return append([]TileSet{newSet(rest, false)}, pungs...), nil
	case len(rest) == 5 && !chowUsed:
		if pair, chow, ok := CheckChowAndPair(rest); ok {
			melds := append([]TileSet{pair}, pungs...)
			return append(melds, chow), nil
		}
	}
	return nil, ErrRejected
}

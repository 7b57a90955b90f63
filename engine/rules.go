package engine

// Validated mutating operations. Every operation either appends events and
// returns nil, or returns ErrRejected (or a sentinel wrapping it) with the
// log and derived state untouched. Serialization and persistence are the
// service layer's job.

// NewRound resets the table and opens a round: rebuilds and shuffles the
// wall, deals 13 tiles to each seat in turn order, advances east one seat
// from the previous round (random on the first), and starts east's turn.
func (s *State) NewRound(now int64) error {
	if s.Stage == StageFinished {
		return ErrRejected
	}
	if s.Stage == StagePlay && !s.roundOver {
		return ErrRejected
	}

	if err := s.append(RoundStartEvent{At: now}); err != nil {
		return err
	}
	for seat := 0; seat < s.NumPlayers; seat++ {
		for j := 0; j < TilesPerHand; j++ {
			ev := PickupWallEvent{At: now, Player: seat, Tile: s.Wall[0]}
			if err := s.append(ev); err != nil {
				return err
			}
		}
	}

	east := s.rng.Intn(s.NumPlayers)
	if s.eastSet {
		east = (s.East + 1) % s.NumPlayers
	}
	if err := s.append(SetEastEvent{At: now, Player: east}); err != nil {
		return err
	}
	return s.startTurn(east, now)
}

// StartTurn opens player's turn with a wall pickup, ending the round
// instead when the wall is exhausted. Exposed for forced transitions; user
// actions reach it only through claims and kongs.
func (s *State) StartTurn(player int, now int64) error {
	if s.Stage != StagePlay || s.roundOver {
		return ErrRejected
	}
	if err := s.checkSeat(player); err != nil {
		return ErrRejected
	}
	return s.startTurn(player, now)
}

func (s *State) startTurn(player int, now int64) error {
	if len(s.Wall) == 0 {
		return s.append(RoundEndEvent{At: now})
	}
	if err := s.append(StartTurnEvent{At: now, Player: player}); err != nil {
		return err
	}
	if err := s.append(PickupWallEvent{At: now, Player: player, Tile: s.Wall[0]}); err != nil {
		return err
	}
	return s.autoDeclareKongs(player, now)
}

// autoDeclareKongs declares any concealed kong just drawn into the hand
// and draws a replacement tile, repeating until no kong remains. Only
// kongs in the player's chosen suit qualify (any suit before one is
// locked; honors always qualify).
func (s *State) autoDeclareKongs(player int, now int64) error {
	for {
		kong, ok := s.findConcealedKong(player)
		if !ok {
			return nil
		}
		if err := s.append(DeclareEvent{At: now, Player: player, Set: kong}); err != nil {
			return err
		}
		if len(s.Wall) == 0 {
			return s.append(RoundEndEvent{At: now})
		}
		if err := s.append(PickupWallEvent{At: now, Player: player, Tile: s.Wall[0]}); err != nil {
			return err
		}
	}
}

func (s *State) findConcealedKong(player int) (TileSet, bool) {
	chosen, err := ChosenSuit(s.Declared[player])
	if err != nil {
		return TileSet{}, false
	}
	for _, set := range FindPungsKongs(s.Hidden[player]) {
		if !set.IsKong() {
			continue
		}
		suit := set.Tiles[0].Suit
		if suit.IsNumbered() && chosen != "" && suit != chosen {
			continue
		}
		return set, true
	}
	return TileSet{}, false
}

// AdvanceTurn forces the turn to the next seat once a claim window lapses.
// Legal only while waiting for claims.
func (s *State) AdvanceTurn(now int64) error {
	if s.Stage != StagePlay || s.TurnState != TurnWaitingForClaims {
		return ErrRejected
	}
	return s.startTurn((s.Turn+1)%s.NumPlayers, now)
}

// EndGame appends GAME_END, terminating the game for everyone.
func (s *State) EndGame(now int64) error {
	if s.Stage == StageFinished {
		return ErrRejected
	}
	return s.append(GameEndEvent{At: now})
}

// UserEvent is the single entry point for player-submitted actions. The
// acting seat is taken from the authenticated caller, never from the event
// payload. Unknown event types and all validation failures reject without
// touching state.
func (s *State) UserEvent(player int, ev Event, now int64) error {
	if err := s.checkSeat(player); err != nil {
		return ErrRejected
	}
	if s.Stage != StagePlay || s.roundOver {
		return ErrRejected
	}
	switch e := ev.(type) {
	case PickupTableEvent:
		return s.claimDiscard(player, e, now)
	case DiscardEvent:
		return s.discard(player, e.Tile, now)
	case MahjongEvent:
		return s.declareMahjong(player, now)
	case AugmentDeclaredEvent:
		return s.augmentDeclared(player, e.Tile, now)
	default:
		return ErrRejected
	}
}

func (s *State) discard(player int, tile Tile, now int64) error {
	if player != s.Turn || s.TurnState != TurnWaitingForDiscard {
		return ErrRejected
	}
	if !containsTile(s.Hidden[player], tile) {
		return ErrRejected
	}
	return s.append(DiscardEvent{At: now, Player: player, Tile: tile})
}

// claimDiscard validates a PICKUP_TABLE claim of the most recent discard
// into a declared pung, kong or chow.
func (s *State) claimDiscard(player int, e PickupTableEvent, now int64) error {
	if s.TurnState != TurnWaitingForClaims || player == s.Turn {
		return ErrRejected
	}
	last, ok := s.LastDiscard()
	if !ok || !e.Tile.Is(last) {
		return ErrRejected
	}
	if e.Set == nil || !containsTile(e.Set.Tiles, e.Tile) {
		return ErrRejected
	}
	claim := e.Set.Tiles

	// Every claimed tile must come from the hand plus the claimed discard.
	pool := make([]Tile, 0, len(s.Hidden[player])+1)
	pool = append(pool, s.Hidden[player]...)
	pool = append(pool, e.Tile)
	for _, t := range claim {
		if pool, ok = removeTile(pool, t); !ok {
			return ErrRejected
		}
	}

	switch {
	case (len(claim) == 3 || len(claim) == 4) && isMatchingRun(claim):
		// Pung or kong: claimable from any other seat.
	case isConsecutiveRun(claim):
		// Chow: only the seat after the discarder, at most once per player.
		if player != (s.Turn+1)%s.NumPlayers {
			return ErrRejected
		}
		if hasChow(s.Declared[player]) {
			return ErrRejected
		}
	default:
		return ErrRejected
	}

	if suit := claim[0].Suit; suit.IsNumbered() {
		chosen, err := ChosenSuit(s.Declared[player])
		if err != nil {
			return err
		}
		if chosen != "" && suit != chosen {
			return ErrRejected
		}
	}

	if err := s.append(PickupTableEvent{At: now, Player: player, Tile: e.Tile}); err != nil {
		return err
	}
	if err := s.append(DeclareEvent{At: now, Player: player, Set: newSet(claim, false)}); err != nil {
		return err
	}
	if len(claim) == 4 {
		// A kong leaves the hand a tile short: draw before discarding.
		return s.startTurn(player, now)
	}
	return nil
}

// augmentDeclared promotes one of the player's declared pungs to a kong
// with a matching tile from their hand, then draws a replacement.
func (s *State) augmentDeclared(player int, tile Tile, now int64) error {
	if player != s.Turn || s.TurnState != TurnWaitingForDiscard {
		return ErrRejected
	}
	if !containsTile(s.Hidden[player], tile) {
		return ErrRejected
	}
	found := false
	for _, set := range s.Declared[player] {
		if set.IsPung() && set.Tiles[0].Is(tile) {
			found = true
			break
		}
	}
	if !found {
		return ErrRejected
	}
	if err := s.append(AugmentDeclaredEvent{At: now, Player: player, Tile: tile}); err != nil {
		return err
	}
	return s.startTurn(player, now)
}

func (s *State) declareMahjong(player int, now int64) error {
	switch {
	case player == s.Turn && s.TurnState == TurnWaitingForDiscard:
		return s.checkMahjong(player, false, now)
	case player != s.Turn && s.TurnState == TurnWaitingForClaims:
		return s.checkMahjong(player, true, now)
	default:
		return ErrRejected
	}
}

package engine

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEncodeEventsWireShape(t *testing.T) {
	set := newSet(repeatTile(circ(4), 3), false)
	log := []Event{
		RoundStartEvent{At: 1000},
		PickupWallEvent{At: 1001, Player: 2, Tile: bamb(7)},
		DeclareEvent{At: 1002, Player: 2, Set: set},
	}
	data, err := EncodeEvents(log)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal wire form: %v", err)
	}
	if len(raw) != 3 {
		t.Fatalf("wire records = %d, want 3", len(raw))
	}

	// ROUND_START carries no player, tile or tileSet.
	for _, key := range []string{"player", "tile", "tileSet"} {
		if _, ok := raw[0][key]; ok {
			t.Errorf("ROUND_START record should omit %q", key)
		}
	}
	if string(raw[0]["type"]) != `"ROUND_START"` {
		t.Errorf("type field = %s", raw[0]["type"])
	}
	if string(raw[0]["time"]) != "1000" {
		t.Errorf("time field = %s", raw[0]["time"])
	}
	if string(raw[1]["player"]) != "2" {
		t.Errorf("player field = %s", raw[1]["player"])
	}
	if _, ok := raw[2]["tileSet"]; !ok {
		t.Error("DECLARE record should carry tileSet")
	}
}

func TestEventsRoundTrip(t *testing.T) {
	claim := newSet([]Tile{char(3), char(4), char(5)}, false)
	log := []Event{
		RoundStartEvent{At: 1},
		SetEastEvent{At: 2, Player: 0},
		StartTurnEvent{At: 3, Player: 0},
		PickupWallEvent{At: 4, Player: 0, Tile: circ(1)},
		DiscardEvent{At: 5, Player: 0, Tile: circ(1)},
		PickupTableEvent{At: 6, Player: 1, Tile: circ(1), Set: &claim},
		DeclareEvent{At: 7, Player: 1, Set: claim},
		AugmentDeclaredEvent{At: 8, Player: 1, Tile: char(3)},
		MahjongEvent{At: 9, Player: 1},
		RoundEndEvent{At: 10},
		GameEndEvent{At: 11},
	}

	data, err := EncodeEvents(log)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeEvents(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(log) {
		t.Fatalf("decoded %d events, want %d", len(decoded), len(log))
	}
	for i := range log {
		if decoded[i].Type() != log[i].Type() {
			t.Errorf("event %d: type %s, want %s", i, decoded[i].Type(), log[i].Type())
		}
		if decoded[i].Time() != log[i].Time() {
			t.Errorf("event %d: time %d, want %d", i, decoded[i].Time(), log[i].Time())
		}
	}

	// Re-encoding the decoded log reproduces the bytes exactly.
	again, err := EncodeEvents(decoded)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if string(again) != string(data) {
		t.Errorf("re-encoded log differs:\n%s\n%s", data, again)
	}
}

func TestDecodeEventsEmpty(t *testing.T) {
	for _, data := range [][]byte{nil, {}} {
		events, err := DecodeEvents(data)
		if err != nil || events != nil {
			t.Errorf("empty payload: got (%v, %v), want (nil, nil)", events, err)
		}
	}
}

func TestDecodeEventsRejectsUnknownType(t *testing.T) {
	_, err := DecodeEvents([]byte(`[{"type":"TELEPORT","time":1}]`))
	if err == nil || !strings.Contains(err.Error(), "TELEPORT") {
		t.Errorf("got %v, want unknown-type error naming TELEPORT", err)
	}
}

func TestDecodeEventsRejectsMissingFields(t *testing.T) {
	cases := []string{
		`[{"type":"SET_EAST","time":1}]`,
		`[{"type":"DISCARD","time":1,"player":0}]`,
		`[{"type":"DECLARE","time":1,"player":0}]`,
	}
	for _, payload := range cases {
		if _, err := DecodeEvents([]byte(payload)); err == nil {
			t.Errorf("payload %s should fail to decode", payload)
		}
	}
}

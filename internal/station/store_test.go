package station

import (
	"testing"
	"time"

	_ "aprsgw/internal/aprsdialect/position"
)

func TestObservePacketCreatesStation(t *testing.T) {
	st := New(30 * time.Second)
	res := st.ObservePacket(ObserveInput{
		Source:   "N1ABC-9",
		DestCall: "APRS",
		Info:     "!4903.50N/07201.75W-test",
		At:       time.Unix(1000, 0),
	})
	if !res.NewStation {
		t.Error("expected NewStation=true for first reception")
	}
	if res.Duplicate {
		t.Error("first packet must not be a duplicate")
	}
	if res.Station.PacketsHeard != 1 {
		t.Errorf("PacketsHeard = %d, want 1", res.Station.PacketsHeard)
	}
	if res.Station.LastPosition == nil {
		t.Fatal("expected LastPosition to be set")
	}
}

func TestObservePacketDuplicateSuppressesCount(t *testing.T) {
	st := New(30 * time.Second)
	in := ObserveInput{
		Source:         "N1ABC-9",
		DestCall:       "APRS",
		DigipeaterPath: []string{"WIDE1-1*"},
		Info:           "!4903.50N/07201.75W-test",
		At:             time.Unix(2000, 0),
	}
	st.ObservePacket(in)

	in.DigipeaterPath = []string{"WIDE1-1*", "WIDE2-1*"}
	in.At = time.Unix(2001, 0)
	res := st.ObservePacket(in)

	if !res.Duplicate {
		t.Fatal("second copy within window should be a duplicate")
	}
	if res.Station.PacketsHeard != 1 {
		t.Errorf("PacketsHeard = %d, want 1 (duplicate must not increment)", res.Station.PacketsHeard)
	}
	if len(res.Station.Receptions) != 2 {
		t.Errorf("Receptions length = %d, want 2 (duplicate still records a reception)", len(res.Station.Receptions))
	}
}

func TestHopCountFromPath(t *testing.T) {
	st := New(30 * time.Second)
	st.ObservePacket(ObserveInput{
		Source:         "N1ABC-9",
		DestCall:       "APRS",
		DigipeaterPath: []string{"WIDE1-1*"},
		Info:           "!4903.50N/07201.75W-test",
		At:             time.Unix(3000, 0),
	})
	sta, ok := st.Get("N1ABC-9")
	if !ok {
		t.Fatal("station not found")
	}
	if sta.HopCount() != 1 {
		t.Errorf("HopCount() = %d, want 1", sta.HopCount())
	}
	if sta.HeardZeroHop() {
		t.Error("station heard via one digipeater hop should not be zero-hop")
	}
}

func TestRelayPathsFromThirdParty(t *testing.T) {
	st := New(30 * time.Second)
	st.ObservePacket(ObserveInput{
		Source:    "N1ABC-9",
		DestCall:  "APRS",
		RelayCall: "WXGATE",
		Info:      "!4903.50N/07201.75W-test",
		At:        time.Unix(4000, 0),
	})
	sta, ok := st.Get("N1ABC-9")
	if !ok {
		t.Fatal("station not found")
	}
	if sta.HopCount() != 999 {
		t.Errorf("HopCount() = %d, want 999 for relayed-only station", sta.HopCount())
	}
	paths := sta.RelayPaths()
	if len(paths) != 1 || paths[0] != "WXGATE" {
		t.Errorf("RelayPaths() = %v, want [WXGATE]", paths)
	}
}

func TestClearDatabase(t *testing.T) {
	st := New(30 * time.Second)
	st.ObservePacket(ObserveInput{Source: "N1ABC", DestCall: "APRS", Info: "!4903.50N/07201.75W-", At: time.Unix(5000, 0)})
	if st.Count() != 1 {
		t.Fatal("expected one station before clear")
	}
	st.ClearDatabase()
	if st.Count() != 0 {
		t.Errorf("Count() = %d after ClearDatabase, want 0", st.Count())
	}
}

func TestPruneDatabase(t *testing.T) {
	st := New(30 * time.Second)
	old := time.Now().Add(-10 * 24 * time.Hour)
	st.ObservePacket(ObserveInput{Source: "OLDCALL", DestCall: "APRS", Info: "!4903.50N/07201.75W-", At: old})
	st.ObservePacket(ObserveInput{Source: "NEWCALL", DestCall: "APRS", Info: "!4903.50N/07201.75W-", At: time.Now()})

	removed := st.PruneDatabase(7)
	if removed != 1 {
		t.Errorf("PruneDatabase(7) removed %d, want 1", removed)
	}
	if _, ok := st.Get("OLDCALL"); ok {
		t.Error("OLDCALL should have been pruned")
	}
	if _, ok := st.Get("NEWCALL"); !ok {
		t.Error("NEWCALL should still be present")
	}
}

func TestClassifyPath(t *testing.T) {
	cases := []struct {
		path []string
		want string
	}{
		{nil, "Direct"},
		{[]string{"WIDE1-1*"}, "WIDE1-1"},
		{[]string{"N0ABC*", "WIDE2-1"}, "WIDE2-1"},
		{[]string{"N0ABC*"}, "Via Digipeater"},
		{[]string{"WIDE1-1*", "WIDE2-1", "TRACE3-3"}, "WIDE1-1,WIDE2-1,TRACE3-3"},
		{[]string{"WIDE1-1", "WIDE2-1", "WIDE3-3", "WIDE4-4"}, "WIDE1-1,WIDE2-1+2"},
	}
	for _, tc := range cases {
		if got := ClassifyPath(tc.path); got != tc.want {
			t.Errorf("ClassifyPath(%v) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestMarkDigipeaters(t *testing.T) {
	st := New(30 * time.Second)
	st.ObservePacket(ObserveInput{Source: "WIDE1-1", DestCall: "APRS", Info: "!4903.50N/07201.75W-", At: time.Unix(6000, 0)})
	st.ObservePacket(ObserveInput{
		Source:         "N1ABC",
		DestCall:       "APRS",
		DigipeaterPath: []string{"WIDE1-1*"},
		Info:           "!4903.50N/07201.75W-",
		At:             time.Unix(6001, 0),
	})
	digi, ok := st.Get("WIDE1-1")
	if !ok {
		t.Fatal("WIDE1-1 station not found")
	}
	if !digi.IsDigipeater {
		t.Error("expected WIDE1-1 to be marked as a digipeater")
	}
	sta, _ := st.Get("N1ABC")
	if len(sta.DigipeatersHeardBy) != 1 || sta.DigipeatersHeardBy[0] != "WIDE1-1" {
		t.Errorf("DigipeatersHeardBy = %v, want [WIDE1-1]", sta.DigipeatersHeardBy)
	}
}

func TestNetworkDigipeaterStatsAggregatesByCallsignSkippingAliases(t *testing.T) {
	st := New(30 * time.Second)

	// N1ABC relayed through real digipeater K1XYZ-1, with a WIDE alias
	// that was already consumed (no longer H-bit marked) alongside it.
	st.ObservePacket(ObserveInput{
		Source:         "N1ABC",
		DestCall:       "APRS",
		DigipeaterPath: []string{"K1XYZ-1*", "WIDE2-1"},
		Info:           "!4903.50N/07201.75W-",
		At:             time.Unix(7000, 0),
	})
	// N2DEF relayed through the same digipeater a bit later.
	st.ObservePacket(ObserveInput{
		Source:         "N2DEF",
		DestCall:       "APRS",
		DigipeaterPath: []string{"K1XYZ-1*"},
		Info:           "!4903.50N/07201.75W-",
		At:             time.Unix(7100, 0),
	})

	entries := st.NetworkDigipeaterStats(0)
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 digipeater entry (WIDE2-1 must be skipped), got %d: %+v", len(entries), entries)
	}
	e := entries[0]
	if e.Callsign != "K1XYZ-1" {
		t.Errorf("Callsign = %q, want K1XYZ-1", e.Callsign)
	}
	if e.PacketsRelayed != 2 {
		t.Errorf("PacketsRelayed = %d, want 2", e.PacketsRelayed)
	}
	if e.UniqueStations != 2 {
		t.Errorf("UniqueStations = %d, want 2", e.UniqueStations)
	}
	if !e.LastHeard.Equal(time.Unix(7100, 0)) {
		t.Errorf("LastHeard = %v, want %v", e.LastHeard, time.Unix(7100, 0))
	}
}

package timeutil

import (
	"os"
	"testing"
	"time"
)

// The local zone is pinned so date math that crosses midnight is
// deterministic regardless of the machine running the tests.
func TestMain(m *testing.M) {
	time.Local = time.UTC
	os.Exit(m.Run())
}

// setLocalZone swaps the process zone for one test. Nothing in this package
// runs in parallel, so the swap cannot leak into a concurrent test.
func setLocalZone(t *testing.T, zone *time.Location) {
	t.Helper()
	prev := time.Local
	time.Local = zone
	t.Cleanup(func() { time.Local = prev })
}

func TestParseFlexible(t *testing.T) {
	tests := []struct {
		name  string
		value string
		kind  ParsedKind
	}{
		{"rfc3339", "2026-03-07T18:30:00Z", KindFullTimestamp},
		{"timestamp without zone", "2026-03-07T18:30:00", KindFullTimestamp},
		{"timestamp with space", "2026-03-07 18:30:00", KindFullTimestamp},
		{"date only", "2026-03-07", KindDateOnly},
		{"clock with seconds", "18:30:00", KindTimeOnlyUTC},
		{"clock without seconds", "18:30", KindTimeOnlyUTC},
		{"empty", "", KindUnparseable},
		{"garbage", "not-a-date", KindUnparseable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFlexible(tt.value)
			if got.Kind != tt.kind {
				t.Fatalf("ParseFlexible(%q).Kind = %v, want %v", tt.value, got.Kind, tt.kind)
			}
		})
	}
}

func TestParseFlexibleOrderPrefersTimestamp(t *testing.T) {
	// A value that carries a T must never fall through to the date parser.
	got := ParseFlexible("2026-03-07T18:30:00Z")
	if got.Kind != KindFullTimestamp {
		t.Fatalf("kind = %v, want KindFullTimestamp", got.Kind)
	}
	want := time.Date(2026, 3, 7, 18, 30, 0, 0, time.UTC)
	if !got.Time.Equal(want) {
		t.Fatalf("time = %v, want %v", got.Time, want)
	}
}

func TestComposeUTC(t *testing.T) {
	t.Run("pads short clock", func(t *testing.T) {
		got, ok := ComposeUTC("2026-03-07", "18:30")
		if !ok {
			t.Fatal("expected ok")
		}
		want := time.Date(2026, 3, 7, 18, 30, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})

	t.Run("full clock", func(t *testing.T) {
		got, ok := ComposeUTC("2026-03-07", "18:30:45")
		if !ok {
			t.Fatal("expected ok")
		}
		if got.Second() != 45 {
			t.Fatalf("second = %d, want 45", got.Second())
		}
	})

	t.Run("rejects tbd and empty", func(t *testing.T) {
		if _, ok := ComposeUTC("2026-03-07", TBD); ok {
			t.Fatal("TBD clock must not compose")
		}
		if _, ok := ComposeUTC("2026-03-07", ""); ok {
			t.Fatal("empty clock must not compose")
		}
		if _, ok := ComposeUTC("", "18:30"); ok {
			t.Fatal("empty date must not compose")
		}
	})
}

func TestAddDays(t *testing.T) {
	if got := AddDays("2026-03-07", 1); got != "2026-03-08" {
		t.Fatalf("AddDays(+1) = %q", got)
	}
	if got := AddDays("2026-03-01", -1); got != "2026-02-28" {
		t.Fatalf("AddDays(-1) across month = %q", got)
	}
	if got := AddDays("garbage", 3); got != "garbage" {
		t.Fatalf("unparseable input should echo, got %q", got)
	}

	// Round trip: one forward then one back lands on the start date.
	start := "2026-12-31"
	if got := AddDays(AddDays(start, 1), -1); got != start {
		t.Fatalf("round trip = %q, want %q", got, start)
	}
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"wednesday", time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC), "2026-03-02"},
		{"monday", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), "2026-03-02"},
		{"sunday", time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC), "2026-03-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDate(StartOfWeek(tt.in))
			if got != tt.want {
				t.Fatalf("StartOfWeek(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatchStatus(t *testing.T) {
	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		date  string
		clock string
		want  Status
	}{
		{"kickoff one minute ago", "2026-03-07", "11:59", StatusPast},
		{"kickoff right now", "2026-03-07", "12:00", StatusSoon},
		{"kickoff in 30 minutes", "2026-03-07", "12:30", StatusSoon},
		{"kickoff in 31 minutes", "2026-03-07", "12:31", StatusFuture},
		{"tomorrow", "2026-03-08", "12:00", StatusFuture},
		{"tbd clock", "2026-03-07", TBD, StatusFuture},
		{"empty clock", "2026-03-07", "", StatusFuture},
		{"garbage clock", "2026-03-07", "soon-ish", StatusFuture},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchStatus(tt.date, tt.clock, now)
			if got != tt.want {
				t.Fatalf("MatchStatus(%q, %q) = %q, want %q", tt.date, tt.clock, got, tt.want)
			}
		})
	}
}

func TestIsMatchLive(t *testing.T) {
	kickoff := time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC)

	if !IsMatchLive("2026-03-07", "15:00", kickoff) {
		t.Fatal("match should be live at kickoff")
	}
	if !IsMatchLive("2026-03-07", "15:00", kickoff.Add(119*time.Minute)) {
		t.Fatal("match should be live just inside the window")
	}
	if IsMatchLive("2026-03-07", "15:00", kickoff.Add(2*time.Hour)) {
		t.Fatal("match should not be live at window close")
	}
	if IsMatchLive("2026-03-07", "15:00", kickoff.Add(-time.Minute)) {
		t.Fatal("match should not be live before kickoff")
	}
	if IsMatchLive("2026-03-07", TBD, kickoff) {
		t.Fatal("TBD match is never live")
	}
}

func TestFormatEventTime(t *testing.T) {
	if got := FormatEventTime("2026-03-07", "18:30:00"); got != "18:30" {
		t.Fatalf("got %q, want 18:30", got)
	}
	if got := FormatEventTime("2026-03-07", ""); got != TBD {
		t.Fatalf("empty clock = %q, want TBD", got)
	}
	if got := FormatEventTime("2026-03-07", TBD); got != TBD {
		t.Fatalf("TBD clock = %q, want TBD", got)
	}
	// Uncomposable clock falls back to its first five characters.
	if got := FormatEventTime("", "18:30:00"); got != "18:30" {
		t.Fatalf("fallback = %q, want 18:30", got)
	}
}

func TestFormatEventTimeConvertsToLocalZone(t *testing.T) {
	t.Run("ahead of UTC", func(t *testing.T) {
		setLocalZone(t, time.FixedZone("UTC+3", 3*3600))
		if got := FormatEventTime("2026-02-01", "15:00"); got != "18:00" {
			t.Fatalf("got %q, want 18:00", got)
		}
	})

	t.Run("behind UTC", func(t *testing.T) {
		setLocalZone(t, time.FixedZone("UTC-5", -5*3600))
		if got := FormatEventTime("2026-02-01", "15:00"); got != "10:00" {
			t.Fatalf("got %q, want 10:00", got)
		}
	})
}

func TestFormatDisplayDate(t *testing.T) {
	if got := FormatDisplayDate("2026-03-07"); got != "Saturday, March 7, 2026" {
		t.Fatalf("got %q", got)
	}
	if got := FormatDisplayDate("2026-03-07T18:30:00Z"); got != "Saturday, March 7, 2026" {
		t.Fatalf("got %q", got)
	}
	if got := FormatDisplayDate("???"); got != "???" {
		t.Fatalf("unparseable input should echo, got %q", got)
	}
}

func TestLocalDateKey(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		date      string
		clock     string
		createdAt time.Time
		want      string
	}{
		{"full timestamp in date", "2026-03-07T18:30:00Z", "", createdAt, "2026-03-07"},
		{"date plus clock", "2026-03-07", "18:30", createdAt, "2026-03-07"},
		{"date only prefix", "2026-03-07", "", createdAt, "2026-03-07"},
		{"created-at fallback", "", "", createdAt, "2026-03-01"},
		{"nothing usable", "", "", time.Time{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocalDateKey(tt.date, tt.clock, tt.createdAt)
			if got != tt.want {
				t.Fatalf("LocalDateKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocalDateKeyCrossesMidnightInOffsetZone(t *testing.T) {
	t.Run("late kickoff lands on the next local day", func(t *testing.T) {
		setLocalZone(t, time.FixedZone("UTC+3", 3*3600))
		if got := LocalDateKey("2026-02-01", "22:30", time.Time{}); got != "2026-02-02" {
			t.Fatalf("got %q, want 2026-02-02", got)
		}
	})

	t.Run("early kickoff falls back to the previous local day", func(t *testing.T) {
		setLocalZone(t, time.FixedZone("UTC-5", -5*3600))
		if got := LocalDateKey("2026-02-01", "01:00", time.Time{}); got != "2026-01-31" {
			t.Fatalf("got %q, want 2026-01-31", got)
		}
	})
}

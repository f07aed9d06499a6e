package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeNaiveIsUTC(t *testing.T) {
	got, ok := ParseTime("2024-10-10T10:30:00.123456")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2024, 10, 10, 10, 30, 0, 123456000, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
}

func TestParseTimeWithOffset(t *testing.T) {
	got, ok := ParseTime("2024-10-10T10:30:00-04:00")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Hour() != 14 {
		t.Fatalf("expected 14:30 UTC, got %v", got.UTC())
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeGarbage(t *testing.T) {
	if _, ok := ParseTime("yesterday-ish"); ok {
		t.Fatalf("expected parse failure")
	}
}

func TestDateKey(t *testing.T) {
	d := time.Date(2025, 1, 7, 23, 59, 0, 0, time.UTC)
	if got := DateKey(d); got != "20250107" {
		t.Fatalf("unexpected key %s", got)
	}
}

func TestParseClock(t *testing.T) {
	m, ok := ParseClock("09:30")
	if !ok || m != 570 {
		t.Fatalf("expected 570 minutes, got %d ok=%v", m, ok)
	}
	if _, ok := ParseClock("9h30"); ok {
		t.Fatalf("expected failure")
	}
}

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

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestSessionDate(t *testing.T) {
	in := time.Date(2024, 10, 10, 18, 30, 0, 0, time.FixedZone("EST", -5*3600))
	got := SessionDate(in)
	want := time.Date(2024, 10, 10, 23, 30, 0, 0, time.UTC).Truncate(24 * time.Hour)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestParseSessionDate(t *testing.T) {
	got, ok := ParseSessionDate("2024-02-29")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2024 || got.Month() != time.February || got.Day() != 29 {
		t.Fatalf("unexpected date %v", got)
	}
	if _, ok := ParseSessionDate("not-a-date"); ok {
		t.Fatalf("expected parse failure")
	}
}

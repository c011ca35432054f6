package models

import "testing"

func TestNormalizeType(t *testing.T) {
	cases := []struct {
		raw  string
		want IssueType
	}{
		{"infrastructure", Infrastructure},
		{"sanitation", Sanitation},
		{"safety", Safety},
		{"other", Other},
		{"", Other},
		{"garbage-collection", Other},
		{"Infrastructure", Other},
	}

	for _, tc := range cases {
		if got := NormalizeType(tc.raw); got != tc.want {
			t.Errorf("NormalizeType(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestValidTargetStatus(t *testing.T) {
	if !ValidTargetStatus(InProgress) || !ValidTargetStatus(Resolved) {
		t.Fatal("expected in_progress and resolved to be valid targets")
	}
	if ValidTargetStatus(Pending) {
		t.Fatal("pending must not be settable explicitly")
	}
	if ValidTargetStatus(IssueStatus("closed")) {
		t.Fatal("unknown status must not be a valid target")
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to IssueStatus
		want     bool
	}{
		{Pending, InProgress, true},
		{Pending, Resolved, true},
		{InProgress, Resolved, true},
		{InProgress, InProgress, true},
		{Resolved, Resolved, true},
		{Resolved, InProgress, false},
		{InProgress, Pending, false},
		{Pending, Pending, false},
		{Pending, IssueStatus("closed"), false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestNewGeoPoint(t *testing.T) {
	p := NewGeoPoint(77.6, 12.9)
	if p.Type != "Point" {
		t.Fatalf("expected Point type, got %q", p.Type)
	}
	if len(p.Coordinates) != 2 || p.Coordinates[0] != 77.6 || p.Coordinates[1] != 12.9 {
		t.Fatalf("unexpected coordinates: %v", p.Coordinates)
	}

	zero := NewGeoPoint(0, 0)
	if len(zero.Coordinates) != 2 {
		t.Fatalf("zero point must still carry a 2-element pair, got %v", zero.Coordinates)
	}
}

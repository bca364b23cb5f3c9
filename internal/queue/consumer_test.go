package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHandleMessageAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "reservations.log")
	audit := NewAuditLog(path)

	events := []ReservationEvent{
		{EventID: "e1", Type: EventCreated, ReservationID: 1, Venue: "Main Hall", Date: "2025-10-02",
			Time: "14:00", Email: "sec@college.edu", Status: "confirmed", PriorityRank: 1, OccurredAt: "2025-10-01T09:00:00Z"},
		{EventID: "e2", Type: EventReassigned, ReservationID: 2, Venue: "Conference Room", Date: "2025-10-02",
			Time: "14:00", Email: "staff@college.edu", Status: "reassigned", PriorityRank: 4,
			OriginalVenue: "Main Hall", Reason: "Booking moved due to higher priority booking by secretary",
			Actor: "sec@college.edu", OccurredAt: "2025-10-01T09:00:00Z"},
	}
	for _, ev := range events {
		body, err := json.Marshal(ev)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if err := audit.handleMessage(body); err != nil {
			t.Fatalf("handleMessage: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines: got %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "reservation.created | reservation_id=1") {
		t.Fatalf("first line: %s", lines[0])
	}
	for _, want := range []string{`original_venue="Main Hall"`, "actor=sec@college.edu", "rank=4"} {
		if !strings.Contains(lines[1], want) {
			t.Fatalf("second line missing %s: %s", want, lines[1])
		}
	}
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	audit := NewAuditLog(filepath.Join(t.TempDir(), "a.log"))
	if err := audit.handleMessage([]byte("not json")); err == nil {
		t.Fatalf("garbage accepted")
	}
	if err := audit.handleMessage([]byte(`{"reservation_id":1}`)); err == nil {
		t.Fatalf("event without type accepted")
	}
	if _, err := os.Stat(audit.Path); !os.IsNotExist(err) {
		t.Fatalf("log file written for rejected messages")
	}
}

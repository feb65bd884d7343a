package library

import (
	"errors"
	"testing"
)

func TestRecordReadingProgress(t *testing.T) {
	mgr := tempManager(t)
	mgr.Membership.now = fixedClock(date(2024, 3, 10))

	member, err := mgr.RegisterMember("Alice", "alice@example.com", MembershipRegular)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	progress, err := mgr.RecordReadingProgress(member.ID, "librarian", "Finished chapter 4", 35)
	if err != nil {
		t.Fatalf("record progress: %v", err)
	}
	if progress.ID == 0 {
		t.Fatalf("progress id not allocated")
	}
	if !progress.ProgressDate.Equal(date(2024, 3, 10)) {
		t.Fatalf("wrong progress date %s", progress.ProgressDate)
	}

	if _, err := mgr.RecordReadingProgress(member.ID, "librarian", "Halfway through", 50); err != nil {
		t.Fatalf("second note: %v", err)
	}

	entries, err := mgr.ReadingProgressForMember(member.ID)
	if err != nil {
		t.Fatalf("list progress: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 notes, got %d", len(entries))
	}
	if entries[0].Metric != 35 || entries[1].Metric != 50 {
		t.Fatalf("notes out of order: %+v", entries)
	}
	if entries[0].Details != "Finished chapter 4" || entries[0].RecordedBy != "librarian" {
		t.Fatalf("note fields lost: %+v", entries[0])
	}
}

func TestRecordReadingProgressValidation(t *testing.T) {
	mgr := tempManager(t)
	mgr.Membership.now = fixedClock(date(2024, 3, 10))
	member, _ := mgr.RegisterMember("Alice", "alice@example.com", MembershipRegular)

	cases := []struct {
		details string
		metric  float64
	}{
		{"", 50},
		{"note", 0},
		{"note", 0.5},
		{"note", 101},
	}
	for _, tc := range cases {
		_, err := mgr.RecordReadingProgress(member.ID, "librarian", tc.details, tc.metric)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("record(%q,%v): want ValidationError, got %v", tc.details, tc.metric, err)
		}
	}

	// Boundary values are accepted.
	for _, metric := range []float64{1, 100} {
		if _, err := mgr.RecordReadingProgress(member.ID, "librarian", "note", metric); err != nil {
			t.Fatalf("record metric %v: %v", metric, err)
		}
	}

	if _, err := mgr.RecordReadingProgress(999, "librarian", "note", 50); !errors.Is(err, ErrUnknownMember) {
		t.Fatalf("want ErrUnknownMember, got %v", err)
	}
	if _, err := mgr.ReadingProgressForMember(999); !errors.Is(err, ErrUnknownMember) {
		t.Fatalf("want ErrUnknownMember, got %v", err)
	}
}

package library

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func addMember(t *testing.T, db *Database, name string) *Member {
	t.Helper()
	today := date(2024, 1, 1)
	m, err := db.InsertMember(&Member{
		Name:             name,
		Contact:          name + "@example.com",
		MembershipType:   MembershipRegular,
		RegistrationDate: today,
		MembershipExpiry: today.AddDate(0, 6, 0),
	})
	if err != nil {
		t.Fatalf("insert member: %v", err)
	}
	return m
}

func TestMigrationsAreRepeatable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	db, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	db.Close()

	db, err = NewDatabase(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	db.Close()
}

func TestMemberIDAllocationIsMaxPlusOne(t *testing.T) {
	db := tempDB(t)

	// Seed a gap so the next id must come from the persisted max, not a
	// row count.
	if _, err := db.db.Exec(`INSERT INTO members(member_id,name,contact,membership_type,registration_date,membership_expiry)
        VALUES(42,'Seed','seed@example.com','Regular','2024-01-01','2024-07-01')`); err != nil {
		t.Fatalf("seed member: %v", err)
	}

	m := addMember(t, db, "Next")
	if m.ID != 43 {
		t.Fatalf("want member id 43, got %d", m.ID)
	}
}

func TestConcurrentMemberRegistration(t *testing.T) {
	db := tempDB(t)

	done := make(chan int64, 2)
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			today := date(2024, 1, 1)
			m, err := db.InsertMember(&Member{
				Name:             "Concurrent",
				Contact:          "c@example.com",
				MembershipType:   MembershipRegular,
				RegistrationDate: today,
				MembershipExpiry: today.AddDate(0, 6, 0),
			})
			if err != nil {
				errs <- err
				return
			}
			done <- m.ID
		}()
	}

	ids := map[int64]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-done:
			if ids[id] {
				t.Fatalf("duplicate member id %d allocated", id)
			}
			ids[id] = true
		case err := <-errs:
			t.Fatalf("concurrent insert: %v", err)
		}
	}
}

func TestCreateAccountWithProfileIsAtomic(t *testing.T) {
	db := tempDB(t)

	hash, salt, err := GenerateCredential("libpass")
	if err != nil {
		t.Fatalf("generate credential: %v", err)
	}
	account := &Account{Username: "jane", PasswordHash: hash, Salt: salt, Role: RoleMember}
	profile := &Member{
		Name:             "Jane Doe",
		Contact:          "jane@example.com",
		MembershipType:   MembershipRegular,
		RegistrationDate: date(2024, 1, 1),
		MembershipExpiry: date(2024, 7, 1),
	}

	memberID, err := db.CreateAccount(account, profile)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if memberID == 0 {
		t.Fatalf("expected allocated member id")
	}

	maxBefore, _ := db.MaxMemberID()

	// Second create with the same username must fail and leave no orphan
	// profile row behind.
	if _, err := db.CreateAccount(account, profile); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("want ErrUsernameTaken, got %v", err)
	}
	maxAfter, _ := db.MaxMemberID()
	if maxAfter != maxBefore {
		t.Fatalf("failed account creation leaked a member row: max %d -> %d", maxBefore, maxAfter)
	}
}

func TestDeleteAccountRemovesLinkedProfile(t *testing.T) {
	db := tempDB(t)

	hash, salt, _ := GenerateCredential("pw")
	memberID, err := db.CreateAccount(
		&Account{Username: "bob", PasswordHash: hash, Salt: salt, Role: RoleMember},
		&Member{Name: "Bob", Contact: "bob@example.com", MembershipType: MembershipRegular,
			RegistrationDate: date(2024, 1, 1), MembershipExpiry: date(2024, 7, 1)})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	if err := db.DeleteAccount("bob"); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, err := db.FindMemberByID(memberID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want linked profile gone, got %v", err)
	}
}

func TestBorrowTransactionAtomicity(t *testing.T) {
	db := tempDB(t)
	m := addMember(t, db, "Alice")
	bookID, _ := db.AddBook("Book", "Author")

	rec, err := db.BorrowTransaction(m.ID, bookID, date(2024, 1, 1), date(2024, 1, 15))
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}

	book, _ := db.FindBookByID(bookID)
	if book.Available {
		t.Fatalf("book should be unavailable after borrow")
	}

	maxBefore, _ := db.MaxBorrowID()

	// A rejected borrow must not leave a record behind.
	if _, err := db.BorrowTransaction(m.ID, bookID, date(2024, 1, 2), date(2024, 1, 16)); !errors.Is(err, ErrBookUnavailable) {
		t.Fatalf("want ErrBookUnavailable, got %v", err)
	}
	maxAfter, _ := db.MaxBorrowID()
	if maxAfter != maxBefore {
		t.Fatalf("rejected borrow leaked a record: max %d -> %d", maxBefore, maxAfter)
	}

	if _, err := db.BorrowTransaction(m.ID, 9999, date(2024, 1, 2), date(2024, 1, 16)); !errors.Is(err, ErrUnknownBook) {
		t.Fatalf("want ErrUnknownBook, got %v", err)
	}

	// Close and verify the flag flips back.
	ret := date(2024, 1, 10)
	rec.ReturnDate = &ret
	if err := db.CompleteReturn(rec); err != nil {
		t.Fatalf("complete return: %v", err)
	}
	book, _ = db.FindBookByID(bookID)
	if !book.Available {
		t.Fatalf("book should be available after return")
	}

	// A second close of the same record must not double-flip.
	if err := db.CompleteReturn(rec); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound on second close, got %v", err)
	}
}

func TestMarkOverdueFineOnlyTouchesOpenRecords(t *testing.T) {
	db := tempDB(t)
	m := addMember(t, db, "Alice")
	bookID, _ := db.AddBook("Book", "Author")

	rec, err := db.BorrowTransaction(m.ID, bookID, date(2024, 1, 1), date(2024, 1, 15))
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}

	applied, err := db.MarkOverdueFine(rec.BorrowID, 600)
	if err != nil {
		t.Fatalf("mark open record: %v", err)
	}
	if !applied {
		t.Fatalf("open record must accept the fine")
	}

	ret := date(2024, 1, 18)
	rec.ReturnDate = &ret
	rec.Overdue = true
	rec.FineCents = 600
	if err := db.CompleteReturn(rec); err != nil {
		t.Fatalf("complete return: %v", err)
	}

	// A write against the now-closed record is a no-op, not a reopen.
	applied, err = db.MarkOverdueFine(rec.BorrowID, 9999)
	if err != nil {
		t.Fatalf("mark closed record: %v", err)
	}
	if applied {
		t.Fatalf("closed record must reject the fine write")
	}
	records, _ := db.ListBorrowRecordsForMember(m.ID)
	if len(records) != 1 || records[0].Open() || records[0].FineCents != 600 {
		t.Fatalf("closed record mutated: %+v", records[0])
	}
}

func TestAuditLogRoundTrip(t *testing.T) {
	db := tempDB(t)

	entry := &AuditEntry{Level: "INFO", Source: "Test", Message: "hello", Username: "tester"}
	if err := db.AppendAuditLog(entry); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := db.ListAuditLog(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "hello" || entries[0].Username != "tester" {
		t.Fatalf("unexpected audit entries: %+v", entries)
	}
}

func TestFacilityMaintenance(t *testing.T) {
	db := tempDB(t)

	facID, err := db.AddFacility(&Facility{Name: "Reading Room", Status: "Available"})
	if err != nil {
		t.Fatalf("add facility: %v", err)
	}

	if _, err := db.ScheduleMaintenance(&MaintenanceRecord{
		FacilityID: 999, Description: "x", ScheduledDate: date(2024, 2, 1), Status: "Scheduled",
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown facility, got %v", err)
	}

	if _, err := db.ScheduleMaintenance(&MaintenanceRecord{
		FacilityID: facID, Description: "HVAC check", ScheduledDate: date(2024, 2, 1), Status: "Scheduled",
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	records, err := db.ListMaintenance(facID)
	if err != nil {
		t.Fatalf("list maintenance: %v", err)
	}
	if len(records) != 1 || records[0].Description != "HVAC check" {
		t.Fatalf("unexpected maintenance records: %+v", records)
	}
}

// nopLogger is shared by engine tests that don't inspect log output.
var nopLogger = zerolog.Nop()

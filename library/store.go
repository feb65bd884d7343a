package library

import "time"

// Store is the persistence boundary of the engine. Implementations own all
// durable state; the engine holds nothing between calls. Every operation
// that must observe-and-write atomically (borrow, return, account creation
// with its profile row) is a single call here, never a read-then-write pair
// in the engine.
//
// Lookups return ErrNotFound when the entity is absent. Any other error is
// a storage failure and is propagated as-is.
type Store interface {
	// Accounts.
	FindAccountByUsername(username string) (*Account, error)
	// CreateAccount inserts the account and, when profile is non-nil, its
	// member profile row in one transaction. Partial success is rolled
	// back. Returns the allocated member id (0 when profile is nil).
	CreateAccount(a *Account, profile *Member) (int64, error)
	SetAccountLocked(username string, locked bool) error
	DeleteAccount(username string) error
	ListAccounts() ([]*Account, error)

	// Members.
	FindMemberByID(id int64) (*Member, error)
	MaxMemberID() (int64, error)
	// InsertMember allocates the next member id and inserts in one
	// transaction, returning the stored member.
	InsertMember(m *Member) (*Member, error)
	UpdateMember(m *Member) error
	ListMembers() ([]*Member, error)

	// Books.
	FindBookByID(id int64) (*Book, error)
	AddBook(title, author string) (int64, error)
	ListBooks() ([]*Book, error)

	// Circulation.
	MaxBorrowID() (int64, error)
	// BorrowTransaction checks availability, allocates the next borrow id,
	// inserts the record, and flips the book unavailable, all in one
	// transaction. Fails with ErrUnknownBook or ErrBookUnavailable.
	BorrowTransaction(memberID, bookID int64, borrowDate, dueDate time.Time) (*BorrowRecord, error)
	FindOpenBorrowRecord(borrowID int64) (*BorrowRecord, error)
	// CompleteReturn closes the record (return date, overdue flag, fine)
	// and flips the book available in one transaction. Fails with
	// ErrNotFound when the record is missing or already closed.
	CompleteReturn(rec *BorrowRecord) error
	// MarkOverdueFine persists overdue=true and the fine on the record only
	// while it is still open. Returns false without error when the record
	// was closed (or deleted) in the meantime; the closed record keeps the
	// fine computed at return time.
	MarkOverdueFine(borrowID int64, fineCents int64) (bool, error)
	ListOpenBorrowRecordsForMember(memberID int64) ([]*BorrowRecord, error)
	ListBorrowRecordsForMember(memberID int64) ([]*BorrowRecord, error)

	// Facilities and maintenance.
	AddFacility(f *Facility) (int64, error)
	ListFacilities() ([]*Facility, error)
	ScheduleMaintenance(rec *MaintenanceRecord) (int64, error)
	ListMaintenance(facilityID int64) ([]*MaintenanceRecord, error)

	// Reading progress.
	InsertReadingProgress(p *ReadingProgress) (int64, error)
	ListReadingProgressForMember(memberID int64) ([]*ReadingProgress, error)

	// Audit log.
	AppendAuditLog(entry *AuditEntry) error
	ListAuditLog(limit int) ([]*AuditEntry, error)
}

package library

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Manager wires the engine components over one SQLite store, keeping front
// end code simple. It is the synchronous API surface the presentation layer
// calls into; nothing here knows about rendering.
type Manager struct {
	db  *Database
	log zerolog.Logger

	Auth        *RoleGate
	Membership  *MembershipLifecycle
	Circulation *CirculationLedger
	Fines       *FineEngine
}

// NewManager opens (or creates) the SQLite database at dbPath and builds the
// engine components over it.
func NewManager(dbPath string, log zerolog.Logger) (*Manager, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	gate, err := NewRoleGate(db, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Manager{
		db:          db,
		log:         log,
		Auth:        gate,
		Membership:  NewMembershipLifecycle(db, log),
		Circulation: NewCirculationLedger(db, log),
		Fines:       NewFineEngine(db, log),
	}, nil
}

// Close closes the underlying database.
func (m *Manager) Close() error { return m.db.Close() }

// Store exposes the underlying store for read-only front end listings.
func (m *Manager) Store() Store { return m.db }

// audit writes a durable operation log row. Audit rows are observability,
// not state: a failed append is logged and does not fail the operation.
func (m *Manager) audit(level, source, message, username string) {
	err := m.db.AppendAuditLog(&AuditEntry{Level: level, Source: source, Message: message, Username: username})
	if err != nil {
		m.log.Error().Err(err).Str("source", source).Msg("audit append failed")
	}
}

// ------------------ Authentication ------------------

// Login authenticates a username/password pair and records the attempt.
func (m *Manager) Login(username, password string) (*AuthResult, error) {
	result, err := m.Auth.Authenticate(username, password)
	if err != nil {
		var ae *AuthError
		if errors.As(err, &ae) {
			m.audit("WARN", "RoleGate", fmt.Sprintf("Failed login (%s)", ae.Reason), username)
		}
		return nil, err
	}
	m.audit("INFO", "RoleGate", "Login succeeded", username)
	return result, nil
}

// ------------------ Account administration ------------------

// CreateMemberAccount registers a member profile and its login account as
// one unit. The account row and the profile row are a single transaction;
// a failure of either rolls back both.
func (m *Manager) CreateMemberAccount(username, password, name, contact string, membershipType MembershipType) (*Member, error) {
	lifecycle := m.Membership
	if err := lifecycle.validateRegistration(name, contact, membershipType); err != nil {
		return nil, err
	}
	if username == "" {
		return nil, &ValidationError{Field: "username", Reason: "must not be blank"}
	}

	hash, salt, err := GenerateCredential(password)
	if err != nil {
		return nil, err
	}

	today := DateOnly(lifecycle.now())
	profile := &Member{
		Name:             name,
		Contact:          contact,
		MembershipType:   membershipType,
		RegistrationDate: today,
		MembershipExpiry: initialExpiry(today, membershipType),
	}
	account := &Account{Username: username, PasswordHash: hash, Salt: salt, Role: RoleMember}

	memberID, err := m.db.CreateAccount(account, profile)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create member account: %w", err)
	}
	profile.ID = memberID
	m.audit("INFO", "AccountAdmin", fmt.Sprintf("Member account created (MemberID %d)", memberID), username)
	return profile, nil
}

// CreateStaffAccount creates a login account for a non-member role.
func (m *Manager) CreateStaffAccount(username, password string, role Role) (*Account, error) {
	if username == "" {
		return nil, &ValidationError{Field: "username", Reason: "must not be blank"}
	}
	parsed, ok := ParseRole(string(role))
	if !ok || parsed == RoleMember {
		return nil, &ValidationError{Field: "role", Reason: "must be admin, librarian, or assistant"}
	}

	hash, salt, err := GenerateCredential(password)
	if err != nil {
		return nil, err
	}
	account := &Account{Username: username, PasswordHash: hash, Salt: salt, Role: parsed}
	if _, err := m.db.CreateAccount(account, nil); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create staff account: %w", err)
	}
	m.audit("INFO", "AccountAdmin", fmt.Sprintf("Staff account created (role %s)", parsed), username)
	return account, nil
}

// LockAccount prevents further logins for the account.
func (m *Manager) LockAccount(username string) error {
	if err := m.db.SetAccountLocked(username, true); err != nil {
		return err
	}
	m.audit("WARN", "AccountAdmin", "Account locked", username)
	return nil
}

// UnlockAccount re-enables logins for the account.
func (m *Manager) UnlockAccount(username string) error {
	if err := m.db.SetAccountLocked(username, false); err != nil {
		return err
	}
	m.audit("INFO", "AccountAdmin", "Account unlocked", username)
	return nil
}

// DeleteAccount removes the account; a linked member profile goes with it.
func (m *Manager) DeleteAccount(username string) error {
	if err := m.db.DeleteAccount(username); err != nil {
		return err
	}
	m.audit("WARN", "AccountAdmin", "Account deleted", username)
	return nil
}

// ------------------ Membership ------------------

// RegisterMember registers a walk-in member without a login account.
func (m *Manager) RegisterMember(name, contact string, membershipType MembershipType) (*Member, error) {
	member, err := m.Membership.RegisterMember(name, contact, membershipType)
	if err != nil {
		return nil, err
	}
	m.audit("INFO", "MembershipLifecycle", fmt.Sprintf("Member registered (MemberID %d)", member.ID), "")
	return member, nil
}

// RenewMembership extends a membership from today by the chosen duration.
func (m *Manager) RenewMembership(memberID int64, newType MembershipType, duration RenewalDuration) (*Member, error) {
	member, err := m.Membership.RenewMembership(memberID, newType, duration)
	if err != nil {
		return nil, err
	}
	m.audit("INFO", "MembershipLifecycle", fmt.Sprintf("Membership renewed (MemberID %d)", memberID), "")
	return member, nil
}

// ------------------ Circulation ------------------

// BorrowBook records a borrow for the member and takes the book out of
// circulation.
func (m *Manager) BorrowBook(memberID, bookID int64) (*BorrowRecord, error) {
	rec, err := m.Circulation.BorrowBook(memberID, bookID)
	if err != nil {
		return nil, err
	}
	m.audit("INFO", "CirculationLedger", fmt.Sprintf("Borrow recorded (BorrowID %d)", rec.BorrowID), "")
	return rec, nil
}

// ReturnBook closes the borrow record and puts the book back in circulation.
func (m *Manager) ReturnBook(borrowID int64) (*ReturnResult, error) {
	result, err := m.Circulation.ReturnBook(borrowID)
	if err != nil {
		return nil, err
	}
	m.audit("INFO", "CirculationLedger", fmt.Sprintf("Return recorded (BorrowID %d)", borrowID), "")
	return result, nil
}

// BorrowingHistory lists every borrow record of the member, open and closed.
func (m *Manager) BorrowingHistory(memberID int64) ([]*BorrowRecord, error) {
	if _, err := m.db.FindMemberByID(memberID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownMember
		}
		return nil, err
	}
	return m.db.ListBorrowRecordsForMember(memberID)
}

// ------------------ Reading progress ------------------

// RecordReadingProgress files a progress note for the member, dated today.
// Metric is a completion percentage and must lie in [1, 100].
func (m *Manager) RecordReadingProgress(memberID int64, recordedBy, details string, metric float64) (*ReadingProgress, error) {
	if details == "" {
		return nil, &ValidationError{Field: "details", Reason: "must not be blank"}
	}
	if metric < 1 || metric > 100 {
		return nil, &ValidationError{Field: "metric", Reason: "must be between 1 and 100"}
	}
	if _, err := m.db.FindMemberByID(memberID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownMember
		}
		return nil, err
	}

	progress := &ReadingProgress{
		MemberID:     memberID,
		RecordedBy:   recordedBy,
		ProgressDate: DateOnly(m.Membership.now()),
		Details:      details,
		Metric:       metric,
	}
	id, err := m.db.InsertReadingProgress(progress)
	if err != nil {
		return nil, err
	}
	progress.ID = id
	m.audit("INFO", "ReadingProgress", fmt.Sprintf("Progress recorded (MemberID %d)", memberID), recordedBy)
	return progress, nil
}

// ReadingProgressForMember lists the member's progress notes, oldest first.
func (m *Manager) ReadingProgressForMember(memberID int64) ([]*ReadingProgress, error) {
	if _, err := m.db.FindMemberByID(memberID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownMember
		}
		return nil, err
	}
	return m.db.ListReadingProgressForMember(memberID)
}

// ------------------ Fines ------------------

// AssessOverdueFines runs a fine assessment pass for the member.
func (m *Manager) AssessOverdueFines(memberID int64) ([]AssessedFine, error) {
	assessed, err := m.Fines.AssessOverdueFines(memberID)
	if err != nil {
		return nil, err
	}
	if len(assessed) > 0 {
		m.audit("INFO", "FineEngine", fmt.Sprintf("Assessed %d overdue fines (MemberID %d)", len(assessed), memberID), "")
	}
	return assessed, nil
}

// ListFinesForMember shows the member's current overdue fines.
func (m *Manager) ListFinesForMember(memberID int64, recalculate bool) ([]FineView, error) {
	return m.Fines.ListFinesForMember(memberID, recalculate)
}

// ------------------ Catalog ------------------

// AddBook adds a title to the catalog.
func (m *Manager) AddBook(title, author string) (int64, error) {
	if title == "" || author == "" {
		return 0, &ValidationError{Field: "book", Reason: "title and author must not be blank"}
	}
	return m.db.AddBook(title, author)
}

// ------------------ Facilities ------------------

// ScheduleMaintenance books a maintenance slot for a facility.
func (m *Manager) ScheduleMaintenance(facilityID int64, description string, scheduled time.Time) (*MaintenanceRecord, error) {
	if description == "" {
		return nil, &ValidationError{Field: "description", Reason: "must not be blank"}
	}
	rec := &MaintenanceRecord{
		FacilityID:    facilityID,
		Description:   description,
		ScheduledDate: DateOnly(scheduled),
		Status:        "Scheduled",
	}
	id, err := m.db.ScheduleMaintenance(rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	m.audit("INFO", "FacilityMonitor", fmt.Sprintf("Maintenance scheduled (FacilityID %d)", facilityID), "")
	return rec, nil
}

// FormatFine renders integer cents as a currency string for display.
func FormatFine(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

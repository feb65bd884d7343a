package library

import "time"

// Role is the closed set of account roles. Anything outside this set is
// rejected at parse time, never defaulted.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
	RoleAssistant Role = "assistant"
	RoleMember    Role = "member"
)

// ParseRole maps a stored role string onto the closed Role set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleLibrarian, RoleAssistant, RoleMember:
		return Role(s), true
	}
	return "", false
}

// MembershipType is the closed set of membership plans.
type MembershipType string

const (
	MembershipRegular MembershipType = "Regular"
	MembershipPremium MembershipType = "Premium"
	MembershipStudent MembershipType = "Student"
)

// ParseMembershipType maps a plan name onto the closed MembershipType set.
func ParseMembershipType(s string) (MembershipType, bool) {
	switch MembershipType(s) {
	case MembershipRegular, MembershipPremium, MembershipStudent:
		return MembershipType(s), true
	}
	return "", false
}

// RenewalDuration is the closed set of renewal terms offered at the desk.
type RenewalDuration string

const (
	RenewSixMonths RenewalDuration = "6 Months"
	RenewOneYear   RenewalDuration = "1 Year"
	RenewTwoYears  RenewalDuration = "2 Years"
)

// ParseRenewalDuration maps a term label onto the closed RenewalDuration set.
func ParseRenewalDuration(s string) (RenewalDuration, bool) {
	switch RenewalDuration(s) {
	case RenewSixMonths, RenewOneYear, RenewTwoYears:
		return RenewalDuration(s), true
	}
	return "", false
}

// addTo returns base advanced by the duration. The bool is false for a
// duration outside the closed set.
func (d RenewalDuration) addTo(base time.Time) (time.Time, bool) {
	switch d {
	case RenewSixMonths:
		return base.AddDate(0, 6, 0), true
	case RenewOneYear:
		return base.AddDate(1, 0, 0), true
	case RenewTwoYears:
		return base.AddDate(2, 0, 0), true
	}
	return time.Time{}, false
}

// Account is a login identity. PasswordHash is always the salted SHA-256
// digest produced by GenerateCredential, never the plaintext.
type Account struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Don't serialize password hash
	Salt         string `json:"-"`
	Role         Role   `json:"role"`
	Locked       bool   `json:"locked"`
}

// Member represents a registered library member.
type Member struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	Contact          string         `json:"contact"`
	MembershipType   MembershipType `json:"membership_type"`
	RegistrationDate time.Time      `json:"registration_date"`
	MembershipExpiry time.Time      `json:"membership_expiry"`
}

// Book represents metadata and current availability of a book in the library.
type Book struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Available bool   `json:"available"`
}

// BorrowRecord is one circulation transaction. A record with a nil ReturnDate
// is open; the referenced book stays unavailable for exactly as long as one
// open record points at it.
type BorrowRecord struct {
	BorrowID   int64      `json:"borrow_id"`
	MemberID   int64      `json:"member_id"`
	BookID     int64      `json:"book_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Overdue    bool       `json:"overdue"`
	FineCents  int64      `json:"fine_cents"`
}

// Open reports whether the record has not been returned yet.
func (r *BorrowRecord) Open() bool { return r.ReturnDate == nil }

// ReturnResult is what a completed return hands back to the desk.
type ReturnResult struct {
	Record    *BorrowRecord `json:"record"`
	DaysLate  int           `json:"days_late"`
	FineCents int64         `json:"fine_cents"`
}

// AssessedFine is one overdue record after a fine assessment pass.
type AssessedFine struct {
	BorrowID  int64     `json:"borrow_id"`
	BookID    int64     `json:"book_id"`
	DueDate   time.Time `json:"due_date"`
	DaysLate  int       `json:"days_late"`
	FineCents int64     `json:"fine_cents"`
}

// FineView is the read-only projection shown at the fines desk.
type FineView struct {
	BorrowID   int64     `json:"borrow_id"`
	MemberID   int64     `json:"member_id"`
	MemberName string    `json:"member_name"`
	BookID     int64     `json:"book_id"`
	BookTitle  string    `json:"book_title"`
	DueDate    time.Time `json:"due_date"`
	DaysLate   int       `json:"days_late"`
	FineCents  int64     `json:"fine_cents"`
}

// Facility is a library facility such as a reading room or computer lab.
// Plain attribute record, no lifecycle rules.
type Facility struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// MaintenanceRecord is a scheduled maintenance entry for a facility.
type MaintenanceRecord struct {
	ID            int64     `json:"id"`
	FacilityID    int64     `json:"facility_id"`
	Description   string    `json:"description"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Status        string    `json:"status"`
}

// ReadingProgress is one staff-recorded progress note for a member. Metric
// is a completion percentage between 1 and 100.
type ReadingProgress struct {
	ID           int64     `json:"id"`
	MemberID     int64     `json:"member_id"`
	RecordedBy   string    `json:"recorded_by"`
	ProgressDate time.Time `json:"progress_date"`
	Details      string    `json:"details"`
	Metric       float64   `json:"metric"`
}

// AuditEntry is one row of the durable operation log.
type AuditEntry struct {
	ID       int64     `json:"id"`
	Level    string    `json:"level"`
	Source   string    `json:"source"`
	Message  string    `json:"message"`
	Username string    `json:"username"`
	LoggedAt time.Time `json:"logged_at"`
}

package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Database provides the SQLite-backed Store implementation.
type Database struct {
	db *sql.DB

	addBookStmt  *sql.Stmt
	auditLogStmt *sql.Stmt
}

var _ Store = (*Database)(nil)

// NewDatabase opens (or creates) the SQLite database at dbPath, applies
// schema migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// busy_timeout covers concurrent desk stations; txlock=immediate takes
	// the write lock at BEGIN so check-and-flip transactions serialize.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.addBookStmt != nil {
		d.addBookStmt.Close()
	}
	if d.auditLogStmt != nil {
		d.auditLogStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 2

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
            username      TEXT PRIMARY KEY,
            password_hash TEXT NOT NULL,
            salt          TEXT NOT NULL,
            role          TEXT NOT NULL,
            locked        BOOLEAN NOT NULL DEFAULT 0
        );`,
		`CREATE TABLE IF NOT EXISTS members (
            member_id         INTEGER PRIMARY KEY,
            name              TEXT NOT NULL,
            contact           TEXT NOT NULL,
            membership_type   TEXT NOT NULL,
            registration_date TEXT NOT NULL,
            membership_expiry TEXT NOT NULL,
            username          TEXT REFERENCES accounts(username) ON DELETE CASCADE
        );`,
		`CREATE TABLE IF NOT EXISTS books (
            book_id   INTEGER PRIMARY KEY AUTOINCREMENT,
            title     TEXT NOT NULL,
            author    TEXT NOT NULL,
            available BOOLEAN NOT NULL DEFAULT 1
        );`,
		`CREATE TABLE IF NOT EXISTS borrowing_records (
            borrow_id   INTEGER PRIMARY KEY,
            member_id   INTEGER NOT NULL REFERENCES members(member_id),
            book_id     INTEGER NOT NULL REFERENCES books(book_id),
            borrow_date TEXT NOT NULL,
            due_date    TEXT NOT NULL,
            return_date TEXT,
            overdue     BOOLEAN NOT NULL DEFAULT 0,
            fine_cents  INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE INDEX IF NOT EXISTS idx_borrow_member_open
            ON borrowing_records(member_id) WHERE return_date IS NULL;`,
		`CREATE TABLE IF NOT EXISTS facilities (
            facility_id INTEGER PRIMARY KEY AUTOINCREMENT,
            name        TEXT NOT NULL,
            status      TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS maintenance_records (
            maintenance_id INTEGER PRIMARY KEY AUTOINCREMENT,
            facility_id    INTEGER NOT NULL REFERENCES facilities(facility_id),
            description    TEXT NOT NULL,
            scheduled_date TEXT NOT NULL,
            status         TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS reading_progress (
            progress_id   INTEGER PRIMARY KEY AUTOINCREMENT,
            member_id     INTEGER NOT NULL REFERENCES members(member_id),
            recorded_by   TEXT NOT NULL,
            progress_date TEXT NOT NULL,
            details       TEXT NOT NULL,
            metric        REAL NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS audit_log (
            id        INTEGER PRIMARY KEY AUTOINCREMENT,
            level     TEXT NOT NULL,
            source    TEXT NOT NULL,
            message   TEXT NOT NULL,
            username  TEXT NOT NULL,
            logged_at TEXT NOT NULL DEFAULT (datetime('now'))
        );`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		var args []any
		if strings.Contains(stmt, "?") {
			args = append(args, schemaVersion)
		}
		if _, err := tx.Exec(stmt, args...); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addBookStmt, err = d.db.Prepare(`INSERT INTO books(title,author) VALUES(?,?)`); err != nil {
		return err
	}
	if d.auditLogStmt, err = d.db.Prepare(`INSERT INTO audit_log(level,source,message,username) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

func (d *Database) FindAccountByUsername(username string) (*Account, error) {
	var a Account
	var role string
	err := d.db.QueryRow(`SELECT username,password_hash,salt,role,locked FROM accounts WHERE username=?`, username).
		Scan(&a.Username, &a.PasswordHash, &a.Salt, &role, &a.Locked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	a.Role = Role(role)
	return &a, nil
}

// CreateAccount inserts the account row and, for member accounts, the member
// profile row in the same transaction. A failed profile insert rolls the
// account back; partial registration is never persisted.
func (d *Database) CreateAccount(a *Account, profile *Member) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO accounts(username,password_hash,salt,role,locked) VALUES(?,?,?,?,?)`,
		a.Username, a.PasswordHash, a.Salt, string(a.Role), a.Locked); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("insert account: %w", err)
	}

	var memberID int64
	if profile != nil {
		memberID, err = insertMemberTx(tx, profile, a.Username)
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	return memberID, nil
}

func (d *Database) SetAccountLocked(username string, locked bool) error {
	res, err := d.db.Exec(`UPDATE accounts SET locked=? WHERE username=?`, locked, username)
	if err != nil {
		return fmt.Errorf("set locked: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) DeleteAccount(username string) error {
	res, err := d.db.Exec(`DELETE FROM accounts WHERE username=?`, username)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) ListAccounts() ([]*Account, error) {
	rows, err := d.db.Query(`SELECT username,password_hash,salt,role,locked FROM accounts ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		var a Account
		var role string
		if err := rows.Scan(&a.Username, &a.PasswordHash, &a.Salt, &role, &a.Locked); err != nil {
			return nil, err
		}
		a.Role = Role(role)
		accounts = append(accounts, &a)
	}
	return accounts, rows.Err()
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

func (d *Database) FindMemberByID(id int64) (*Member, error) {
	row := d.db.QueryRow(`SELECT member_id,name,contact,membership_type,registration_date,membership_expiry
        FROM members WHERE member_id=?`, id)
	return scanMember(row)
}

func (d *Database) MaxMemberID() (int64, error) {
	var max int64
	if err := d.db.QueryRow(`SELECT COALESCE(MAX(member_id),0) FROM members`).Scan(&max); err != nil {
		return 0, fmt.Errorf("max member id: %w", err)
	}
	return max, nil
}

// InsertMember allocates member_id = MAX+1 and inserts inside one write
// transaction, so two concurrent registrations cannot observe the same max.
func (d *Database) InsertMember(m *Member) (*Member, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id, err := insertMemberTx(tx, m, "")
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	stored := *m
	stored.ID = id
	return &stored, nil
}

func insertMemberTx(tx *sql.Tx, m *Member, username string) (int64, error) {
	var id int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(member_id),0)+1 FROM members`).Scan(&id); err != nil {
		return 0, fmt.Errorf("allocate member id: %w", err)
	}
	var user any
	if username != "" {
		user = username
	}
	if _, err := tx.Exec(`INSERT INTO members(member_id,name,contact,membership_type,registration_date,membership_expiry,username)
        VALUES(?,?,?,?,?,?,?)`,
		id, m.Name, m.Contact, string(m.MembershipType), formatDate(m.RegistrationDate), formatDate(m.MembershipExpiry), user); err != nil {
		return 0, fmt.Errorf("insert member: %w", err)
	}
	return id, nil
}

func (d *Database) UpdateMember(m *Member) error {
	res, err := d.db.Exec(`UPDATE members SET name=?, contact=?, membership_type=?, membership_expiry=? WHERE member_id=?`,
		m.Name, m.Contact, string(m.MembershipType), formatDate(m.MembershipExpiry), m.ID)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) ListMembers() ([]*Member, error) {
	rows, err := d.db.Query(`SELECT member_id,name,contact,membership_type,registration_date,membership_expiry
        FROM members ORDER BY member_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*Member, error) {
	var m Member
	var mtype, reg, exp string
	err := row.Scan(&m.ID, &m.Name, &m.Contact, &mtype, &reg, &exp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan member: %w", err)
	}
	m.MembershipType = MembershipType(mtype)
	if m.RegistrationDate, err = parseDate(reg); err != nil {
		return nil, fmt.Errorf("member %d registration date: %w", m.ID, err)
	}
	if m.MembershipExpiry, err = parseDate(exp); err != nil {
		return nil, fmt.Errorf("member %d membership expiry: %w", m.ID, err)
	}
	return &m, nil
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

func (d *Database) FindBookByID(id int64) (*Book, error) {
	var b Book
	err := d.db.QueryRow(`SELECT book_id,title,author,available FROM books WHERE book_id=?`, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find book: %w", err)
	}
	return &b, nil
}

func (d *Database) AddBook(title, author string) (int64, error) {
	res, err := d.addBookStmt.Exec(title, author)
	if err != nil {
		return 0, fmt.Errorf("add book: %w", err)
	}
	return res.LastInsertId()
}

func (d *Database) ListBooks() ([]*Book, error) {
	rows, err := d.db.Query(`SELECT book_id,title,author,available FROM books ORDER BY book_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Available); err != nil {
			return nil, err
		}
		books = append(books, &b)
	}
	return books, rows.Err()
}

// ---------------------------------------------------------------------------
// Circulation
// ---------------------------------------------------------------------------

func (d *Database) MaxBorrowID() (int64, error) {
	var max int64
	if err := d.db.QueryRow(`SELECT COALESCE(MAX(borrow_id),0) FROM borrowing_records`).Scan(&max); err != nil {
		return 0, fmt.Errorf("max borrow id: %w", err)
	}
	return max, nil
}

// BorrowTransaction records the borrow and flips availability in one
// transaction. The availability read, borrow id allocation, record insert,
// and flag update all happen under the same write lock.
func (d *Database) BorrowTransaction(memberID, bookID int64, borrowDate, dueDate time.Time) (*BorrowRecord, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var avail bool
	err = tx.QueryRow(`SELECT available FROM books WHERE book_id=?`, bookID).Scan(&avail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownBook
	}
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if !avail {
		return nil, ErrBookUnavailable
	}

	var borrowID int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(borrow_id),0)+1 FROM borrowing_records`).Scan(&borrowID); err != nil {
		return nil, fmt.Errorf("allocate borrow id: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO borrowing_records(borrow_id,member_id,book_id,borrow_date,due_date,overdue,fine_cents)
        VALUES(?,?,?,?,?,0,0)`,
		borrowID, memberID, bookID, formatDate(borrowDate), formatDate(dueDate)); err != nil {
		return nil, fmt.Errorf("insert borrow record: %w", err)
	}
	if _, err := tx.Exec(`UPDATE books SET available=0 WHERE book_id=?`, bookID); err != nil {
		return nil, fmt.Errorf("mark book unavailable: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("borrow transaction: %w", err)
	}

	return &BorrowRecord{
		BorrowID:   borrowID,
		MemberID:   memberID,
		BookID:     bookID,
		BorrowDate: borrowDate,
		DueDate:    dueDate,
	}, nil
}

func (d *Database) FindOpenBorrowRecord(borrowID int64) (*BorrowRecord, error) {
	row := d.db.QueryRow(`SELECT borrow_id,member_id,book_id,borrow_date,due_date,return_date,overdue,fine_cents
        FROM borrowing_records WHERE borrow_id=? AND return_date IS NULL`, borrowID)
	return scanBorrowRecord(row)
}

// CompleteReturn closes the record and flips the book available in one
// transaction. The open check runs again inside the transaction so a raced
// second return fails with ErrNotFound rather than double-flipping.
func (d *Database) CompleteReturn(rec *BorrowRecord) error {
	if rec.ReturnDate == nil {
		return fmt.Errorf("complete return: record %d has no return date", rec.BorrowID)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE borrowing_records SET return_date=?, overdue=?, fine_cents=?
        WHERE borrow_id=? AND return_date IS NULL`,
		formatDate(*rec.ReturnDate), rec.Overdue, rec.FineCents, rec.BorrowID)
	if err != nil {
		return fmt.Errorf("close borrow record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(`UPDATE books SET available=1 WHERE book_id=?`, rec.BookID); err != nil {
		return fmt.Errorf("mark book available: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("return transaction: %w", err)
	}
	return nil
}

// MarkOverdueFine touches only the overdue flag and the fine, and only on a
// still-open record. A return that committed after the caller's snapshot
// leaves the row guarded by return_date IS NULL, so the stale snapshot can
// never reopen a closed record.
func (d *Database) MarkOverdueFine(borrowID int64, fineCents int64) (bool, error) {
	res, err := d.db.Exec(`UPDATE borrowing_records SET overdue=1, fine_cents=? WHERE borrow_id=? AND return_date IS NULL`,
		fineCents, borrowID)
	if err != nil {
		return false, fmt.Errorf("mark overdue fine: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (d *Database) ListOpenBorrowRecordsForMember(memberID int64) ([]*BorrowRecord, error) {
	return d.listBorrowRecords(`SELECT borrow_id,member_id,book_id,borrow_date,due_date,return_date,overdue,fine_cents
        FROM borrowing_records WHERE member_id=? AND return_date IS NULL ORDER BY borrow_id`, memberID)
}

func (d *Database) ListBorrowRecordsForMember(memberID int64) ([]*BorrowRecord, error) {
	return d.listBorrowRecords(`SELECT borrow_id,member_id,book_id,borrow_date,due_date,return_date,overdue,fine_cents
        FROM borrowing_records WHERE member_id=? ORDER BY borrow_id`, memberID)
}

func (d *Database) listBorrowRecords(query string, args ...any) ([]*BorrowRecord, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*BorrowRecord
	for rows.Next() {
		rec, err := scanBorrowRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanBorrowRecord(row rowScanner) (*BorrowRecord, error) {
	var rec BorrowRecord
	var borrow, due string
	var ret sql.NullString
	err := row.Scan(&rec.BorrowID, &rec.MemberID, &rec.BookID, &borrow, &due, &ret, &rec.Overdue, &rec.FineCents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan borrow record: %w", err)
	}
	if rec.BorrowDate, err = parseDate(borrow); err != nil {
		return nil, fmt.Errorf("record %d borrow date: %w", rec.BorrowID, err)
	}
	if rec.DueDate, err = parseDate(due); err != nil {
		return nil, fmt.Errorf("record %d due date: %w", rec.BorrowID, err)
	}
	if ret.Valid {
		t, err := parseDate(ret.String)
		if err != nil {
			return nil, fmt.Errorf("record %d return date: %w", rec.BorrowID, err)
		}
		rec.ReturnDate = &t
	}
	return &rec, nil
}

// ---------------------------------------------------------------------------
// Facilities and maintenance
// ---------------------------------------------------------------------------

func (d *Database) AddFacility(f *Facility) (int64, error) {
	res, err := d.db.Exec(`INSERT INTO facilities(name,status) VALUES(?,?)`, f.Name, f.Status)
	if err != nil {
		return 0, fmt.Errorf("add facility: %w", err)
	}
	return res.LastInsertId()
}

func (d *Database) ListFacilities() ([]*Facility, error) {
	rows, err := d.db.Query(`SELECT facility_id,name,status FROM facilities ORDER BY facility_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facilities []*Facility
	for rows.Next() {
		var f Facility
		if err := rows.Scan(&f.ID, &f.Name, &f.Status); err != nil {
			return nil, err
		}
		facilities = append(facilities, &f)
	}
	return facilities, rows.Err()
}

func (d *Database) ScheduleMaintenance(rec *MaintenanceRecord) (int64, error) {
	var exists bool
	if err := d.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM facilities WHERE facility_id=?)`, rec.FacilityID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check facility: %w", err)
	}
	if !exists {
		return 0, ErrNotFound
	}
	res, err := d.db.Exec(`INSERT INTO maintenance_records(facility_id,description,scheduled_date,status) VALUES(?,?,?,?)`,
		rec.FacilityID, rec.Description, formatDate(rec.ScheduledDate), rec.Status)
	if err != nil {
		return 0, fmt.Errorf("schedule maintenance: %w", err)
	}
	return res.LastInsertId()
}

func (d *Database) ListMaintenance(facilityID int64) ([]*MaintenanceRecord, error) {
	rows, err := d.db.Query(`SELECT maintenance_id,facility_id,description,scheduled_date,status
        FROM maintenance_records WHERE facility_id=? ORDER BY maintenance_id`, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*MaintenanceRecord
	for rows.Next() {
		var rec MaintenanceRecord
		var date string
		if err := rows.Scan(&rec.ID, &rec.FacilityID, &rec.Description, &date, &rec.Status); err != nil {
			return nil, err
		}
		var perr error
		if rec.ScheduledDate, perr = parseDate(date); perr != nil {
			return nil, fmt.Errorf("maintenance %d scheduled date: %w", rec.ID, perr)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// ---------------------------------------------------------------------------
// Reading progress
// ---------------------------------------------------------------------------

func (d *Database) InsertReadingProgress(p *ReadingProgress) (int64, error) {
	res, err := d.db.Exec(`INSERT INTO reading_progress(member_id,recorded_by,progress_date,details,metric)
        VALUES(?,?,?,?,?)`,
		p.MemberID, p.RecordedBy, formatDate(p.ProgressDate), p.Details, p.Metric)
	if err != nil {
		return 0, fmt.Errorf("insert reading progress: %w", err)
	}
	return res.LastInsertId()
}

func (d *Database) ListReadingProgressForMember(memberID int64) ([]*ReadingProgress, error) {
	rows, err := d.db.Query(`SELECT progress_id,member_id,recorded_by,progress_date,details,metric
        FROM reading_progress WHERE member_id=? ORDER BY progress_id`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*ReadingProgress
	for rows.Next() {
		var p ReadingProgress
		var day string
		if err := rows.Scan(&p.ID, &p.MemberID, &p.RecordedBy, &day, &p.Details, &p.Metric); err != nil {
			return nil, err
		}
		var perr error
		if p.ProgressDate, perr = parseDate(day); perr != nil {
			return nil, fmt.Errorf("progress %d date: %w", p.ID, perr)
		}
		entries = append(entries, &p)
	}
	return entries, rows.Err()
}

// ---------------------------------------------------------------------------
// Audit log
// ---------------------------------------------------------------------------

func (d *Database) AppendAuditLog(entry *AuditEntry) error {
	if _, err := d.auditLogStmt.Exec(entry.Level, entry.Source, entry.Message, entry.Username); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

func (d *Database) ListAuditLog(limit int) ([]*AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.db.Query(`SELECT id,level,source,message,username,logged_at
        FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		var e AuditEntry
		var ts string
		if err := rows.Scan(&e.ID, &e.Level, &e.Source, &e.Message, &e.Username, &ts); err != nil {
			return nil, err
		}
		if t, perr := time.Parse("2006-01-02 15:04:05", ts); perr == nil {
			e.LoggedAt = t
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

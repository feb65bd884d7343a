package library

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// LoanPeriodDays is the standard loan term; the due date is the borrow date
// plus this many days.
const LoanPeriodDays = 14

// DailyFineCents is the fixed per-day overdue fine (2.00 currency units).
const DailyFineCents int64 = 200

// CirculationLedger drives the borrow/return state machine. Each record is
// Open until returned exactly once; the book's availability flag flips with
// it inside the same storage transaction.
type CirculationLedger struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewCirculationLedger builds a CirculationLedger over the given store.
func NewCirculationLedger(store Store, log zerolog.Logger) *CirculationLedger {
	return &CirculationLedger{store: store, log: log, now: time.Now}
}

// BorrowBook opens a borrow record for the member and takes the book out of
// circulation. Fails with ErrUnknownMember, ErrUnknownBook, or
// ErrBookUnavailable; the record insert and the availability flip are one
// transaction, so a partially applied borrow is never observable.
func (c *CirculationLedger) BorrowBook(memberID, bookID int64) (*BorrowRecord, error) {
	if _, err := c.store.FindMemberByID(memberID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownMember
		}
		return nil, fmt.Errorf("borrow: %w", err)
	}

	today := DateOnly(c.now())
	rec, err := c.store.BorrowTransaction(memberID, bookID, today, today.AddDate(0, 0, LoanPeriodDays))
	if err != nil {
		if errors.Is(err, ErrUnknownBook) || errors.Is(err, ErrBookUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("borrow: %w", err)
	}

	c.log.Info().Int64("borrow_id", rec.BorrowID).Int64("member_id", memberID).
		Int64("book_id", bookID).Str("due", formatDate(rec.DueDate)).Msg("borrow recorded")
	return rec, nil
}

// ReturnBook closes the open record with the given id, computing any overdue
// fine at DailyFineCents per day late, and puts the book back in circulation.
// A record that was already returned (or never existed) fails with
// ErrNotFound.
func (c *CirculationLedger) ReturnBook(borrowID int64) (*ReturnResult, error) {
	rec, err := c.store.FindOpenBorrowRecord(borrowID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("return: %w", err)
	}

	today := DateOnly(c.now())
	daysLate := daysBetween(rec.DueDate, today)
	if daysLate < 0 {
		daysLate = 0
	}

	rec.ReturnDate = &today
	rec.Overdue = daysLate > 0
	rec.FineCents = int64(daysLate) * DailyFineCents

	if err := c.store.CompleteReturn(rec); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Raced with another return of the same record.
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("return: %w", err)
	}

	c.log.Info().Int64("borrow_id", borrowID).Int64("book_id", rec.BookID).
		Int("days_late", daysLate).Int64("fine_cents", rec.FineCents).Msg("return recorded")
	return &ReturnResult{Record: rec, DaysLate: daysLate, FineCents: rec.FineCents}, nil
}

package library

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// FineEngine detects overdue loans and computes fines from the circulation
// ledger's state.
type FineEngine struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewFineEngine builds a FineEngine over the given store.
func NewFineEngine(store Store, log zerolog.Logger) *FineEngine {
	return &FineEngine{store: store, log: log, now: time.Now}
}

// AssessOverdueFines marks every open record of the member whose due date is
// strictly past as overdue, persisting a fine of DailyFineCents per day
// late. Records not yet due are untouched and excluded. The pass is
// idempotent: re-running recomputes from the same formula with the current
// date, so a fixed due date can only produce an equal or larger fine.
func (f *FineEngine) AssessOverdueFines(memberID int64) ([]AssessedFine, error) {
	if _, err := f.store.FindMemberByID(memberID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownMember
		}
		return nil, fmt.Errorf("assess fines: %w", err)
	}

	records, err := f.store.ListOpenBorrowRecordsForMember(memberID)
	if err != nil {
		return nil, fmt.Errorf("assess fines: %w", err)
	}

	today := DateOnly(f.now())
	var assessed []AssessedFine
	for _, rec := range records {
		daysLate := daysBetween(rec.DueDate, today)
		if daysLate <= 0 {
			continue
		}
		fine := int64(daysLate) * DailyFineCents
		applied, err := f.store.MarkOverdueFine(rec.BorrowID, fine)
		if err != nil {
			return nil, fmt.Errorf("assess fines: record %d: %w", rec.BorrowID, err)
		}
		if !applied {
			// Returned since the snapshot; the return already settled
			// its fine.
			continue
		}
		f.log.Info().Int64("borrow_id", rec.BorrowID).Int("days_late", daysLate).
			Int64("fine_cents", fine).Msg("fine assessed")
		assessed = append(assessed, AssessedFine{
			BorrowID:  rec.BorrowID,
			BookID:    rec.BookID,
			DueDate:   rec.DueDate,
			DaysLate:  daysLate,
			FineCents: fine,
		})
	}
	return assessed, nil
}

// ListFinesForMember is a read-only projection of the member's open overdue
// loans. With recalculate the shown amount is always recomputed from the
// current date; without it the persisted amount is shown, except that a
// record which is late but not yet assessed (or persisted as zero) is still
// computed live. A known-overdue loan never displays as zero because of
// stale state.
func (f *FineEngine) ListFinesForMember(memberID int64, recalculate bool) ([]FineView, error) {
	member, err := f.store.FindMemberByID(memberID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownMember
		}
		return nil, fmt.Errorf("list fines: %w", err)
	}

	records, err := f.store.ListOpenBorrowRecordsForMember(memberID)
	if err != nil {
		return nil, fmt.Errorf("list fines: %w", err)
	}

	today := DateOnly(f.now())
	var views []FineView
	for _, rec := range records {
		daysLate := daysBetween(rec.DueDate, today)
		if daysLate <= 0 {
			continue
		}

		fine := rec.FineCents
		if recalculate || !rec.Overdue || fine == 0 {
			fine = int64(daysLate) * DailyFineCents
		}

		view := FineView{
			BorrowID:   rec.BorrowID,
			MemberID:   memberID,
			MemberName: member.Name,
			BookID:     rec.BookID,
			DueDate:    rec.DueDate,
			DaysLate:   daysLate,
			FineCents:  fine,
		}
		book, err := f.store.FindBookByID(rec.BookID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("list fines: book %d: %w", rec.BookID, err)
		}
		if book != nil {
			view.BookTitle = book.Title
		}
		views = append(views, view)
	}
	return views, nil
}

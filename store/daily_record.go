// Package store enforces the one-record-per-day invariant shared by notes
// and punch records. Both kinds are bucketed by the server's local
// calendar day, the half-open window [local midnight, next local
// midnight); the same zone is used on the write and read paths so that
// events near midnight never misclassify.
package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/greenwall/models"
)

// Kind discriminates the two daily record types.
type Kind string

const (
	// KindNote is the editable daily journal entry.
	KindNote Kind = "note"
	// KindPunch is the once-per-day check-in action.
	KindPunch Kind = "punch"
)

// Typed errors surfaced by the store. The HTTP boundary maps all of them
// onto flat 400 responses; callers must not retry any of them.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("record not found")
	ErrAlreadyPunchedToday = errors.New("already punched today")
)

// policy controls how UpsertForDay treats an existing record for the day.
// Notes are documents: a second write the same day edits them in place.
// Punches are actions: a second write the same day is a conflict.
type policy struct {
	timeColumn    string // column holding the day-bucketing event timestamp
	updateAllowed bool
}

var policies = map[Kind]policy{
	KindNote:  {timeColumn: "create_time", updateAllowed: true},
	KindPunch: {timeColumn: "punch_time", updateAllowed: false},
}

// DailyRecord constrains the generic store operations to the two
// day-bucketed models.
type DailyRecord interface {
	models.Note | models.PunchRecord
}

// Store wraps the database with day-bucketed find and upsert operations.
type Store struct {
	db  *gorm.DB
	loc *time.Location
}

// New creates a Store bucketing days in the server's local time zone.
func New(db *gorm.DB) *Store {
	return &Store{db: db, loc: time.Local}
}

// DayBounds returns the [start, end) window of the local calendar day
// containing ref.
func (s *Store) DayBounds(ref time.Time) (time.Time, time.Time) {
	t := ref.In(s.loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
	return start, start.Add(24 * time.Hour)
}

// FindForDay returns the single record of the given kind whose event
// timestamp falls on ref's calendar day, or nil when none exists. Absence
// is not an error.
func FindForDay[T DailyRecord](s *Store, kind Kind, userID uint, ref time.Time) (*T, error) {
	if userID == 0 {
		return nil, ErrInvalidArgument
	}
	p, ok := policies[kind]
	if !ok {
		return nil, ErrInvalidArgument
	}
	start, end := s.DayBounds(ref)
	return findForDay[T](s.db, p, userID, start, end)
}

func findForDay[T DailyRecord](tx *gorm.DB, p policy, userID uint, start, end time.Time) (*T, error) {
	var rec T
	cond := fmt.Sprintf("user_id = ? AND %s >= ? AND %s < ?", p.timeColumn, p.timeColumn)
	err := tx.Where(cond, userID, start, end).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpsertForDay records today's event for (userID, kind) with find-or-create
// semantics inside one transaction. fresh builds the row used when no
// record exists yet for the day; mutate edits the existing row when the
// kind's policy allows updates. For KindPunch an existing record makes the
// call fail with ErrAlreadyPunchedToday and leaves the row untouched.
//
// The owning users row is locked FOR UPDATE for the duration of the
// transaction, so concurrent upserts for the same (user, kind, day)
// serialize: the first writer wins the create and later writers either
// update (note) or conflict (punch). Writes for different users never
// contend.
func UpsertForDay[T DailyRecord](s *Store, kind Kind, userID uint, ref time.Time, fresh func() T, mutate func(*T)) (*T, error) {
	if userID == 0 {
		return nil, ErrInvalidArgument
	}
	p, ok := policies[kind]
	if !ok {
		return nil, ErrInvalidArgument
	}
	start, end := s.DayBounds(ref)

	var out *T
	err := s.db.Transaction(func(tx *gorm.DB) error {
		locked := tx
		// SQLite has no FOR UPDATE; its writers are serialized already.
		if tx.Dialector.Name() != "sqlite" {
			locked = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var user models.User
		if err := locked.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		existing, err := findForDay[T](tx, p, userID, start, end)
		if err != nil {
			return err
		}
		if existing != nil {
			if !p.updateAllowed {
				return ErrAlreadyPunchedToday
			}
			mutate(existing)
			if err := tx.Save(existing).Error; err != nil {
				return err
			}
			out = existing
			return nil
		}

		rec := fresh()
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		out = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// PeriodStatus is the lifecycle state of a fiscal period.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "open"
	PeriodStatusClosed PeriodStatus = "closed"
	PeriodStatusLocked PeriodStatus = "locked"
)

// FiscalPeriod is a date range that gates posting.
type FiscalPeriod struct {
	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Status    PeriodStatus
	ClosedBy  string
	ClosedAt  *time.Time
	LockedBy  string
	LockedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Validate checks name and date range.
func (p *FiscalPeriod) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPeriodRange)
	}
	if !DateOf(p.StartDate).Before(DateOf(p.EndDate)) {
		return ErrInvalidPeriodRange
	}
	return nil
}

// Contains reports whether date falls within [StartDate, EndDate].
func (p *FiscalPeriod) Contains(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(DateOf(p.StartDate)) && !d.After(DateOf(p.EndDate))
}

// Overlaps reports whether the two periods share at least one date.
func (p *FiscalPeriod) Overlaps(other *FiscalPeriod) bool {
	return !DateOf(p.EndDate).Before(DateOf(other.StartDate)) &&
		!DateOf(other.EndDate).Before(DateOf(p.StartDate))
}

// EnsurePostable checks that an entry dated date may be posted into the period.
func (p *FiscalPeriod) EnsurePostable(date time.Time) error {
	switch p.Status {
	case PeriodStatusLocked:
		return fmt.Errorf("%w: %s", ErrPeriodLocked, p.Name)
	case PeriodStatusClosed:
		return fmt.Errorf("%w: %s", ErrPeriodClosed, p.Name)
	}
	if !p.Contains(date) {
		return fmt.Errorf("%w: %s not in %s (%s..%s)", ErrDateOutsidePeriod,
			DateOf(date).Format(time.DateOnly), p.Name,
			DateOf(p.StartDate).Format(time.DateOnly), DateOf(p.EndDate).Format(time.DateOnly))
	}
	return nil
}

// Close moves an open period to closed.
func (p *FiscalPeriod) Close(by string, at time.Time) error {
	if p.Status != PeriodStatusOpen {
		return fmt.Errorf("%w: cannot close a %s period", ErrInvalidPeriodTransition, p.Status)
	}
	p.Status = PeriodStatusClosed
	p.ClosedBy = by
	p.ClosedAt = &at
	p.UpdatedAt = at
	return nil
}

// Lock moves a closed period to locked. Locking is irreversible.
func (p *FiscalPeriod) Lock(by string, at time.Time) error {
	if p.Status != PeriodStatusClosed {
		return fmt.Errorf("%w: cannot lock a %s period", ErrInvalidPeriodTransition, p.Status)
	}
	p.Status = PeriodStatusLocked
	p.LockedBy = by
	p.LockedAt = &at
	p.UpdatedAt = at
	return nil
}

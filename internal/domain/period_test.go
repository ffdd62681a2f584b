package domain

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newJanuary() *FiscalPeriod {
	return &FiscalPeriod{
		ID:        "p1",
		Name:      "2024-01",
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 1, 31),
		Status:    PeriodStatusOpen,
	}
}

func TestFiscalPeriod_EnsurePostable(t *testing.T) {
	tests := []struct {
		name      string
		status    PeriodStatus
		date      time.Time
		errorType error
	}{
		{name: "open and inside", status: PeriodStatusOpen, date: date(2024, 1, 15)},
		{name: "first day inclusive", status: PeriodStatusOpen, date: date(2024, 1, 1)},
		{name: "last day inclusive", status: PeriodStatusOpen, date: time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)},
		{name: "after end", status: PeriodStatusOpen, date: date(2024, 2, 1), errorType: ErrDateOutsidePeriod},
		{name: "before start", status: PeriodStatusOpen, date: date(2023, 12, 31), errorType: ErrDateOutsidePeriod},
		{name: "closed", status: PeriodStatusClosed, date: date(2024, 1, 15), errorType: ErrPeriodClosed},
		{name: "locked", status: PeriodStatusLocked, date: date(2024, 1, 15), errorType: ErrPeriodLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newJanuary()
			p.Status = tt.status

			err := p.EnsurePostable(tt.date)
			if tt.errorType == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.errorType != nil && !errors.Is(err, tt.errorType) {
				t.Fatalf("expected %v, got %v", tt.errorType, err)
			}
		})
	}
}

func TestFiscalPeriod_Transitions(t *testing.T) {
	now := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)

	p := newJanuary()
	if err := p.Lock("alice", now); !errors.Is(err, ErrInvalidPeriodTransition) {
		t.Fatalf("open -> locked must fail, got %v", err)
	}

	if err := p.Close("alice", now); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if p.Status != PeriodStatusClosed || p.ClosedBy != "alice" || p.ClosedAt == nil {
		t.Fatalf("close did not stamp period: %+v", p)
	}
	if err := p.Close("alice", now); !errors.Is(err, ErrInvalidPeriodTransition) {
		t.Fatalf("closing twice must fail, got %v", err)
	}

	if err := p.Lock("bob", now); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if p.Status != PeriodStatusLocked || p.LockedBy != "bob" || p.LockedAt == nil {
		t.Fatalf("lock did not stamp period: %+v", p)
	}
	if err := p.Close("alice", now); !errors.Is(err, ErrInvalidPeriodTransition) {
		t.Fatalf("locked period must not reopen or close, got %v", err)
	}
}

func TestFiscalPeriod_Validate(t *testing.T) {
	p := newJanuary()
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.EndDate = p.StartDate
	if err := p.Validate(); !errors.Is(err, ErrInvalidPeriodRange) {
		t.Fatalf("expected ErrInvalidPeriodRange, got %v", err)
	}
}

func TestFiscalPeriod_Overlaps(t *testing.T) {
	jan := newJanuary()
	feb := &FiscalPeriod{StartDate: date(2024, 2, 1), EndDate: date(2024, 2, 29)}
	midJan := &FiscalPeriod{StartDate: date(2024, 1, 31), EndDate: date(2024, 2, 10)}

	if jan.Overlaps(feb) {
		t.Error("adjacent periods must not overlap")
	}
	if !jan.Overlaps(midJan) || !midJan.Overlaps(jan) {
		t.Error("periods sharing a day must overlap")
	}
}

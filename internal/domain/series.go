package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Flows breaks a row's cash flow into its sources. Amounts are unsigned
// magnitudes; the sign convention lives in Row.CashFlow.
type Flows struct {
	OwnCapitalDeposit decimal.Decimal
	ExternalDeposit   decimal.Decimal
	Withdrawal        decimal.Decimal
	Dividend          decimal.Decimal // paid out (not reinvested)
	Revenue           decimal.Decimal // attached revenue stream income
	PensionPayout     decimal.Decimal
	Interest          decimal.Decimal // loans
	Principal         decimal.Decimal // loans
}

// Row is one month of an instrument's trajectory
type Row struct {
	Date     time.Time
	Value    decimal.Decimal // loans: signed balance, negative while owed
	CashFlow decimal.Decimal // signed: negative = outflow from the owner
	Flows    Flows
}

// Series is the month-indexed trajectory of a single instrument
type Series struct {
	EntityID uuid.UUID
	Rows     []Row
}

// Len returns the number of rows
func (s Series) Len() int {
	return len(s.Rows)
}

// IsEmpty reports whether the series has no rows
func (s Series) IsEmpty() bool {
	return len(s.Rows) == 0
}

// Dates returns the row dates in order
func (s Series) Dates() []time.Time {
	dates := make([]time.Time, len(s.Rows))
	for i, r := range s.Rows {
		dates[i] = r.Date
	}
	return dates
}

// IndexOf returns the index of the row dated exactly at date, or -1
func (s Series) IndexOf(date time.Time) int {
	for i, r := range s.Rows {
		if r.Date.Equal(date) {
			return i
		}
	}
	return -1
}

// IndexAtOrAfter returns the first row dated on or after date, or -1
func (s Series) IndexAtOrAfter(date time.Time) int {
	for i, r := range s.Rows {
		if !r.Date.Before(date) {
			return i
		}
	}
	return -1
}

// ByDate returns the rows keyed by their date
func (s Series) ByDate() map[time.Time]Row {
	m := make(map[time.Time]Row, len(s.Rows))
	for _, r := range s.Rows {
		m[r.Date] = r
	}
	return m
}

// Through keeps the rows dated on or before limit
func (s Series) Through(limit time.Time) Series {
	out := Series{EntityID: s.EntityID}
	for _, r := range s.Rows {
		if r.Date.After(limit) {
			break
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// Before keeps the rows dated strictly before limit
func (s Series) Before(limit time.Time) Series {
	out := Series{EntityID: s.EntityID}
	for _, r := range s.Rows {
		if !r.Date.Before(limit) {
			break
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// Window keeps the rows dated in [from, to)
func (s Series) Window(from, to time.Time) Series {
	out := Series{EntityID: s.EntityID}
	for _, r := range s.Rows {
		if r.Date.Before(from) || !r.Date.Before(to) {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// Clone returns a copy that shares no row storage with s
func (s Series) Clone() Series {
	rows := make([]Row, len(s.Rows))
	copy(rows, s.Rows)
	return Series{EntityID: s.EntityID, Rows: rows}
}

// Validate ensures every date is a month start and consecutive rows are
// exactly one calendar month apart
func (s Series) Validate() error {
	for i, r := range s.Rows {
		if !r.Date.Equal(MonthStart(r.Date)) {
			return fmt.Errorf("row %d date %s is not a month start", i, r.Date.Format("2006-01-02"))
		}
		if i == 0 {
			continue
		}
		if !r.Date.Equal(AddMonths(s.Rows[i-1].Date, 1)) {
			return errors.New("series dates must be spaced by exactly one month")
		}
	}
	return nil
}

package aggregator

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/finmath"
)

// applyCashConversions moves purchase prices and sale proceeds of non-cash
// assets through the first cash asset. Purchases starting inside the window
// are debited at their start month, sales inside the window are credited net
// of sell tax at the sell month. The cash series becomes its projected value
// plus the cumulative adjustments.
func applyCashConversions(assets []AssetResult, full []AssetResult, w domain.Window) {
	cash := -1
	for i, a := range assets {
		if a.Asset.Type == domain.AssetTypeCash {
			cash = i
			break
		}
	}
	if cash < 0 || assets[cash].Series.IsEmpty() {
		return
	}

	adjustments := make(map[time.Time]decimal.Decimal)
	for i, a := range assets {
		if a.Asset.Type == domain.AssetTypeCash || full[i].Series.IsEmpty() {
			continue
		}
		start := domain.MonthStart(a.Asset.StartDate)
		if w.Contains(start) {
			adjustments[start] = adjustments[start].Sub(a.Asset.OriginalValue)
		}
		if a.Asset.SellDate == nil {
			continue
		}
		sell := domain.MonthStart(*a.Asset.SellDate)
		if !w.Contains(sell) {
			continue
		}
		keep := decimal.NewFromInt(1).Sub(finmath.Fraction(a.Asset.SellTaxPct))
		adjustments[sell] = adjustments[sell].Add(finmath.Round(saleValue(full[i].Series, sell).Mul(keep)))
	}
	if len(adjustments) == 0 {
		return
	}

	dates := make([]time.Time, 0, len(adjustments))
	for d := range adjustments {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	series := assets[cash].Series.Clone()
	next := 0
	running := decimal.Zero
	for i, r := range series.Rows {
		for next < len(dates) && !dates[next].After(r.Date) {
			running = running.Add(adjustments[dates[next]])
			next++
		}
		series.Rows[i].Value = r.Value.Add(running)
	}
	assets[cash].Series = series
}

// saleValue is the asset value realized at the sell month. Projectors zero
// the value of the extraction row, so the last non-zero value at or before the
// sell month is used.
func saleValue(s domain.Series, sell time.Time) decimal.Decimal {
	value := decimal.Zero
	for _, r := range s.Rows {
		if r.Date.After(sell) {
			break
		}
		if !r.Value.IsZero() {
			value = r.Value
		}
	}
	return value
}

type entityKey struct {
	kind domain.EntityType
	id   uuid.UUID
}

// applyMeasurements shifts each measured series so that the first row at or
// after the measurement month equals the observed value, carrying the same
// difference into every later row. Loan balances are signed, so the shift
// moves them away from zero when the observed balance is larger.
func applyMeasurements(assets []AssetResult, loans []LoanResult, measurements []domain.Measurement) []domain.MeasurementMarker {
	byEntity := make(map[entityKey][]domain.Measurement)
	for _, m := range measurements {
		k := entityKey{kind: m.EntityType, id: m.EntityID}
		byEntity[k] = append(byEntity[k], m)
	}
	for _, ms := range byEntity {
		sort.SliceStable(ms, func(i, j int) bool { return ms[i].Date.Before(ms[j].Date) })
	}

	var markers []domain.MeasurementMarker
	for i := range assets {
		a := &assets[i]
		ms := byEntity[entityKey{kind: domain.EntityTypeAsset, id: a.Asset.ID}]
		if len(ms) == 0 || a.Series.IsEmpty() {
			continue
		}
		a.Series = a.Series.Clone()
		for _, m := range ms {
			markers = append(markers, marker(m, a.Asset.Name))
			idx := a.Series.IndexAtOrAfter(domain.MonthStart(m.Date))
			if idx < 0 {
				continue
			}
			delta := m.ActualValue.Sub(a.Series.Rows[idx].Value)
			for j := idx; j < len(a.Series.Rows); j++ {
				a.Series.Rows[j].Value = a.Series.Rows[j].Value.Add(delta)
			}
		}
	}

	for i := range loans {
		l := &loans[i]
		ms := byEntity[entityKey{kind: domain.EntityTypeLoan, id: l.Loan.ID}]
		if len(ms) == 0 || l.Series.IsEmpty() {
			continue
		}
		l.Series = l.Series.Clone()
		for _, m := range ms {
			markers = append(markers, marker(m, l.Loan.Name))
			idx := l.Series.IndexAtOrAfter(domain.MonthStart(m.Date))
			if idx < 0 {
				continue
			}
			delta := m.ActualValue.Sub(l.Series.Rows[idx].Value.Abs())
			for j := idx; j < len(l.Series.Rows); j++ {
				v := l.Series.Rows[j].Value
				if v.IsPositive() {
					l.Series.Rows[j].Value = v.Add(delta)
				} else {
					l.Series.Rows[j].Value = v.Sub(delta)
				}
			}
		}
	}
	return markers
}

func marker(m domain.Measurement, name string) domain.MeasurementMarker {
	return domain.MeasurementMarker{
		Date:        m.Date,
		ActualValue: m.ActualValue,
		EntityType:  m.EntityType,
		EntityID:    m.EntityID,
		EntityName:  name,
	}
}

func markersFor(markers []domain.MeasurementMarker, kind domain.EntityType, id uuid.UUID) []domain.MeasurementMarker {
	var out []domain.MeasurementMarker
	for _, m := range markers {
		if m.EntityType == kind && m.EntityID == id {
			out = append(out, m)
		}
	}
	return out
}

package loan

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockIndexSource is a mock implementation of IndexSource
type MockIndexSource struct {
	mock.Mock
}

func (m *MockIndexSource) PrimeCalendar(loanStart time.Time, durationMonths int) ([]domain.RateChange, error) {
	args := m.Called(loanStart, durationMonths)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RateChange), args.Error(1)
}

func (m *MockIndexSource) CPILevels(loanStart time.Time, durationMonths int, expectedPct decimal.Decimal, sink domain.DiagnosticSink) ([]domain.CPIPoint, error) {
	args := m.Called(loanStart, durationMonths, expectedPct, sink)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CPIPoint), args.Error(1)
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mortgage(t domain.LoanType) *domain.Loan {
	return &domain.Loan{
		ID:                    uuid.New(),
		Name:                  "Mortgage",
		Type:                  t,
		StartDate:             month(2024, 1),
		OriginalValue:         dec("1200000"),
		InterestRateAnnualPct: dec("3.5"),
		DurationMonths:        240,
	}
}

func project(t *testing.T, l *domain.Loan, index IndexSource, horizon int) domain.Series {
	t.Helper()
	p, err := NewProjector(l, index, nil)
	require.NoError(t, err)
	series, err := p.Project(horizon)
	require.NoError(t, err)
	return series
}

func flatLevels(start time.Time, n int, level string) []domain.CPIPoint {
	out := make([]domain.CPIPoint, n+1)
	for i := range out {
		out[i] = domain.CPIPoint{Date: domain.AddMonths(start, i), Level: dec(level)}
	}
	return out
}

func TestFixed_AmortizesToZero(t *testing.T) {
	series := project(t, mortgage(domain.LoanTypeFixed), nil, 360)

	require.Len(t, series.Rows, 240)
	require.NoError(t, series.Validate())

	payment := series.Rows[0].CashFlow
	assert.InDelta(t, -6959.5, payment.InexactFloat64(), 1.0)
	for _, r := range series.Rows {
		assert.True(t, r.CashFlow.Equal(payment), "payment must stay constant")
		assert.True(t, r.Flows.Interest.Add(r.Flows.Principal).Equal(payment.Neg()))
	}
	assert.InDelta(t, 3500, series.Rows[0].Flows.Interest.InexactFloat64(), 0.01)
	assert.True(t, series.Rows[0].Value.IsNegative())
	assert.InDelta(t, 0, series.Rows[239].Value.InexactFloat64(), 0.01)
}

func TestFixed_RepaymentAndHorizon(t *testing.T) {
	tests := []struct {
		name     string
		repay    *time.Time
		horizon  int
		wantRows int
	}{
		{name: "Repayment date keeps rows strictly before it", repay: ptr(month(2025, 1)), horizon: 360, wantRows: 12},
		{name: "Horizon shorter than duration", horizon: 6, wantRows: 6},
		{name: "Repayment after horizon", repay: ptr(month(2030, 1)), horizon: 24, wantRows: 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := mortgage(domain.LoanTypeFixed)
			l.RepaymentDate = tt.repay
			series := project(t, l, nil, tt.horizon)
			assert.Len(t, series.Rows, tt.wantRows)
		})
	}
}

func TestFixed_ZeroRate(t *testing.T) {
	l := mortgage(domain.LoanTypeFixed)
	l.InterestRateAnnualPct = decimal.Zero
	l.OriginalValue = dec("1200")
	l.DurationMonths = 12

	series := project(t, l, nil, 12)
	require.Len(t, series.Rows, 12)
	assert.True(t, series.Rows[0].CashFlow.Equal(dec("-100")))
	assert.True(t, series.Rows[11].Value.IsZero())
}

func TestVariable_MatchesFixedWithoutInflation(t *testing.T) {
	fixed := project(t, mortgage(domain.LoanTypeFixed), nil, 240)
	variable := project(t, mortgage(domain.LoanTypeVariable), nil, 240)

	require.Len(t, variable.Rows, 240)
	for _, i := range []int{0, 100, 239} {
		assert.InDelta(t, fixed.Rows[i].CashFlow.InexactFloat64(), variable.Rows[i].CashFlow.InexactFloat64(), 0.01)
		assert.InDelta(t, fixed.Rows[i].Value.InexactFloat64(), variable.Rows[i].Value.InexactFloat64(), 0.5)
	}
}

func TestVariable_InflationRaisesRateEveryTwelfthMonth(t *testing.T) {
	l := mortgage(domain.LoanTypeVariable)
	l.InflationRateAnnualPct = dec("10")

	series := project(t, l, nil, 240)
	// months 1..11 share the base rate, month 12 uses base × 1.1
	assert.True(t, series.Rows[10].CashFlow.Equal(series.Rows[0].CashFlow))
	assert.True(t, series.Rows[11].CashFlow.LessThan(series.Rows[10].CashFlow), "higher rate means a larger outflow")
}

func TestPrimePegged_NoChangesMatchesFixed(t *testing.T) {
	index := new(MockIndexSource)
	index.On("PrimeCalendar", month(2024, 1), 240).Return([]domain.RateChange{}, nil)

	fixed := project(t, mortgage(domain.LoanTypeFixed), nil, 240)
	pegged := project(t, mortgage(domain.LoanTypePrimePegged), index, 240)

	require.Len(t, pegged.Rows, 240)
	assert.True(t, pegged.Rows[0].CashFlow.Equal(fixed.Rows[0].CashFlow))
	assert.True(t, pegged.Rows[239].Value.Equal(fixed.Rows[239].Value))
	index.AssertExpectations(t)
}

func TestPrimePegged_ResegmentsAtRateChange(t *testing.T) {
	index := new(MockIndexSource)
	index.On("PrimeCalendar", month(2024, 1), 240).Return([]domain.RateChange{
		{Start: month(2025, 1), Rate: dec("3.5"), Change: dec("1"), CumulativeChange: dec("1"), MonthsToLoanEnd: 228},
	}, nil)

	series := project(t, mortgage(domain.LoanTypePrimePegged), index, 360)

	require.Len(t, series.Rows, 240)
	require.NoError(t, series.Validate())

	before := series.Rows[11]
	after := series.Rows[12]
	assert.Equal(t, month(2025, 1), after.Date)
	assert.True(t, after.CashFlow.LessThan(before.CashFlow), "rate increase raises the payment")

	// the new segment amortizes the balance left after December 2024 at 4.5%
	wantInterest := before.Value.Neg().Mul(dec("0.00375"))
	assert.InDelta(t, wantInterest.InexactFloat64(), after.Flows.Interest.InexactFloat64(), 0.01)
	assert.InDelta(t, 0, series.Rows[239].Value.InexactFloat64(), 0.01)
	index.AssertExpectations(t)
}

func TestPrimePegged_ChangeInOriginationMonthMovesForward(t *testing.T) {
	segments := buildSegments(month(2024, 1), month(2044, 1), []domain.RateChange{
		{Start: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), CumulativeChange: dec("0.5")},
	})

	require.Len(t, segments, 2)
	assert.Equal(t, month(2024, 1), segments[0].start)
	assert.Equal(t, month(2024, 2), segments[1].start)
	assert.Equal(t, 240, segments[0].months)
}

func TestPrimePegged_IndexError(t *testing.T) {
	index := new(MockIndexSource)
	index.On("PrimeCalendar", month(2024, 1), 240).Return(nil, domain.ErrIndexDataUnavailable)

	p, err := NewProjector(mortgage(domain.LoanTypePrimePegged), index, nil)
	require.NoError(t, err)
	_, err = p.Project(240)
	assert.ErrorIs(t, err, domain.ErrIndexDataUnavailable)
}

func TestCPIPegged_FlatIndexMatchesFixed(t *testing.T) {
	l := mortgage(domain.LoanTypeCPIPegged)
	index := new(MockIndexSource)
	index.On("CPILevels", month(2024, 1), 240, mock.Anything, mock.Anything).Return(flatLevels(month(2024, 1), 240, "100"), nil)

	fixed := project(t, mortgage(domain.LoanTypeFixed), nil, 240)
	pegged := project(t, l, index, 240)

	require.NotEmpty(t, pegged.Rows)
	assert.InDelta(t, fixed.Rows[0].CashFlow.InexactFloat64(), pegged.Rows[0].CashFlow.InexactFloat64(), 1e-6)
	assert.InDelta(t, fixed.Rows[120].Value.InexactFloat64(), pegged.Rows[120].Value.InexactFloat64(), 0.01)
	assert.InDelta(t, 0, pegged.Rows[len(pegged.Rows)-1].Value.InexactFloat64(), 0.01)
	index.AssertExpectations(t)
}

func TestCPIPegged_RevaluesPrincipalBeforeInterest(t *testing.T) {
	l := &domain.Loan{
		ID:                    uuid.New(),
		Type:                  domain.LoanTypeCPIPegged,
		StartDate:             month(2024, 1),
		OriginalValue:         dec("1200"),
		InterestRateAnnualPct: decimal.Zero,
		DurationMonths:        12,
	}
	levels := flatLevels(month(2024, 1), 12, "100")
	levels[1].Level = dec("110")
	for i := 2; i < len(levels); i++ {
		levels[i].Level = dec("110")
	}
	index := new(MockIndexSource)
	index.On("CPILevels", month(2024, 1), 12, mock.Anything, mock.Anything).Return(levels, nil)

	series := project(t, l, index, 12)
	require.Len(t, series.Rows, 12)
	assert.True(t, series.Rows[0].CashFlow.Equal(dec("-100")))
	assert.True(t, series.Rows[0].Value.Equal(dec("-1100")))
	// 1100 × 1.1 = 1210 spread over the remaining 11 months
	assert.True(t, series.Rows[1].CashFlow.Equal(dec("-110")))
	assert.True(t, series.Rows[1].Value.Equal(dec("-1100")))
	assert.True(t, series.Rows[11].Value.IsZero())
}

func TestCPIPegged_IndexUnavailable(t *testing.T) {
	index := new(MockIndexSource)
	index.On("CPILevels", month(2024, 1), 240, mock.Anything, mock.Anything).Return(nil, errors.New("no valid CPI data available after date parsing"))

	p, err := NewProjector(mortgage(domain.LoanTypeCPIPegged), index, nil)
	require.NoError(t, err)
	_, err = p.Project(240)
	assert.Error(t, err)
}

func TestNewProjector_PeggedNeedsIndex(t *testing.T) {
	_, err := NewProjector(mortgage(domain.LoanTypeCPIPegged), nil, nil)
	assert.ErrorIs(t, err, domain.ErrIndexDataUnavailable)

	_, err = NewProjector(&domain.Loan{Type: domain.LoanType("balloon")}, nil, nil)
	assert.Error(t, err)
}

func ptr(t time.Time) *time.Time {
	return &t
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kivo-app/kivo/internal/domain"
)

func seedAt(t *testing.T, f *fixture, amount int64, category domain.Category, at time.Time) {
	t.Helper()
	tx := domain.Transaction{
		ID:        uuid.New(),
		Amount:    decimal.NewFromInt(amount),
		Kind:      domain.KindPurchase,
		Category:  category,
		OwnerID:   f.owner.ID,
		Rate:      decimal.NewFromInt(1),
		Currency:  domain.LocalCurrency,
		Status:    domain.StatusApproved,
		CreatedAt: at,
	}
	require.NoError(t, f.txs.Create(context.Background(), &tx))
}

func TestDailyAnalytics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	day1 := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC)

	seedAt(t, f, 100, domain.CategoryFood, day1)
	seedAt(t, f, 50, domain.CategoryBills, day1.Add(3*time.Hour))
	seedAt(t, f, 20, domain.CategoryFood, day2)
	// Outside the window.
	seedAt(t, f, 999, domain.CategoryFood, day2.AddDate(0, 1, 0))

	totals, err := f.svc.DailyAnalytics(ctx, f.owner.ID, day1, day2)
	require.NoError(t, err)

	require.Len(t, totals, 2)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), totals[0].Date)
	assert.True(t, totals[0].Total.Equal(decimal.NewFromInt(150)), "same-day amounts must sum: got %s", totals[0].Total)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), totals[1].Date)
	assert.True(t, totals[1].Total.Equal(decimal.NewFromInt(20)))
}

func TestDailyAnalytics_IntervalIsInclusive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	seedAt(t, f, 10, domain.CategoryFood, day)                                  // first instant
	seedAt(t, f, 5, domain.CategoryFood, day.Add(24*time.Hour-time.Nanosecond)) // last instant

	totals, err := f.svc.DailyAnalytics(ctx, f.owner.ID, day, day)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.True(t, totals[0].Total.Equal(decimal.NewFromInt(15)))
}

func TestAnalytics_EmptyIntervalIsNotAnError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	daily, err := f.svc.DailyAnalytics(ctx, f.owner.ID, from, to)
	require.NoError(t, err)
	assert.Empty(t, daily)

	byCategory, err := f.svc.CategoryAnalytics(ctx, f.owner.ID, from, to)
	require.NoError(t, err)
	assert.Empty(t, byCategory)
}

func TestAnalytics_EndBeforeStart(t *testing.T) {
	f := newFixture(t)
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.DailyAnalytics(context.Background(), f.owner.ID, from, from.AddDate(0, 0, -1))
	var validation domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCategoryAnalytics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	day := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	seedAt(t, f, 100, domain.CategoryFood, day)
	seedAt(t, f, 50, domain.CategoryFood, day.Add(time.Hour))
	seedAt(t, f, 30, domain.CategoryBills, day)

	totals, err := f.svc.CategoryAnalytics(ctx, f.owner.ID, day, day)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	byCategory := make(map[domain.Category]decimal.Decimal)
	for _, ct := range totals {
		byCategory[ct.Category] = ct.Total
	}
	assert.True(t, byCategory[domain.CategoryFood].Equal(decimal.NewFromInt(150)))
	assert.True(t, byCategory[domain.CategoryBills].Equal(decimal.NewFromInt(30)))
}

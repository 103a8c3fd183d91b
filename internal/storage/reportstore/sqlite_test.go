package reportstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "reports.db"), common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleReport(symbol string, createdAt time.Time) *models.StockReport {
	return &models.StockReport{
		Symbol:          symbol,
		Verdict:         models.VerdictBuy,
		Summary:         "Executive summary.",
		PriceSection:    "Price looks fine.",
		DividendSection: "Dividend is covered.",
		CreatedAt:       createdAt,
	}
}

func TestSaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	report := sampleReport("CREIT", time.Now().UTC())
	require.NoError(t, store.Save(ctx, report))
	assert.NotEmpty(t, report.ID)

	loaded, err := store.Get(ctx, report.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, report.Symbol, loaded.Symbol)
	assert.Equal(t, models.VerdictBuy, loaded.Verdict)
	assert.Equal(t, "Executive summary.", loaded.Summary)
	assert.Equal(t, "Price looks fine.", loaded.PriceSection)
	assert.WithinDuration(t, report.CreatedAt, loaded.CreatedAt, time.Millisecond)
}

func TestGet_NotFound(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.Get(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSave_AssignsIDAndTimestamp(t *testing.T) {
	store := newTestStore(t)

	report := &models.StockReport{Symbol: "JFC", Verdict: models.VerdictNotBuy, Summary: "s"}
	require.NoError(t, store.Save(context.Background(), report))

	assert.NotEmpty(t, report.ID)
	assert.False(t, report.CreatedAt.IsZero())
}

func TestListBySymbol_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, sampleReport("CREIT", base.AddDate(0, 0, i))))
	}
	require.NoError(t, store.Save(ctx, sampleReport("JFC", base)))

	reports, err := store.ListBySymbol(ctx, "CREIT", 2)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "CREIT", reports[0].Symbol)
	assert.True(t, reports[0].CreatedAt.After(reports[1].CreatedAt))
}

func TestListRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, sampleReport("CREIT", base)))
	require.NoError(t, store.Save(ctx, sampleReport("JFC", base.Add(time.Hour))))

	reports, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "JFC", reports[0].Symbol)

	// zero limit falls back to the default page size
	reports, err = store.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestSave_NilReport(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.Save(context.Background(), nil))
}

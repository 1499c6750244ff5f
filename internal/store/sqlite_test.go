package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/directory-enrich/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// seed inserts records with strictly increasing creation times.
func seed(t *testing.T, st *SQLiteStore, records ...model.Record) []model.Record {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range records {
		records[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
	}
	n, err := st.InsertRecords(context.Background(), records)
	require.NoError(t, err)
	require.Equal(t, len(records), n)
	return records
}

func rec(name, city, state string) model.Record {
	return model.Record{Name: name, Category: "Insulation", City: city, State: state}
}

func TestSQLite_SelectIncomplete_ExcludesComplete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seed(t, st,
		rec("Kelcon, LLC", "Unknown", "Unknown"),
		rec("Mobile Foam", "Mobile", "AL"),
		rec("ICA", "Phoenix", "Unknown"),
		rec("Nowhere Co", "Unknown", "TX"),
		rec("Blank State", "Dallas", ""),
	)

	got, err := st.SelectIncomplete(ctx, 20)
	require.NoError(t, err)

	var names []string
	for _, r := range got {
		assert.True(t, r.IsIncomplete(), r.Name)
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Kelcon, LLC", "ICA", "Nowhere Co", "Blank State"}, names)
}

func TestSQLite_SelectIncomplete_Limit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	var records []model.Record
	for i := 0; i < 25; i++ {
		records = append(records, rec("Contractor "+string(rune('A'+i)), "Unknown", "Unknown"))
	}
	seed(t, st, records...)

	got, err := st.SelectIncomplete(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Contractor A", got[0].Name)

	got, err = st.SelectIncomplete(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestSQLite_SelectIncomplete_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	seed(t, st, rec("Mobile Foam", "Mobile", "AL"))

	got, err := st.SelectIncomplete(context.Background(), 20)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_UpdateByID_PartialColumns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	r := rec("Kelcon, LLC", "Unknown", "Unknown")
	r.Website = strPtr("https://old.example.com")
	records := seed(t, st, r)
	id := records[0].ID

	ts := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	err := st.UpdateByID(ctx, id, model.RecordUpdate{
		City:      strPtr("Brownsboro"),
		State:     strPtr("AL"),
		Latitude:  strPtr("34.6950"),
		Longitude: strPtr("-86.4527"),
		UpdatedAt: ts,
	})
	require.NoError(t, err)

	all, err := st.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	got := all[0]
	assert.Equal(t, "Brownsboro", got.City)
	assert.Equal(t, "AL", got.State)
	require.NotNil(t, got.Latitude)
	assert.Equal(t, "34.6950", *got.Latitude)
	assert.Equal(t, "-86.4527", *got.Longitude)
	require.NotNil(t, got.Website)
	assert.Equal(t, "https://old.example.com", *got.Website)
	assert.Nil(t, got.Phone)
	assert.True(t, got.UpdatedAt.Equal(ts))
	assert.False(t, got.IsIncomplete())
}

func TestSQLite_UpdateByID_YearsInBusiness(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	records := seed(t, st, rec("Kelcon, LLC", "Unknown", "Unknown"))

	years := 12
	require.NoError(t, st.UpdateByID(ctx, records[0].ID, model.RecordUpdate{YearsInBusiness: &years, UpdatedAt: time.Now()}))

	all, err := st.ListRecords(ctx)
	require.NoError(t, err)
	require.NotNil(t, all[0].YearsInBusiness)
	assert.Equal(t, 12, *all[0].YearsInBusiness)
}

func TestSQLite_UpdateByID_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateByID(context.Background(), "missing", model.RecordUpdate{Phone: strPtr("555"), UpdatedAt: time.Now()})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_InsertRecords_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	n, err := st.InsertRecords(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLite_InsertRecords_DefaultsAndBusinessName(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	r := rec("American Spray Foam", "Unknown", "Unknown")
	r.BusinessName = strPtr("ASF Insulation")
	r.Description = "DBA: ASF Insulation"
	seed(t, st, r)

	all, err := st.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotEmpty(t, all[0].ID)
	assert.Equal(t, model.RecordStatusPending, all[0].Status)
	assert.Equal(t, "ASF Insulation", all[0].DisplayName())
	assert.Equal(t, "DBA: ASF Insulation", all[0].Description)
}

func TestSQLite_Stats(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	records := seed(t, st,
		rec("Kelcon, LLC", "Unknown", "Unknown"),
		rec("Mobile Foam", "Mobile", "AL"),
		rec("ICA", "Phoenix", "Unknown"),
	)
	require.NoError(t, st.UpdateByID(ctx, records[1].ID, model.RecordUpdate{
		Latitude: strPtr("30.6954"), Longitude: strPtr("-88.0399"), UpdatedAt: time.Now(),
	}))

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Incomplete)
	assert.Equal(t, 1, stats.WithCoordinates)
	assert.Equal(t, []string{"Kelcon, LLC", "ICA"}, stats.IncompleteNames)
}

func TestSQLite_Stats_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	stats, err := st.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Empty(t, stats.IncompleteNames)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestStoreInterface(t *testing.T) {
	var _ Store = (*SQLiteStore)(nil)
	var _ Store = (*PostgresStore)(nil)
}

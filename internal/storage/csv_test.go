package storage_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Flaque/filet"
	"github.com/SilinPolicyAdvisor/Lead-gen/internal/models"
	"github.com/SilinPolicyAdvisor/Lead-gen/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRecords() []models.BusinessRecord {
	rating := 4.5
	reviews := 120
	return []models.BusinessRecord{
		{
			Name:           "Joe's Pizza",
			Address:        "1 Main St, Waterloo, ON",
			Phone:          "+15551234567",
			EmailGuess:     "info@joes.example.com",
			Website:        "https://joes.example.com",
			Rating:         &rating,
			ReviewCount:    &reviews,
			BusinessStatus: "OPERATIONAL",
			PrimaryType:    "restaurant",
			AllTypes:       models.TypeList{"restaurant", "food"},
			OpeningHours:   "Monday: 9AM-5PM; Tuesday: 9AM-5PM",
			PlaceID:        "ChIJabc123",
			SearchQuery:    "restaurants in N2J 4Z2",
			SearchLocation: "N2J 4Z2",
			ScrapedAt:      "2025-06-01 12:00:00",
		},
		{
			Name:           "Fresh Bakery",
			Address:        "9 Side St",
			PrimaryType:    "bakery",
			PlaceID:        "ChIJdef456",
			SearchQuery:    "restaurants in N2J 4Z2",
			SearchLocation: "N2J 4Z2",
			ScrapedAt:      "2025-06-01 12:01:00",
		},
	}
}

func TestCSVStore_AppendAndLoad(t *testing.T) {
	defer filet.CleanUp(t)
	dir := filet.TmpDir(t, "")
	path := filepath.Join(dir, "leads.csv")
	ctx := t.Context()

	store := storage.NewCSVStore(path, "", slog.Default())
	records := sampleRecords()

	require.NoError(t, store.Append(ctx, records[:1]))
	require.NoError(t, store.Append(ctx, records[1:]))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, records[0].Name, loaded[0].Name)
	assert.Equal(t, records[0].AllTypes, loaded[0].AllTypes)
	require.NotNil(t, loaded[0].Rating)
	assert.InEpsilon(t, 4.5, *loaded[0].Rating, 1e-9)
	assert.Equal(t, records[1].Name, loaded[1].Name)
	assert.Nil(t, loaded[1].Rating)

	// The header is written once.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "email_guess"))
}

func TestCSVStore_LoadMissingFile(t *testing.T) {
	defer filet.CleanUp(t)
	dir := filet.TmpDir(t, "")

	store := storage.NewCSVStore(filepath.Join(dir, "absent.csv"), "", slog.Default())

	loaded, err := store.Load(t.Context())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestCSVStore_AppendEmptyBatch(t *testing.T) {
	defer filet.CleanUp(t)
	dir := filet.TmpDir(t, "")
	path := filepath.Join(dir, "leads.csv")

	store := storage.NewCSVStore(path, "", slog.Default())
	require.NoError(t, store.Append(t.Context(), nil))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty batch must not create the file")
}

func TestCSVStore_ExcelMirror(t *testing.T) {
	defer filet.CleanUp(t)
	dir := filet.TmpDir(t, "")
	csvPath := filepath.Join(dir, "leads.csv")
	xlsxPath := filepath.Join(dir, "leads.xlsx")
	ctx := t.Context()

	store := storage.NewCSVStore(csvPath, xlsxPath, slog.Default())
	require.NoError(t, store.Append(ctx, sampleRecords()))

	book, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Leads")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two records")
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Joe's Pizza", rows[1][0])
	assert.Equal(t, "Fresh Bakery", rows[2][0])
}

func TestCSVStore_Stats(t *testing.T) {
	defer filet.CleanUp(t)
	dir := filet.TmpDir(t, "")

	store := storage.NewCSVStore(filepath.Join(dir, "leads.csv"), "", slog.Default())
	ctx := t.Context()
	require.NoError(t, store.Append(ctx, sampleRecords()))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRecords)
	assert.Equal(t, 2, stats.UniquePlaces)
	assert.Equal(t, 2, stats.UniqueNames)
	assert.Equal(t, 1, stats.HasPhone)
	assert.Equal(t, 1, stats.HasWebsite)
	assert.Equal(t, 1, stats.HasRating)
	assert.InEpsilon(t, 4.5, stats.AvgRating, 1e-9)
	assert.Equal(t, map[string]int{"restaurant": 1, "bakery": 1}, stats.TypeCounts)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := storage.ComputeStats(nil)
	assert.Equal(t, 0, stats.TotalRecords)
	assert.Zero(t, stats.AvgRating)
	assert.Empty(t, stats.TypeCounts)
}

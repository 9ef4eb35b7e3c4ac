package storage_test

import (
	"log/slog"
	"regexp"
	"testing"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/storage"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaQuery = `CREATE TABLE IF NOT EXISTS leads`

const insertQuery = `
	INSERT INTO leads (
		name, address, phone, email_guess, website, rating, review_count,
		business_status, primary_type, all_types, opening_hours,
		latitude, longitude, place_id, search_query, search_location, scraped_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
	);
`

const selectQuery = `
	SELECT
		name, address, phone, email_guess, website, rating, review_count,
		business_status, primary_type, all_types, opening_hours,
		latitude, longitude, place_id, search_query, search_location, scraped_at
	FROM leads
	ORDER BY id ASC;
`

var leadColumns = []string{
	"name", "address", "phone", "email_guess", "website", "rating", "review_count",
	"business_status", "primary_type", "all_types", "opening_hours",
	"latitude", "longitude", "place_id", "search_query", "search_location", "scraped_at",
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("error - create table", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := storage.NewPostgresStore(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(schemaQuery)).WillReturnError(assert.AnError)

		err = store.EnsureSchema(ctx)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to create leads table")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - create table", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := storage.NewPostgresStore(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(schemaQuery)).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))

		err = store.EnsureSchema(ctx)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresAppend(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	records := sampleRecords()

	t.Run("error - insert lead", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := storage.NewPostgresStore(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
			WithArgs(
				records[0].Name, records[0].Address, records[0].Phone,
				records[0].EmailGuess, records[0].Website, records[0].Rating,
				records[0].ReviewCount, records[0].BusinessStatus, records[0].PrimaryType,
				"restaurant, food", records[0].OpeningHours,
				records[0].Latitude, records[0].Longitude, records[0].PlaceID,
				records[0].SearchQuery, records[0].SearchLocation, records[0].ScrapedAt,
			).
			WillReturnError(assert.AnError)

		err = store.Append(ctx, records)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to insert lead")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - insert all records", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := storage.NewPostgresStore(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
			WithArgs(
				records[0].Name, records[0].Address, records[0].Phone,
				records[0].EmailGuess, records[0].Website, records[0].Rating,
				records[0].ReviewCount, records[0].BusinessStatus, records[0].PrimaryType,
				"restaurant, food", records[0].OpeningHours,
				records[0].Latitude, records[0].Longitude, records[0].PlaceID,
				records[0].SearchQuery, records[0].SearchLocation, records[0].ScrapedAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
			WithArgs(
				records[1].Name, records[1].Address, records[1].Phone,
				records[1].EmailGuess, records[1].Website, records[1].Rating,
				records[1].ReviewCount, records[1].BusinessStatus, records[1].PrimaryType,
				"", records[1].OpeningHours,
				records[1].Latitude, records[1].Longitude, records[1].PlaceID,
				records[1].SearchQuery, records[1].SearchLocation, records[1].ScrapedAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = store.Append(ctx, records)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresLoad(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("error - query leads", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := storage.NewPostgresStore(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).WillReturnError(assert.AnError)

		loaded, err := store.Load(ctx)

		require.Nil(t, loaded)
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to query leads")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - rows error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := storage.NewPostgresStore(mock, logger)

		rating := 4.5
		mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
			WillReturnRows(
				pgxmock.NewRows(leadColumns).
					AddRow("Joe's Pizza", "1 Main St", "+15551234567", "", "", &rating,
						(*int)(nil), "OPERATIONAL", "restaurant", "restaurant, food", "",
						(*float64)(nil), (*float64)(nil), "ChIJabc123", "q", "loc", "2025-06-01 12:00:00").
					RowError(1, assert.AnError),
			)

		loaded, err := store.Load(ctx)

		require.Nil(t, loaded)
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to read row")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - load leads", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		store := storage.NewPostgresStore(mock, logger)

		rating := 4.5
		mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
			WillReturnRows(
				pgxmock.NewRows(leadColumns).
					AddRow("Joe's Pizza", "1 Main St", "+15551234567", "info@joes.example.com",
						"https://joes.example.com", &rating, (*int)(nil), "OPERATIONAL",
						"restaurant", "restaurant, food", "Monday: 9AM-5PM",
						(*float64)(nil), (*float64)(nil), "ChIJabc123",
						"restaurants in N2J 4Z2", "N2J 4Z2", "2025-06-01 12:00:00"),
			)

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 1)

		rec := loaded[0]
		assert.Equal(t, "Joe's Pizza", rec.Name)
		assert.Equal(t, []string{"restaurant", "food"}, []string(rec.AllTypes))
		require.NotNil(t, rec.Rating)
		assert.InEpsilon(t, 4.5, *rec.Rating, 1e-9)
		assert.Nil(t, rec.ReviewCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

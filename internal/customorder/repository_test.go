package customorder

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"couture-be/internal/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var customOrderCols = []string{
	"id", "customer_id", "designer_id", "title", "description", "measurements",
	"inspiration_images", "budget_cents", "quote_cents", "deposit_cents",
	"estimated_delivery_days", "currency", "status", "progress_step", "payment_status",
	"tracking_url", "designer_note", "created_at", "updated_at",
}

func customOrderRow(id uuid.UUID, designerID any, status Status) []driver.Value {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []driver.Value{
		id.String(), "cust-1", designerID, "Wedding agbada", "Cream with gold embroidery",
		[]byte(`{"chest":104}`), "{https://img.example/a.jpg}", 50000, nil, nil,
		nil, "USD", string(status), "brief", "pending",
		nil, "", now, now,
	}
}

func TestRepository_GetByID(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM custom_orders WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(customOrderCols).AddRow(customOrderRow(id, nil, StatusRequested)...))

		c, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, c.ID)
		assert.Nil(t, c.DesignerID)
		assert.Equal(t, StatusRequested, c.Status)
		assert.Equal(t, []string{"https://img.example/a.jpg"}, c.InspirationImages)
		require.NotNil(t, c.BudgetCents)
		assert.EqualValues(t, 50000, *c.BudgetCents)
		assert.Nil(t, c.QuoteCents)
		assert.JSONEq(t, `{"chest":104}`, string(c.Measurements))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM custom_orders WHERE id = \$1`).
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, ErrCustomOrderNotFound)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM custom_orders WHERE id = \$1`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, apperror.ErrStorage)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List_DesignerScope(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM custom_orders WHERE \(designer_id = \$1 OR \(designer_id IS NULL AND status = 'requested'\)\) ORDER BY created_at DESC, id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("des-1", 20, 0).
		WillReturnRows(sqlmock.NewRows(customOrderCols).AddRow(customOrderRow(id, "des-1", StatusQuoted)...))

	items, err := repo.List(context.Background(), Scope{DesignerID: "des-1"}, Filter{}, 20, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].DesignerID)
	assert.Equal(t, "des-1", *items[0].DesignerID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Count_CustomerAndStatus(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)
	status := StatusQuoted

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM custom_orders WHERE customer_id = \$1 AND status = \$2`).
		WithArgs("cust-1", "quoted").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.Count(context.Background(), Scope{CustomerID: "cust-1"}, Filter{Status: &status})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Respond(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)
	id := uuid.New()
	quote := int64(120000)
	days := 21
	now := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	resp := response{DesignerID: "des-1", Status: StatusQuoted, QuoteCents: &quote, EstimatedDeliveryDays: &days, UpdatedAt: now}

	t.Run("Claimed", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE custom_orders SET .* WHERE id = \$1\s+AND \(designer_id IS NULL OR designer_id = \$2\)\s+AND status IN \('requested', 'quoted', 'rejected'\)\s+RETURNING`).
			WithArgs(id, "des-1", "quoted", quote, nil, days, "", now).
			WillReturnRows(sqlmock.NewRows(customOrderCols).AddRow(customOrderRow(id, "des-1", StatusQuoted)...))

		c, err := repo.Respond(context.Background(), id, resp)
		require.NoError(t, err)
		assert.Equal(t, StatusQuoted, c.Status)
	})

	t.Run("GuardMiss", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE custom_orders SET`).
			WillReturnRows(sqlmock.NewRows(customOrderCols))

		_, err := repo.Respond(context.Background(), id, resp)
		assert.ErrorIs(t, err, ErrCustomOrderNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateLifecycle_NotFound(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)
	c := &CustomOrder{ID: uuid.New(), Status: StatusInProgress, ProgressStep: StepSketch, PaymentStatus: PaymentDepositPaid}

	mock.ExpectExec(`UPDATE custom_orders SET\s+status = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateLifecycle(context.Background(), c)
	assert.ErrorIs(t, err, ErrCustomOrderNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AppendImages(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)
	id := uuid.New()
	urls := []string{"https://img.example/b.jpg"}
	at := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`UPDATE custom_orders\s+SET inspiration_images = COALESCE\(inspiration_images, '\{\}'\) \|\| \$2::text\[\]`).
		WithArgs(id, pq.Array(urls), at).
		WillReturnRows(sqlmock.NewRows([]string{"inspiration_images"}).AddRow("{https://img.example/a.jpg,https://img.example/b.jpg}"))

	images, err := repo.AppendImages(context.Background(), id, urls, at)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.example/a.jpg", "https://img.example/b.jpg"}, images)

	assert.NoError(t, mock.ExpectationsWereMet())
}

package handler

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barberia/reservation-backend/internal/repository"
)

func newAdminFixture(t *testing.T) (*AdminReservationHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewAdminReservationHandler(
		repository.NewSlotRepo(db),
		repository.NewBarberRepo(db),
		repository.NewReservationRepo(db),
		repository.NewUserRepo(db),
	)
	return h, mock
}

func deleteRequest(t *testing.T, h *AdminReservationHandler, id string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/admin/reservations/:id")
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.Delete(c))
	return rec
}

func TestAdminDeleteReservation(t *testing.T) {
	t.Run("releases capacity and deletes in one transaction", func(t *testing.T) {
		h, mock := newAdminFixture(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT slot_id FROM reservations WHERE id = ? FOR UPDATE`)).
			WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"slot_id"}).AddRow(5))
		mock.ExpectExec(regexp.QuoteMeta(releaseQueryPart)).
			WithArgs(uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM reservations WHERE id = ?`)).
			WithArgs(uint64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		rec := deleteRequest(t, h, "7")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tolerates a slot that no longer exists or is already zero", func(t *testing.T) {
		h, mock := newAdminFixture(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT slot_id FROM reservations WHERE id = ? FOR UPDATE`)).
			WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"slot_id"}).AddRow(5))
		mock.ExpectExec(regexp.QuoteMeta(releaseQueryPart)).
			WithArgs(uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0)) // floor: nothing to release
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM reservations WHERE id = ?`)).
			WithArgs(uint64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		rec := deleteRequest(t, h, "7")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns 404 and rolls back for a missing reservation", func(t *testing.T) {
		h, mock := newAdminFixture(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT slot_id FROM reservations WHERE id = ? FOR UPDATE`)).
			WithArgs(uint64(404)).
			WillReturnRows(sqlmock.NewRows([]string{"slot_id"}))
		mock.ExpectRollback()

		rec := deleteRequest(t, h, "404")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a malformed id", func(t *testing.T) {
		h, mock := newAdminFixture(t)
		rec := deleteRequest(t, h, "zero")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func createSlotRequest(t *testing.T, h *AdminReservationHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/slots", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.CreateSlot(c))
	return rec
}

func TestAdminCreateSlot(t *testing.T) {
	t.Run("accepts an explicit zero capacity", func(t *testing.T) {
		h, mock := newAdminFixture(t)

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO slots (scheduled_at, total_capacity, reserved_count) VALUES (?, ?, 0)`)).
			WithArgs("2026-03-14 10:00:00", uint32(0)).
			WillReturnResult(sqlmock.NewResult(11, 1))

		rec := createSlotRequest(t, h, `{"scheduled_at":"2026-03-14T10:00:00Z","total_capacity":0}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":11`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a missing total_capacity", func(t *testing.T) {
		h, mock := newAdminFixture(t)

		rec := createSlotRequest(t, h, `{"scheduled_at":"2026-03-14T10:00:00Z"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a malformed scheduled_at", func(t *testing.T) {
		h, mock := newAdminFixture(t)

		rec := createSlotRequest(t, h, `{"scheduled_at":"tomorrow","total_capacity":3}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

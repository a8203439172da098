package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barberia/reservation-backend/internal/model"
	"github.com/barberia/reservation-backend/internal/queue"
	"github.com/barberia/reservation-backend/internal/repository"
)

const (
	barberExistsPart = `SELECT 1 FROM barbers WHERE id = ? LIMIT 1`
	claimQueryPart   = `FROM slots WHERE id = ? FOR UPDATE`
	claimUpdatePart  = `UPDATE slots SET reserved_count = reserved_count + 1`
	insertPart       = `INSERT INTO reservations`
	releaseQueryPart = `UPDATE slots SET reserved_count = reserved_count - 1`
)

// fakeFicket records enqueued codes without doing any work.
type fakeFicket struct {
	mu    sync.Mutex
	codes []string
}

func (f *fakeFicket) Enqueue(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
}

func (f *fakeFicket) enqueued() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.codes))
	copy(out, f.codes)
	return out
}

func newBookingFixture(t *testing.T) (*BookingHandler, sqlmock.Sqlmock, *fakeFicket, chan queue.ReservationConfirmedEvent) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ficket := &fakeFicket{}
	h := NewBookingHandler(
		repository.NewSlotRepo(db),
		repository.NewBarberRepo(db),
		repository.NewReservationRepo(db),
		ficket,
	)
	published := make(chan queue.ReservationConfirmedEvent, 1)
	h.publish = func(_ context.Context, ev queue.ReservationConfirmedEvent) error {
		published <- ev
		return nil
	}
	return h, mock, ficket, published
}

// expectBarber arms the pre-claim barber lookup for an id that exists.
func expectBarber(mock sqlmock.Sqlmock, id uint64) {
	mock.ExpectQuery(regexp.QuoteMeta(barberExistsPart)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
}

func reserveRequest(t *testing.T, h *BookingHandler, body string, userID interface{}) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	require.NoError(t, h.CreateReservation(c))
	return rec
}

func TestCreateReservation(t *testing.T) {
	scheduledAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	t.Run("claims capacity and commits atomically", func(t *testing.T) {
		h, mock, ficket, published := newBookingFixture(t)

		expectBarber(mock, 2)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(claimQueryPart)).
			WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"scheduled_at", "total_capacity", "reserved_count"}).
				AddRow(scheduledAt, 2, 0))
		mock.ExpectExec(regexp.QuoteMeta(claimUpdatePart)).
			WithArgs(uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(insertPart)).
			WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectCommit()

		rec := reserveRequest(t, h, `{"slot_id":5,"barber_id":2}`, float64(1))
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			AttentionCode string `json:"attention_code"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, strings.HasPrefix(resp.AttentionCode, "COD-"))

		// post-commit side effects: ficket enqueued synchronously,
		// event published in the background
		assert.Equal(t, []string{resp.AttentionCode}, ficket.enqueued())
		select {
		case ev := <-published:
			assert.Equal(t, resp.AttentionCode, ev.AttentionCode)
			assert.Equal(t, uint64(7), ev.ReservationID)
		case <-time.After(2 * time.Second):
			t.Fatal("confirmed event was never published")
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns 409 and rolls back when capacity is gone", func(t *testing.T) {
		h, mock, ficket, _ := newBookingFixture(t)

		expectBarber(mock, 2)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(claimQueryPart)).
			WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"scheduled_at", "total_capacity", "reserved_count"}).
				AddRow(scheduledAt, 1, 1))
		mock.ExpectRollback()

		rec := reserveRequest(t, h, `{"slot_id":5,"barber_id":2}`, float64(1))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Empty(t, ficket.enqueued())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns 404 and rolls back for an unknown slot", func(t *testing.T) {
		h, mock, ficket, _ := newBookingFixture(t)

		expectBarber(mock, 2)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(claimQueryPart)).
			WithArgs(uint64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"scheduled_at", "total_capacity", "reserved_count"}))
		mock.ExpectRollback()

		rec := reserveRequest(t, h, `{"slot_id":99,"barber_id":2}`, float64(1))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, ficket.enqueued())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back the claim when the insert fails", func(t *testing.T) {
		h, mock, ficket, _ := newBookingFixture(t)

		expectBarber(mock, 2)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(claimQueryPart)).
			WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"scheduled_at", "total_capacity", "reserved_count"}).
				AddRow(scheduledAt, 2, 0))
		mock.ExpectExec(regexp.QuoteMeta(claimUpdatePart)).
			WithArgs(uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(insertPart)).
			WillReturnError(errors.New("constraint violation"))
		mock.ExpectRollback()

		rec := reserveRequest(t, h, `{"slot_id":5,"barber_id":2}`, float64(1))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Empty(t, ficket.enqueued(), "no ficket may be generated for a rolled-back reservation")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects an unknown barber before touching the ledger", func(t *testing.T) {
		h, mock, ficket, _ := newBookingFixture(t)

		// no slot claim, no transaction: the barber lookup comes back
		// empty and the flow stops there
		mock.ExpectQuery(regexp.QuoteMeta(barberExistsPart)).
			WithArgs(uint64(999)).
			WillReturnRows(sqlmock.NewRows([]string{"1"}))

		rec := reserveRequest(t, h, `{"slot_id":5,"barber_id":999}`, float64(1))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "barber not found")
		assert.Empty(t, ficket.enqueued())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects missing fields before touching the ledger", func(t *testing.T) {
		h, mock, _, _ := newBookingFixture(t)

		rec := reserveRequest(t, h, `{"slot_id":5}`, float64(1))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("serialized claims exhaust capacity exactly once", func(t *testing.T) {
		// The row lock totally orders the two claims; the second reads
		// the first's committed increment and must lose.
		h, mock, ficket, published := newBookingFixture(t)

		expectBarber(mock, 2)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(claimQueryPart)).
			WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"scheduled_at", "total_capacity", "reserved_count"}).
				AddRow(scheduledAt, 1, 0))
		mock.ExpectExec(regexp.QuoteMeta(claimUpdatePart)).
			WithArgs(uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(insertPart)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		expectBarber(mock, 2)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(claimQueryPart)).
			WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"scheduled_at", "total_capacity", "reserved_count"}).
				AddRow(scheduledAt, 1, 1))
		mock.ExpectRollback()

		first := reserveRequest(t, h, `{"slot_id":5,"barber_id":2}`, float64(1))
		second := reserveRequest(t, h, `{"slot_id":5,"barber_id":2}`, float64(3))

		assert.Equal(t, http.StatusCreated, first.Code)
		assert.Equal(t, http.StatusConflict, second.Code)
		assert.Len(t, ficket.enqueued(), 1)
		<-published // drain the winner's event
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetStatus(t *testing.T) {
	t.Run("returns the processing status", func(t *testing.T) {
		h, mock, _, _ := newBookingFixture(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT processing_status FROM reservations WHERE attention_code = ?`)).
			WithArgs("COD-1-1").
			WillReturnRows(sqlmock.NewRows([]string{"processing_status"}).AddRow(model.StatusPending))

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/reservations/status/:code")
		c.SetParamNames("code")
		c.SetParamValues("COD-1-1")

		require.NoError(t, h.GetStatus(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), model.StatusPending)
	})

	t.Run("returns 404 for an unknown code", func(t *testing.T) {
		h, mock, _, _ := newBookingFixture(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT processing_status FROM reservations WHERE attention_code = ?`)).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows([]string{"processing_status"}))

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/reservations/status/:code")
		c.SetParamNames("code")
		c.SetParamValues("nope")

		require.NoError(t, h.GetStatus(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	claimQuery   = `FROM slots WHERE id = ? FOR UPDATE`
	claimUpdate  = `UPDATE slots SET reserved_count = reserved_count + 1 WHERE id = ?`
	releaseQuery = `UPDATE slots SET reserved_count = reserved_count - 1 WHERE id = ? AND reserved_count > 0`
)

func TestSlotRepoClaimTx(t *testing.T) {
	scheduledAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	t.Run("claims when capacity remains", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(claimQuery)).
			WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"scheduled_at", "total_capacity", "reserved_count"}).
				AddRow(scheduledAt, 3, 2))
		mock.ExpectExec(regexp.QuoteMeta(claimUpdate)).
			WithArgs(uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewSlotRepo(db)
		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)

		got, err := repo.ClaimTx(context.Background(), tx, 5)
		require.NoError(t, err)
		assert.True(t, scheduledAt.Equal(got))
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects the last-unit race loser", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(claimQuery)).
			WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"scheduled_at", "total_capacity", "reserved_count"}).
				AddRow(scheduledAt, 1, 1))
		mock.ExpectRollback()

		repo := NewSlotRepo(db)
		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)

		_, err = repo.ClaimTx(context.Background(), tx, 5)
		assert.ErrorIs(t, err, ErrNoCapacity)
		require.NoError(t, tx.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports a missing slot", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(claimQuery)).
			WithArgs(uint64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"scheduled_at", "total_capacity", "reserved_count"}))
		mock.ExpectRollback()

		repo := NewSlotRepo(db)
		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)

		_, err = repo.ClaimTx(context.Background(), tx, 99)
		assert.ErrorIs(t, err, ErrSlotNotFound)
		require.NoError(t, tx.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSlotRepoReleaseTx(t *testing.T) {
	t.Run("decrements a positive count", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(releaseQuery)).
			WithArgs(uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewSlotRepo(db)
		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)
		require.NoError(t, repo.ReleaseTx(context.Background(), tx, 5))
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("floors at zero without error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		// guard clause matches no row: count already zero or slot gone
		mock.ExpectExec(regexp.QuoteMeta(releaseQuery)).
			WithArgs(uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		repo := NewSlotRepo(db)
		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)
		require.NoError(t, repo.ReleaseTx(context.Background(), tx, 5))
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSlotRepoList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	first := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM slots ORDER BY scheduled_at ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scheduled_at", "total_capacity", "reserved_count"}).
			AddRow(1, first, 4, 0).
			AddRow(2, second, 2, 2))

	repo := NewSlotRepo(db)
	slots, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, uint64(1), slots[0].ID)
	assert.Equal(t, 4, slots[0].Available())
	assert.Equal(t, 0, slots[1].Available())
	assert.NoError(t, mock.ExpectationsWereMet())
}

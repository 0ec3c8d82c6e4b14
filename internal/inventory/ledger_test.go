package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_DecrementIfSufficient(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ledger := NewLedger(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE products SET stock = stock - \$1 WHERE id = \$2 AND stock >= \$1`).
			WithArgs(2, "prod-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := ledger.DecrementIfSufficient(ctx, nil, "prod-1", 2)
		assert.NoError(t, err)
	})

	t.Run("Insufficient", func(t *testing.T) {
		mock.ExpectExec(`UPDATE products SET stock = stock - \$1`).
			WithArgs(10, "prod-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := ledger.DecrementIfSufficient(ctx, nil, "prod-1", 10)
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectExec(`UPDATE products SET stock = stock - \$1`).
			WillReturnError(errors.New("db error"))

		err := ledger.DecrementIfSufficient(ctx, nil, "prod-1", 1)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrInsufficientStock)
	})

	t.Run("Joins caller transaction", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE products SET stock = stock - \$1`).
			WithArgs(1, "prod-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := db.Begin()
		require.NoError(t, err)
		assert.NoError(t, ledger.DecrementIfSufficient(ctx, tx, "prod-1", 1))
		assert.NoError(t, tx.Commit())
	})
}

func TestLedger_Restock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ledger := NewLedger(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE products SET stock = stock \+ \$1 WHERE id = \$2`).
			WithArgs(3, "prod-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, ledger.Restock(context.Background(), nil, "prod-1", 3))
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		mock.ExpectExec(`UPDATE products SET stock = stock \+ \$1`).
			WithArgs(3, "ghost").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := ledger.Restock(context.Background(), nil, "ghost", 3)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestMemoryLedger(t *testing.T) {
	t.Run("Decrement and restock", func(t *testing.T) {
		m := NewMemoryLedger(map[string]int{"prod-1": 5})

		assert.NoError(t, m.DecrementIfSufficient(context.Background(), nil, "prod-1", 2))
		assert.Equal(t, 3, m.Stock("prod-1"))

		err := m.DecrementIfSufficient(context.Background(), nil, "prod-1", 4)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, 3, m.Stock("prod-1"))

		assert.NoError(t, m.Restock(context.Background(), nil, "prod-1", 2))
		assert.Equal(t, 5, m.Stock("prod-1"))
	})

	t.Run("Stock never goes negative under contention", func(t *testing.T) {
		m := NewMemoryLedger(map[string]int{"prod-1": 50})

		var wg sync.WaitGroup
		var succeeded int64
		var mu sync.Mutex

		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := m.DecrementIfSufficient(context.Background(), nil, "prod-1", 1); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(50), succeeded)
		assert.Equal(t, 0, m.Stock("prod-1"))
	})
}

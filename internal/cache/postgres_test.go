package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresGetHit(t *testing.T) {
	t.Parallel()

	st, mock := newMockPostgres(t)

	resultJSON, err := json.Marshal(testResult())
	require.NoError(t, err)

	mock.ExpectQuery("SELECT result FROM email_cache").
		WithArgs("k").
		WillReturnRows(pgxmock.NewRows([]string{"result"}).AddRow(resultJSON))

	got, err := st.Get(context.Background(), "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "john@acme.com", got.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetMiss(t *testing.T) {
	t.Parallel()

	st, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT result FROM email_cache").
		WithArgs("absent").
		WillReturnRows(pgxmock.NewRows([]string{"result"}))

	got, err := st.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSet(t *testing.T) {
	t.Parallel()

	st, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO email_cache").
		WithArgs(pgxmock.AnyArg(), "k", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, st.Set(context.Background(), "k", testResult(), time.Hour))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClear(t *testing.T) {
	t.Parallel()

	st, mock := newMockPostgres(t)

	mock.ExpectExec("DELETE FROM email_cache").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, st.Clear(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteExpired(t *testing.T) {
	t.Parallel()

	st, mock := newMockPostgres(t)

	mock.ExpectExec("DELETE FROM email_cache WHERE expires_at").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	removed, err := st.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

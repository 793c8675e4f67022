package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "submissions", []string{"a", "b"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"submissions"}, []string{"id", "company_name"}).WillReturnResult(2)

	rows := [][]any{{"id-1", "Acme"}, {"id-2", "Globex"}}
	n, err := CopyFrom(context.Background(), mock, "submissions", []string{"id", "company_name"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"submissions"}, []string{"id"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{"id-1"}}
	_, err = CopyFrom(context.Background(), mock, "submissions", []string{"id"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO submissions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

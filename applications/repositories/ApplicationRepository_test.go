package repositories

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func sequenceTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

func TestNextApplicationSequenceDrawsFromDatabaseSequence(t *testing.T) {
	db, mock := sequenceTestDB(t)

	// Each reservation must come from the dedicated sequence, never from a
	// row count that two concurrent intakes could read identically.
	mock.ExpectQuery(`SELECT nextval\('application_number_seq'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(42))
	mock.ExpectQuery(`SELECT nextval\('application_number_seq'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(43))

	repo := NewApplicationRepository(db)

	first, err := repo.NextApplicationSequence(db)
	require.NoError(t, err)
	second, err := repo.NextApplicationSequence(db)
	require.NoError(t, err)

	assert.Equal(t, int64(42), first)
	assert.Equal(t, int64(43), second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPostgres(t *testing.T) {
	assert.True(t, IsPostgres("postgres://u:p@localhost/db"))
	assert.True(t, IsPostgres("postgresql://u:p@localhost/db"))
	assert.False(t, IsPostgres("counseling.db"))
	assert.False(t, IsPostgres("file:x?mode=memory&cache=shared"))
}

func TestConnect_SQLiteMemory(t *testing.T) {
	db, err := ConnectWith("file:database_test?mode=memory&cache=shared", Options{Silent: true, MaxOpenConns: 1})
	require.NoError(t, err)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

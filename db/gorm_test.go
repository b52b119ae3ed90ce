package db

import (
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syncloop/config"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBUser:     "loop",
		DBPassword: "p@ss:word",
		DBHost:     "db.local",
		DBPort:     "3307",
		DBName:     "syncloop",
	}

	parsed, err := gomysql.ParseDSN(DSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "loop", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "db.local:3307", parsed.Addr)
	assert.Equal(t, "syncloop", parsed.DBName)
	assert.True(t, parsed.ParseTime)
}

package db

import (
	"context"
	"testing"

	"github.com/shelfwise-ai/shelfwise-backend/pkg/config"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), config.DBConfig{
		DSN:    "file::memory:?cache=shared",
		Driver: config.DriverSQLite,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, nil)
	require.Error(t, err)
}

func TestClientPing(t *testing.T) {
	client := newTestClient(t)
	require.NoError(t, client.Ping(context.Background()))
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.DB().Exec("CREATE TABLE tx_probe (id INTEGER PRIMARY KEY, name TEXT)").Error)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Exec("INSERT INTO tx_probe (name) VALUES ('kept')").Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, client.DB().Raw("SELECT COUNT(*) FROM tx_probe").Scan(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.DB().Exec("CREATE TABLE tx_rollback_probe (id INTEGER PRIMARY KEY, name TEXT)").Error)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Exec("INSERT INTO tx_rollback_probe (name) VALUES ('discarded')").Error; err != nil {
			return err
		}
		return context.Canceled
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, client.DB().Raw("SELECT COUNT(*) FROM tx_rollback_probe").Scan(&count).Error)
	require.EqualValues(t, 0, count)
}

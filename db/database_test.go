package db

import (
	"context"
	"errors"
	"testing"

	"users-server/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) Database {
	t.Helper()
	database, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func countUsers(t *testing.T, database Database) int64 {
	t.Helper()
	var n int64
	require.NoError(t, database.GetDB().Model(&entities.User{}).Count(&n).Error)
	return n
}

func TestTransaction_CommitsOnSuccess(t *testing.T) {
	database := openTestDB(t)

	err := database.Transaction(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&entities.User{UserName: "alice", ChatID: 100}).Error
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), countUsers(t, database))
}

func TestTransaction_RollsBackAndReturnsErrorUnchanged(t *testing.T) {
	database := openTestDB(t)
	boom := errors.New("boom")

	err := database.Transaction(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&entities.User{UserName: "alice", ChatID: 100}).Error; err != nil {
			return err
		}
		return boom
	})

	assert.Same(t, boom, err)
	assert.Equal(t, int64(0), countUsers(t, database))
}

func TestTransaction_RollsBackOnPanic(t *testing.T) {
	database := openTestDB(t)

	assert.Panics(t, func() {
		_ = database.Transaction(context.Background(), func(tx *gorm.DB) error {
			tx.Create(&entities.User{UserName: "alice", ChatID: 100})
			panic("handler exploded")
		})
	})

	assert.Equal(t, int64(0), countUsers(t, database))
}

func TestMigrate_UniqueKeysTranslateToDuplicatedKey(t *testing.T) {
	database := openTestDB(t)
	gdb := database.GetDB()

	require.NoError(t, gdb.Create(&entities.User{UserName: "alice", ChatID: 100}).Error)

	err := gdb.Create(&entities.User{UserName: "alice2", ChatID: 100}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	err = gdb.Create(&entities.User{UserName: "alice", ChatID: 101}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestMigrate_AdminExtensionFollowsUserRow(t *testing.T) {
	database := openTestDB(t)
	gdb := database.GetDB()

	orphan := gdb.Create(&entities.AdminAccount{ID: 42, HashedPassword: "x", IsActive: true}).Error
	assert.Error(t, orphan)

	user := entities.User{UserName: "root", ChatID: 1, Type: entities.TypeAdmin}
	require.NoError(t, gdb.Create(&user).Error)
	require.NoError(t, gdb.Create(&entities.AdminAccount{ID: user.ID, HashedPassword: "x", IsActive: true}).Error)

	require.NoError(t, gdb.Delete(&entities.User{}, user.ID).Error)

	var n int64
	require.NoError(t, gdb.Model(&entities.AdminAccount{}).Count(&n).Error)
	assert.Zero(t, n)
}

package db

import (
	"testing"

	"shaadi_planner/internal/config"
	"shaadi_planner/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	gdb, err := Open(&config.Config{DBDriver: "sqlite", DBPath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(gdb))

	for _, m := range Models() {
		assert.True(t, gdb.Migrator().HasTable(m))
	}

	user := domain.User{Mobile: "9876543210", Password: "x"}
	require.NoError(t, gdb.Create(&user).Error)
	room := domain.Room{UserID: user.ID, Name: "Room 1", Capacity: 2}
	require.NoError(t, gdb.Create(&room).Error)
	guest := domain.Guest{UserID: user.ID, Name: "Asha", RoomID: &room.ID}
	require.NoError(t, gdb.Create(&guest).Error)

	var loaded domain.Room
	require.NoError(t, gdb.Preload("Guests").First(&loaded, room.ID).Error)
	require.Len(t, loaded.Guests, 1)
	assert.Equal(t, "Asha", loaded.Guests[0].Name)
	assert.Equal(t, domain.GenderOther, loaded.Guests[0].Gender)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConversationCascade(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.AutoMigrate(&Conversation{}, &Message{}))

	conv := Conversation{EmailAddress: "jane@example.edu", UserName: "Jane"}
	require.NoError(t, db.Create(&conv).Error)
	require.NoError(t, db.Create(&Message{ConversationID: conv.ID, IsUser: true, Content: "hi"}).Error)

	assert.Error(t, db.Create(&Conversation{EmailAddress: "jane@example.edu"}).Error, "email is unique")

	require.NoError(t, db.Delete(&conv).Error)
	var n int64
	require.NoError(t, db.Model(&Message{}).Count(&n).Error)
	assert.Zero(t, n)
}

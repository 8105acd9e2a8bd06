package main

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &Config{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "quiz.db")}
	db, err := OpenDB(cfg)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func makeItems(n int) []Item {
	items := make([]Item, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, Item{
			Number:    fmt.Sprintf("%d", i),
			Name:      fmt.Sprintf("point-%02d", i),
			Reading:   fmt.Sprintf("reading-%02d", i),
			Category:  "head",
			ImageFile: "Scan_01.png",
		})
	}
	return items
}

func seedItems(t *testing.T, db *gorm.DB, n int) []Item {
	t.Helper()
	items := makeItems(n)
	if n > 0 {
		require.NoError(t, db.Create(&items).Error)
	}
	return items
}

func seedMastery(t *testing.T, db *gorm.DB, itemID uint, correct, incorrect int) {
	t.Helper()
	rec := MasteryRecord{ItemID: itemID, CorrectCount: correct, IncorrectCount: incorrect}
	require.NoError(t, db.Omit("Item").Create(&rec).Error)
}

func newTestEngine(t *testing.T, n int) (*Engine, []Item) {
	t.Helper()
	db := newTestDB(t)
	items := seedItems(t, db, n)
	seed := int64(1)
	eng := NewEngine(db, &seed)
	eng.now = func() time.Time { return fixedNow }
	return eng, items
}

func masteryFor(t *testing.T, eng *Engine, itemID uint) MasteryRecord {
	t.Helper()
	var rec MasteryRecord
	require.NoError(t, eng.db.Where("item_id = ?", itemID).Take(&rec).Error)
	return rec
}

func questionByID(t *testing.T, eng *Engine, id uint) SessionQuestion {
	t.Helper()
	var q SessionQuestion
	require.NoError(t, eng.db.Preload("Item").First(&q, id).Error)
	return q
}

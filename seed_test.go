package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `{
  "Scan_01.png": {
    "category": "頭部・頸部・顔面の急所",
    "points": [
      {"number": "1", "name": "天倒", "reading": "てんとう"},
      {"number": 2, "name": "烏兎", "reading": "うと"}
    ]
  },
  "Scan_02.png": {
    "category": "胴部の急所",
    "points": [
      {"number": "1", "name": "天倒", "reading": "てんとう"}
    ]
  }
}`

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCatalogJSON_CreatesThenUpdates(t *testing.T) {
	db := newTestDB(t)
	path := writeCatalog(t, catalogJSON)

	report, err := LoadCatalogJSON(db, path)
	require.NoError(t, err)
	assert.Equal(t, LoadReport{Created: 3}, report)

	var items []Item
	require.NoError(t, db.Order("id").Find(&items).Error)
	require.Len(t, items, 3)
	assert.Equal(t, "2", items[1].Number)
	assert.Equal(t, "Scan_01.png", items[1].ImageFile)

	// history must survive a reload: IDs stay put
	seedMastery(t, db, items[0].ID, 1, 2)

	report, err = LoadCatalogJSON(db, path)
	require.NoError(t, err)
	assert.Equal(t, LoadReport{Updated: 3}, report)

	var after []Item
	require.NoError(t, db.Order("id").Find(&after).Error)
	require.Len(t, after, 3)
	for i := range items {
		assert.Equal(t, items[i].ID, after[i].ID)
	}
	var n int64
	require.NoError(t, db.Model(&MasteryRecord{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestLoadCatalogJSON_UpdatesReadingAndCategory(t *testing.T) {
	db := newTestDB(t)
	_, err := LoadCatalogJSON(db, writeCatalog(t, catalogJSON))
	require.NoError(t, err)

	changed := `{"Scan_01.png": {"category": "head", "points": [{"number": "1", "name": "天倒", "reading": "テントウ"}]}}`
	report, err := LoadCatalogJSON(db, writeCatalog(t, changed))
	require.NoError(t, err)
	assert.Equal(t, LoadReport{Updated: 1}, report)

	var it Item
	require.NoError(t, db.Where("image_file = ? AND number = ?", "Scan_01.png", "1").Take(&it).Error)
	assert.Equal(t, "テントウ", it.Reading)
	assert.Equal(t, "head", it.Category)
}

func TestLoadCatalogJSON_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"Scan_01.png": [}`},
		{"missing name", `{"a.png": {"category": "x", "points": [{"number": "1", "reading": "r"}]}}`},
		{"duplicate point", `{"a.png": {"category": "x", "points": [
			{"number": "1", "name": "n", "reading": "r"},
			{"number": "1", "name": "n", "reading": "r"}]}}`},
		{"duplicate after trimming", `{"a.png": {"category": "x", "points": [
			{"number": "1", "name": "A", "reading": "r"},
			{"number": " 1 ", "name": " A", "reading": "r"}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			_, err := LoadCatalogJSON(db, writeCatalog(t, tt.body))
			require.Error(t, err)

			empty, err := IsItemTableEmpty(db)
			require.NoError(t, err)
			assert.True(t, empty)
		})
	}
}

func TestLoadCatalogJSON_MissingFile(t *testing.T) {
	_, err := LoadCatalogJSON(newTestDB(t), filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// ==== JSON input structures ====

// pointNumber accepts both "12" and 12 in the source file.
type pointNumber string

func (n *pointNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = pointNumber(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("point number: %w", err)
	}
	*n = pointNumber(num.String())
	return nil
}

type PointInput struct {
	Number  pointNumber `json:"number"`
	Name    string      `json:"name"`
	Reading string      `json:"reading"`
}

// ImageInput groups the points drawn on one image file.
type ImageInput struct {
	Category string       `json:"category"`
	Points   []PointInput `json:"points"`
}

type LoadReport struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// ==== Loader ====

// LoadCatalogJSON upserts items from a file shaped as
// {"<image file>": {"category": "...", "points": [...]}}. Items are keyed by
// (image file, number, name); existing rows keep their IDs so mastery
// history survives a reload.
func LoadCatalogJSON(db *gorm.DB, path string) (LoadReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return LoadReport{}, err
	}
	var images map[string]ImageInput
	if err := json.Unmarshal(raw, &images); err != nil {
		return LoadReport{}, fmt.Errorf("json parse: %w", err)
	}
	return loadCatalog(db, images)
}

func loadCatalog(db *gorm.DB, images map[string]ImageInput) (LoadReport, error) {
	files := make([]string, 0, len(images))
	for f := range images {
		files = append(files, f)
	}
	sort.Strings(files)

	// Basic validation: names present, keys unique
	seen := map[string]bool{}
	dups := []string{}
	for _, f := range files {
		for _, p := range images[f].Points {
			if strings.TrimSpace(p.Name) == "" {
				return LoadReport{}, fmt.Errorf("%s: point %q has no name", f, p.Number)
			}
			key := f + "|" + strings.TrimSpace(string(p.Number)) + "|" + strings.TrimSpace(p.Name)
			if seen[key] {
				dups = append(dups, key)
			}
			seen[key] = true
		}
	}
	if len(dups) > 0 {
		return LoadReport{}, fmt.Errorf("duplicate points in JSON: %v", dups)
	}

	var report LoadReport
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, f := range files {
			img := images[f]
			for _, p := range img.Points {
				name := strings.TrimSpace(p.Name)
				var it Item
				err := tx.Where("image_file = ? AND number = ? AND name = ?", f, string(p.Number), name).
					Take(&it).Error
				switch {
				case errors.Is(err, gorm.ErrRecordNotFound):
					it = Item{
						Number:    string(p.Number),
						Name:      name,
						Reading:   strings.TrimSpace(p.Reading),
						Category:  img.Category,
						ImageFile: f,
					}
					if err := tx.Create(&it).Error; err != nil {
						return err
					}
					report.Created++
				case err != nil:
					return err
				default:
					err := tx.Model(&it).Updates(map[string]any{
						"reading":  strings.TrimSpace(p.Reading),
						"category": img.Category,
					}).Error
					if err != nil {
						return err
					}
					report.Updated++
				}
			}
		}
		return nil
	})
	if err != nil {
		return LoadReport{}, err
	}
	return report, nil
}

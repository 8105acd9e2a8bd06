package main

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func LoadCatalog(db *gorm.DB) (*Catalog, error) {
	var items []Item
	if err := db.Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return NewCatalog(items), nil
}

func LoadLedger(db *gorm.DB) (Ledger, error) {
	var recs []MasteryRecord
	if err := db.Order("item_id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return Ledger(recs), nil
}

func findSession(db *gorm.DB, id string) (*Session, error) {
	var s Session
	if err := db.First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &s, nil
}

// recordAttempt upserts the mastery record for itemID inside tx. The row is
// read under lock and incremented in place; a missing row is inserted, and
// an insert that loses a race falls back to the increment.
func recordAttempt(tx *gorm.DB, itemID uint, correct bool, at time.Time) error {
	var rec MasteryRecord
	err := forUpdate(tx).Where("item_id = ?", itemID).Take(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec = MasteryRecord{ItemID: itemID, LastAttemptAt: &at}
		if correct {
			rec.CorrectCount = 1
		} else {
			rec.IncorrectCount = 1
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}},
			DoNothing: true,
		}).Omit("Item").Create(&rec)
		if res.Error != nil {
			return fmt.Errorf("create mastery record: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			return nil
		}
	case err != nil:
		return fmt.Errorf("lock mastery record: %w", err)
	}

	col := "incorrect_count"
	if correct {
		col = "correct_count"
	}
	err = tx.Model(&MasteryRecord{}).
		Where("item_id = ?", itemID).
		Updates(map[string]any{
			col:               gorm.Expr(col+" + ?", 1),
			"last_attempt_at": at,
		}).Error
	if err != nil {
		return fmt.Errorf("update mastery record: %w", err)
	}
	return nil
}

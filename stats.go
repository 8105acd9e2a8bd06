package main

import (
	"fmt"

	"gorm.io/gorm"
)

type Statistics struct {
	TotalCorrect   int64   `json:"totalCorrect"`
	TotalIncorrect int64   `json:"totalIncorrect"`
	TotalAttempts  int64   `json:"totalAttempts"`
	AccuracyRate   float64 `json:"accuracyRate"` // percent
}

// Accuracy is the overall correct/attempts ratio, 0 with no attempts.
func (s Statistics) Accuracy() float64 {
	if s.TotalAttempts == 0 {
		return 0
	}
	return float64(s.TotalCorrect) / float64(s.TotalAttempts)
}

func ComputeStatistics(db *gorm.DB) (Statistics, error) {
	type row struct {
		Correct   int64
		Incorrect int64
	}
	var r row
	err := db.Model(&MasteryRecord{}).
		Select("COALESCE(SUM(correct_count), 0) AS correct, COALESCE(SUM(incorrect_count), 0) AS incorrect").
		Scan(&r).Error
	if err != nil {
		return Statistics{}, fmt.Errorf("sum mastery: %w", err)
	}
	s := Statistics{
		TotalCorrect:   r.Correct,
		TotalIncorrect: r.Incorrect,
		TotalAttempts:  r.Correct + r.Incorrect,
	}
	s.AccuracyRate = s.Accuracy() * 100.0
	return s, nil
}

// WeakPoints ranks items the same way review sessions select them.
func WeakPoints(db *gorm.DB, limit int) ([]MasteryRecord, error) {
	var recs []MasteryRecord
	if err := db.Preload("Item").Where("incorrect_count > 0").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("load weak points: %w", err)
	}
	ranked := rankWeakPoints(recs)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func LearningHistory(db *gorm.DB) ([]MasteryRecord, error) {
	var recs []MasteryRecord
	if err := db.Preload("Item").Order("item_id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return recs, nil
}

func RecentTestResults(db *gorm.DB, limit int) ([]TestResult, error) {
	var out []TestResult
	if err := db.Order("completed_at DESC, id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("load test results: %w", err)
	}
	return out, nil
}

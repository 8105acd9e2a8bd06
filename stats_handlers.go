package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const recentResultsLimit = 10

type HistoryDTO struct {
	ID             uint       `json:"id"`
	Item           Item       `json:"item"`
	CorrectCount   int        `json:"correctCount"`
	IncorrectCount int        `json:"incorrectCount"`
	LastAttemptAt  *time.Time `json:"lastAttemptAt,omitempty"`
	AccuracyRate   float64    `json:"accuracyRate"` // percent
}

func toHistoryDTOs(recs []MasteryRecord) []HistoryDTO {
	out := make([]HistoryDTO, 0, len(recs))
	for _, r := range recs {
		out = append(out, HistoryDTO{
			ID:             r.ID,
			Item:           r.Item,
			CorrectCount:   r.CorrectCount,
			IncorrectCount: r.IncorrectCount,
			LastAttemptAt:  r.LastAttemptAt,
			AccuracyRate:   r.Accuracy() * 100.0,
		})
	}
	return out
}

func ListHistory(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := LearningHistory(eng.db.WithContext(c.Request.Context()))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toHistoryDTOs(recs))
	}
}

func Stats(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := ComputeStatistics(eng.db.WithContext(c.Request.Context()))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func ListWeakPoints(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := WeakPoints(eng.db.WithContext(c.Request.Context()), weakPointLimit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toHistoryDTOs(recs))
	}
}

func ListTestResults(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := RecentTestResults(eng.db.WithContext(c.Request.Context()), recentResultsLimit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
	}
}

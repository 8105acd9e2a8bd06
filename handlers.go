package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

/*** Error mapping shared across handlers ***/

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyReviewSet):
		c.JSON(http.StatusConflict, gin.H{"error": "empty_review_set"})
	case errors.Is(err, ErrSessionAlreadyCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "session_already_completed"})
	case errors.Is(err, ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "question_not_found"})
	case errors.Is(err, ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found"})
	case errors.Is(err, ErrInvalidMode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_mode"})
	default:
		log.Printf("request %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db"})
	}
}

/*** Sessions ***/

type StartSessionReq struct {
	Mode Mode `json:"mode"` // "test" (default) | "review"
}

func StartSession(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StartSessionReq
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
				return
			}
		}
		if req.Mode == "" {
			req.Mode = ModeTest
		}
		s, err := eng.StartSession(c.Request.Context(), req.Mode)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, s)
	}
}

// ListSessions returns sessions with pagination.
// Query params: ?limit=20&offset=0  (limit default 20, max 100)
func ListSessions(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		offset := 0
		if l := c.Query("limit"); l != "" {
			if n, err := strconv.Atoi(l); err == nil && n > 0 {
				if n > 100 {
					n = 100
				}
				limit = n
			}
		}
		if o := c.Query("offset"); o != "" {
			if n, err := strconv.Atoi(o); err == nil && n >= 0 {
				offset = n
			}
		}

		items, total, err := eng.ListSessions(c.Request.Context(), limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"total":  total,
			"limit":  limit,
			"offset": offset,
			"items":  items,
		})
	}
}

func GetSession(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := eng.GetSession(c.Request.Context(), sessionFrom(c).ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func DeleteSession(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := eng.DeleteSession(c.Request.Context(), sessionFrom(c).ID); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func CurrentQuestionHandler(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := eng.CurrentQuestion(c.Request.Context(), sessionFrom(c).ID)
		if errors.Is(err, ErrSessionExhausted) {
			c.JSON(http.StatusOK, gin.H{"exhausted": true, "message": "all questions answered"})
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, q)
	}
}

type SubmitAnswerReq struct {
	QuestionID     uint   `json:"questionId" binding:"required"`
	SelectedAnswer string `json:"selectedAnswer" binding:"required"`
}

func SubmitAnswer(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitAnswerReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
			return
		}
		res, err := eng.SubmitAnswer(c.Request.Context(), sessionFrom(c).ID, req.QuestionID, req.SelectedAnswer)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func PauseSession(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := eng.PauseSession(c.Request.Context(), sessionFrom(c).ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func ResumeSession(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := eng.ResumeSession(c.Request.Context(), sessionFrom(c).ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func CompleteSession(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		sum, err := eng.CompleteSession(c.Request.Context(), sessionFrom(c).ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}

/*** Catalog ***/

func ListItems(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var items []Item
		if err := eng.db.WithContext(c.Request.Context()).Order("id").Find(&items).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db"})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func GetItem(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad item id"})
			return
		}
		var it Item
		if err := eng.db.WithContext(c.Request.Context()).First(&it, uint(id)).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusOK, it)
	}
}

package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const sessionKey = "quizSession"

// RequireSession resolves the :id path parameter to a stored session and
// aborts with 404 when it does not exist.
func RequireSession(eng *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if id == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing session id"})
			return
		}
		s, err := findSession(eng.db.WithContext(c.Request.Context()), id)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session_not_found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "db"})
			return
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *Session {
	return c.MustGet(sessionKey).(*Session)
}

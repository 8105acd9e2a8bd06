package main

import (
	"time"
)

type Mode string

const (
	ModeTest   Mode = "test"
	ModeReview Mode = "review"
)

func (m Mode) Valid() bool {
	return m == ModeTest || m == ModeReview
}

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// --- Catalog ---

// Item is one vital point on a reference image. Rows are written by the
// catalog loader only.
type Item struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Number    string    `gorm:"size:10;not null;uniqueIndex:idx_item_key" json:"number"`
	Name      string    `gorm:"size:50;not null;index;uniqueIndex:idx_item_key" json:"name"`
	Reading   string    `gorm:"size:50;not null" json:"reading"`
	Category  string    `gorm:"size:100;not null" json:"category"`
	ImageFile string    `gorm:"size:255;not null;uniqueIndex:idx_item_key" json:"imageFile"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// --- Learning history ---

type MasteryRecord struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ItemID         uint       `gorm:"uniqueIndex;not null" json:"itemId"`
	Item           Item       `gorm:"constraint:OnDelete:RESTRICT" json:"item"`
	CorrectCount   int        `gorm:"not null;default:0" json:"correctCount"`
	IncorrectCount int        `gorm:"not null;default:0" json:"incorrectCount"`
	LastAttemptAt  *time.Time `json:"lastAttemptAt"`
	CreatedAt      time.Time  `json:"-"`
	UpdatedAt      time.Time  `json:"-"`
}

func (m MasteryRecord) Attempts() int {
	return m.CorrectCount + m.IncorrectCount
}

// Accuracy is correct/attempts in [0,1]; 0 when the item was never answered.
func (m MasteryRecord) Accuracy() float64 {
	if m.Attempts() == 0 {
		return 0
	}
	return float64(m.CorrectCount) / float64(m.Attempts())
}

func (m MasteryRecord) IncorrectRatio() float64 {
	if m.Attempts() == 0 {
		return 0
	}
	return float64(m.IncorrectCount) / float64(m.Attempts())
}

// --- Sessions ---

type Session struct {
	ID           string            `gorm:"primaryKey;size:36" json:"id"`
	Status       Status            `gorm:"size:16;not null;index" json:"status"`
	Mode         Mode              `gorm:"size:16;not null" json:"mode"`
	StartedAt    time.Time         `gorm:"not null;index" json:"startedAt"`
	CompletedAt  *time.Time        `json:"completedAt"`
	CurrentIndex int               `gorm:"not null;default:0" json:"currentIndex"`
	Questions    []SessionQuestion `gorm:"constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

type SessionQuestion struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	SessionID    string `gorm:"size:36;not null;uniqueIndex:idx_session_order" json:"-"`
	ItemID       uint   `gorm:"not null;index" json:"-"`
	Item         Item   `json:"item"`
	Order        int    `gorm:"column:question_order;not null;uniqueIndex:idx_session_order" json:"order"` // 1..N
	IsAnswered   bool   `gorm:"not null;default:false" json:"isAnswered"`
	IsCorrect    bool   `gorm:"not null;default:false" json:"isCorrect"`
	AttemptCount int    `gorm:"not null;default:0" json:"attemptCount"`
}

// TestResult is written once, when a test-mode session completes.
type TestResult struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SessionID      string    `gorm:"size:36;not null;uniqueIndex" json:"sessionId"`
	CompletedAt    time.Time `gorm:"not null;index" json:"completedAt"`
	TotalQuestions int       `gorm:"not null" json:"totalQuestions"`
	CorrectCount   int       `gorm:"not null" json:"correctCount"`
	IncorrectCount int       `gorm:"not null" json:"incorrectCount"`
	Score          int       `gorm:"not null" json:"score"`
}

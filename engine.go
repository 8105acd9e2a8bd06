package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Engine runs quiz sessions against the store. Every method is a single
// short unit of work; writes that touch a session or a mastery record run
// in a transaction holding that row.
type Engine struct {
	db  *gorm.DB
	now func() time.Time

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

func NewEngine(db *gorm.DB, seed *int64) *Engine {
	return &Engine{db: db, now: time.Now, rng: newRand(seed)}
}

// Reseed replaces the random source, e.g. to replay a shuffle.
func (e *Engine) Reseed(seed int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng = rand.New(rand.NewSource(seed))
}

func (e *Engine) withRand(fn func(r *rand.Rand)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.rng)
}

// StartSession selects items for mode and persists a new active session.
// Nothing is written when selection fails.
func (e *Engine) StartSession(ctx context.Context, mode Mode) (*Session, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	db := e.db.WithContext(ctx)

	catalog, err := LoadCatalog(db)
	if err != nil {
		return nil, err
	}
	ledger, err := LoadLedger(db)
	if err != nil {
		return nil, err
	}

	var items []Item
	var selErr error
	e.withRand(func(r *rand.Rand) {
		items, selErr = SelectQuestionSet(mode, catalog, ledger, r)
	})
	if selErr != nil {
		return nil, selErr
	}

	session := Session{
		ID:        uuid.New().String(),
		Status:    StatusActive,
		Mode:      mode,
		StartedAt: e.now(),
	}
	questions := make([]SessionQuestion, 0, len(items))
	for i, it := range items {
		questions = append(questions, SessionQuestion{
			SessionID: session.ID,
			ItemID:    it.ID,
			Order:     i + 1,
		})
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Questions").Create(&session).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		return tx.Omit("Item").CreateInBatches(&questions, 100).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	for i := range questions {
		questions[i].Item = items[i]
	}
	session.Questions = questions
	log.Printf("session %s started: mode=%s questions=%d", session.ID, mode, len(questions))
	return &session, nil
}

// GetSession loads a session with its questions in order.
func (e *Engine) GetSession(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := e.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("question_order") }).
		Preload("Questions.Item").
		First(&s, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// ListSessions returns sessions newest first, without questions.
func (e *Engine) ListSessions(ctx context.Context, limit, offset int) ([]Session, int64, error) {
	db := e.db.WithContext(ctx)
	var total int64
	if err := db.Model(&Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}
	var sessions []Session
	if err := db.Order("started_at DESC").Limit(limit).Offset(offset).Find(&sessions).Error; err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, total, nil
}

// DeleteSession removes a session together with its questions and result.
func (e *Engine) DeleteSession(ctx context.Context, id string) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findSession(forUpdate(tx), id); err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&TestResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&SessionQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Session{}, "id = ?", id).Error
	})
}

type CurrentQuestion struct {
	QuestionID     uint     `json:"questionId"`
	Order          int      `json:"order"`
	ImageFile      string   `json:"imageFile"`
	Number         string   `json:"number"`
	Choices        []Choice `json:"choices"`
	TotalQuestions int      `json:"totalQuestions"`
	AnsweredCount  int      `json:"answeredCount"`
}

// CurrentQuestion returns the first unanswered question with a fresh set
// of choices, or ErrSessionExhausted once every question is answered.
func (e *Engine) CurrentQuestion(ctx context.Context, sessionID string) (*CurrentQuestion, error) {
	db := e.db.WithContext(ctx)
	s, err := findSession(db, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status == StatusCompleted {
		return nil, ErrSessionAlreadyCompleted
	}

	var qs []SessionQuestion
	if err := db.Where("session_id = ?", sessionID).Order("question_order").Find(&qs).Error; err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	var current *SessionQuestion
	answered := 0
	for i := range qs {
		if qs[i].IsAnswered {
			answered++
		} else if current == nil {
			current = &qs[i]
		}
	}
	if current == nil {
		return nil, ErrSessionExhausted
	}

	catalog, err := LoadCatalog(db)
	if err != nil {
		return nil, err
	}
	item, ok := catalog.Get(current.ItemID)
	if !ok {
		return nil, fmt.Errorf("item %d missing from catalog", current.ItemID)
	}

	var choices []Choice
	e.withRand(func(r *rand.Rand) {
		choices = BuildChoices(item, catalog, r)
	})
	return &CurrentQuestion{
		QuestionID:     current.ID,
		Order:          current.Order,
		ImageFile:      item.ImageFile,
		Number:         item.Number,
		Choices:        choices,
		TotalQuestions: len(qs),
		AnsweredCount:  answered,
	}, nil
}

type AnswerResult struct {
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
}

// SubmitAnswer scores one attempt. Every call counts: attempt_count grows,
// the latest outcome replaces is_correct and the ledger is incremented.
func (e *Engine) SubmitAnswer(ctx context.Context, sessionID string, questionID uint, selected string) (*AnswerResult, error) {
	var out AnswerResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := findSession(forUpdate(tx), sessionID)
		if err != nil {
			return err
		}
		if s.Status == StatusCompleted {
			return ErrSessionAlreadyCompleted
		}

		var q SessionQuestion
		err = forUpdate(tx).Where("id = ? AND session_id = ?", questionID, sessionID).Take(&q).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		if err != nil {
			return err
		}
		var item Item
		if err := tx.First(&item, q.ItemID).Error; err != nil {
			return fmt.Errorf("load item %d: %w", q.ItemID, err)
		}

		correct := isCorrectAnswer(selected, item.Name)
		now := e.now()

		err = tx.Model(&SessionQuestion{}).Where("id = ?", q.ID).Updates(map[string]any{
			"attempt_count": gorm.Expr("attempt_count + ?", 1),
			"is_answered":   true,
			"is_correct":    correct,
		}).Error
		if err != nil {
			return fmt.Errorf("update question: %w", err)
		}
		if err := tx.Model(&Session{}).Where("id = ?", sessionID).Update("current_index", q.Order).Error; err != nil {
			return fmt.Errorf("update session cursor: %w", err)
		}
		if err := recordAttempt(tx, item.ID, correct, now); err != nil {
			return err
		}

		out = AnswerResult{IsCorrect: correct, CorrectAnswer: item.Name}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *Engine) PauseSession(ctx context.Context, id string) (*Session, error) {
	return e.setStatus(ctx, id, StatusPaused)
}

func (e *Engine) ResumeSession(ctx context.Context, id string) (*Session, error) {
	return e.setStatus(ctx, id, StatusActive)
}

// setStatus flips a non-terminal session. The status guard in the WHERE
// clause makes the write a compare-and-set against completion.
func (e *Engine) setStatus(ctx context.Context, id string, status Status) (*Session, error) {
	db := e.db.WithContext(ctx)
	res := db.Model(&Session{}).
		Where("id = ? AND status <> ?", id, StatusCompleted).
		Update("status", status)
	if res.Error != nil {
		return nil, fmt.Errorf("update session status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := findSession(db, id); err != nil {
			return nil, err
		}
		return nil, ErrSessionAlreadyCompleted
	}
	return findSession(db, id)
}

type CompletionSummary struct {
	SessionID      string `json:"sessionId"`
	Mode           Mode   `json:"mode"`
	TotalQuestions int    `json:"totalQuestions"`
	CorrectCount   int    `json:"correctCount"`
	IncorrectCount int    `json:"incorrectCount"`
	Score          int    `json:"score"`
}

// CompleteSession closes a session and, in test mode, records its result.
// A second call fails with ErrSessionAlreadyCompleted.
func (e *Engine) CompleteSession(ctx context.Context, id string) (*CompletionSummary, error) {
	var sum CompletionSummary
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := findSession(forUpdate(tx), id)
		if err != nil {
			return err
		}
		if s.Status == StatusCompleted {
			return ErrSessionAlreadyCompleted
		}

		var total, correct int64
		if err := tx.Model(&SessionQuestion{}).Where("session_id = ?", id).Count(&total).Error; err != nil {
			return err
		}
		if err := tx.Model(&SessionQuestion{}).Where("session_id = ? AND is_correct = ?", id, true).Count(&correct).Error; err != nil {
			return err
		}

		now := e.now()
		res := tx.Model(&Session{}).
			Where("id = ? AND status <> ?", id, StatusCompleted).
			Updates(map[string]any{"status": StatusCompleted, "completed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSessionAlreadyCompleted
		}

		sum = CompletionSummary{
			SessionID:      id,
			Mode:           s.Mode,
			TotalQuestions: int(total),
			CorrectCount:   int(correct),
			IncorrectCount: int(total - correct),
			Score:          computeScore(int(correct), int(total)),
		}
		if s.Mode != ModeTest {
			return nil
		}
		return tx.Create(&TestResult{
			SessionID:      id,
			CompletedAt:    now,
			TotalQuestions: sum.TotalQuestions,
			CorrectCount:   sum.CorrectCount,
			IncorrectCount: sum.IncorrectCount,
			Score:          sum.Score,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	log.Printf("session %s completed: mode=%s score=%d (%d/%d)",
		id, sum.Mode, sum.Score, sum.CorrectCount, sum.TotalQuestions)
	return &sum, nil
}

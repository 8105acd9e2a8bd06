package main

import "errors"

var (
	ErrEmptyReviewSet          = errors.New("no items qualify for review")
	ErrQuestionNotFound        = errors.New("question not found in session")
	ErrSessionNotFound         = errors.New("session not found")
	ErrSessionAlreadyCompleted = errors.New("session already completed")
	ErrInvalidMode             = errors.New("invalid session mode")

	// ErrSessionExhausted is a normal terminal signal: every question has
	// been answered and the caller should complete the session.
	ErrSessionExhausted = errors.New("all questions answered")
)

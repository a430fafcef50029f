package service

import "github.com/pkg/errors"

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrSessionNotFound  = errors.New("practice session not found")
	ErrSessionCompleted = errors.New("practice session already completed")
	ErrDatabaseNotEmpty = errors.New("database already contains questions")
)

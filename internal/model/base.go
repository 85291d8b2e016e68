package model

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuestion    = errors.New("invalid question")
	ErrInvalidUserCommand = errors.New("invalid user command")
)

func GenerateUUID() string {
	return uuid.New().String()
}

// Package password хеширует и проверяет пароли операторов.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMismatch пароль не соответствует хэшу.
	ErrMismatch = errors.New("password mismatch")
	// ErrEmpty пустой пароль не принимается.
	ErrEmpty = errors.New("empty password")
)

// GetHash возвращает bcrypt-хэш пароля.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	if password == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmpty)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сверяет пароль с хэшем. Несовпадение и пустой хэш дают ErrMismatch,
// прочие ошибки bcrypt (битый хэш) возвращаются как есть.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if originalHash == "" {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

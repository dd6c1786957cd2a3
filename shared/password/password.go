package password

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var ErrEmpty = errors.New("password cannot be empty")

// Hash returns the bcrypt digest stored in users.password.
func Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmpty
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(digest), nil
}

// Matches reports whether plain is the password behind hash. A malformed
// hash never matches.
func Matches(plain, hash string) bool {
	if plain == "" || hash == "" {
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		log.Error().Err(err).Msg("stored password hash is malformed")
	}

	return err == nil
}

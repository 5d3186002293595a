package main

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = errors.New("invalid email or password")

const sessionDuration = 24 * time.Hour

// verifyCredentials is the only place the password scheme is known; swapping
// bcrypt for something else never touches a caller.
func (app *application) verifyCredentials(email, password string) (*user, error) {
	u, err := app.storage.getUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return u, nil
}

func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func (app *application) createSessionToken(u *user) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    u.ID,
		"expires_at": time.Now().Add(sessionDuration).Format(time.RFC3339),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(app.config.jwtSecret))
}

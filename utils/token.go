package authUtils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgrijalva/jwt-go"

	"briddhi-be/models"
)

// TokenTTL is how long an identity token stays valid.
const TokenTTL = 15 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims is the resolved identity carried by a bearer token.
type Claims struct {
	AccountID string
	Role      models.Role
}

func secret() ([]byte, error) {
	secretStr := os.Getenv("JWT_SECRET")
	if secretStr == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	return []byte(secretStr), nil
}

// GenerateToken signs a token carrying the account id and role claims
func GenerateToken(accountID string, role models.Role) (string, error) {
	jwtSecret, err := secret()
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   accountID,
		"role": string(role),
		"exp":  time.Now().Add(TokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies a bearer token and returns its identity claims.
// Expired, malformed, or tampered tokens all yield ErrInvalidToken.
func ParseToken(tokenString string) (Claims, error) {
	jwtSecret, err := secret()
	if err != nil {
		return Claims{}, err
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	id, _ := mapClaims["id"].(string)
	role, _ := mapClaims["role"].(string)
	if id == "" || (role != string(models.RoleCitizen) && role != string(models.RoleAdmin)) {
		return Claims{}, ErrInvalidToken
	}

	return Claims{AccountID: id, Role: models.Role(role)}, nil
}

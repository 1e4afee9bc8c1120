package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// GenerateSecureToken генерирует безопасный токен
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %v", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// GenerateExpirationTime генерирует время истечения срока действия
func GenerateExpirationTime(duration time.Duration) time.Time {
	return time.Now().Add(duration)
}

// IsExpired проверяет, истек ли срок действия
func IsExpired(expirationTime time.Time) bool {
	return time.Now().After(expirationTime)
}

package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const anonCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateRandomString generates a cryptographically secure random string
// using the provided charset and length
func GenerateRandomString(length int, charset string) string {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			panic(fmt.Sprintf("failed to generate random string: %v", err))
		}
		b[i] = charset[n.Int64()]
	}
	return string(b)
}

// GenerateAnonUsername is used when sign-up is submitted without a username.
// Format: anon-{8 lowercase alphanumerics}
func GenerateAnonUsername() string {
	return "anon-" + GenerateRandomString(8, anonCharset)
}

// ImageObjectName builds the storage object name for an uploaded image.
// Uploads are always re-encoded as JPEG, so the extension is fixed.
func ImageObjectName(userId string, now time.Time) string {
	return fmt.Sprintf("img_%s_%d.jpg", userId, now.UnixMilli())
}

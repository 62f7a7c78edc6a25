package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenMalformed = errors.New("malformed download token")
	ErrTokenSignature = errors.New("invalid download token signature")
	ErrTokenExpired   = errors.New("download token expired")
)

// SignedURLSigner creates and validates HMAC signed download tokens binding an
// export job to its stored file.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a token of the form jobID.expiry.path.signature.
func (s *SignedURLSigner) Generate(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("jobID and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	token := strings.Join([]string{jobID, exp, encodedPath, s.sign(jobID, exp, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Parse validates a token and returns the embedded metadata. With allowExpired
// the expiry check is skipped, which cleanup uses to locate stale files.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	jobID, exp, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(jobID, exp, encodedPath)), []byte(signature)) {
		return "", "", time.Time{}, ErrTokenSignature
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	expiresAt = time.Unix(expUnix, 0)
	if !allowExpired && s.now().After(expiresAt) {
		return "", "", time.Time{}, ErrTokenExpired
	}
	return jobID, string(rawPath), expiresAt, nil
}

func (s *SignedURLSigner) sign(jobID, exp, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(jobID + "|" + exp + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}

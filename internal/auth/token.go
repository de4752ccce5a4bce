package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// トークン種別ごとのエントロピー長（バイト）。
// code verifierはPKCE（RFC 7636）の最低エントロピー要件を満たす32バイトとする。
const (
	sessionIDBytes    = 20
	stateBytes        = 20
	codeVerifierBytes = 32
)

// GenerateToken は暗号的に安全な乱数をbyteLengthバイト取得し、
// パディングなしのURL-safe Base64でエンコードして返す。
// セッションID、OAuth state、PKCE code verifierの生成に使用する。
func GenerateToken(byteLength int) (string, error) {
	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateSessionID はセッションIDを生成する。
// 160ビットの乱数のため、ストアに対する一意性チェックは不要。
func GenerateSessionID() (string, error) {
	return GenerateToken(sessionIDBytes)
}

// GenerateState はCSRF対策用のstate値を生成する。
func GenerateState() (string, error) {
	return GenerateToken(stateBytes)
}

// GenerateCodeVerifier はPKCE code verifierを生成する。
func GenerateCodeVerifier() (string, error) {
	return GenerateToken(codeVerifierBytes)
}

// Package auth はBaaS層が発行するアクセストークンの検証を提供する。
// ログイン・トークン発行は上流のBaaSが担い、本サービスは共有シークレット
// によるHS256署名検証とユーザーIDの取り出しのみを行う。
package auth

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier はアクセストークンを検証し、操作主体のユーザーIDを取り出す。
type Verifier struct {
	secret []byte
}

// NewVerifier はVerifierを生成する。
// secretはトークン発行側と共有するHS256シークレット。
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// VerifyToken はトークンの署名と有効期限を検証し、subクレームの
// ユーザーIDを返す。検証に失敗した場合はエラーを返す。
// 署名方式はHS256のみ許可する（alg none等の混入を防ぐ）。
func (v *Verifier) VerifyToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return 0, fmt.Errorf("token verification failed: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, fmt.Errorf("token has no subject claim")
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("invalid subject claim: %q", sub)
	}

	return userID, nil
}

package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "dailybit/pkg/domain"
	dErrors "dailybit/pkg/domain-errors"
)

const tokenIssuer = "dailybit"

// Claims is the session cookie payload. Subject carries the account ID.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type signer struct {
	key []byte
}

func (s signer) sign(sess Session, now time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SessionID: sess.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.AccountID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.key)
}

func (s signer) verify(raw string, now time.Time) (id.AccountID, id.SessionID, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.key, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.AccountID{}, id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "session has expired")
		}
		return id.AccountID{}, id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return id.AccountID{}, id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session")
	}
	accountID, err := id.ParseAccountID(claims.Subject)
	if err != nil {
		return id.AccountID{}, id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session subject")
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return id.AccountID{}, id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session id")
	}
	return accountID, sessionID, nil
}

package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nurpe/weshare-leasing/internal/model"
)

var ErrInvalidToken = errors.New("invalid access token")

// Claims is the access-token payload issued by the identity service.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	Lang   string `json:"lang,omitempty"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

// Parse validates an HS256 token and returns the caller it identifies.
func (p *Parser) Parse(token string) (model.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Principal{}, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return model.Principal{}, ErrInvalidToken
	}
	if claims.UserID <= 0 {
		return model.Principal{}, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}

	role := model.Role(strings.ToLower(strings.TrimSpace(claims.Role)))
	switch role {
	case model.RoleSuperAdmin, model.RoleAdmin, model.RoleOfftaker, model.RoleInvestor:
	default:
		return model.Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return model.Principal{
		UserID:   claims.UserID,
		Role:     role,
		Language: strings.ToLower(strings.TrimSpace(claims.Lang)),
	}, nil
}

package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nurpe/snowops-costcontrol/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	TenantID          string `json:"tenant_id"`
	Role              string `json:"role"`
	UnlimitedApproval bool   `json:"unlimited_approval"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(token string) (model.Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return model.Principal{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: bad tenant_id", ErrInvalidToken)
	}

	return model.Principal{
		UserID:            userID,
		TenantID:          tenantID,
		Role:              strings.ToUpper(strings.TrimSpace(claims.Role)),
		UnlimitedApproval: claims.UnlimitedApproval,
	}, nil
}

// Issue signs a token for principal. Used by tooling and tests; the service
// itself only verifies tokens.
func (p *Parser) Issue(principal model.Principal, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = principal.UserID.String()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		TenantID:          principal.TenantID.String(),
		Role:              principal.Role,
		UnlimitedApproval: principal.UnlimitedApproval,
		RegisteredClaims:  claims,
	})
	return token.SignedString(p.secret)
}

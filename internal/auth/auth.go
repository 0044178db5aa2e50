package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teamflow/internal/core/ports"
	"teamflow/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "teamflow"

// Claims carried in bearer tokens.
type Claims struct {
	UserID uuid.UUID `json:"uid"`
	jwt.RegisteredClaims
}

// Service is the single place tokens are verified and workspace access is
// decided. HTTP middleware and the workflow service both receive it.
type Service struct {
	secret  []byte
	ttl     time.Duration
	members ports.MembershipRepository
	now     func() time.Time
}

func NewService(secret string, ttl time.Duration, members ports.MembershipRepository) *Service {
	return &Service{
		secret:  []byte(secret),
		ttl:     ttl,
		members: members,
		now:     time.Now,
	}
}

// IssueToken signs a token for userID. Used by the login flow and tests.
func (s *Service) IssueToken(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Authenticate verifies a raw bearer token and returns its user.
func (s *Service) Authenticate(raw string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}
	if claims.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: token has no user", domain.ErrUnauthenticated)
	}
	return claims.UserID, nil
}

// AuthorizeWorkspace returns nil when userID belongs to workspaceID and an
// error wrapping domain.ErrPreconditionDenied when it does not.
func (s *Service) AuthorizeWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error {
	ok, err := s.members.IsMember(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Denied("not a member of this workspace")
	}
	return nil
}

var errNoBearer = errors.New("missing bearer token")

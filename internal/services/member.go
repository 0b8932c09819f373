package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clubevents/internal/domain"
)

type memberService struct {
	users          domain.UserRepository
	contextTimeout time.Duration
}

// NewMemberService returns a MemberService that upserts the user row behind a token
// subject so participations can reference it.
func NewMemberService(users domain.UserRepository, timeout time.Duration) domain.MemberService {
	return &memberService{users: users, contextTimeout: timeout}
}

func (s *memberService) EnsureMember(ctx context.Context, claims domain.AuthClaims) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if strings.TrimSpace(claims.UserID) == "" {
		return nil, fmt.Errorf("%w: token subject is empty", domain.ErrInvalidInput)
	}
	u := &domain.User{ID: claims.UserID, Email: strings.TrimSpace(claims.Email)}
	if err := s.users.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("upsert member %s: %w", claims.UserID, err)
	}
	return u, nil
}

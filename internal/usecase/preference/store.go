package preference

import (
	"context"
	"errors"
	"fmt"

	"loancrm/internal/domain/notification"
	"loancrm/internal/domain/preference"
)

var ErrInvalidInput = errors.New("invalid preference input")

// Store hands out preferences, creating the default row on first access.
type Store struct {
	repo preference.Repository
}

func NewStore(repo preference.Repository) *Store { return &Store{repo: repo} }

// Patch carries only the flags the caller wants to change.
type Patch struct {
	Matrix       preference.Matrix `json:"matrix"`
	DailyDigest  *bool             `json:"daily_digest"`
	WeeklyDigest *bool             `json:"weekly_digest"`
}

func (s *Store) GetOrCreate(ctx context.Context, userID uint64) (*preference.Preferences, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, preference.ErrNotFound) {
		return nil, err
	}
	// a concurrent first access may win the insert; re-read whatever landed
	if err := s.repo.Create(ctx, preference.Defaults(userID)); err != nil {
		return nil, err
	}
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Store) Update(ctx context.Context, userID uint64, patch Patch) (*preference.Preferences, error) {
	for c, row := range patch.Matrix {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, c)
		}
		for ch := range row {
			if ch != notification.ChannelInApp && ch != notification.ChannelEmail {
				return nil, fmt.Errorf("%w: unknown channel %q", ErrInvalidInput, ch)
			}
		}
	}

	p, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	for c, row := range patch.Matrix {
		for ch, on := range row {
			p.Set(c, ch, on)
		}
	}
	if patch.DailyDigest != nil {
		p.DailyDigest = *patch.DailyDigest
	}
	if patch.WeeklyDigest != nil {
		p.WeeklyDigest = *patch.WeeklyDigest
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

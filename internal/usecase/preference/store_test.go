package preference

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loancrm/internal/domain/notification"
	domain "loancrm/internal/domain/preference"
	"loancrm/internal/testutil/preferencemock"
)

func TestGetOrCreate_CreatesDefaultsOnce(t *testing.T) {
	repo := &preferencemock.Repo{}
	s := NewStore(repo)

	p, err := s.GetOrCreate(context.Background(), 8)
	require.NoError(t, err)
	assert.True(t, p.InApp(notification.CategorySystem))
	assert.False(t, p.Email(notification.CategorySystem))
	assert.True(t, p.Email(notification.CategoryRepaymentOverdue))
	assert.False(t, p.DailyDigest)

	p.Set(notification.CategorySystem, notification.ChannelInApp, false)
	require.NoError(t, repo.Save(context.Background(), p))

	again, err := s.GetOrCreate(context.Background(), 8)
	require.NoError(t, err)
	assert.False(t, again.InApp(notification.CategorySystem))
}

func TestGetOrCreate_PropagatesReadError(t *testing.T) {
	boom := errors.New("db down")
	s := NewStore(&preferencemock.Repo{
		GetByUserIDFn: func(context.Context, uint64) (*domain.Preferences, error) { return nil, boom },
	})
	_, err := s.GetOrCreate(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}

func TestUpdate_PatchesOnlyGivenFlags(t *testing.T) {
	s := NewStore(&preferencemock.Repo{})
	on := true

	p, err := s.Update(context.Background(), 4, Patch{
		Matrix: domain.Matrix{
			notification.CategoryDocumentUploaded: {notification.ChannelEmail: true},
			notification.CategoryNoteReminder:     {notification.ChannelInApp: false},
		},
		WeeklyDigest: &on,
	})
	require.NoError(t, err)
	assert.True(t, p.Email(notification.CategoryDocumentUploaded))
	assert.True(t, p.InApp(notification.CategoryDocumentUploaded))
	assert.False(t, p.InApp(notification.CategoryNoteReminder))
	assert.True(t, p.Email(notification.CategoryNoteReminder))
	assert.True(t, p.WeeklyDigest)
	assert.False(t, p.DailyDigest)
}

func TestUpdate_RejectsUnknownKeys(t *testing.T) {
	s := NewStore(&preferencemock.Repo{})

	_, err := s.Update(context.Background(), 1, Patch{Matrix: domain.Matrix{"bogus": {notification.ChannelEmail: true}}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Update(context.Background(), 1, Patch{Matrix: domain.Matrix{notification.CategorySystem: {"sms": true}}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

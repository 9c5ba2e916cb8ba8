package career

import (
	"context"
	stderrors "errors"
	"time"

	"dreamforge/internal/auth"
	"dreamforge/internal/errors"
	"dreamforge/internal/store"
	"dreamforge/internal/types"
)

// CheckIn grants the daily XP bonus and extends the streak.
// With gamification.oncePerDay a second check-in on the same UTC day is rejected.
func (s *Service) CheckIn(ctx context.Context, p auth.Principal) (types.CheckInResult, error) {
	if err := p.Require(); err != nil {
		return types.CheckInResult{}, err
	}

	xpGained := s.cfg.Gamification.CheckInXP
	if xpGained <= 0 {
		xpGained = 100
	}

	now := s.now().UTC()
	update := store.CheckInUpdate{
		XPGained:   xpGained,
		XPPerLevel: s.xpPerLevel(),
		At:         now,
	}
	if s.cfg.Gamification.OncePerDay {
		update.NotBefore = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	var user *store.User
	err := s.repo.Transaction(ctx, func(tx store.Repository) error {
		var err error
		user, err = tx.Users().RecordCheckIn(ctx, p.UserID, update)
		return err
	})
	if err != nil {
		s.record(ctx, EventCheckIn, false)
		if stderrors.Is(err, store.ErrAlreadyCheckedIn) {
			return types.CheckInResult{}, errors.NewValidationError(errors.ErrCodeAlreadyCheckedIn,
				"Already checked in today", err)
		}
		return types.CheckInResult{}, s.storeError(err, "failed to record check-in")
	}

	s.record(ctx, EventCheckIn, true)
	return types.CheckInResult{
		XPGained: xpGained,
		XP:       user.XP,
		Level:    user.Level,
		Streak:   user.Streak,
	}, nil
}

package career

import (
	"context"
	stderrors "errors"
	"strings"

	"dreamforge/internal/auth"
	"dreamforge/internal/errors"
	"dreamforge/internal/store"
	"dreamforge/internal/types"
)

const (
	defaultRole          = "student"
	onboardingLevel      = 2
	onboardingXP         = 100
	onboardingMatchScore = 15
)

// Register creates an account with a bcrypt password hash
func (s *Service) Register(ctx context.Context, input types.RegisterInput) (types.UserProfile, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = store.NormalizeEmail(input.Email)
	if err := s.validator.Validate(input); err != nil {
		return types.UserProfile{}, err
	}

	hash, err := auth.HashPassword(input.Password, s.cfg.Auth.BcryptCost)
	if err != nil {
		return types.UserProfile{}, err
	}

	user := &store.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: &hash,
		Role:         defaultRole,
		Level:        1,
	}
	if err := s.repo.Users().Create(ctx, user); err != nil {
		if stderrors.Is(err, store.ErrUserAlreadyExists) {
			return types.UserProfile{}, errors.NewValidationError(errors.ErrCodeUserExists, "User already exists", err).
				WithFields(map[string]string{"email": "already registered"})
		}
		return types.UserProfile{}, s.storeError(err, "failed to create user")
	}

	s.logger.Info("User registered", "user_id", user.ID)
	return user.Profile(), nil
}

// SignIn checks credentials and issues a session token.
// Unknown accounts and wrong passwords produce the same error.
func (s *Service) SignIn(ctx context.Context, email, password string) (types.Session, error) {
	input := types.SignInInput{Email: store.NormalizeEmail(email), Password: password}
	if err := s.validator.Validate(input); err != nil {
		return types.Session{}, err
	}

	invalid := errors.NewUnauthorizedError(errors.ErrCodeBadCredentials, "Invalid email or password", nil)

	user, err := s.repo.Users().FindByEmail(ctx, input.Email)
	if err != nil {
		if stderrors.Is(err, store.ErrUserNotFound) {
			return types.Session{}, invalid
		}
		return types.Session{}, s.storeError(err, "failed to load user")
	}
	if user.PasswordHash == nil || !auth.CheckPasswordHash(input.Password, *user.PasswordHash) {
		return types.Session{}, invalid
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return types.Session{}, err
	}
	return types.Session{Token: token, ExpiresAt: expiresAt, User: user.Profile()}, nil
}

// Onboard stores the onboarding answers and grants the starting level
func (s *Service) Onboard(ctx context.Context, p auth.Principal, input types.OnboardingInput) (types.UserProfile, error) {
	if err := p.Require(); err != nil {
		return types.UserProfile{}, err
	}
	if err := s.validator.Validate(input); err != nil {
		return types.UserProfile{}, err
	}

	targetRole := strings.TrimSpace(input.TargetRole)
	matchScore := 0
	if targetRole != "" {
		matchScore = onboardingMatchScore
	}

	update := store.OnboardingUpdate{
		Name:        strings.TrimSpace(input.FullName),
		CurrentRole: strings.TrimSpace(input.ExperienceLevel),
		TargetRole:  targetRole,
		MatchScore:  matchScore,
		Level:       onboardingLevel,
		XP:          onboardingXP,
		Goals:       types.Goals{Bio: strings.TrimSpace(input.Bio)},
	}
	if err := s.repo.Users().ApplyOnboarding(ctx, p.UserID, update); err != nil {
		return types.UserProfile{}, s.storeError(err, "failed to save onboarding")
	}

	user, err := s.loadUser(ctx, s.repo, p)
	if err != nil {
		return types.UserProfile{}, err
	}
	return user.Profile(), nil
}

// Profile returns the user and their linked skills
func (s *Service) Profile(ctx context.Context, p auth.Principal) (types.ProfileView, error) {
	if err := p.Require(); err != nil {
		return types.ProfileView{}, err
	}

	user, err := s.loadUser(ctx, s.repo, p)
	if err != nil {
		return types.ProfileView{}, err
	}
	skills, err := s.repo.Skills().ListUserSkills(ctx, p.UserID)
	if err != nil {
		return types.ProfileView{}, s.storeError(err, "failed to load skills")
	}
	if skills == nil {
		skills = []types.SkillView{}
	}
	return types.ProfileView{User: user.Profile(), Skills: skills}, nil
}

package store

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"dreamforge/internal/config"
	"dreamforge/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(context.Background(), db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func createUser(t *testing.T, repo *GormRepository, email string) *User {
	t.Helper()
	user := &User{Name: "Asha Rao", Email: email}
	require.NoError(t, repo.Users().Create(context.Background(), user))
	return user
}

func TestUserCreateDefaultsAndDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	user := createUser(t, repo, "  Asha@Example.com ")
	assert.NotEmpty(t, user.ID)

	stored, err := repo.Users().FindByEmail(ctx, "ASHA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", stored.Email)
	assert.Equal(t, "student", stored.Role)
	assert.Equal(t, 1, stored.Level)
	assert.Equal(t, 0, stored.XP)
	assert.Equal(t, 0, stored.MatchScore)
	assert.Nil(t, stored.PasswordHash)

	err = repo.Users().Create(ctx, &User{Name: "Other", Email: "asha@EXAMPLE.com"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = repo.Users().FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLinkSkillIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	user := createUser(t, repo, "dev@example.com")

	require.NoError(t, repo.Skills().LinkSkill(ctx, user.ID, SkillLink{Name: "Go", Category: "backend", Proficiency: 6, Verified: true}))
	require.NoError(t, repo.Skills().LinkSkill(ctx, user.ID, SkillLink{Name: "Go", Category: "backend", Proficiency: 8, Verified: true}))

	skills, err := repo.Skills().ListUserSkills(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, types.SkillView{Name: "Go", Category: "backend", Proficiency: 8, Verified: true}, skills[0])

	var catalog int64
	require.NoError(t, repo.db.Model(&Skill{}).Count(&catalog).Error)
	assert.Equal(t, int64(1), catalog)
}

func TestSkillNamesAreCaseSensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	user := createUser(t, repo, "dev@example.com")

	require.NoError(t, repo.Skills().LinkSkill(ctx, user.ID, SkillLink{Name: "Go", Proficiency: 5}))
	require.NoError(t, repo.Skills().LinkSkill(ctx, user.ID, SkillLink{Name: "go", Proficiency: 3}))

	skills, err := repo.Skills().ListUserSkills(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, skills, 2)
	assert.Equal(t, "Go", skills[0].Name)
	assert.Equal(t, "core", skills[1].Category, "empty category defaults to core")
}

func TestSharedSkillCatalog(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	first := createUser(t, repo, "one@example.com")
	second := createUser(t, repo, "two@example.com")

	require.NoError(t, repo.Skills().LinkSkill(ctx, first.ID, SkillLink{Name: "Kubernetes", Category: "cloud", Proficiency: 4}))
	require.NoError(t, repo.Skills().LinkSkill(ctx, second.ID, SkillLink{Name: "Kubernetes", Category: "ai", Proficiency: 9}))

	skills, err := repo.Skills().ListUserSkills(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "cloud", skills[0].Category, "existing catalog entry is reused as is")
	assert.Equal(t, 9, skills[0].Proficiency)
}

func TestRecordCheckIn(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	user := createUser(t, repo, "streak@example.com")
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	checkIn := func(update CheckInUpdate) (*User, error) {
		var out *User
		err := repo.Transaction(ctx, func(tx Repository) error {
			u, err := tx.Users().RecordCheckIn(ctx, user.ID, update)
			out = u
			return err
		})
		return out, err
	}

	update := CheckInUpdate{XPGained: 100, XPPerLevel: 1000, At: at}

	first, err := checkIn(update)
	require.NoError(t, err)
	assert.Equal(t, 100, first.XP)
	assert.Equal(t, 1, first.Streak)

	second, err := checkIn(update)
	require.NoError(t, err)
	assert.Equal(t, 200, second.XP)
	assert.Equal(t, 2, second.Streak)
	assert.Equal(t, second.XP/1000+1, second.Level)

	var last *User
	for i := 0; i < 8; i++ {
		last, err = checkIn(update)
		require.NoError(t, err)
	}
	assert.Equal(t, 1000, last.XP)
	assert.Equal(t, 2, last.Level)
	assert.Equal(t, 10, last.Streak)

	var entries int64
	require.NoError(t, repo.db.Model(&CheckIn{}).Where("user_id = ?", user.ID).Count(&entries).Error)
	assert.Equal(t, int64(10), entries)

	t.Run("once per day guard", func(t *testing.T) {
		dayStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		guarded := CheckInUpdate{XPGained: 100, XPPerLevel: 1000, At: at.Add(time.Hour), NotBefore: dayStart}

		_, err := checkIn(guarded)
		assert.ErrorIs(t, err, ErrAlreadyCheckedIn)

		nextDay := CheckInUpdate{XPGained: 100, XPPerLevel: 1000, At: at.Add(24 * time.Hour), NotBefore: dayStart.Add(24 * time.Hour)}
		u, err := checkIn(nextDay)
		require.NoError(t, err)
		assert.Equal(t, 1100, u.XP)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := repo.Transaction(ctx, func(tx Repository) error {
			_, err := tx.Users().RecordCheckIn(ctx, uuid.NewString(), update)
			return err
		})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestApplyAnalysisAndProfile(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	user := createUser(t, repo, "analysis@example.com")

	fresh, err := repo.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	profile := fresh.Profile()
	assert.Nil(t, profile.ProfessionalAnalysis)
	assert.Nil(t, profile.CareerInsights)

	update := AnalysisUpdate{
		Level:       4,
		XP:          4000,
		CurrentRole: "Backend Engineer",
		Location:    "Pune",
		MatchScore:  72,
		Analysis:    types.ProfessionalAnalysis{Strengths: []string{"APIs"}, Weaknesses: []string{"Frontend"}, MarketPosition: "Strong"},
		Insights:    types.CareerInsights{TargetRoles: []string{"Staff Engineer", "Platform Engineer"}, RecommendedResources: []types.Resource{}},
	}
	require.NoError(t, repo.Users().ApplyAnalysis(ctx, user.ID, update))
	require.NoError(t, repo.Users().ApplyOnboarding(ctx, user.ID, OnboardingUpdate{
		CurrentRole: "Backend Engineer", TargetRole: "Platform Engineer", MatchScore: 15, Level: 4, XP: 4000,
		Goals: types.Goals{Bio: "Ship infra"},
	}))

	stored, err := repo.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	profile = stored.Profile()
	assert.Equal(t, "Asha Rao", profile.Name, "empty onboarding name keeps the stored one")
	assert.Equal(t, "Pune", profile.Location)
	assert.Equal(t, "Ship infra", profile.Goals.Bio)
	require.NotNil(t, profile.ProfessionalAnalysis)
	assert.Equal(t, []string{"APIs"}, profile.ProfessionalAnalysis.Strengths)
	require.NotNil(t, profile.CareerInsights)
	assert.Equal(t, []string{"Staff Engineer", "Platform Engineer"}, stored.TargetRoles())

	err = repo.Users().ApplyAnalysis(ctx, uuid.NewString(), update)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	user := createUser(t, repo, "rollback@example.com")

	boom := stderrors.New("boom")
	err := repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.Users().ApplyAnalysis(ctx, user.ID, AnalysisUpdate{Level: 9, XP: 9000, MatchScore: 90}); err != nil {
			return err
		}
		if err := tx.Skills().LinkSkill(ctx, user.ID, SkillLink{Name: "Rust", Proficiency: 7}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := repo.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Level)
	assert.Equal(t, 0, stored.MatchScore)

	skills, err := repo.Skills().ListUserSkills(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, skills)
}

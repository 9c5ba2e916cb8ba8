package store

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"dreamforge/internal/types"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound      = stderrors.New("user not found")
	ErrUserAlreadyExists = stderrors.New("user already exists")
	ErrAlreadyCheckedIn  = stderrors.New("already checked in today")
)

// OnboardingUpdate holds the fields written by the onboarding form
type OnboardingUpdate struct {
	Name        string
	CurrentRole string
	TargetRole  string
	MatchScore  int
	Level       int
	XP          int
	Goals       types.Goals
}

// AnalysisUpdate holds the user fields written by resume ingestion
type AnalysisUpdate struct {
	Level       int
	XP          int
	CurrentRole string
	Location    string
	MatchScore  int
	Analysis    types.ProfessionalAnalysis
	Insights    types.CareerInsights
}

// CheckInUpdate describes one check-in
type CheckInUpdate struct {
	XPGained   int
	XPPerLevel int
	At         time.Time
	// NotBefore rejects the check-in when the previous one is at or after it. Zero disables the guard.
	NotBefore time.Time
}

// SkillLink is a skill to resolve by name and attach to a user
type SkillLink struct {
	Name        string
	Category    string
	Proficiency int
	Verified    bool
}

// UserRepository reads and writes user rows
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ApplyOnboarding(ctx context.Context, userID string, update OnboardingUpdate) error
	ApplyAnalysis(ctx context.Context, userID string, update AnalysisUpdate) error
	RecordCheckIn(ctx context.Context, userID string, update CheckInUpdate) (*User, error)
}

// SkillRepository manages the skill catalog and user links
type SkillRepository interface {
	LinkSkill(ctx context.Context, userID string, link SkillLink) error
	ListUserSkills(ctx context.Context, userID string) ([]types.SkillView, error)
}

// Repository groups the repositories that share one database handle
type Repository interface {
	Users() UserRepository
	Skills() SkillRepository
	// Transaction runs fn against repositories bound to a single transaction
	Transaction(ctx context.Context, fn func(tx Repository) error) error
}

// GormRepository implements Repository on gorm
type GormRepository struct {
	db *gorm.DB
}

// NewRepository wraps db
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Users() UserRepository {
	return &userRepository{db: r.db}
}

func (r *GormRepository) Skills() SkillRepository {
	return &skillRepository{db: r.db}
}

func (r *GormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user *User) error {
	user.Email = NormalizeEmail(user.Email)

	var count int64
	if err := r.db.WithContext(ctx).Model(&User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUserAlreadyExists
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", NormalizeEmail(email)).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ApplyOnboarding(ctx context.Context, userID string, update OnboardingUpdate) error {
	goals, err := encodeBlob(update.Goals)
	if err != nil {
		return err
	}

	fields := map[string]any{
		"current_role": update.CurrentRole,
		"target_role":  update.TargetRole,
		"match_score":  update.MatchScore,
		"level":        update.Level,
		"xp":           update.XP,
		"goals":        goals,
	}
	if update.Name != "" {
		fields["name"] = update.Name
	}

	return r.updateFields(ctx, userID, fields)
}

func (r *userRepository) ApplyAnalysis(ctx context.Context, userID string, update AnalysisUpdate) error {
	analysis, err := encodeBlob(update.Analysis)
	if err != nil {
		return err
	}
	insights, err := encodeBlob(update.Insights)
	if err != nil {
		return err
	}

	return r.updateFields(ctx, userID, map[string]any{
		"level":                 update.Level,
		"xp":                    update.XP,
		"current_role":          update.CurrentRole,
		"location":              update.Location,
		"match_score":           update.MatchScore,
		"professional_analysis": analysis,
		"career_insights":       insights,
	})
}

func (r *userRepository) updateFields(ctx context.Context, userID string, fields map[string]any) error {
	result := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RecordCheckIn increments xp and streak in one statement so concurrent check-ins
// never lose an increment. It must run inside a transaction to keep the log row consistent.
func (r *userRepository) RecordCheckIn(ctx context.Context, userID string, update CheckInUpdate) (*User, error) {
	db := r.db.WithContext(ctx)
	at := update.At.UTC()

	query := db.Model(&User{}).Where("id = ?", userID)
	if !update.NotBefore.IsZero() {
		query = query.Where("(last_check_in_at IS NULL OR last_check_in_at < ?)", update.NotBefore.UTC())
	}

	result := query.Updates(map[string]any{
		"xp":               gorm.Expr("xp + ?", update.XPGained),
		"level":            gorm.Expr("(xp + ?) / ? + 1", update.XPGained, update.XPPerLevel),
		"streak":           gorm.Expr("streak + 1"),
		"last_check_in_at": at,
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, userID); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyCheckedIn
	}

	entry := CheckIn{UserID: userID, XPGained: update.XPGained, CreatedAt: at}
	if err := db.Omit(clause.Associations).Create(&entry).Error; err != nil {
		return nil, err
	}

	return r.FindByID(ctx, userID)
}

type skillRepository struct {
	db *gorm.DB
}

// LinkSkill resolves the skill by exact name, creating it when absent, then upserts
// the (user, skill) link so repeated calls overwrite proficiency.
func (r *skillRepository) LinkSkill(ctx context.Context, userID string, link SkillLink) error {
	db := r.db.WithContext(ctx)

	category := link.Category
	if category == "" {
		category = "core"
	}

	candidate := Skill{Name: link.Name, Category: category, Level: 1}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&candidate).Error; err != nil {
		return err
	}

	var skill Skill
	if err := db.Where("name = ?", link.Name).First(&skill).Error; err != nil {
		return err
	}

	userSkill := UserSkill{
		UserID:      userID,
		SkillID:     skill.ID,
		Proficiency: link.Proficiency,
		Verified:    link.Verified,
	}
	return db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "skill_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"proficiency", "verified", "updated_at"}),
	}).Create(&userSkill).Error
}

func (r *skillRepository) ListUserSkills(ctx context.Context, userID string) ([]types.SkillView, error) {
	var links []UserSkill
	err := r.db.WithContext(ctx).
		Preload("Skill").
		Where("user_id = ?", userID).
		Order("proficiency DESC").
		Order("created_at").
		Find(&links).Error
	if err != nil {
		return nil, err
	}

	views := make([]types.SkillView, 0, len(links))
	for _, l := range links {
		views = append(views, types.SkillView{
			Name:        l.Skill.Name,
			Category:    l.Skill.Category,
			Proficiency: l.Proficiency,
			Verified:    l.Verified,
		})
	}
	return views, nil
}

// NormalizeEmail lower-cases and trims an address for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

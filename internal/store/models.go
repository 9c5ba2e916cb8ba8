package store

import (
	"encoding/json"
	"time"

	"dreamforge/internal/types"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is a registered person and their career profile
type User struct {
	ID                   string  `gorm:"type:uuid;primaryKey"`
	Name                 string  `gorm:"size:120;not null"`
	Email                string  `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash         *string `gorm:"size:100"`
	Role                 string  `gorm:"size:32;not null;default:student"`
	CurrentRole          string  `gorm:"size:160"`
	TargetRole           string  `gorm:"size:160"`
	Level                int     `gorm:"not null;default:1"`
	XP                   int     `gorm:"column:xp;not null;default:0"`
	MatchScore           int     `gorm:"not null;default:0"`
	Streak               int     `gorm:"not null;default:0"`
	Location             string  `gorm:"size:160"`
	Goals                datatypes.JSON
	ProfessionalAnalysis datatypes.JSON
	CareerInsights       datatypes.JSON
	LastCheckInAt        *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Skill is a catalog entry. Name is the natural key and matched exactly.
type Skill struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Name        string `gorm:"size:160;not null;uniqueIndex"`
	Category    string `gorm:"size:32;not null;default:core"`
	Level       int    `gorm:"not null;default:1"`
	Description string `gorm:"size:500"`
	CreatedAt   time.Time
}

// UserSkill links a user to a skill with a proficiency of 1-10
type UserSkill struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	UserID      string `gorm:"type:uuid;not null;index:user_skill_idx,unique,priority:1"`
	SkillID     string `gorm:"type:uuid;not null;index:user_skill_idx,unique,priority:2"`
	Proficiency int    `gorm:"not null;default:1"`
	Verified    bool   `gorm:"not null;default:false"`
	User        User   `gorm:"constraint:OnDelete:CASCADE"`
	Skill       Skill  `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CheckIn is one daily check-in, kept for streak history
type CheckIn struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	UserID    string `gorm:"type:uuid;not null;index"`
	XPGained  int    `gorm:"column:xp_gained;not null"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = "student"
	}
	if u.Level == 0 {
		u.Level = 1
	}
	return nil
}

func (s *Skill) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (us *UserSkill) BeforeCreate(*gorm.DB) error {
	if us.ID == "" {
		us.ID = uuid.NewString()
	}
	return nil
}

func (c *CheckIn) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// AllModels lists every table for migration
func AllModels() []any {
	return []any{&User{}, &Skill{}, &UserSkill{}, &CheckIn{}}
}

// Profile converts the row to its public view. Undecodable blobs are left empty.
func (u *User) Profile() types.UserProfile {
	p := types.UserProfile{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		CurrentRole:   u.CurrentRole,
		TargetRole:    u.TargetRole,
		Level:         u.Level,
		XP:            u.XP,
		MatchScore:    u.MatchScore,
		Streak:        u.Streak,
		Location:      u.Location,
		LastCheckInAt: u.LastCheckInAt,
	}

	_ = decodeBlob(u.Goals, &p.Goals)

	var analysis types.ProfessionalAnalysis
	if decodeBlob(u.ProfessionalAnalysis, &analysis) {
		p.ProfessionalAnalysis = &analysis
	}
	var insights types.CareerInsights
	if decodeBlob(u.CareerInsights, &insights) {
		p.CareerInsights = &insights
	}
	return p
}

// TargetRoles returns the roles used for job matching: the stored insight roles
// followed by the explicit target role, without duplicates.
func (u *User) TargetRoles() []string {
	var roles []string
	seen := map[string]bool{}
	add := func(r string) {
		if r == "" || seen[r] {
			return
		}
		seen[r] = true
		roles = append(roles, r)
	}

	var insights types.CareerInsights
	if decodeBlob(u.CareerInsights, &insights) {
		for _, r := range insights.TargetRoles {
			add(r)
		}
	}
	add(u.TargetRole)
	return roles
}

func decodeBlob(raw datatypes.JSON, target any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, target) == nil
}

func encodeBlob(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

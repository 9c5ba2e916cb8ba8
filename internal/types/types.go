package types

import "time"

// ResumeAnalysisInput is the text sent to the model for skill extraction
type ResumeAnalysisInput struct {
	ResumeText string `json:"resumeText"`
}

// ExtractedSkill is one skill the model found in a resume
type ExtractedSkill struct {
	Name        string `json:"name"`
	Category    string `json:"category"`    // frontend, backend, core, cloud, ai
	Proficiency int    `json:"proficiency"` // 1-10
}

// ProfessionalAnalysis is the persisted strengths/weaknesses blob
type ProfessionalAnalysis struct {
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	MarketPosition string   `json:"marketPosition"`
}

// Resource is a learning resource recommended by the model
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// CareerInsights is the persisted advice blob
type CareerInsights struct {
	Immediate            string     `json:"immediate"`
	Strategic            string     `json:"strategic"`
	TargetRoles          []string   `json:"targetRoles"`
	RecommendedResources []Resource `json:"recommendedResources"`
}

// ResumeAnalysis is the validated result of a resume analysis
type ResumeAnalysis struct {
	Level       int                  `json:"level"` // 1-10
	CurrentRole string               `json:"currentRole"`
	Location    string               `json:"location"`
	Skills      []ExtractedSkill     `json:"skills"`
	Analysis    ProfessionalAnalysis `json:"analysis"`
	Insights    CareerInsights       `json:"insights"`
	MatchScore  int                  `json:"matchScore"` // 0-100
}

// AnalysisResult is returned to the caller after a resume was ingested
type AnalysisResult struct {
	Analysis     ResumeAnalysis `json:"analysis"`
	SkillsLinked int            `json:"skillsLinked"`
	XP           int            `json:"xp"`
}

// InterviewInput is one mock interview answer
type InterviewInput struct {
	Question   string `json:"question" validate:"required,notblank"`
	Transcript string `json:"transcript" validate:"required,notblank"`
}

// InterviewFeedback is the model's assessment of an interview answer
type InterviewFeedback struct {
	Percentile   int      `json:"percentile"` // 5-99
	Pace         string   `json:"pace"`       // Perfect, Fast, Steady, Deliberate
	Fillers      int      `json:"fillers"`
	Sentiment    string   `json:"sentiment"` // Decisive, Strategic, Collaborative, Analytical
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// ChatMessage is a single turn in an assistant conversation
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,notblank"`
}

// ChatContext carries the server-side facts about the user that the assistant may use
type ChatContext struct {
	Name        string `json:"name"`
	Level       int    `json:"level"`
	MatchScore  int    `json:"matchScore"`
	CurrentRole string `json:"currentRole"`
	TargetRole  string `json:"targetRole"`
}

// ChatInput is a conversation to continue
type ChatInput struct {
	Messages []ChatMessage `json:"messages"`
	Context  ChatContext   `json:"context"`
}

// ChatReply is the assistant's answer. Degraded replies come from the fallback path.
type ChatReply struct {
	Message  string `json:"message"`
	Degraded bool   `json:"degraded"`
}

// GapInput asks which skills separate a user from a target role
type GapInput struct {
	CurrentSkills []string `json:"currentSkills"`
	TargetRole    string   `json:"targetRole"`
}

// MissingSkill is one skill the user should acquire
type MissingSkill struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// GapResult lists the skills missing for a target role
type GapResult struct {
	TargetRole    string         `json:"targetRole"`
	MissingSkills []MissingSkill `json:"missingSkills"`
}

// CheckInResult is returned by the daily check-in
type CheckInResult struct {
	XPGained int `json:"xpGained"`
	XP       int `json:"xp"`
	Level    int `json:"level"`
	Streak   int `json:"streak"`
}

// Projection is a what-if career outcome
type Projection struct {
	Years           int    `json:"years"`
	Focus           string `json:"focus"`
	ProjectedSalary int    `json:"projectedSalary"`
	ProjectedLevel  int    `json:"projectedLevel"`
}

// JobPosting is a normalized, scored posting from any feed
type JobPosting struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Logo         string   `json:"logo"`
	Location     string   `json:"location"`
	Salary       string   `json:"salary"`
	Type         string   `json:"type"` // Full-time or Contract
	Match        int      `json:"match"`
	Requirements []string `json:"requirements"`
	URL          string   `json:"url"`
	Source       string   `json:"source"`
	Remote       bool     `json:"remote"`
}

// JobSearchResult wraps scored postings. Error is set when every feed failed.
type JobSearchResult struct {
	Query    string       `json:"query"`
	Location string       `json:"location"`
	Source   string       `json:"source,omitempty"`
	Jobs     []JobPosting `json:"jobs"`
	Error    string       `json:"error,omitempty"`
}

// Goals holds onboarding answers
type Goals struct {
	Bio string `json:"bio"`
}

// UserProfile is the public view of a user row
type UserProfile struct {
	ID                   string                `json:"id"`
	Name                 string                `json:"name"`
	Email                string                `json:"email"`
	Role                 string                `json:"role"`
	CurrentRole          string                `json:"currentRole"`
	TargetRole           string                `json:"targetRole"`
	Level                int                   `json:"level"`
	XP                   int                   `json:"xp"`
	MatchScore           int                   `json:"matchScore"`
	Streak               int                   `json:"streak"`
	Location             string                `json:"location"`
	Goals                Goals                 `json:"goals"`
	ProfessionalAnalysis *ProfessionalAnalysis `json:"professionalAnalysis,omitempty"`
	CareerInsights       *CareerInsights       `json:"careerInsights,omitempty"`
	LastCheckInAt        *time.Time            `json:"lastCheckInAt,omitempty"`
}

// SkillView is a skill linked to a user, as shown on the skill tree
type SkillView struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Proficiency int    `json:"proficiency"`
	Verified    bool   `json:"verified"`
}

// ProfileView is the dashboard payload
type ProfileView struct {
	User   UserProfile `json:"user"`
	Skills []SkillView `json:"skills"`
}

// RegisterInput carries a new account's credentials
type RegisterInput struct {
	Name     string `json:"name" validate:"required,notblank,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SignInInput carries login credentials
type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is an issued bearer token
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserProfile `json:"user"`
}

// OnboardingInput carries the onboarding form
type OnboardingInput struct {
	FullName        string `json:"fullName" validate:"max=120"`
	Bio             string `json:"bio" validate:"max=2000"`
	ExperienceLevel string `json:"experienceLevel" validate:"max=120"`
	TargetRole      string `json:"targetRole" validate:"max=120"`
}

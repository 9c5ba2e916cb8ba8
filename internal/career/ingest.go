package career

import (
	"context"
	"strings"

	"dreamforge/internal/ai"
	"dreamforge/internal/auth"
	"dreamforge/internal/documents"
	"dreamforge/internal/errors"
	"dreamforge/internal/store"
	"dreamforge/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// Ingest analyzes resume text and writes the result to the principal's profile.
// Nothing is written when the analysis fails or cannot be parsed.
func (s *Service) Ingest(ctx context.Context, p auth.Principal, resumeText string) (types.AnalysisResult, error) {
	if err := p.Require(); err != nil {
		return types.AnalysisResult{}, err
	}
	if strings.TrimSpace(resumeText) == "" {
		return types.AnalysisResult{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Resume text is required", nil).
			WithFields(map[string]string{"resumeText": "This field is required"})
	}

	// a deleted account must not cost a model call
	if _, err := s.loadUser(ctx, s.repo, p); err != nil {
		return types.AnalysisResult{}, err
	}

	input := types.ResumeAnalysisInput{ResumeText: truncateRunes(resumeText, s.cfg.Career.MaxResumeChars)}

	var analysis types.ResumeAnalysis
	err := s.trackAI(ctx, ai.OperationIngest, func(ctx context.Context) (*ai.TokenUsage, error) {
		var usage *ai.TokenUsage
		var err error
		analysis, usage, err = s.provider.AnalyzeResume(ctx, input)
		return usage, err
	})
	if err != nil {
		s.record(ctx, EventResumeIngested, false, attribute.String("error_type", string(errors.TypeOf(err))))
		s.logger.LogError(err, "Resume analysis failed", "user_id", p.UserID)
		return types.AnalysisResult{}, err
	}

	xp := analysis.Level * s.xpPerLevel()
	update := store.AnalysisUpdate{
		Level:       analysis.Level,
		XP:          xp,
		CurrentRole: analysis.CurrentRole,
		Location:    analysis.Location,
		MatchScore:  analysis.MatchScore,
		Analysis:    analysis.Analysis,
		Insights:    analysis.Insights,
	}

	linked := 0
	write := func(repo store.Repository) error {
		linked = 0
		if err := repo.Users().ApplyAnalysis(ctx, p.UserID, update); err != nil {
			return err
		}
		for _, skill := range analysis.Skills {
			if err := repo.Skills().LinkSkill(ctx, p.UserID, store.SkillLink{
				Name:        skill.Name,
				Category:    skill.Category,
				Proficiency: skill.Proficiency,
				Verified:    true,
			}); err != nil {
				return err
			}
			linked++
		}
		return nil
	}

	if s.cfg.Career.TransactionalIngest {
		err = s.repo.Transaction(ctx, write)
	} else {
		// independent writes; a rerun repairs a partial skill list
		err = write(s.repo)
	}
	if err != nil {
		s.record(ctx, EventResumeIngested, false, attribute.String("error_type", "store"))
		return types.AnalysisResult{}, s.storeError(err, "failed to save resume analysis")
	}

	s.record(ctx, EventResumeIngested, true, attribute.Int("skills", linked))
	s.logger.Info("Resume ingested", "user_id", p.UserID, "level", analysis.Level, "skills", linked)

	return types.AnalysisResult{Analysis: analysis, SkillsLinked: linked, XP: xp}, nil
}

// UploadResume extracts text from an uploaded file, archives the original when
// archiving is configured, and ingests the text
func (s *Service) UploadResume(ctx context.Context, p auth.Principal, filename, contentType string, data []byte) (types.AnalysisResult, error) {
	if err := p.Require(); err != nil {
		return types.AnalysisResult{}, err
	}

	doc, err := documents.Extract(filename, contentType, data)
	if err != nil {
		return types.AnalysisResult{}, err
	}

	if s.archiver != nil {
		key, err := s.archiver.Archive(ctx, p.UserID, filename, contentType, data)
		if err != nil {
			s.logger.LogError(err, "Resume archive failed, continuing", "user_id", p.UserID)
		} else {
			s.logger.Debug("Resume archived", "user_id", p.UserID, "key", key)
		}
	}

	return s.Ingest(ctx, p, doc.Text)
}

func (s *Service) xpPerLevel() int {
	if s.cfg.Gamification.XPPerLevel > 0 {
		return s.cfg.Gamification.XPPerLevel
	}
	return 1000
}

// truncateRunes cuts s to at most n runes. n <= 0 disables the limit.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

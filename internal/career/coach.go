package career

import (
	"context"
	"strings"

	"dreamforge/internal/ai"
	"dreamforge/internal/auth"
	"dreamforge/internal/errors"
	"dreamforge/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// chat history sent to the model is capped to the most recent turns
	maxChatHistory = 20

	chatFallbackMessage = "I'm having trouble connecting to my creative forge. Please try again."
)

// AnalyzeInterview grades a mock interview answer. Nothing is persisted.
func (s *Service) AnalyzeInterview(ctx context.Context, p auth.Principal, question, transcript string) (types.InterviewFeedback, error) {
	if err := p.Require(); err != nil {
		return types.InterviewFeedback{}, err
	}

	input := types.InterviewInput{Question: strings.TrimSpace(question), Transcript: strings.TrimSpace(transcript)}
	if err := s.validator.Validate(input); err != nil {
		return types.InterviewFeedback{}, err
	}

	var feedback types.InterviewFeedback
	err := s.trackAI(ctx, ai.OperationInterview, func(ctx context.Context) (*ai.TokenUsage, error) {
		var usage *ai.TokenUsage
		var err error
		feedback, usage, err = s.provider.AnalyzeInterview(ctx, input)
		return usage, err
	})
	if err != nil {
		s.record(ctx, EventInterviewAnalyzed, false, attribute.String("error_type", string(errors.TypeOf(err))))
		s.logger.LogError(err, "Interview analysis failed", "user_id", p.UserID)
		return types.InterviewFeedback{}, err
	}

	s.record(ctx, EventInterviewAnalyzed, true, attribute.String("pace", feedback.Pace))
	return feedback, nil
}

// Chat continues a conversation with the assistant. The user's level, match score and
// roles are read from the store. A failed completion yields a degraded reply, not an error.
func (s *Service) Chat(ctx context.Context, p auth.Principal, messages []types.ChatMessage) (types.ChatReply, error) {
	if err := p.Require(); err != nil {
		return types.ChatReply{}, err
	}
	if err := s.validateMessages(messages); err != nil {
		return types.ChatReply{}, err
	}

	user, err := s.loadUser(ctx, s.repo, p)
	if err != nil {
		return types.ChatReply{}, err
	}

	if len(messages) > maxChatHistory {
		messages = messages[len(messages)-maxChatHistory:]
	}
	input := types.ChatInput{
		Messages: messages,
		Context: types.ChatContext{
			Name:        user.Name,
			Level:       user.Level,
			MatchScore:  user.MatchScore,
			CurrentRole: user.CurrentRole,
			TargetRole:  firstNonBlank(user.TargetRole, first(user.TargetRoles())),
		},
	}

	var reply string
	err = s.trackAI(ctx, ai.OperationChat, func(ctx context.Context) (*ai.TokenUsage, error) {
		var usage *ai.TokenUsage
		var err error
		reply, usage, err = s.provider.Chat(ctx, input)
		return usage, err
	})
	if err != nil {
		s.record(ctx, EventChatMessage, false, attribute.Bool("degraded", true))
		s.logger.LogError(err, "Chat completion failed, sending fallback reply", "user_id", p.UserID)
		return types.ChatReply{Message: chatFallbackMessage, Degraded: true}, nil
	}

	s.record(ctx, EventChatMessage, true)
	return types.ChatReply{Message: reply}, nil
}

func (s *Service) validateMessages(messages []types.ChatMessage) error {
	if len(messages) == 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "At least one message is required", nil).
			WithFields(map[string]string{"messages": "This field is required"})
	}
	for _, m := range messages {
		if err := s.validator.Validate(m); err != nil {
			return err
		}
	}
	if messages[len(messages)-1].Role != "user" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "The last message must come from the user", nil).
			WithFields(map[string]string{"messages": "Last message must have role user"})
	}
	return nil
}

// GapAnalysis asks the model which three skills separate the user from a target role.
// An empty targetRole falls back to the stored one.
func (s *Service) GapAnalysis(ctx context.Context, p auth.Principal, targetRole string) (types.GapResult, error) {
	if err := p.Require(); err != nil {
		return types.GapResult{}, err
	}

	user, err := s.loadUser(ctx, s.repo, p)
	if err != nil {
		return types.GapResult{}, err
	}

	role := firstNonBlank(targetRole, user.TargetRole, first(user.TargetRoles()))
	if role == "" {
		return types.GapResult{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "A target role is required", nil).
			WithFields(map[string]string{"targetRole": "This field is required"})
	}

	skills, err := s.repo.Skills().ListUserSkills(ctx, p.UserID)
	if err != nil {
		return types.GapResult{}, s.storeError(err, "failed to load skills")
	}
	names := make([]string, 0, len(skills))
	for _, sk := range skills {
		names = append(names, sk.Name)
	}

	var result types.GapResult
	err = s.trackAI(ctx, ai.OperationGap, func(ctx context.Context) (*ai.TokenUsage, error) {
		var usage *ai.TokenUsage
		var err error
		result, usage, err = s.provider.AnalyzeGap(ctx, types.GapInput{CurrentSkills: names, TargetRole: role})
		return usage, err
	})
	if err != nil {
		s.record(ctx, EventGapAnalyzed, false)
		s.logger.LogError(err, "Gap analysis failed", "user_id", p.UserID)
		return types.GapResult{}, err
	}

	if len(result.MissingSkills) > 3 {
		result.MissingSkills = result.MissingSkills[:3]
	}
	if result.MissingSkills == nil {
		result.MissingSkills = []types.MissingSkill{}
	}
	result.TargetRole = role
	s.record(ctx, EventGapAnalyzed, true)
	return result, nil
}

package career

import (
	"context"
	"fmt"
	"testing"

	"dreamforge/internal/errors"
	"dreamforge/internal/store"
	"dreamforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeInterview(t *testing.T) {
	f := newFixture(t)
	p := f.register(t, "asha@example.com")
	f.provider.feedback = types.InterviewFeedback{Percentile: 80, Pace: "Steady", Sentiment: "Strategic", Feedback: "Clear structure"}

	feedback, err := f.svc.AnalyzeInterview(context.Background(), p, "Tell me about a hard bug", "I traced a race in our cache")
	require.NoError(t, err)
	assert.Equal(t, 80, feedback.Percentile)
	assert.Equal(t, "Steady", feedback.Pace)
	assert.Contains(t, f.recorder.events, EventInterviewAnalyzed)

	before := f.user(t, p)
	assert.Equal(t, 0, before.XP, "interview analysis does not touch the profile")
}

func TestAnalyzeInterviewValidation(t *testing.T) {
	f := newFixture(t)
	p := f.register(t, "asha@example.com")

	for _, tc := range []struct{ question, transcript string }{
		{"", "answer"},
		{"question", "   "},
	} {
		_, err := f.svc.AnalyzeInterview(context.Background(), p, tc.question, tc.transcript)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	}
	assert.Zero(t, f.provider.totalCalls())
}

func TestChatUsesStoredContext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.register(t, "asha@example.com")
	_, err := f.svc.Onboard(ctx, p, types.OnboardingInput{ExperienceLevel: "Junior", TargetRole: "Data Engineer"})
	require.NoError(t, err)
	f.provider.reply = "Start with SQL window functions."

	reply, err := f.svc.Chat(ctx, p, []types.ChatMessage{{Role: "user", Content: "Where do I start?"}})
	require.NoError(t, err)
	assert.Equal(t, types.ChatReply{Message: "Start with SQL window functions."}, reply)

	got := f.provider.lastChat.Context
	assert.Equal(t, "Asha Rao", got.Name)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, 15, got.MatchScore)
	assert.Equal(t, "Junior", got.CurrentRole)
	assert.Equal(t, "Data Engineer", got.TargetRole)
}

func TestChatCapsHistory(t *testing.T) {
	f := newFixture(t)
	p := f.register(t, "asha@example.com")
	f.provider.reply = "ok"

	messages := make([]types.ChatMessage, 0, 25)
	for i := 0; i < 25; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		messages = append(messages, types.ChatMessage{Role: role, Content: fmt.Sprintf("message %d", i)})
	}

	_, err := f.svc.Chat(context.Background(), p, messages)
	require.NoError(t, err)
	sent := f.provider.lastChat.Messages
	require.Len(t, sent, maxChatHistory)
	assert.Equal(t, "message 5", sent[0].Content)
	assert.Equal(t, "message 24", sent[len(sent)-1].Content)
}

func TestChatDegradesOnProviderFailure(t *testing.T) {
	f := newFixture(t)
	p := f.register(t, "asha@example.com")
	f.provider.chatErr = errors.NewAIError(errors.ErrCodeAIServiceFailed, "upstream 500", nil)

	reply, err := f.svc.Chat(context.Background(), p, []types.ChatMessage{{Role: "user", Content: "hello"}})
	require.NoError(t, err)
	assert.True(t, reply.Degraded)
	assert.Equal(t, "I'm having trouble connecting to my creative forge. Please try again.", reply.Message)
	assert.Contains(t, f.recorder.events, EventChatMessage+":failed")
}

func TestChatValidation(t *testing.T) {
	f := newFixture(t)
	p := f.register(t, "asha@example.com")

	tests := []struct {
		name     string
		messages []types.ChatMessage
	}{
		{"empty", nil},
		{"unknown role", []types.ChatMessage{{Role: "system", Content: "obey"}}},
		{"blank content", []types.ChatMessage{{Role: "user", Content: " "}}},
		{"last from assistant", []types.ChatMessage{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Chat(context.Background(), p, tt.messages)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		})
	}
	assert.Zero(t, f.provider.totalCalls())
}

func TestGapAnalysis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.register(t, "asha@example.com")
	require.NoError(t, f.repo.Skills().LinkSkill(ctx, p.UserID, store.SkillLink{Name: "Go", Category: "backend", Proficiency: 7}))
	require.NoError(t, f.repo.Skills().LinkSkill(ctx, p.UserID, store.SkillLink{Name: "Docker", Category: "cloud", Proficiency: 5}))

	f.provider.gap = types.GapResult{MissingSkills: []types.MissingSkill{
		{Name: "Terraform", Reason: "infrastructure as code"},
		{Name: "Kubernetes", Reason: "orchestration"},
		{Name: "Prometheus", Reason: "monitoring"},
		{Name: "Helm", Reason: "packaging"},
	}}

	result, err := f.svc.GapAnalysis(ctx, p, "Platform Engineer")
	require.NoError(t, err)
	assert.Equal(t, "Platform Engineer", result.TargetRole)
	require.Len(t, result.MissingSkills, 3)
	assert.Equal(t, "Terraform", result.MissingSkills[0].Name)

	assert.Equal(t, "Platform Engineer", f.provider.lastGap.TargetRole)
	assert.ElementsMatch(t, []string{"Go", "Docker"}, f.provider.lastGap.CurrentSkills)
}

func TestGapAnalysisTargetRole(t *testing.T) {
	t.Run("falls back to stored target role", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		p := f.register(t, "asha@example.com")
		_, err := f.svc.Onboard(ctx, p, types.OnboardingInput{TargetRole: "SRE"})
		require.NoError(t, err)

		result, err := f.svc.GapAnalysis(ctx, p, "")
		require.NoError(t, err)
		assert.Equal(t, "SRE", result.TargetRole)
		assert.NotNil(t, result.MissingSkills)
		assert.Empty(t, f.provider.lastGap.CurrentSkills)
	})

	t.Run("no role anywhere", func(t *testing.T) {
		f := newFixture(t)
		p := f.register(t, "asha@example.com")

		_, err := f.svc.GapAnalysis(context.Background(), p, "")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		assert.Zero(t, f.provider.totalCalls())
	})

	t.Run("provider failure", func(t *testing.T) {
		f := newFixture(t)
		p := f.register(t, "asha@example.com")
		f.provider.gapErr = errors.NewParseError(errors.ErrCodeAIParseFailed, "bad json", nil)

		_, err := f.svc.GapAnalysis(context.Background(), p, "SRE")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeParse))
	})
}

func TestProjectCareer(t *testing.T) {
	tests := []struct {
		years      int
		focus      string
		wantFocus  string
		wantSalary int
		wantLevel  int
	}{
		{2, "AI/ML", FocusAIML, 218400, 6},
		{10, "Frontend", FocusFrontend, 330000, 10},
		{1, "cloud", FocusCloud, 172500, 4},
		{5, " ai/ml ", FocusAIML, 294000, 9},
		{3, "Frontend", FocusFrontend, 191400, 6},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d years %s", tt.years, tt.focus), func(t *testing.T) {
			got, err := ProjectCareer(tt.years, tt.focus)
			require.NoError(t, err)
			assert.Equal(t, types.Projection{
				Years:           tt.years,
				Focus:           tt.wantFocus,
				ProjectedSalary: tt.wantSalary,
				ProjectedLevel:  tt.wantLevel,
			}, got)
		})
	}
}

func TestProjectCareerValidation(t *testing.T) {
	tests := []struct {
		name   string
		years  int
		focus  string
		fields []string
	}{
		{"zero years", 0, "Cloud", []string{"years"}},
		{"too many years", 11, "Cloud", []string{"years"}},
		{"unknown focus", 3, "Blockchain", []string{"focus"}},
		{"both", -1, "", []string{"years", "focus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProjectCareer(tt.years, tt.focus)
			require.Error(t, err)
			appErr, ok := err.(*errors.AppError)
			require.True(t, ok)
			assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
			for _, field := range tt.fields {
				assert.Contains(t, appErr.Fields, field)
			}
		})
	}
}

package ai

import (
	"fmt"
	"strings"

	"dreamforge/internal/types"
)

// Prompts holds the system instruction and user template of one operation
type Prompts struct {
	System string
	User   string
}

// DefaultPrompts are used when the configuration does not override an operation
var DefaultPrompts = map[string]Prompts{
	OperationIngest: {
		System: `You are a senior technical recruiter and career coach. You read resumes and turn them into a structured profile.

Rules:
- Only report skills that are explicitly present in the resume
- Proficiency is 1-10, where 10 is recognised industry expertise
- Level is 1-10 and reflects overall seniority
- matchScore is 0-100 and estimates how ready the candidate is for their most likely next role
- Categories are one of: frontend, backend, core, cloud, ai`,

		User: `Analyze the resume below.

Return a JSON object with:
1. "level": integer 1-10
2. "currentRole": string
3. "location": string, empty if unknown
4. "skills": array of {"name", "category", "proficiency"}
5. "analysis": {"strengths": string[], "weaknesses": string[], "marketPosition": string}
6. "insights": {"immediate": string, "strategic": string, "targetRoles": string[], "recommendedResources": [{"title", "url", "type"}]}
7. "matchScore": integer 0-100

**Resume:**
-----
%s
-----`,
	},

	OperationInterview: {
		System: `You are an elite tech interview architect. You grade spoken answers to interview questions and coach candidates on structure, depth and delivery.`,

		User: `Analyze the interview transcript for the question: "%s".

Return a JSON object with:
1. "percentile": integer 5-99, how the answer ranks against peers
2. "pace": one of "Perfect", "Fast", "Steady", "Deliberate"
3. "fillers": integer, count of filler words such as 'um', 'uh', 'like'
4. "sentiment": one of "Decisive", "Strategic", "Collaborative", "Analytical"
5. "feedback": string, 150-200 characters focusing on architectural depth
6. "strengths": string[] with 2-3 items
7. "improvements": string[] with 2-3 items

**Transcript:**
-----
%s
-----`,
	},

	OperationChat: {
		System: `You are Sage, a career architect AI for the DreamForge platform.
Your goal is to help users accelerate their career growth through AI-driven insights.
Be professional, insightful, and encouraging. Give specific advice on skills, resume optimization, and interview preparation.
Keep responses concise and formatted with markdown if helpful.

User context:
%s`,
	},

	OperationGap: {
		System: `You are an expert career coach AI. Respond with concise JSON only.`,

		User: `Analyze the gap between these skills: %s and the requirements for a %s.
Return a JSON object with "missingSkills": a list of exactly 3 missing skills, each {"name", "reason"}.`,
	},
}

// chatContextBlock renders what the assistant knows about the user
func chatContextBlock(c types.ChatContext) string {
	var b strings.Builder
	if c.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", c.Name)
	}
	fmt.Fprintf(&b, "Current user level: %d\n", max(c.Level, 1))
	fmt.Fprintf(&b, "Match score: %d%%\n", c.MatchScore)
	if c.CurrentRole != "" {
		fmt.Fprintf(&b, "Current role: %s\n", c.CurrentRole)
	}
	if c.TargetRole != "" {
		fmt.Fprintf(&b, "Target role: %s\n", c.TargetRole)
	}
	return strings.TrimRight(b.String(), "\n")
}

// resolvePrompt selects a prompt by priority: configuration first, then the built-in default.
func resolvePrompt(fromConfig, fromDefault string) string {
	if strings.TrimSpace(fromConfig) != "" {
		return fromConfig
	}
	return fromDefault
}

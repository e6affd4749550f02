package ai

// SystemPrompts contains system-level instructions per operation
type SystemPrompts struct {
	Suggest string
}

// UserPrompts contains user prompt templates per operation. Suggest takes
// the anonymized score summary as its single %s argument.
type UserPrompts struct {
	Suggest string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	Suggest: `You are an experienced recruiter and ATS (Applicant Tracking System) specialist. You review automated resume scores and turn them into concrete, actionable advice.

Your principles:
- Base every suggestion on the numbers and issue counts you are given
- Never invent details about the candidate, employers, or job history
- Never include names, email addresses, phone numbers, or company names
- Prefer specific actions over general encouragement`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	Suggest: `An automated ATS scoring pipeline analyzed a resume. The anonymized results are below.

**Scores** range from 0 to 100. A null score means that stage did not run.
**Issues** are counts of problems found, except weak_points which lists the impact problems detected.
**Stats** describe how many entries each resume section contains.

**Analysis Summary:**
%s

**Task:**
Return between 3 and 6 additional improvement suggestions as a JSON array. Each item must have:
- "category": one of "ats_compliance", "skills", "impact", "formatting", "content"
- "priority": "high", "medium", or "low"
- "issue": a short statement of the problem
- "suggestion": a specific action the candidate can take, at least one full sentence
- "impact": the expected effect on the ATS score

Focus on the lowest scores first. Do not repeat generic advice that applies to every resume.`,
}

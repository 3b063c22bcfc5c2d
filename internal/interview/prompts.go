package interview

import "fmt"

// TimeoutInstruction is sent to the interviewer when the answer window lapsed.
const TimeoutInstruction = `User failed to answer in time. Ask the next technical question immediately. Do not lecture.`

// SkipInstruction is sent to the interviewer when the candidate skipped.
const SkipInstruction = `User skipped the question. Ask a completely DIFFERENT technical question immediately. ` +
	`Do NOT say 'Noted' or 'Okay'. Just ask the question.`

// AnswerInstruction is sent to the interviewer after a spoken answer.
const AnswerInstruction = `You are a strict technical interviewer.
Candidate just answered.
Task: Ask the NEXT relevant technical question based on their answer or move to a new topic.
CONSTRAINT: Do NOT use filler words like "Great", "Okay", "Noted", "Let's move on".
CONSTRAINT: Start your response directly with the question (e.g., "How does garbage collection work in Java?").`

// GradingInstruction asks the grader for the final decision.
const GradingInstruction = `Assessment Complete. Review the transcript.
Generate a concise report:
1. Decision: (Hire / No Hire)
2. Technical Score: (0-100)
3. Weak Areas:`

// CoordinatorInstruction is the lobby persona for the given role.
func CoordinatorInstruction(role string) string {
	return fmt.Sprintf(`You are a helpful Interview Coordinator. The user is about to take a technical test for a %s role.
Answer their questions briefly and politely. Encourage them to start the test.`, role)
}

// OpeningQuestion is the templated first question of every assessment.
func OpeningQuestion(p Position) string {
	return fmt.Sprintf(
		"This is the %s %s assessment. Question 1: Introduce yourself and describe your technical stack.",
		p.Level, p.Role,
	)
}

// instructionFor selects the interviewer instruction for a cycle outcome.
func instructionFor(trigger Trigger) string {
	switch trigger {
	case TriggerTimeout:
		return TimeoutInstruction
	case TriggerSkip:
		return SkipInstruction
	default:
		return AnswerInstruction
	}
}

package quiz

import "time"

// Question types
const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
)

type (
	Quiz struct {
		ID                  string     `json:"id"`
		CourseID            string     `json:"course_id"`
		Title               string     `json:"title"`
		PassingScorePercent int        `json:"passing_score_percent"`
		Questions           []Question `json:"questions"`
		CreatedAt           time.Time  `json:"created_at"` // UTC
	}

	// Question carries the answer key and must never cross the client
	// boundary; handlers serve ClientQuestion instead.
	Question struct {
		ID            string   `json:"id"`
		QuizID        string   `json:"quiz_id"`
		Position      int      `json:"position"`
		Text          string   `json:"text"`
		Type          string   `json:"type"`
		Options       []string `json:"options"`
		CorrectAnswer string   `json:"-"`
		Points        int      `json:"points"`
	}

	// ClientQuestion is the answer-free question representation. It has no
	// correct-answer field at all; the confidentiality boundary is the
	// type, not a serialization rule.
	ClientQuestion struct {
		ID      string   `json:"id"`
		Text    string   `json:"text"`
		Type    string   `json:"type"`
		Options []string `json:"options"`
		Points  int      `json:"points"`
	}

	// AnswerSet maps question ID to the submitted answer. A missing entry
	// counts as unanswered (wrong).
	AnswerSet map[string]string

	// Attempt is immutable once created; a retake is a new Attempt with a
	// fresh ID, never an edit.
	Attempt struct {
		ID         string           `json:"id"`
		LearnerID  string           `json:"learner_id"`
		QuizID     string           `json:"quiz_id"`
		Answers    AnswerSet        `json:"answers"`
		Score      int              `json:"score"`
		MaxScore   int              `json:"max_score"`
		Percentage int              `json:"percentage"`
		Passed     bool             `json:"passed"`
		Breakdown  []QuestionResult `json:"breakdown"`
		CreatedAt  time.Time        `json:"created_at"` // UTC
	}

	// QuestionResult reveals the correct answer for review; it only ever
	// exists as part of a graded Attempt.
	QuestionResult struct {
		QuestionID    string `json:"question_id"`
		Submitted     string `json:"submitted"`
		CorrectAnswer string `json:"correct_answer"`
		Correct       bool   `json:"correct"`
		PointsEarned  int    `json:"points_earned"`
	}
)

// Client strips the answer key off a question.
func (q Question) Client() ClientQuestion {
	return ClientQuestion{
		ID:      q.ID,
		Text:    q.Text,
		Type:    q.Type,
		Options: q.Options,
		Points:  q.Points,
	}
}

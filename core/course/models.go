package course

import "time"

type (
	// Course is authored externally (by teachers/admins); the engine only
	// reads it. Prerequisites holds direct prerequisite course IDs; the
	// edge set is assumed acyclic.
	Course struct {
		ID            string    `json:"id"`
		Name          string    `json:"name"`
		Description   string    `json:"description"`
		Lessons       []Lesson  `json:"lessons"`
		Prerequisites []string  `json:"prerequisites"`
		CreatedAt     time.Time `json:"created_at"` // UTC
	}

	Lesson struct {
		ID       string `json:"id"`
		CourseID string `json:"course_id"`
		Title    string `json:"title"`
		Position int    `json:"position"`
	}

	// Enrollment is permanent once created; there is no un-enroll.
	Enrollment struct {
		LearnerID string    `json:"learner_id"`
		CourseID  string    `json:"course_id"`
		CreatedAt time.Time `json:"created_at"` // UTC
	}

	CourseRef struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	// BlockingCourse is an unsatisfied prerequisite. Enrolled lets the UI
	// distinguish "not started" from "in progress".
	BlockingCourse struct {
		CourseRef
		Enrolled bool `json:"enrolled"`
	}

	Eligibility struct {
		Eligible bool             `json:"eligible"`
		Blocking []BlockingCourse `json:"blocking"`
	}

	// Overview is the dashboard listing entry: a course plus the learner's
	// standing in it.
	Overview struct {
		CourseRef
		Enrolled          bool `json:"enrolled"`
		LessonCount       int  `json:"lesson_count"`
		CompletedLessons  int  `json:"completed_lessons"`
		CompletionPercent int  `json:"completion_percent"`
	}
)

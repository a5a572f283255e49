package course_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lusembo/maendeleo/core/course"
	inmemdb "github.com/lusembo/maendeleo/storage/database/inmem"
	testutil "github.com/lusembo/maendeleo/tests"
)

func setup(t *testing.T) (*course.Service, *inmemdb.DB, course.Repository) {
	t.Helper()

	db := inmemdb.NewDB()
	crsRepo := inmemdb.NewCourseRepository(db)
	progRepo := inmemdb.NewProgressRepository(db)
	return course.NewService(crsRepo, progRepo), db, crsRepo
}

func completeLessons(t *testing.T, db *inmemdb.DB, learnerID string, lessons []course.Lesson) {
	t.Helper()
	repo := inmemdb.NewProgressRepository(db)
	for _, lsn := range lessons {
		if _, _, err := repo.MarkCompleted(context.Background(), learnerID, lsn.ID, time.Now().UTC()); err != nil {
			t.Fatalf("completeLessons() failed: %v", err)
		}
	}
}

func TestService_CanEnroll(t *testing.T) {
	svc, db, crsRepo := setup(t)
	ctx := context.Background()
	learnerID := "learner-1"

	intro := testutil.CreateCourse(t, db, "Intro to Go", 2)
	advanced := testutil.CreateCourse(t, db, "Advanced Go", 3, intro.ID)

	// no prerequisites at all
	elig, err := svc.CanEnroll(ctx, learnerID, intro.ID)
	require.NoError(t, err)
	assert.True(t, elig.Eligible)
	assert.Empty(t, elig.Blocking)

	// prerequisite untouched: blocked, not enrolled
	elig, err = svc.CanEnroll(ctx, learnerID, advanced.ID)
	require.NoError(t, err)
	assert.False(t, elig.Eligible)
	require.Len(t, elig.Blocking, 1)
	assert.Equal(t, intro.ID, elig.Blocking[0].ID)
	assert.Equal(t, intro.Name, elig.Blocking[0].Name)
	assert.False(t, elig.Blocking[0].Enrolled)

	// in progress: still blocked, but flagged as enrolled
	testutil.Enroll(t, crsRepo, learnerID, intro.ID)
	completeLessons(t, db, learnerID, intro.Lessons[:1])

	elig, err = svc.CanEnroll(ctx, learnerID, advanced.ID)
	require.NoError(t, err)
	assert.False(t, elig.Eligible)
	require.Len(t, elig.Blocking, 1)
	assert.True(t, elig.Blocking[0].Enrolled)

	// the last prerequisite lesson flips eligibility
	completeLessons(t, db, learnerID, intro.Lessons[1:])

	elig, err = svc.CanEnroll(ctx, learnerID, advanced.ID)
	require.NoError(t, err)
	assert.True(t, elig.Eligible)
	assert.Empty(t, elig.Blocking)
}

func TestService_CanEnroll_emptyPrerequisiteIsVacuous(t *testing.T) {
	svc, db, _ := setup(t)

	shell := testutil.CreateCourse(t, db, "Shell Course", 0)
	next := testutil.CreateCourse(t, db, "Next Course", 1, shell.ID)

	elig, err := svc.CanEnroll(context.Background(), "learner-1", next.ID)
	require.NoError(t, err)
	assert.True(t, elig.Eligible)
}

func TestService_CanEnroll_unknownCourse(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.CanEnroll(context.Background(), "learner-1", "nope")
	assert.Equal(t, course.ErrNotFound, err)
}

func TestService_Enroll(t *testing.T) {
	svc, db, _ := setup(t)
	ctx := context.Background()
	learnerID := "learner-1"

	intro := testutil.CreateCourse(t, db, "Intro to Go", 2)
	advanced := testutil.CreateCourse(t, db, "Advanced Go", 3, intro.ID)

	// blocked enrollment carries the blocking list
	_, err := svc.Enroll(ctx, learnerID, advanced.ID)
	var inelig *course.IneligibleError
	require.ErrorAs(t, err, &inelig)
	require.Len(t, inelig.Blocking, 1)
	assert.Equal(t, intro.ID, inelig.Blocking[0].ID)

	enr, err := svc.Enroll(ctx, learnerID, intro.ID)
	require.NoError(t, err)
	assert.Equal(t, learnerID, enr.LearnerID)
	assert.Equal(t, intro.ID, enr.CourseID)

	// enrolling twice is a no-op
	_, err = svc.Enroll(ctx, learnerID, intro.ID)
	require.NoError(t, err)

	enrolled, err := svc.IsEnrolled(ctx, learnerID, intro.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)
}

func TestService_Overview(t *testing.T) {
	svc, db, crsRepo := setup(t)
	ctx := context.Background()
	learnerID := "learner-1"

	intro := testutil.CreateCourse(t, db, "Intro to Go", 4)
	testutil.CreateCourse(t, db, "Advanced Go", 2, intro.ID)

	testutil.Enroll(t, crsRepo, learnerID, intro.ID)
	completeLessons(t, db, learnerID, intro.Lessons[:3])

	overviews, err := svc.Overview(ctx, learnerID)
	require.NoError(t, err)
	require.Len(t, overviews, 2)

	assert.Equal(t, intro.ID, overviews[0].ID)
	assert.True(t, overviews[0].Enrolled)
	assert.Equal(t, 4, overviews[0].LessonCount)
	assert.Equal(t, 3, overviews[0].CompletedLessons)
	assert.Equal(t, 75, overviews[0].CompletionPercent)

	assert.False(t, overviews[1].Enrolled)
	assert.Equal(t, 0, overviews[1].CompletionPercent)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/models"
)

type memorySubmissionRepo struct {
	submissions map[uuid.UUID]models.Submission
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{submissions: make(map[uuid.UUID]models.Submission)}
}

func (m *memorySubmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (models.Submission, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (m *memorySubmissionRepo) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Submission, error) {
	results := make([]models.Submission, 0, len(m.submissions))
	for _, submission := range m.submissions {
		if submission.AssignmentID == assignmentID {
			results = append(results, submission)
		}
	}
	return results, nil
}

func (m *memorySubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	submission.CreatedAt = time.Now()
	m.submissions[submission.ID] = *submission
	return nil
}

type stubEventPublisher struct {
	events []GradeEvent
}

func (s *stubEventPublisher) PublishGradeRecorded(ctx context.Context, event GradeEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubReportInvalidator struct {
	invalidated []uuid.UUID
}

func (s *stubReportInvalidator) InvalidateReport(ctx context.Context, assignmentID uuid.UUID) error {
	s.invalidated = append(s.invalidated, assignmentID)
	return nil
}

type submissionFixture struct {
	svc         SubmissionService
	submissions *memorySubmissionRepo
	grades      *memoryGradeRepo
	events      *stubEventPublisher
	reports     *stubReportInvalidator
	assignment  models.Assignment
	question    models.Question
}

func newSubmissionFixture(t *testing.T, judgeScore float64) submissionFixture {
	t.Helper()
	ctx := context.Background()

	candidates := newMemoryCandidateRepo()
	packs := newMemoryPackRepo()
	questions := newMemoryQuestionRepo()
	assignments := newMemoryAssignmentRepo(candidates, packs)
	submissions := newMemorySubmissionRepo()
	grades := newMemoryGradeRepo()

	candidate := models.Candidate{Email: "demo@example.com", Name: "Demo User"}
	require.NoError(t, candidates.Create(ctx, &candidate))

	question := models.Question{Title: "VLOOKUP concept", Qtype: models.QuestionTypeTheory, Version: 1}
	require.NoError(t, questions.Create(ctx, &question))

	pack := models.Pack{
		Name:    "Starter Pack",
		Version: 1,
		Items:   []models.PackItem{{QuestionID: question.ID, TimerSeconds: 180}},
	}
	require.NoError(t, packs.Create(ctx, &pack))

	assignment := models.Assignment{CandidateID: candidate.ID, PackID: pack.ID}
	require.NoError(t, assignments.Create(ctx, &assignment))

	answerJudge := &stubJudge{result: passingJudgeResult(judgeScore)}
	evaluator := NewEvaluationService(grades, answerJudge, nil, 0, testLogger())

	events := &stubEventPublisher{}
	reports := &stubReportInvalidator{}
	recorder := &stubActivityRecorder{}
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewSubmissionService(submissions, assignments, questions, evaluator, events, reports, recorder, validate, testLogger())

	return submissionFixture{
		svc:         svc,
		submissions: submissions,
		grades:      grades,
		events:      events,
		reports:     reports,
		assignment:  assignment,
		question:    question,
	}
}

func TestSubmissionServiceSubmitGradesAnswer(t *testing.T) {
	f := newSubmissionFixture(t, 88)

	result, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: f.assignment.ID,
		QuestionID:   f.question.ID,
		Answer:       []byte(`"VLOOKUP searches the first column."`),
	})
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Equal(t, 88.0, result.Score)
	require.NotEqual(t, uuid.Nil, result.SubmissionID)
	require.NotEqual(t, uuid.Nil, result.GradeID)
	require.True(t, result.Runner.Passed)
	require.Equal(t, "solid answer", result.Judge.Verdict)
	require.Len(t, f.submissions.submissions, 1)
	require.Len(t, f.grades.grades, 1)
}

func TestSubmissionServiceSubmitAnnouncesGrade(t *testing.T) {
	f := newSubmissionFixture(t, 75)

	result, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: f.assignment.ID,
		QuestionID:   f.question.ID,
		Answer:       []byte(`"answer"`),
	})
	require.NoError(t, err)

	require.Len(t, f.events.events, 1)
	require.Equal(t, result.GradeID, f.events.events[0].GradeID)
	require.Equal(t, f.assignment.ID, f.events.events[0].AssignmentID)
	require.Equal(t, 75.0, f.events.events[0].Score)
	require.Equal(t, []uuid.UUID{f.assignment.ID}, f.reports.invalidated)
}

func TestSubmissionServiceSubmitDefaultsEmptyAnswer(t *testing.T) {
	f := newSubmissionFixture(t, 10)

	result, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: f.assignment.ID,
		QuestionID:   f.question.ID,
	})
	require.NoError(t, err)

	stored, err := f.submissions.GetByID(context.Background(), result.SubmissionID)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(stored.Answer))
	// An empty object answer carries no content, so the checks fail.
	require.False(t, result.Runner.Passed)
}

func TestSubmissionServiceSubmitUnknownAssignment(t *testing.T) {
	f := newSubmissionFixture(t, 50)

	_, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: uuid.New(),
		QuestionID:   f.question.ID,
		Answer:       []byte(`"answer"`),
	})
	require.ErrorIs(t, err, ErrAssignmentNotFound)
	require.Empty(t, f.submissions.submissions)
}

func TestSubmissionServiceSubmitUnknownQuestion(t *testing.T) {
	f := newSubmissionFixture(t, 50)

	_, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: f.assignment.ID,
		QuestionID:   uuid.New(),
		Answer:       []byte(`"answer"`),
	})
	require.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestSubmissionServiceResubmitCreatesNewAttempt(t *testing.T) {
	f := newSubmissionFixture(t, 60)

	payload := dto.SubmissionSubmitRequest{
		AssignmentID: f.assignment.ID,
		QuestionID:   f.question.ID,
		Answer:       []byte(`"first attempt"`),
	}

	first, err := f.svc.Submit(context.Background(), payload)
	require.NoError(t, err)

	payload.Answer = []byte(`"second attempt"`)
	second, err := f.svc.Submit(context.Background(), payload)
	require.NoError(t, err)

	require.NotEqual(t, first.SubmissionID, second.SubmissionID)
	require.NotEqual(t, first.GradeID, second.GradeID)
	require.Len(t, f.submissions.submissions, 2)
	require.Len(t, f.grades.grades, 2)
}

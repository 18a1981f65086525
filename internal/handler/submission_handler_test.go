package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/handler"
	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/repository"
	"github.com/caliper-hq/caliper-api/internal/router"
	"github.com/caliper-hq/caliper-api/internal/service"
	"github.com/caliper-hq/caliper-api/pkg/judge"
)

// chatCompletionHandler answers like a chat-completion endpoint whose model
// returned the given judge JSON as its message content. Requests that miss
// the expected path or credential get a 500, which surfaces in the test as
// a degraded grade.
func chatCompletionHandler(score float64, verdict string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" || r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		content := fmt.Sprintf(`{"score": %.0f, "verdict": %q, "mistakes": [], "improvements": [], "citations": []}`, score, verdict)
		envelope := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(envelope)
	}
}

func setupSubmissionApp(t *testing.T, judgeHandler http.HandlerFunc, development bool) (*fiber.App, *gorm.DB) {
	t.Helper()

	server := httptest.NewServer(judgeHandler)
	t.Cleanup(server.Close)

	db := handlerTestDB(t)
	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	questionRepo := repository.NewQuestionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	gradeRepo := repository.NewGradeRepository(db)

	judgeClient := judge.New(judge.Config{
		Endpoint: server.URL,
		Model:    "test-model",
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
		Logger:   logger,
	})

	evaluationService := service.NewEvaluationService(gradeRepo, judgeClient, nil, 0, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, questionRepo, evaluationService, nil, nil, nil, validate, logger)

	app := fiber.New()
	router.Register(app, testConfig(), router.Dependencies{
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, development, logger),
	})

	return app, db
}

func submitAnswer(t *testing.T, app *fiber.App, payload dto.SubmissionSubmitRequest) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/candidate/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestSubmissionHandlerGradesAnswer(t *testing.T) {
	app, db := setupSubmissionApp(t, chatCompletionHandler(87, "solid answer"), false)
	candidate, pack, question := seedCandidateWithPack(t, db, "submit-grade@example.com")

	assignment := models.Assignment{CandidateID: candidate.ID, PackID: pack.ID}
	require.NoError(t, db.Create(&assignment).Error)

	resp := submitAnswer(t, app, dto.SubmissionSubmitRequest{
		AssignmentID: assignment.ID,
		QuestionID:   question.ID,
		Answer:       json.RawMessage(`"VLOOKUP scans the leftmost column for the key."`),
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var grade dto.GradeResponse
	decodeResponse(t, resp, &grade)
	require.True(t, grade.OK)
	require.InDelta(t, 87.0, grade.Score, 0.01)
	require.Equal(t, "solid answer", grade.Judge.Verdict)
	require.True(t, grade.Runner.Passed)
	// Outside development the judge debug bag never reaches the client.
	require.Nil(t, grade.Judge.Debug)

	var stored models.Grade
	require.NoError(t, db.First(&stored, "submission_id = ?", grade.SubmissionID).Error)
	require.InDelta(t, 87.0, stored.Score, 0.01)
}

func TestSubmissionHandlerKeepsDebugInDevelopment(t *testing.T) {
	app, db := setupSubmissionApp(t, chatCompletionHandler(70, "fine"), true)
	candidate, pack, question := seedCandidateWithPack(t, db, "submit-debug@example.com")

	assignment := models.Assignment{CandidateID: candidate.ID, PackID: pack.ID}
	require.NoError(t, db.Create(&assignment).Error)

	resp := submitAnswer(t, app, dto.SubmissionSubmitRequest{
		AssignmentID: assignment.ID,
		QuestionID:   question.ID,
		Answer:       json.RawMessage(`"Use absolute references when filling down."`),
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var grade dto.GradeResponse
	decodeResponse(t, resp, &grade)
	require.NotNil(t, grade.Judge.Debug)
	require.Equal(t, float64(http.StatusOK), grade.Judge.Debug["http_status"])
}

func TestSubmissionHandlerDegradedJudgeStillGrades(t *testing.T) {
	failing := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}
	app, db := setupSubmissionApp(t, failing, false)
	candidate, pack, question := seedCandidateWithPack(t, db, "submit-degraded@example.com")

	assignment := models.Assignment{CandidateID: candidate.ID, PackID: pack.ID}
	require.NoError(t, db.Create(&assignment).Error)

	resp := submitAnswer(t, app, dto.SubmissionSubmitRequest{
		AssignmentID: assignment.ID,
		QuestionID:   question.ID,
		Answer:       json.RawMessage(`"An answer the judge never sees graded."`),
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var grade dto.GradeResponse
	decodeResponse(t, resp, &grade)
	require.True(t, grade.OK)
	require.Zero(t, grade.Score)
	require.Equal(t, "judge unavailable (network error)", grade.Judge.Verdict)

	var count int64
	require.NoError(t, db.Model(&models.Grade{}).Where("submission_id = ?", grade.SubmissionID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestSubmissionHandlerResubmitCreatesNewAttempt(t *testing.T) {
	app, db := setupSubmissionApp(t, chatCompletionHandler(60, "second look"), false)
	candidate, pack, question := seedCandidateWithPack(t, db, "submit-again@example.com")

	assignment := models.Assignment{CandidateID: candidate.ID, PackID: pack.ID}
	require.NoError(t, db.Create(&assignment).Error)

	payload := dto.SubmissionSubmitRequest{
		AssignmentID: assignment.ID,
		QuestionID:   question.ID,
		Answer:       json.RawMessage(`"First attempt."`),
	}

	resp := submitAnswer(t, app, payload)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var first dto.GradeResponse
	decodeResponse(t, resp, &first)

	payload.Answer = json.RawMessage(`"Second attempt."`)
	resp = submitAnswer(t, app, payload)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var second dto.GradeResponse
	decodeResponse(t, resp, &second)

	require.NotEqual(t, first.SubmissionID, second.SubmissionID)

	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Where("assignment_id = ?", assignment.ID).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestSubmissionHandlerUnknownAssignment(t *testing.T) {
	app, db := setupSubmissionApp(t, chatCompletionHandler(50, "unused"), false)
	_, _, question := seedCandidateWithPack(t, db, "submit-unknown@example.com")

	resp := submitAnswer(t, app, dto.SubmissionSubmitRequest{
		AssignmentID: uuid.New(),
		QuestionID:   question.ID,
		Answer:       json.RawMessage(`"Answer."`),
	})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "assignment not found", body.Message)
}

func TestSubmissionHandlerValidation(t *testing.T) {
	app, _ := setupSubmissionApp(t, chatCompletionHandler(50, "unused"), false)

	req := httptest.NewRequest("POST", "/api/candidate/submissions", bytes.NewReader([]byte(`{"answer":"x"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

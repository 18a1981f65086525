package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/caliper-hq/caliper-api/internal/models"
)

// ReportSubmission is one row of an assignment report. Score, Runner and
// Judge are nil for submissions that have not been graded.
type ReportSubmission struct {
	SubmissionID  uuid.UUID              `json:"submission_id"`
	QuestionID    uuid.UUID              `json:"question_id"`
	QuestionTitle string                 `json:"question_title"`
	Answer        json.RawMessage        `json:"answer"`
	Score         *float64               `json:"score"`
	Runner        map[string]interface{} `json:"runner"`
	Judge         map[string]interface{} `json:"judge"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ReportResponse aggregates every submission of an assignment with its
// grade. AverageScore covers graded submissions only.
type ReportResponse struct {
	OK           bool               `json:"ok"`
	AssignmentID uuid.UUID          `json:"assignment_id"`
	Candidate    CandidateLite      `json:"candidate"`
	Pack         PackLite           `json:"pack"`
	AverageScore float64            `json:"average_score"`
	Submissions  []ReportSubmission `json:"submissions"`
}

// NewReportSubmission builds one report row from a submission and its
// optional grade.
func NewReportSubmission(submission models.Submission, grade *models.Grade) ReportSubmission {
	row := ReportSubmission{
		SubmissionID:  submission.ID,
		QuestionID:    submission.QuestionID,
		QuestionTitle: submission.Question.Title,
		Answer:        rawJSON(submission.Answer),
		CreatedAt:     submission.CreatedAt,
	}

	if grade != nil {
		score := grade.Score
		row.Score = &score
		row.Runner = grade.RunnerDetail()
		row.Judge = grade.JudgeDetail()
	}

	return row
}

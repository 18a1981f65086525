package dto

import "github.com/google/uuid"

// SeedResponse reports the identities of the seeded demo records. Seeding
// is idempotent, so repeated runs return the same identities.
type SeedResponse struct {
	OK           bool      `json:"ok"`
	CandidateID  uint      `json:"candidate_id"`
	QuestionID   uuid.UUID `json:"question_id"`
	PackID       uint      `json:"pack_id"`
	AssignmentID uuid.UUID `json:"assignment_id"`
}

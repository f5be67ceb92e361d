package models

import (
	"time"

	"github.com/google/uuid"
)

// Community member roles.
const (
	CommunityRoleOwner  = "owner"
	CommunityRoleMember = "member"
)

// NoAnswerPlaceholder is used for screening questions the requester skipped.
const NoAnswerPlaceholder = "No answer provided"

// Community is a user group; private communities gate joining behind
// screening questions and owner approval.
type Community struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	IsPrivate   bool      `json:"is_private"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CommunityQuestion is a screening question configured on a private community.
type CommunityQuestion struct {
	ID          uuid.UUID `json:"id"`
	CommunityID uuid.UUID `json:"community_id"`
	Text        string    `json:"text"`
	Position    int       `json:"position"`
}

// CommunityJoinRequest is a pending membership request for a private community.
type CommunityJoinRequest struct {
	ID          uuid.UUID         `json:"id"`
	CommunityID uuid.UUID         `json:"community_id"`
	UserID      uuid.UUID         `json:"user_id"`
	Answers     map[string]string `json:"answers"`
	Status      RequestStatus     `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// AnsweredQuestion pairs a configured question with the requester's answer.
type AnsweredQuestion struct {
	QuestionID uuid.UUID `json:"question_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
}

// CommunityJoinRequestDetail is a join request with requester profile and
// answers resolved against the community's configured questions.
type CommunityJoinRequestDetail struct {
	ID        uuid.UUID          `json:"id"`
	UserID    uuid.UUID          `json:"user_id"`
	FullName  string             `json:"full_name"`
	Email     string             `json:"email"`
	ImageURL  string             `json:"image_url"`
	Answers   []AnsweredQuestion `json:"answers"`
	CreatedAt time.Time          `json:"created_at"`
}

// CommunityMember is a community membership row joined with the user profile.
type CommunityMember struct {
	UserID   uuid.UUID `json:"user_id"`
	FullName string    `json:"full_name"`
	ImageURL string    `json:"image_url"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

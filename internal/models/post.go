package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a community feed entry.
type Post struct {
	ID          uuid.UUID `json:"id"`
	CommunityID uuid.UUID `json:"community_id"`
	AuthorID    uuid.UUID `json:"author_id"`
	Body        string    `json:"body"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PostDetail is a post with author profile and aggregate counts.
type PostDetail struct {
	Post
	AuthorName   string `json:"author_name"`
	AuthorImage  string `json:"author_image"`
	LikeCount    int    `json:"like_count"`
	CommentCount int    `json:"comment_count"`
	LikedByMe    bool   `json:"liked_by_me"`
}

// Comment is a reply on a post.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentDetail is a comment with author profile.
type CommentDetail struct {
	Comment
	AuthorName  string `json:"author_name"`
	AuthorImage string `json:"author_image"`
}

package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type SubmissionStatus string

const (
	SubmissionPendingReview   SubmissionStatus = "pending_review"
	SubmissionApproved        SubmissionStatus = "approved"
	SubmissionRejected        SubmissionStatus = "rejected"
	SubmissionPendingDeletion SubmissionStatus = "pending_deletion"
)

// Submission is one piece of evidence a student files against an area.
type Submission struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	StudentID   uint   `json:"student_id" gorm:"not null;index"`
	StudentName string `json:"student_name" gorm:"not null;size:100"`
	AreaName    string `json:"area_name" gorm:"not null;index;size:100"`

	Evidence string  `json:"evidence" gorm:"type:text;not null"`
	MediaURL *string `json:"media_url" gorm:"size:500"`

	Status SubmissionStatus `json:"status" gorm:"default:pending_review;index;size:30"`

	// PreviousStatus is stashed only while the submission sits in
	// pending_deletion, so a rejected deletion request can restore it.
	PreviousStatus *SubmissionStatus `json:"previous_status,omitempty" gorm:"size:30"`

	// Likes holds the set of user IDs that liked this submission. Toggles are
	// read-modify-write inside a transaction.
	Likes datatypes.JSON `json:"likes" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student  User                `json:"-" gorm:"foreignKey:StudentID"`
	Comments []SubmissionComment `json:"comments,omitempty" gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
}

func (Submission) TableName() string {
	return "challenge_submissions"
}

// LikedBy decodes the likes set.
func (s *Submission) LikedBy() []uint {
	if len(s.Likes) == 0 {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(s.Likes, &ids); err != nil {
		return nil
	}
	return ids
}

// SetLikes encodes the likes set back into the jsonb column.
func (s *Submission) SetLikes(ids []uint) {
	if ids == nil {
		ids = []uint{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return
	}
	s.Likes = data
}

// SubmissionComment is append-only; comments are never edited or deleted
// individually.
type SubmissionComment struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	SubmissionID uint   `json:"submission_id" gorm:"not null;index"`
	UserID       uint   `json:"user_id" gorm:"not null"`
	UserName     string `json:"user_name" gorm:"not null;size:100"`
	Text         string `json:"text" gorm:"type:text;not null"`

	CreatedAt time.Time `json:"created_at"`
}

func (SubmissionComment) TableName() string {
	return "submission_comments"
}

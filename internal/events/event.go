package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the challenge service
const (
	EventSubmissionCreated      = "submission.created"
	EventSubmissionReviewed     = "submission.reviewed"
	EventDeletionReviewed       = "submission.deletion_reviewed"
	EventAchievementCertified   = "achievement.certified"
	EventAchievementDecertified = "achievement.decertified"
)

const eventSource = "challenge-service"

// Event is the envelope every published message shares
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope around a typed payload
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    eventSource,
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// SubmissionReviewedEvent is published when a teacher decides a submission
type SubmissionReviewedEvent struct {
	SubmissionID uint   `json:"submission_id"`
	StudentID    uint   `json:"student_id"`
	AreaName     string `json:"area_name"`
	Decision     string `json:"decision"`
	ReviewerID   uint   `json:"reviewer_id"`
	NewProgress  *int   `json:"new_progress,omitempty"`
}

// DeletionReviewedEvent is published when a deletion request is resolved
type DeletionReviewedEvent struct {
	SubmissionID uint   `json:"submission_id"`
	StudentID    uint   `json:"student_id"`
	AreaName     string `json:"area_name"`
	Decision     string `json:"decision"`
	ReviewerID   uint   `json:"reviewer_id"`
}

// AchievementCertifiedEvent is published when an area flips to certified
type AchievementCertifiedEvent struct {
	StudentID       uint   `json:"student_id"`
	AreaName        string `json:"area_name"`
	Progress        int    `json:"progress"`
	CertifiedCount  int    `json:"certified_count"`
	CertificateTier string `json:"certificate_tier"`
}

// EventPublisher publishes domain events to the message broker
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

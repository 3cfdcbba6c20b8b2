package events

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
)

func TestNewEvent(t *testing.T) {
	payload := &SubmissionReviewedEvent{
		SubmissionID: 7,
		StudentID:    1,
		AreaName:     "reading",
		Decision:     "approve",
		ReviewerID:   9,
	}

	event := NewEvent(EventSubmissionReviewed, payload)

	if event.ID == "" {
		t.Error("event id must be set")
	}
	if event.Type != EventSubmissionReviewed {
		t.Errorf("expected type %s, got %s", EventSubmissionReviewed, event.Type)
	}
	if event.Source != "challenge-service" {
		t.Errorf("unexpected source: %s", event.Source)
	}
	if event.Version != "1.0" {
		t.Errorf("unexpected version: %s", event.Version)
	}
	if event.Timestamp.IsZero() {
		t.Error("timestamp must be set")
	}
	if event.Data != payload {
		t.Error("payload lost")
	}

	// Each event gets its own id
	second := NewEvent(EventSubmissionReviewed, payload)
	if second.ID == event.ID {
		t.Error("event ids must be unique")
	}
}

func TestMockEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := NewMockEventPublisher(logger)
	ctx := context.Background()

	if err := publisher.Publish(ctx, NewEvent(EventSubmissionCreated, nil)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := publisher.Publish(ctx, NewEvent(EventAchievementCertified, nil)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 2 {
		t.Fatalf("expected 2 events, got %d", len(published))
	}
	if published[0].Type != EventSubmissionCreated || published[1].Type != EventAchievementCertified {
		t.Errorf("events out of order: %s, %s", published[0].Type, published[1].Type)
	}

	publisher.ClearEvents()
	if got := publisher.GetPublishedEvents(); len(got) != 0 {
		t.Errorf("expected no events after clear, got %d", len(got))
	}
}

func TestMockEventPublisher_Concurrent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := NewMockEventPublisher(logger)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			publisher.Publish(ctx, NewEvent(EventSubmissionCreated, nil))
		}()
	}
	wg.Wait()

	if got := len(publisher.GetPublishedEvents()); got != 20 {
		t.Errorf("expected 20 events, got %d", got)
	}
}

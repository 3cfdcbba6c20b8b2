package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/hichoni/challenge-service/internal/config"
	"github.com/hichoni/challenge-service/internal/repositories"
	"github.com/hichoni/challenge-service/internal/validator"
)

type advisorService struct {
	client    *genai.Client
	modelName string
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

// NewAdvisorService connects to Gemini. A missing API key returns a service
// that fails every call with ErrAdvisorUnavailable rather than an error here,
// so the rest of the application starts normally.
func NewAdvisorService(ctx context.Context, cfg *config.Config, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) (AdvisorService, error) {
	svc := &advisorService{
		modelName: cfg.GeminiModel,
		repo:      repo,
		logger:    logger,
		validator: validator,
	}

	if cfg.GeminiAPIKey == "" {
		logger.Warn("Gemini API key not configured, advisor disabled")
		return svc, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	svc.client = client

	return svc, nil
}

// CheckSufficiency asks the model whether the evidence plausibly meets the
// area requirements. The opinion is advisory, callers must not block a
// submission on it or on advisor failure.
func (s *advisorService) CheckSufficiency(ctx context.Context, req *AdvisorCheckRequest) (*AdvisorOpinion, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if s.client == nil {
		return nil, ErrAdvisorUnavailable
	}

	area, err := s.repo.Area().GetByName(ctx, nil, req.AreaName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAreaNotFound
		}
		return nil, fmt.Errorf("failed to load area: %w", err)
	}

	prompt := fmt.Sprintf(`You are reviewing an elementary school student's challenge evidence.
Challenge: %s
Requirements: %s
Student evidence: %q

Answer with a single JSON object, nothing else:
{"sufficient": true or false, "reason": "one short sentence in Korean, gentle and encouraging"}`,
		area.ChallengeName, area.Requirements, req.Evidence)

	text, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	opinion := &AdvisorOpinion{}
	if err := json.Unmarshal([]byte(extractJSON(text)), opinion); err != nil {
		s.logger.Warn("Advisor returned unparseable response", "response", text)
		return nil, ErrAdvisorUnavailable
	}

	return opinion, nil
}

// GenerateEncouragement produces a short display-only message for a student
func (s *advisorService) GenerateEncouragement(ctx context.Context, studentName, areaName string) (string, error) {
	if s.client == nil {
		return "", ErrAdvisorUnavailable
	}

	area, err := s.repo.Area().GetByName(ctx, nil, areaName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return "", ErrAreaNotFound
		}
		return "", fmt.Errorf("failed to load area: %w", err)
	}

	prompt := fmt.Sprintf(`Write one short encouraging sentence in Korean for an elementary school student named %s who is working on the challenge %q. No quotes, no emoji, under 60 characters.`,
		studentName, area.ChallengeName)

	return s.generate(ctx, prompt)
}

// SuggestComments drafts short feedback comments a teacher can pick from
// while reviewing. The suggestions are never posted automatically.
func (s *advisorService) SuggestComments(ctx context.Context, areaName, evidence string) ([]string, error) {
	if s.client == nil {
		return nil, ErrAdvisorUnavailable
	}

	area, err := s.repo.Area().GetByName(ctx, nil, areaName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAreaNotFound
		}
		return nil, fmt.Errorf("failed to load area: %w", err)
	}

	prompt := fmt.Sprintf(`A teacher is reviewing an elementary school student's evidence for the challenge %q.
Student evidence: %q

Suggest three short feedback comments in Korean the teacher could leave, each warm and specific, under 80 characters.
Answer with a single JSON array of three strings, nothing else.`,
		area.ChallengeName, evidence)

	text, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var suggestions []string
	if err := json.Unmarshal([]byte(extractJSONArray(text)), &suggestions); err != nil || len(suggestions) == 0 {
		s.logger.Warn("Advisor returned unparseable suggestions", "response", text)
		return nil, ErrAdvisorUnavailable
	}

	return suggestions, nil
}

// WelcomeMessage produces a short greeting shown after login
func (s *advisorService) WelcomeMessage(ctx context.Context, studentName string) (string, error) {
	if s.client == nil {
		return "", ErrAdvisorUnavailable
	}

	prompt := fmt.Sprintf(`Write one short friendly greeting in Korean for an elementary school student named %s who just opened their challenge dashboard. No quotes, no emoji, under 50 characters.`,
		studentName)

	return s.generate(ctx, prompt)
}

func (s *advisorService) generate(ctx context.Context, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.modelName)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		s.logger.Error("Gemini request failed", "error", err)
		return "", ErrAdvisorUnavailable
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrAdvisorUnavailable
	}

	return strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])), nil
}

// Close releases the Gemini client
func (s *advisorService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// extractJSON trims markdown fences and surrounding prose the model sometimes
// wraps around its JSON answer.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return text
	}
	return text[start : end+1]
}

func extractJSONArray(text string) string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return text
	}
	return text[start : end+1]
}

package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hichoni/challenge-service/internal/models"
)

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateSubmissionCreate validates evidence submission rules
func (bv *BusinessValidator) ValidateSubmissionCreate(req *SubmissionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if strings.TrimSpace(req.Evidence) == "" {
		errors = append(errors, ValidationError{
			Field:   "evidence",
			Message: "cannot be only whitespace",
			Value:   req.Evidence,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateAreaConfig validates area configuration consistency
func (bv *BusinessValidator) ValidateAreaConfig(req *AreaConfigRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	switch models.GoalType(req.GoalType) {
	case models.GoalNumeric:
		if len(req.Goals) == 0 {
			errors = append(errors, ValidationError{
				Field:   "goals",
				Message: "numeric areas require per-grade goals",
				Rule:    "business_logic",
			})
		}
		for grade := range req.Goals {
			if grade != "4" && grade != "5" && grade != "6" {
				errors = append(errors, ValidationError{
					Field:   "goals",
					Message: fmt.Sprintf("unknown grade key %q", grade),
					Value:   grade,
					Rule:    "business_logic",
				})
			}
		}
	case models.GoalObjective:
		if len(req.Options) == 0 {
			errors = append(errors, ValidationError{
				Field:   "options",
				Message: "objective areas require at least one option",
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// ValidateStatusTransition validates submission status transitions
func (bv *BusinessValidator) ValidateStatusTransition(current, next models.SubmissionStatus) ValidationErrors {
	allowedTransitions := map[models.SubmissionStatus][]models.SubmissionStatus{
		models.SubmissionPendingReview: {models.SubmissionApproved, models.SubmissionRejected, models.SubmissionPendingDeletion},
		models.SubmissionApproved:      {models.SubmissionPendingDeletion},
		models.SubmissionRejected:      {models.SubmissionPendingDeletion},
		// Resolution of a deletion request restores the stashed status or removes the row
		models.SubmissionPendingDeletion: {models.SubmissionApproved, models.SubmissionRejected, models.SubmissionPendingReview},
	}

	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return nil
		}
	}

	return ValidationErrors{{
		Field:   "status",
		Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
		Value:   next,
		Rule:    "status_transition",
	}}
}

// ValidateReviewable checks a submission is in a state a review decision applies to
func (bv *BusinessValidator) ValidateReviewable(status models.SubmissionStatus) ValidationErrors {
	if status != models.SubmissionPendingReview {
		return ValidationErrors{{
			Field:   "status",
			Message: "submission is not awaiting review",
			Value:   status,
			Rule:    "business_logic",
		}}
	}
	return nil
}

// ValidateLabelOption checks an objective label against the configured options
func (bv *BusinessValidator) ValidateLabelOption(label string, options []string) ValidationErrors {
	for _, opt := range options {
		if label == opt {
			return nil
		}
	}
	return ValidationErrors{{
		Field:   "label",
		Message: "label is not one of the configured options",
		Value:   label,
		Rule:    "business_logic",
	}}
}

// registerBusinessRules registers custom rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Evidence text length (10-1000 characters after trimming)
	bv.validate.RegisterValidation("evidence_text", func(fl validator.FieldLevel) bool {
		text := strings.TrimSpace(fl.Field().String())
		n := len([]rune(text))
		return n >= 10 && n <= 1000
	})

	// Comment text length (1-100 characters)
	bv.validate.RegisterValidation("comment_text", func(fl validator.FieldLevel) bool {
		text := strings.TrimSpace(fl.Field().String())
		n := len([]rune(text))
		return n >= 1 && n <= 100
	})

	// PIN is exactly four digits
	bv.validate.RegisterValidation("pin_format", func(fl validator.FieldLevel) bool {
		return pinPattern.MatchString(fl.Field().String())
	})

	// Elementary grades served by the program
	bv.validate.RegisterValidation("grade_range", func(fl validator.FieldLevel) bool {
		grade := fl.Field().Int()
		return grade >= 4 && grade <= 6
	})

	// Review decision verbs
	bv.validate.RegisterValidation("review_action", func(fl validator.FieldLevel) bool {
		action := fl.Field().String()
		return action == "approve" || action == "reject"
	})

	// Goal type enum
	bv.validate.RegisterValidation("goal_type", func(fl validator.FieldLevel) bool {
		gt := models.GoalType(fl.Field().String())
		return gt == models.GoalNumeric || gt == models.GoalObjective
	})
}

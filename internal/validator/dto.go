package validator

// SubmissionCreateRequest represents the request structure for submitting evidence
type SubmissionCreateRequest struct {
	AreaName string  `json:"area_name" validate:"required"`
	Evidence string  `json:"evidence" validate:"required,evidence_text"`
	MediaURL *string `json:"media_url" validate:"omitempty,url"`
}

// ReviewRequest represents a teacher decision on a pending submission
type ReviewRequest struct {
	Action string `json:"action" validate:"required,review_action"`
}

// CommentCreateRequest represents adding a comment to a submission
type CommentCreateRequest struct {
	Text string `json:"text" validate:"required,comment_text"`
}

// LoginRequest represents a credential check
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	PIN      string `json:"pin" validate:"required,pin_format"`
}

// ChangePINRequest represents a student changing their own PIN
type ChangePINRequest struct {
	CurrentPIN string `json:"current_pin" validate:"required,pin_format"`
	NewPIN     string `json:"new_pin" validate:"required,pin_format"`
}

// StudentCreateRequest represents a teacher registering one student
type StudentCreateRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Grade      int    `json:"grade" validate:"required,grade_range"`
	ClassNum   int    `json:"class_num" validate:"required,min=1,max=20"`
	StudentNum int    `json:"student_num" validate:"required,min=1,max=50"`
}

// AreaConfigRequest represents creating or replacing a challenge area
type AreaConfigRequest struct {
	Name          string         `json:"name" validate:"required,max=50"`
	KoreanName    string         `json:"korean_name" validate:"required,max=100"`
	ChallengeName string         `json:"challenge_name" validate:"required,max=200"`
	Icon          string         `json:"icon" validate:"omitempty,max=50"`
	Requirements  string         `json:"requirements" validate:"omitempty,max=2000"`
	Unit          string         `json:"unit" validate:"omitempty,max=30"`
	GoalType      string         `json:"goal_type" validate:"required,goal_type"`
	Goals         map[string]int `json:"goals" validate:"omitempty,dive,min=1,max=1000"`
	Options       []string       `json:"options" validate:"omitempty,max=30,dive,max=100"`
}

// ProgressUpdateRequest represents a teacher override of numeric progress
type ProgressUpdateRequest struct {
	Progress int `json:"progress" validate:"min=0,max=10000"`
}

// LabelUpdateRequest represents a teacher setting an objective label
type LabelUpdateRequest struct {
	Label string `json:"label" validate:"required,max=100"`
}

// CertifyRequest represents a teacher override of certified state
type CertifyRequest struct {
	Certified bool `json:"certified"`
}

// AdvisorCheckRequest represents asking the AI advisor about evidence
type AdvisorCheckRequest struct {
	AreaName string `json:"area_name" validate:"required"`
	Evidence string `json:"evidence" validate:"required,evidence_text"`
}

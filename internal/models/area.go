package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type GoalType string

const (
	// GoalNumeric areas count approved submissions against a per-grade target.
	GoalNumeric GoalType = "numeric"
	// GoalObjective areas track a categorical label with no automatic counting.
	GoalObjective GoalType = "objective"
)

// IconKey is a closed enumeration of renderable icons. Unknown keys resolve
// to IconFallback so a stale config entry never breaks a client.
type IconKey string

const (
	IconBook     IconKey = "book"
	IconRun      IconKey = "run"
	IconHeart    IconKey = "heart"
	IconMusic    IconKey = "music"
	IconGlobe    IconKey = "globe"
	IconPencil   IconKey = "pencil"
	IconTrophy   IconKey = "trophy"
	IconFallback IconKey = "star"
)

var knownIcons = map[IconKey]bool{
	IconBook:     true,
	IconRun:      true,
	IconHeart:    true,
	IconMusic:    true,
	IconGlobe:    true,
	IconPencil:   true,
	IconTrophy:   true,
	IconFallback: true,
}

// ResolveIcon maps a stored icon name onto the closed icon set.
func ResolveIcon(name string) IconKey {
	key := IconKey(name)
	if knownIcons[key] {
		return key
	}
	return IconFallback
}

// AreaConfig describes one challenge area. Rows are keyed by the area name;
// submissions and achievements reference areas by this name.
type AreaConfig struct {
	Name          string   `json:"name" gorm:"primaryKey;size:100"`
	KoreanName    string   `json:"korean_name" gorm:"size:100"`
	ChallengeName string   `json:"challenge_name" gorm:"size:200"`
	Icon          string   `json:"icon" gorm:"size:50"`
	Requirements  string   `json:"requirements" gorm:"type:text"`
	Unit          string   `json:"unit" gorm:"size:50"`
	GoalType      GoalType `json:"goal_type" gorm:"not null;size:20"`

	// Goals maps a grade key ("4".."6") to the numeric target. Only meaningful
	// for numeric areas.
	Goals datatypes.JSON `json:"goals" gorm:"type:jsonb"`

	// Options is the fixed label list for objective areas.
	Options datatypes.JSON `json:"options" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AreaConfig) TableName() string {
	return "area_configs"
}

func (a *AreaConfig) IsNumeric() bool {
	return a.GoalType == GoalNumeric
}

// GoalForGrade returns the numeric target for a grade key, or 0 if the area
// is not numeric or the grade has no configured goal.
func (a *AreaConfig) GoalForGrade(gradeKey string) int {
	if !a.IsNumeric() || len(a.Goals) == 0 {
		return 0
	}
	var goals map[string]int
	if err := json.Unmarshal(a.Goals, &goals); err != nil {
		return 0
	}
	return goals[gradeKey]
}

// OptionList decodes the objective label choices, empty for numeric areas.
func (a *AreaConfig) OptionList() []string {
	if len(a.Options) == 0 {
		return nil
	}
	var options []string
	if err := json.Unmarshal(a.Options, &options); err != nil {
		return nil
	}
	return options
}

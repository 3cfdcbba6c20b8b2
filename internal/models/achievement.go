package models

import "time"

// Achievement is the per-student, per-area progress record. Numeric areas use
// Progress, objective areas use Label; IsCertified is shared.
type Achievement struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	StudentID uint   `json:"student_id" gorm:"not null;uniqueIndex:idx_student_area"`
	AreaName  string `json:"area_name" gorm:"not null;uniqueIndex:idx_student_area;size:100"`

	// Progress is non-negative; decrements clamp at 0.
	Progress    int    `json:"progress" gorm:"default:0"`
	Label       string `json:"label" gorm:"size:100"`
	IsCertified bool   `json:"is_certified" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// CertificateTier is derived from the count of certified areas, never stored.
type CertificateTier string

const (
	TierGold     CertificateTier = "Gold"
	TierSilver   CertificateTier = "Silver"
	TierBronze   CertificateTier = "Bronze"
	TierUnranked CertificateTier = "Unranked"
)

const (
	bronzeThreshold = 2
	silverThreshold = 3
	goldThreshold   = 4
)

// TierForCertifiedCount recomputes the tier from the current certified count.
// There is no hysteresis: un-certifying an area drops the tier on next read.
func TierForCertifiedCount(count int) CertificateTier {
	switch {
	case count >= goldThreshold:
		return TierGold
	case count >= silverThreshold:
		return TierSilver
	case count >= bronzeThreshold:
		return TierBronze
	default:
		return TierUnranked
	}
}

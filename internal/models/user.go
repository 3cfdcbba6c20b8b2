package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
)

// DefaultPIN is assigned to newly created students until they change it.
const DefaultPIN = "0000"

type User struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	Username string   `json:"username" gorm:"uniqueIndex;not null;size:100"`
	Name     string   `json:"name" gorm:"not null;size:100"`
	Role     UserRole `json:"role" gorm:"not null;index;size:20"`

	// Student-only fields; (grade, class_num, student_num) is unique among students.
	Grade      int `json:"grade" gorm:"uniqueIndex:idx_grade_class_num,where:role = 'student'"`
	ClassNum   int `json:"class_num" gorm:"uniqueIndex:idx_grade_class_num,where:role = 'student'"`
	StudentNum int `json:"student_num" gorm:"uniqueIndex:idx_grade_class_num,where:role = 'student'"`

	// Credential
	PINHash    string `json:"-" gorm:"not null;size:100"`
	PINChanged bool   `json:"pin_changed" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

// GradeKey returns the grade as the string key used by AreaConfig.Goals.
func (u *User) GradeKey() string {
	if u.Grade < 4 || u.Grade > 6 {
		return ""
	}
	return [...]string{"4", "5", "6"}[u.Grade-4]
}

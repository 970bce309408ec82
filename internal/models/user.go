package models

import (
	"time"
)

// User is a row of the legacy relational schema. Identities of the primary
// API live in the document store instead.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Password    string    `gorm:"not null" json:"-"`
	Email       string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	DisplayName string    `gorm:"size:255" json:"displayName"`
	Role        string    `gorm:"size:20;not null;default:'patient'" json:"role"`
	PhotoURL    string    `gorm:"size:1024" json:"photoUrl"`
	IsActive    bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Profile holds both patient and doctor details; at most one per user.
type Profile struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;uniqueIndex" json:"userId"`
	Phone            string    `gorm:"size:50" json:"phone"`
	Address          string    `gorm:"type:text" json:"address"`
	EmergencyContact string    `gorm:"size:255" json:"emergencyContact"`
	MedicalHistory   string    `gorm:"type:text" json:"medicalHistory"`
	Gender           string    `gorm:"size:20" json:"gender"`
	DateOfBirth      string    `gorm:"size:10" json:"dateOfBirth"`
	Bio              string    `gorm:"type:text" json:"bio"`
	Specialization   string    `gorm:"size:255" json:"specialization"`
	Availability     string    `gorm:"size:255" json:"availability"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

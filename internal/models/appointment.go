package models

import "time"

type Appointment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	FullName  string    `gorm:"size:255;not null" json:"fullName"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Phone     string    `gorm:"size:50;not null" json:"phone"`
	Service   string    `gorm:"size:100;not null" json:"service"`
	Date      string    `gorm:"size:10;not null;index" json:"date"`
	Time      string    `gorm:"size:20;not null" json:"time"`
	Message   string    `gorm:"type:text" json:"message"`
	Status    string    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TreatmentStage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PatientID uint      `gorm:"not null;index" json:"patientId"`
	DoctorID  uint      `gorm:"not null" json:"doctorId"`
	Stage     string    `gorm:"size:50;not null" json:"stage"`
	Notes     string    `gorm:"type:text;not null" json:"notes"`
	Date      time.Time `gorm:"not null" json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

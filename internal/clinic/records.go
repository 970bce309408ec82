package clinic

import (
	"time"

	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
)

type User struct {
	UID           string     `json:"uid"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"displayName"`
	Role          Role       `json:"role"`
	PhotoURL      string     `json:"photoURL,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	IsActive      bool       `json:"isActive"`
	DeactivatedAt *time.Time `json:"deactivatedAt,omitempty"`
}

// UserFromDocument decodes users/{uid}. A missing isActive flag means active.
func UserFromDocument(doc docstore.Document) User {
	uid := stringField(doc.Data, "uid")
	if uid == "" {
		uid = doc.ID
	}
	return User{
		UID:           uid,
		Email:         stringField(doc.Data, "email"),
		DisplayName:   stringField(doc.Data, "displayName"),
		Role:          Role(stringField(doc.Data, "role")),
		PhotoURL:      stringField(doc.Data, "photoURL"),
		CreatedAt:     timeField(doc.Data, "createdAt"),
		IsActive:      boolField(doc.Data, "isActive", true),
		DeactivatedAt: optionalTimeField(doc.Data, "deactivatedAt"),
	}
}

func (u User) Fields() map[string]interface{} {
	m := map[string]interface{}{
		"uid":         u.UID,
		"email":       u.Email,
		"displayName": u.DisplayName,
		"role":        string(u.Role),
		"photoURL":    u.PhotoURL,
		"createdAt":   u.CreatedAt,
		"isActive":    u.IsActive,
	}
	if u.DeactivatedAt != nil {
		m["deactivatedAt"] = *u.DeactivatedAt
	}
	return m
}

type Appointment struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	FullName  string            `json:"fullName"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	Service   string            `json:"service"`
	Date      string            `json:"date"`
	Time      TimeSlot          `json:"time"`
	Message   string            `json:"message"`
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func AppointmentFromDocument(doc docstore.Document) Appointment {
	return Appointment{
		ID:        doc.ID,
		UserID:    stringField(doc.Data, "userId"),
		FullName:  stringField(doc.Data, "fullName"),
		Email:     stringField(doc.Data, "email"),
		Phone:     stringField(doc.Data, "phone"),
		Service:   stringField(doc.Data, "service"),
		Date:      dateField(doc.Data, "date"),
		Time:      TimeSlot(stringField(doc.Data, "time")),
		Message:   stringField(doc.Data, "message"),
		Status:    AppointmentStatus(stringField(doc.Data, "status")),
		CreatedAt: timeField(doc.Data, "createdAt"),
		UpdatedAt: timeField(doc.Data, "updatedAt"),
	}
}

// Fields encodes a guest booking's owner as null.
func (a Appointment) Fields() map[string]interface{} {
	var userID interface{}
	if a.UserID != "" {
		userID = a.UserID
	}
	return map[string]interface{}{
		"userId":    userID,
		"fullName":  a.FullName,
		"email":     a.Email,
		"phone":     a.Phone,
		"service":   a.Service,
		"date":      a.Date,
		"time":      string(a.Time),
		"message":   a.Message,
		"status":    string(a.Status),
		"createdAt": a.CreatedAt,
		"updatedAt": a.UpdatedAt,
	}
}

// Day parses the calendar date in loc.
func (a Appointment) Day(loc *time.Location) (time.Time, bool) {
	d, err := time.ParseInLocation(DateLayout, a.Date, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

type TreatmentStage struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patientId"`
	Stage      Stage     `json:"stage"`
	Notes      string    `json:"notes"`
	DoctorID   string    `json:"doctorId"`
	DoctorName string    `json:"doctorName"`
	Date       time.Time `json:"date"`
}

func TreatmentStageFromDocument(doc docstore.Document) TreatmentStage {
	return TreatmentStage{
		ID:         doc.ID,
		PatientID:  stringField(doc.Data, "patientId"),
		Stage:      Stage(stringField(doc.Data, "stage")),
		Notes:      stringField(doc.Data, "notes"),
		DoctorID:   stringField(doc.Data, "doctorId"),
		DoctorName: stringField(doc.Data, "doctorName"),
		Date:       timeField(doc.Data, "date"),
	}
}

func (s TreatmentStage) Fields() map[string]interface{} {
	return map[string]interface{}{
		"patientId":  s.PatientID,
		"stage":      string(s.Stage),
		"notes":      s.Notes,
		"doctorId":   s.DoctorID,
		"doctorName": s.DoctorName,
		"date":       s.Date,
	}
}

type PatientProfile struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	FullName         string    `json:"fullName"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	EmergencyContact string    `json:"emergencyContact"`
	MedicalHistory   string    `json:"medicalHistory"`
	Gender           Gender    `json:"gender"`
	DateOfBirth      string    `json:"dateOfBirth"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func PatientProfileFromDocument(doc docstore.Document) PatientProfile {
	return PatientProfile{
		ID:               doc.ID,
		UserID:           stringField(doc.Data, "userId"),
		FullName:         stringField(doc.Data, "fullName"),
		Phone:            stringField(doc.Data, "phone"),
		Address:          stringField(doc.Data, "address"),
		EmergencyContact: stringField(doc.Data, "emergencyContact"),
		MedicalHistory:   stringField(doc.Data, "medicalHistory"),
		Gender:           Gender(stringField(doc.Data, "gender")),
		DateOfBirth:      dateField(doc.Data, "dateOfBirth"),
		CreatedAt:        timeField(doc.Data, "createdAt"),
		UpdatedAt:        timeField(doc.Data, "updatedAt"),
	}
}

// EditableFields omits identity linkage and timestamps.
func (p PatientProfile) EditableFields() map[string]interface{} {
	return map[string]interface{}{
		"fullName":         p.FullName,
		"phone":            p.Phone,
		"address":          p.Address,
		"emergencyContact": p.EmergencyContact,
		"medicalHistory":   p.MedicalHistory,
		"gender":           string(p.Gender),
		"dateOfBirth":      p.DateOfBirth,
	}
}

type DoctorProfile struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Phone          string     `json:"phone"`
	Specialization string     `json:"specialization"`
	Availability   string     `json:"availability"`
	Bio            string     `json:"bio"`
	IsActive       bool       `json:"isActive"`
	DeactivatedAt  *time.Time `json:"deactivatedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func DoctorProfileFromDocument(doc docstore.Document) DoctorProfile {
	return DoctorProfile{
		ID:             doc.ID,
		UserID:         stringField(doc.Data, "userId"),
		Phone:          stringField(doc.Data, "phone"),
		Specialization: stringField(doc.Data, "specialization"),
		Availability:   stringField(doc.Data, "availability"),
		Bio:            stringField(doc.Data, "bio"),
		IsActive:       boolField(doc.Data, "isActive", true),
		DeactivatedAt:  optionalTimeField(doc.Data, "deactivatedAt"),
		CreatedAt:      timeField(doc.Data, "createdAt"),
		UpdatedAt:      timeField(doc.Data, "updatedAt"),
	}
}

func (p DoctorProfile) EditableFields() map[string]interface{} {
	return map[string]interface{}{
		"phone":          p.Phone,
		"specialization": p.Specialization,
		"availability":   p.Availability,
		"bio":            p.Bio,
	}
}

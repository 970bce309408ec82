// Package clinic holds the clinic's domain records and their document
// encodings.
package clinic

const (
	CollectionUsers           = "users"
	CollectionAppointments    = "appointments"
	CollectionTreatmentStages = "treatmentStages"
	CollectionPatientProfiles = "patientProfiles"
	CollectionDoctorProfiles  = "doctorProfiles"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleOwner   Role = "owner"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleOwner:
		return true
	}
	return false
}

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal statuses never change again.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusCompleted},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

// CanTransition reports whether a staff action may move an appointment
// from one status to another. Re-applying the current status is allowed,
// and records with an unrecognised status may move anywhere.
func CanTransition(from, to AppointmentStatus) bool {
	if !to.Valid() {
		return false
	}
	if from == to || !from.Valid() {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"
	SlotAfternoon TimeSlot = "afternoon"
	SlotEvening   TimeSlot = "evening"
)

type Stage string

const (
	StageInitialConsultation Stage = "Initial Consultation"
	StageAssessment          Stage = "Assessment"
	StageMeasurement         Stage = "Measurement"
	StageDesign              Stage = "Design"
	StageFabrication         Stage = "Fabrication"
	StageFitting             Stage = "Fitting"
	StageAdjustment          Stage = "Adjustment"
	StageFollowUp            Stage = "Follow-up"
	StageFinalAssessment     Stage = "Final Assessment"
	StageCompleted           Stage = "Completed"
)

// Stages lists the treatment stages in clinical order.
var Stages = []Stage{
	StageInitialConsultation,
	StageAssessment,
	StageMeasurement,
	StageDesign,
	StageFabrication,
	StageFitting,
	StageAdjustment,
	StageFollowUp,
	StageFinalAssessment,
	StageCompleted,
}

// Index returns the stage's position in Stages, or -1.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) Valid() bool { return s.Index() >= 0 }

type Gender string

const (
	GenderUnspecified Gender = ""
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderUnspecified, GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// DateLayout is the calendar-date format of appointment dates.
const DateLayout = "2006-01-02"

package dto

type LegacyUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	PhotoURL    string `json:"photoUrl"`
}

type LegacyAppointmentRequest struct {
	UserID   uint   `json:"userId"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Service  string `json:"service"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Message  string `json:"message"`
	Status   string `json:"status"`
}

type LegacyStageRequest struct {
	PatientID uint   `json:"patientId"`
	DoctorID  uint   `json:"doctorId"`
	Stage     string `json:"stage"`
	Notes     string `json:"notes"`
	Date      string `json:"date"`
}

type LegacyStageUpdateRequest struct {
	Stage *string `json:"stage"`
	Notes *string `json:"notes"`
}

type LegacyProfileRequest struct {
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergencyContact"`
	MedicalHistory   string `json:"medicalHistory"`
	Gender           string `json:"gender"`
	DateOfBirth      string `json:"dateOfBirth"`
	Bio              string `json:"bio"`
	Specialization   string `json:"specialization"`
	Availability     string `json:"availability"`
}

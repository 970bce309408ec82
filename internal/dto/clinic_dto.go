package dto

type BookingRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Service  string `json:"service"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Message  string `json:"message"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

type StageRequest struct {
	Stage string `json:"stage"`
	Notes string `json:"notes"`
	Date  string `json:"date"`
}

// StageUpdateRequest fields are optional; nil leaves the field unchanged.
type StageUpdateRequest struct {
	Stage *string `json:"stage"`
	Notes *string `json:"notes"`
	Date  *string `json:"date"`
}

type ProfileRequest struct {
	FullName         string `json:"fullName"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergencyContact"`
	MedicalHistory   string `json:"medicalHistory"`
	Gender           string `json:"gender"`
	DateOfBirth      string `json:"dateOfBirth"`
}

type CreateDoctorRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	DisplayName    string `json:"displayName"`
	Phone          string `json:"phone"`
	Specialization string `json:"specialization"`
	Availability   string `json:"availability"`
	Bio            string `json:"bio"`
}

type UpdateDoctorRequest struct {
	DisplayName    string `json:"displayName"`
	Phone          string `json:"phone"`
	Specialization string `json:"specialization"`
	Availability   string `json:"availability"`
	Bio            string `json:"bio"`
}

type StageProgress struct {
	Current   string   `json:"current"`
	Index     int      `json:"index"`
	Total     int      `json:"total"`
	Completed bool     `json:"completed"`
	Stages    []string `json:"stages"`
}

type ListResponse struct {
	Data  interface{} `json:"data"`
	Count int         `json:"count"`
}

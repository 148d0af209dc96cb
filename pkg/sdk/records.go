package sdk

// Record types mirror the server's API schemas. Optional fields are
// pointers so a partial update patch omits what it does not touch.

// Person is the base identity record shared by employees and clients.
type Person struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       *string `json:"email,omitempty"`
	PhoneMobile *string `json:"phone_mobile,omitempty"`
	DOB         *string `json:"dob,omitempty"`
	Gender      *string `json:"gender,omitempty"`
}

// Clinic is an organization record.
type Clinic struct {
	ID                 string  `json:"id"`
	Code               string  `json:"code"`
	Name               string  `json:"name"`
	FunctionalCurrency string  `json:"functional_currency"`
	City               *string `json:"city,omitempty"`
	CountryCode        *string `json:"country_code,omitempty"`
	IsActive           bool    `json:"is_active"`
}

// Employee is a staff record tied to a person and a primary clinic.
type Employee struct {
	ID                   string  `json:"id"`
	PersonID             string  `json:"person_id"`
	EmployeeCode         *string `json:"employee_code,omitempty"`
	PrimaryClinicID      string  `json:"primary_clinic_id"`
	Role                 string  `json:"role"`
	LicenseNumber        *string `json:"license_number,omitempty"`
	CanPerformTreatments bool    `json:"can_perform_treatments"`
	IsActive             bool    `json:"is_active"`
	Person               *Person `json:"person,omitempty"`
}

// ClientRecord is an associated-person (customer) record. Named to avoid
// colliding with the SDK's own Client type.
type ClientRecord struct {
	ID                 string  `json:"id"`
	PersonID           string  `json:"person_id"`
	ClientCode         *string `json:"client_code,omitempty"`
	PreferredClinicID  *string `json:"preferred_clinic_id,omitempty"`
	AcquisitionDate    *string `json:"acquisition_date,omitempty"`
	IsActive           bool    `json:"is_active"`
	Person             *Person `json:"person,omitempty"`
}

// User is an operator account.
type User struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Role     string  `json:"role"`
	IsActive bool    `json:"is_active"`
	PersonID *string `json:"person_id,omitempty"`
	Person   *Person `json:"person,omitempty"`
}

package authapi

// Типизированные тела запросов/ответов: по варианту на исход,
// никакого прощупывания полей в рантайме.

type CheckEmailRequest struct {
	Email string `json:"email"`
}

type CheckEmailResponse struct {
	Status string `json:"status"` // user_exists | verification_sent
}

type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type VerifyCodeResponse struct {
	Status string `json:"status"` // code_verified
}

const StatusCodeVerified = "code_verified"

type CompleteRegistrationRequest struct {
	Email        string `json:"email,omitempty"`
	Token        string `json:"token,omitempty"`
	Password     string `json:"password"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	CompanyPhone string `json:"companyPhone,omitempty"`
	BirthDate    string `json:"birthDate,omitempty"` // YYYY-MM-DD
}

type CompleteRegistrationResponse struct {
	Status string `json:"status"` // registration_complete
	Token  string `json:"token"`
}

const StatusRegistrationComplete = "registration_complete"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type SetupInfoResponse struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type CreateUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	RoleID    int    `json:"roleId"`
	Mode      string `json:"mode"`               // invite | direct
	Password  string `json:"password,omitempty"` // только для direct
}

type CreateUserResponse struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
}

type MeResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	RoleID    int    `json:"roleId"`
}

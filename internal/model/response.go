package model

type MessageResponse struct {
	Msg string `json:"msg"`
}

// RegisterResponse echoes the verification token back to the caller. That is
// a deliberate testing affordance carried over from the original API; real
// clients receive the token by email only.
type RegisterResponse struct {
	Msg               string `json:"msg"`
	VerificationToken string `json:"verificationToken"`
}

type LoginResponse struct {
	User TokenUser `json:"user"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

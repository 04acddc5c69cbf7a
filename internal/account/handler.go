package account

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"
)

const (
	msgVerified = "Account verified successfully"
	msgResent   = "Verification code has been sent"
)

// Recorder observes operation outcomes.
type Recorder interface {
	Observe(operation, outcome string)
}

// Handler exposes account lifecycle endpoints.
type Handler struct {
	service  *Service
	recorder Recorder
}

// NewHandler constructs an account HTTP handler. recorder may be nil.
func NewHandler(service *Service, recorder Recorder) *Handler {
	return &Handler{service: service, recorder: recorder}
}

type signupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks the signup payload.
func (r signupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.EmailFormat),
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 72)),
	)
}

type verifyRequest struct {
	Email            string `json:"email"`
	VerificationCode string `json:"verificationCode"`
}

// Validate checks the verify payload. The code itself is compared verbatim by the service.
func (r verifyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.VerificationCode, validation.Required),
	)
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	ID                        string     `json:"id"`
	Username                  string     `json:"username"`
	Email                     string     `json:"email"`
	Enabled                   bool       `json:"enabled"`
	VerificationCodeExpiresAt *time.Time `json:"verificationCodeExpiresAt,omitempty"`
	CreatedAt                 time.Time  `json:"createdAt"`
}

// NewAccountResponse renders an account without its secret hash or code.
func NewAccountResponse(a Account) AccountResponse {
	return AccountResponse{
		ID:                        a.ID,
		Username:                  a.DisplayName,
		Email:                     a.Email,
		Enabled:                   a.Enabled,
		VerificationCodeExpiresAt: a.VerificationCodeExpiresAt,
		CreatedAt:                 a.CreatedAt,
	}
}

// Signup registers a new account and sends its verification code.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acc, err := h.service.Register(c.UserContext(), RegisterInput{Email: req.Email, DisplayName: req.Username, Secret: req.Password})
	h.observe("register", err)
	if err != nil {
		return ErrorResponse(err)
	}
	return c.Status(http.StatusCreated).JSON(NewAccountResponse(acc))
}

// Verify consumes a verification code.
func (h *Handler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	err := h.service.Verify(c.UserContext(), req.Email, req.VerificationCode)
	h.observe("verify", err)
	if err != nil {
		return ErrorResponse(err)
	}
	return c.Status(http.StatusOK).SendString(msgVerified)
}

// Resend issues a new verification code. The email is read from the query
// string, falling back to a JSON body.
func (h *Handler) Resend(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		var req struct {
			Email string `json:"email"`
		}
		_ = c.BodyParser(&req)
		email = req.Email
	}
	if err := validation.Validate(email, validation.Required); err != nil {
		return fiber.NewError(http.StatusBadRequest, "email: "+err.Error())
	}
	err := h.service.ResendVerification(c.UserContext(), email)
	h.observe("resend", err)
	if err != nil {
		return ErrorResponse(err)
	}
	return c.Status(http.StatusOK).SendString(msgResent)
}

// Me returns the account bound to the bearer token.
func (h *Handler) Me(c *fiber.Ctx) error {
	id, _ := c.Locals(LocalAccountID).(string)
	if id == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	acc, err := h.service.Account(c.UserContext(), id)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "user not found")
	}
	return c.Status(http.StatusOK).JSON(NewAccountResponse(acc))
}

func (h *Handler) observe(operation string, err error) {
	if h.recorder != nil {
		h.recorder.Observe(operation, Outcome(err))
	}
}

// LocalAccountID is the fiber locals key holding the authenticated account id.
const LocalAccountID = "account_id"

// ErrorResponse maps lifecycle outcomes to 400 with their message and
// anything else to 500.
func ErrorResponse(err error) error {
	if IsDomainError(err) {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return fiber.NewError(http.StatusInternalServerError, "internal error")
}

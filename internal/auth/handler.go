package auth

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/accountgate/internal/account"
)

// Handler exposes the login endpoint.
type Handler struct {
	accounts *account.Service
	issuer   *Issuer
	recorder account.Recorder
}

// NewHandler builds a login handler. recorder may be nil.
func NewHandler(accounts *account.Service, issuer *Issuer, recorder account.Recorder) *Handler {
	return &Handler{accounts: accounts, issuer: issuer, recorder: recorder}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// Login authenticates the account and returns a signed access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acc, err := h.accounts.Authenticate(c.UserContext(), req.Email, req.Password)
	h.observe(err)
	if err != nil {
		return account.ErrorResponse(err)
	}
	tok, err := h.issuer.Issue(acc.ID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "failed to issue token")
	}
	return c.Status(http.StatusOK).JSON(loginResponse{Token: tok.Value, ExpiresIn: h.issuer.ExpiresIn()})
}

func (h *Handler) observe(err error) {
	if h.recorder != nil {
		h.recorder.Observe("login", account.Outcome(err))
	}
}

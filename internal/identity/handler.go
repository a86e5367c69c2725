package identity

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
)

// Handler exposes identity endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Phone     string `json:"phone"`
	PIN       string `json:"pin"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
	Tier      string `json:"tier"`
}

type registerResponse struct {
	UserID   string `json:"user_id"`
	Phone    string `json:"phone"`
	Tier     string `json:"tier"`
	WalletID string `json:"wallet_id"`
}

// Register handles user onboarding. The response carries the id of the
// wallet provisioned alongside the account.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, w, err := h.service.Register(c.UserContext(), Registration{
		Phone:     req.Phone,
		PIN:       req.PIN,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ImageURL:  req.ImageURL,
		Tier:      ledger.Tier(req.Tier),
	})
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(registerResponse{
		UserID:   user.ID,
		Phone:    user.Phone,
		Tier:     string(user.Tier),
		WalletID: w.ID,
	})
}

package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paisa-pay/paisa_pay/internal/payments"
)

// RegisterPaymentRoutes wires the money-moving endpoints.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler) {
	r.Post("/wallets/:walletId/deposit", h.Deposit)
	r.Post("/transfers", h.Transfer)
}

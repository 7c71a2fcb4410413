package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/servicedesk/ticket-service/internal/api/dto"
	"github.com/servicedesk/ticket-service/internal/service"
)

// SLAHandler exposes the SLA table.
type SLAHandler struct {
	sla *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService) *SLAHandler {
	return &SLAHandler{sla: slaService}
}

// List godoc
// @Summary      SLA hours per priority
// @Tags         admin
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /api/admin/sla [get]
func (h *SLAHandler) List(c *fiber.Ctx) error {
	rows, err := h.sla.List(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.SLARuleResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.SLARuleResponse{Priority: r.Priority, Hours: r.Hours, IsDefault: r.IsDefault, UpdatedAt: r.UpdatedAt})
	}
	return c.JSON(fiber.Map{"data": out})
}

// Upsert godoc
// @Summary      Set the SLA hours of a priority
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        priority path string true "P1, P2, P3 or ordinal"
// @Param        body body dto.UpsertSLARequest true "hours"
// @Success      200 {object} map[string]interface{}
// @Router       /api/admin/sla/{priority} [put]
func (h *SLAHandler) Upsert(c *fiber.Ctx) error {
	var req dto.UpsertSLARequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	rule, err := h.sla.Upsert(c.UserContext(), c.Params("priority"), req.Hours)
	if err != nil {
		return err
	}
	updated := rule.UpdatedAt
	return c.JSON(fiber.Map{"data": dto.SLARuleResponse{Priority: rule.Priority, Hours: rule.Hours, UpdatedAt: &updated}})
}

// Ping handles GET /api/admin/ping.
func (h *SLAHandler) Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{"pong": true}})
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/servicedesk/ticket-service/internal/api/dto"
	"github.com/servicedesk/ticket-service/internal/auth"
	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/repository"
	"github.com/servicedesk/ticket-service/internal/service"
	"github.com/servicedesk/ticket-service/pkg/util"
)

// TicketsHandler exposes the ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
	export  *service.ExportService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, exportService *service.ExportService) *TicketsHandler {
	return &TicketsHandler{service: ticketService, export: exportService}
}

// ListTickets godoc
// @Summary      List live tickets
// @Tags         tickets
// @Produce      json
// @Param        status query string false "Open, InProgress, Closed or ordinal"
// @Param        priority query string false "P1, P2, P3 or ordinal"
// @Param        search query string false "substring of title or description"
// @Param        sort_by query string false "createdAt, updatedAt, title, priority, status, createdBy, assignedTo"
// @Param        sort_dir query string false "asc or desc"
// @Param        page query int false "page number"
// @Param        page_size query int false "page size"
// @Success      200 {object} map[string]interface{}
// @Router       /api/tickets [get]
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseTicketFilter(c)
	if err != nil {
		return err
	}
	sort := repository.NewSort(c.Query("sort_by"), c.Query("sort_dir"), repository.TicketSortKeys)
	page, err := h.service.List(c.UserContext(), filter, sort, parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketPage(page.Items, page.Total, page.Page, page.PageSize)})
}

// ListDeleted godoc
// @Summary      List soft-deleted tickets
// @Tags         tickets
// @Produce      json
// @Param        search query string false "substring of title or delete reason"
// @Param        deleted_by query string false "substring of the deleting actor"
// @Param        deleted_from query string false "date or timestamp"
// @Param        deleted_to query string false "date or timestamp"
// @Success      200 {object} map[string]interface{}
// @Router       /api/tickets/deleted [get]
func (h *TicketsHandler) ListDeleted(c *fiber.Ctx) error {
	filter := repository.DeletedTicketFilter{
		Search:      searchTerm(c),
		DeletedBy:   c.Query("deleted_by"),
		DeletedFrom: repository.DayStart(c.Query("deleted_from")),
		DeletedTo:   repository.DayEnd(c.Query("deleted_to")),
	}
	sort := repository.NewSort(c.Query("sort_by"), c.Query("sort_dir"), repository.DeletedSortKeys)
	page, err := h.service.ListDeleted(c.UserContext(), filter, sort, parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketPage(page.Items, page.Total, page.Page, page.PageSize)})
}

// Export godoc
// @Summary      Export the filtered listing as xlsx
// @Tags         tickets
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200 {file} file
// @Router       /api/tickets/export [get]
func (h *TicketsHandler) Export(c *fiber.Ctx) error {
	filter, err := parseTicketFilter(c)
	if err != nil {
		return err
	}
	sort := repository.NewSort(c.Query("sort_by"), c.Query("sort_dir"), repository.TicketSortKeys)
	data, truncated, err := h.export.ExportTickets(c.UserContext(), filter, sort)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="tickets.xlsx"`)
	c.Set("X-Export-Truncated", strconv.FormatBool(truncated))
	return c.Send(data)
}

// CreateTicket godoc
// @Summary      Create a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        body body dto.CreateTicketRequest true "ticket"
// @Success      201 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Router       /api/tickets [post]
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.service.Create(c.UserContext(), service.CreateTicketInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority.String(),
		Category:    req.Category.String(),
		Type:        req.Type.String(),
		CreatedBy:   auth.Actor(c, req.CreatedBy),
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketDetailResponse(res.Detail)})
}

// GetTicket godoc
// @Summary      Ticket detail with activities and comments
// @Tags         tickets
// @Produce      json
// @Param        id path string true "ticket id"
// @Success      200 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /api/tickets/{id} [get]
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	detail, err := h.service.GetDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(detail)})
}

// ListEvents godoc
// @Summary      Raw event log, newest first
// @Tags         tickets
// @Produce      json
// @Param        id path string true "ticket id"
// @Success      200 {object} map[string]interface{}
// @Router       /api/tickets/{id}/events [get]
func (h *TicketsHandler) ListEvents(c *fiber.Ctx) error {
	events, err := h.service.ListEvents(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEventResponses(events)})
}

// UpdateTicket godoc
// @Summary      Edit title, description, priority and assignee
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id path string true "ticket id"
// @Param        body body dto.UpdateTicketRequest true "fields"
// @Success      200 {object} map[string]interface{}
// @Failure      409 {object} map[string]interface{}
// @Router       /api/tickets/{id} [put]
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.service.Update(c.UserContext(), c.Params("id"), auth.Actor(c, req.By), service.UpdateTicketInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority.String(),
		AssignedTo:  req.AssignedTo,
	})
	return respond(c, res, err)
}

// PatchTicket godoc
// @Summary      Change status, priority or assignee
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id path string true "ticket id"
// @Param        body body dto.PatchTicketRequest true "fields"
// @Success      200 {object} map[string]interface{}
// @Router       /api/tickets/{id} [patch]
func (h *TicketsHandler) PatchTicket(c *fiber.Ctx) error {
	var req dto.PatchTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.service.Patch(c.UserContext(), c.Params("id"), auth.Actor(c, req.By), service.PatchTicketInput{
		Status:     req.Status.Ptr(),
		Priority:   req.Priority.Ptr(),
		AssignedTo: req.AssignedTo,
	})
	return respond(c, res, err)
}

// CloseTicket godoc
// @Summary      Close a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id path string true "ticket id"
// @Success      200 {object} map[string]interface{}
// @Router       /api/tickets/{id}/close [post]
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	var req dto.TicketActionRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	res, err := h.service.Close(c.UserContext(), c.Params("id"), auth.Actor(c, req.By), req.Comment)
	return respond(c, res, err)
}

// ReopenTicket godoc
// @Summary      Reopen a closed ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id path string true "ticket id"
// @Success      200 {object} map[string]interface{}
// @Router       /api/tickets/{id}/reopen [post]
func (h *TicketsHandler) ReopenTicket(c *fiber.Ctx) error {
	var req dto.TicketActionRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	res, err := h.service.Reopen(c.UserContext(), c.Params("id"), auth.Actor(c, req.By), req.Comment)
	return respond(c, res, err)
}

// AddComment godoc
// @Summary      Comment on a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id path string true "ticket id"
// @Param        body body dto.CommentRequest true "comment"
// @Success      201 {object} map[string]interface{}
// @Router       /api/tickets/{id}/comments [post]
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.service.AddComment(c.UserContext(), c.Params("id"), auth.Actor(c, req.By), req.Text)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketDetailResponse(res.Detail)})
}

// DeleteTicket godoc
// @Summary      Soft delete a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id path string true "ticket id"
// @Param        body body dto.DeleteRequest true "actor and reason"
// @Success      200 {object} map[string]interface{}
// @Router       /api/tickets/{id} [delete]
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	var req dto.DeleteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.service.SoftDelete(c.UserContext(), c.Params("id"), req.By, req.Reason)
	return respond(c, res, err)
}

func respond(c *fiber.Ctx, res *service.TicketResult, err error) error {
	if err != nil {
		return err
	}
	body := fiber.Map{"data": dto.NewTicketDetailResponse(res.Detail)}
	if res.Message != "" {
		body["message"] = res.Message
	}
	return c.JSON(body)
}

func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return util.NewValidationError("invalid payload", map[string]any{"body": err.Error()})
	}
	return dto.Validate(req)
}

// parseOptionalBody accepts an empty body.
func parseOptionalBody(c *fiber.Ctx, req any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return parseBody(c, req)
}

func searchTerm(c *fiber.Ctx) string {
	if s := c.Query("search"); s != "" {
		return s
	}
	return c.Query("q")
}

func parseTicketFilter(c *fiber.Ctx) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{
		Search:      searchTerm(c),
		CreatedBy:   c.Query("created_by"),
		AssignedTo:  c.Query("assigned_to"),
		CreatedFrom: repository.DayStart(c.Query("created_from")),
		CreatedTo:   repository.DayEnd(c.Query("created_to")),
		UpdatedFrom: repository.DayStart(c.Query("updated_from")),
		UpdatedTo:   repository.DayEnd(c.Query("updated_to")),
	}
	details := map[string]any{}
	var err error
	if filter.Status, err = optionalEnum(c.Query("status"), domain.ParseTicketStatus); err != nil {
		details["status"] = err.Error()
	}
	if filter.Priority, err = optionalEnum(c.Query("priority"), domain.ParseTicketPriority); err != nil {
		details["priority"] = err.Error()
	}
	if filter.Category, err = optionalEnum(c.Query("category"), domain.ParseTicketCategory); err != nil {
		details["category"] = err.Error()
	}
	if filter.Type, err = optionalEnum(c.Query("type"), domain.ParseTicketType); err != nil {
		details["type"] = err.Error()
	}
	if len(details) > 0 {
		return filter, util.NewValidationError("invalid filter", details)
	}
	return filter, nil
}

func optionalEnum[T any](raw string, parse func(string) (T, error)) (*T, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := parse(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parsePage(c *fiber.Ctx) repository.Page {
	return repository.NewPage(parseInt(c.Query("page"), 1), parseInt(c.Query("page_size"), repository.DefaultPageSize))
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}

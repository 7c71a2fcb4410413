package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/servicedesk/ticket-service/internal/api/dto"
	"github.com/servicedesk/ticket-service/internal/auth"
	"github.com/servicedesk/ticket-service/internal/service"
	"github.com/servicedesk/ticket-service/pkg/util"
)

// EvidenceHandler exposes evidence upload, listing, download and removal.
type EvidenceHandler struct {
	evidence *service.EvidenceService
}

// NewEvidenceHandler constructs handler.
func NewEvidenceHandler(evidenceService *service.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{evidence: evidenceService}
}

// List godoc
// @Summary      Evidence of a ticket, newest first
// @Tags         evidence
// @Produce      json
// @Param        id path string true "ticket id"
// @Success      200 {object} map[string]interface{}
// @Router       /api/tickets/{id}/evidence [get]
func (h *EvidenceHandler) List(c *fiber.Ctx) error {
	items, err := h.evidence.List(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEvidenceList(items)})
}

// Upload godoc
// @Summary      Upload one or more evidence files
// @Tags         evidence
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "ticket id"
// @Param        files formData file true "files"
// @Param        by formData string false "actor"
// @Param        comment formData string false "comment"
// @Success      201 {object} map[string]interface{}
// @Router       /api/tickets/{id}/evidence [post]
func (h *EvidenceHandler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return util.NewValidationError("multipart form required", map[string]any{"files": err.Error()})
	}
	var headers []*multipart.FileHeader
	headers = append(headers, form.File["files"]...)
	headers = append(headers, form.File["files[]"]...)
	headers = append(headers, form.File["file"]...)

	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		files = append(files, service.UploadFile{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	var comment *string
	if v := formValue(form, "comment"); v != "" {
		comment = &v
	}

	res, err := h.evidence.Upload(c.UserContext(), c.Params("id"), auth.Actor(c, formValue(form, "by")), files, comment)
	if res == nil {
		return err
	}
	body := dto.UploadResponse{Uploaded: dto.NewEvidenceList(res.Uploaded), Failed: []dto.UploadFailureResponse{}}
	for _, f := range res.Failed {
		body.Failed = append(body.Failed, dto.UploadFailureResponse{FileName: f.FileName, Reason: f.Reason})
	}
	if err != nil {
		domainErr := util.ToDomainError(err)
		return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{
			"error": fiber.Map{"code": domainErr.Code, "message": domainErr.Message},
			"data":  body,
		})
	}
	status := http.StatusCreated
	if len(body.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	return c.Status(status).JSON(fiber.Map{"data": body})
}

// Download godoc
// @Summary      Download evidence bytes
// @Tags         evidence
// @Produce      octet-stream
// @Param        evidenceId path string true "evidence id"
// @Success      200 {file} file
// @Failure      404 {object} map[string]interface{}
// @Router       /api/tickets/evidence/{evidenceId}/download [get]
func (h *EvidenceHandler) Download(c *fiber.Ctx) error {
	ev, rc, err := h.evidence.Download(c.UserContext(), c.Params("evidenceId"))
	if err != nil {
		return err
	}
	c.Attachment(ev.FileName)
	c.Set(fiber.HeaderContentType, ev.ContentType)
	return c.SendStream(rc, int(ev.SizeBytes))
}

// Delete godoc
// @Summary      Delete evidence without an audit entry
// @Tags         evidence
// @Param        evidenceId path string true "evidence id"
// @Success      204
// @Router       /api/tickets/evidence/{evidenceId} [delete]
func (h *EvidenceHandler) Delete(c *fiber.Ctx) error {
	if err := h.evidence.Delete(c.UserContext(), c.Params("evidenceId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteTraceable godoc
// @Summary      Delete evidence recording who and why
// @Tags         evidence
// @Accept       json
// @Param        id path string true "ticket id"
// @Param        evidenceId path string true "evidence id"
// @Param        body body dto.DeleteRequest true "actor and reason"
// @Success      204
// @Router       /api/tickets/{id}/evidence/{evidenceId}/delete [post]
func (h *EvidenceHandler) DeleteTraceable(c *fiber.Ctx) error {
	var req dto.DeleteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.evidence.DeleteTraceable(c.UserContext(), c.Params("id"), c.Params("evidenceId"), req.By, req.Reason); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func formValue(form *multipart.Form, key string) string {
	if vals := form.Value[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

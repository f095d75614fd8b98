package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskhub/backend/api/transport"
	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/pkg/httpcontext"
	taskUC "github.com/taskhub/backend/usecase/task"
)

// AttachmentField is the multipart form field holding the upload.
const AttachmentField = "attachment"

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	ident := h.identity(ctx)
	if ident == nil {
		return
	}

	page := 1
	if raw := string(ctx.QueryArgs().Peek("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.respondError(ctx, domain.NewError(domain.ErrCodeInvalid, "invalid page"))
			return
		}
		page = parsed
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.List(stdCtx, ident, taskUC.ListInput{
		Search:   string(ctx.QueryArgs().Peek("search")),
		Status:   string(ctx.QueryArgs().Peek("status")),
		Priority: string(ctx.QueryArgs().Peek("priority")),
		Page:     page,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Get a single task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) Get(ctx *fasthttp.RequestCtx) {
	ident := h.identity(ctx)
	if ident == nil {
		return
	}
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Get(stdCtx, ident, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Create a task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	ident := h.identity(ctx)
	if ident == nil {
		return
	}

	var req transport.TaskCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalidPayload(ctx)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, ident, taskUC.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update a task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) Update(ctx *fasthttp.RequestCtx) {
	ident := h.identity(ctx)
	if ident == nil {
		return
	}
	id, _ := ctx.UserValue("id").(string)

	var req transport.TaskUpdateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalidPayload(ctx)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, ident, id, taskUC.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, updated)
}

// @Summary Delete a task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) Delete(ctx *fasthttp.RequestCtx) {
	ident := h.identity(ctx)
	if ident == nil {
		return
	}
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, ident, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, transport.MessageResponse{Message: "Task deleted successfully"})
}

// @Summary Upload a task attachment
// @Tags tasks
// @Router /api/v1/tasks/{id}/attachment [post]
func (h *TaskHandler) Attach(ctx *fasthttp.RequestCtx) {
	ident := h.identity(ctx)
	if ident == nil {
		return
	}
	id, _ := ctx.UserValue("id").(string)

	header, err := ctx.FormFile(AttachmentField)
	if err != nil {
		h.respondError(ctx, domain.NewError(domain.ErrCodeInvalid, "Attachment is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeInternal, "failed to read attachment", err))
		return
	}
	defer file.Close()

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Attach(stdCtx, ident, id, header.Filename, file)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Remove a task attachment
// @Tags tasks
// @Router /api/v1/tasks/{id}/attachment [delete]
func (h *TaskHandler) Detach(ctx *fasthttp.RequestCtx) {
	ident := h.identity(ctx)
	if ident == nil {
		return
	}
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Detach(stdCtx, ident, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

package handler

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/goccy/go-json"

	"github.com/jengzang/activity-backend-go/internal/middleware"
	"github.com/jengzang/activity-backend-go/internal/models"
	"github.com/jengzang/activity-backend-go/internal/service"
	"github.com/jengzang/activity-backend-go/pkg/response"
)

// ActivityHandler handles HTTP requests for activities
type ActivityHandler struct {
	activities *service.ActivityService
	imports    *service.ImportService
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activities *service.ActivityService, imports *service.ImportService) *ActivityHandler {
	return &ActivityHandler{
		activities: activities,
		imports:    imports,
	}
}

// Import handles POST /api/v1/activities
//
// The multipart form carries the upload in "file" and the activity metadata as a JSON
// document in "data". The response is 201 when at least one activity was created.
func (h *ActivityHandler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "no file part")
		return
	}

	var input service.ActivityInput
	if err := json.Unmarshal([]byte(c.PostForm("data")), &input); err != nil {
		response.BadRequest(c, "invalid data part")
		return
	}
	if err := binding.Validator.ValidateStruct(&input); err != nil {
		response.BadRequest(c, "invalid data part: "+err.Error())
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.InternalError(c, "error during file upload")
		return
	}
	defer f.Close()

	result, err := h.imports.Import(c.Request.Context(), middleware.UserID(c), input, service.Upload{
		Filename: fh.Filename,
		Content:  f,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if len(result.Activities) == 0 {
		response.JSON(c, http.StatusBadRequest, service.StatusError, "no activity imported", result)
		return
	}
	response.Created(c, result)
}

// CreateManual handles POST /api/v1/activities/no_gpx
func (h *ActivityHandler) CreateManual(c *gin.Context) {
	var input service.ManualInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	a, err := h.activities.CreateManual(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, a)
}

// List handles GET /api/v1/activities
func (h *ActivityHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		response.BadRequest(c, "Invalid page parameter")
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		response.BadRequest(c, "Invalid page_size parameter")
		return
	}

	list, err := h.activities.List(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, list)
}

// Get handles GET /api/v1/activities/:id
func (h *ActivityHandler) Get(c *gin.Context) {
	id, ok := activityID(c)
	if !ok {
		return
	}

	a, err := h.activities.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, a)
}

// Update handles PATCH /api/v1/activities/:id
func (h *ActivityHandler) Update(c *gin.Context) {
	id, ok := activityID(c)
	if !ok {
		return
	}

	var patch models.ActivityPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	a, err := h.activities.Edit(c.Request.Context(), middleware.UserID(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, a)
}

// Delete handles DELETE /api/v1/activities/:id
func (h *ActivityHandler) Delete(c *gin.Context) {
	id, ok := activityID(c)
	if !ok {
		return
	}

	if err := h.activities.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

// ChartData handles GET /api/v1/activities/:id/chart_data
func (h *ActivityHandler) ChartData(c *gin.Context) {
	id, ok := activityID(c)
	if !ok {
		return
	}

	series, err := h.activities.ChartData(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, series)
}

// DownloadGPX handles GET /api/v1/activities/:id/gpx
func (h *ActivityHandler) DownloadGPX(c *gin.Context) {
	id, ok := activityID(c)
	if !ok {
		return
	}

	path, err := h.activities.GPXPath(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// Map handles GET /api/v1/activities/map/:map_id
func (h *ActivityHandler) Map(c *gin.Context) {
	path, err := h.activities.MapPath(c.Request.Context(), c.Param("map_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.File(path)
}

func activityID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid activity ID")
		return 0, false
	}
	return id, true
}

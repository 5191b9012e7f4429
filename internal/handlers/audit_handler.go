package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "quarterdeck/internal/errors"
	"quarterdeck/internal/events"
	"quarterdeck/internal/pagination"
	"quarterdeck/internal/resources"
	"quarterdeck/internal/services"
)

// AuditHandler serves the audit trail feed and the restore/revert/purge
// operations on it.
type AuditHandler struct {
	auditService services.AuditServicer
	undoService  services.UndoServicer
	hub          *events.Hub
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService services.AuditServicer, undoService services.UndoServicer, hub *events.Hub) *AuditHandler {
	return &AuditHandler{auditService: auditService, undoService: undoService, hub: hub}
}

// AuditQueryRequest represents the audit feed filter parameters.
type AuditQueryRequest struct {
	Actor        string `form:"actor"`
	Action       string `form:"action" binding:"omitempty,audit_action"`
	ResourceType string `form:"resource_type" binding:"omitempty,resource_type"`
	From         string `form:"from"`
	To           string `form:"to"`
	Q            string `form:"q"`
	Critical     bool   `form:"critical"`
}

// RestoreRequest represents the optional restore parameters.
type RestoreRequest struct {
	NewName string `json:"new_name" binding:"omitempty,min=1,max=100"`
}

// PurgeRequest represents the bulk purge payload.
type PurgeRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

// GetAuditRecords handles querying the audit trail
// @Summary     Query the audit trail
// @Description Get a filtered, paginated audit feed, newest first. Stored
// @Description payloads are masked at capture time, so the feed never leaks
// @Description credentials.
// @Tags        audit
// @Produce     json
// @Security    BearerAuth
// @Param       actor         query string false "Actor name substring"
// @Param       action        query string false "Exact action"
// @Param       resource_type query string false "Resource type"
// @Param       from          query string false "Records at or after (RFC3339 or YYYY-MM-DD)"
// @Param       to            query string false "Records at or before (RFC3339 or YYYY-MM-DD)"
// @Param       q             query string false "Free text over action, actor and payload"
// @Param       critical      query bool   false "Security-relevant actions only"
// @Param       page          query int    false "Page number (default 1)"
// @Param       page_size     query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.AuditRecord] "Paginated records"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /audit [get]
func (h *AuditHandler) GetAuditRecords(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var query AuditQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.AuditFilter{
		Actor:        query.Actor,
		Action:       query.Action,
		ResourceType: query.ResourceType,
		FreeText:     query.Q,
		CriticalOnly: query.Critical,
	}

	var err error
	if filter.From, err = parseFilterTime(query.From); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from timestamp"))
		return
	}
	if filter.To, err = parseFilterTime(query.To); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to timestamp"))
		return
	}

	result, err := h.auditService.Query(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RestoreRecord handles restoring a deleted resource from its delete record
// @Summary     Restore a deleted resource
// @Description Recreate a resource from a delete record's snapshot. On
// @Description NAME_CONFLICT retry with a new_name; the source record stays
// @Description unconsumed until a restore succeeds.
// @Tags        audit
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       type    path int            true  "Resource type of the record"
// @Param       id      path int            true  "Audit record ID"
// @Param       request body RestoreRequest false "Replacement name"
// @Success     200 {object} map[string]uint "New resource id"
// @Failure     400 {object} ErrorResponse "Record is not a delete entry"
// @Failure     404 {object} ErrorResponse "Record not found"
// @Failure     409 {object} ErrorResponse "Name conflict or already consumed"
// @Router      /audit/restore/{type}/{id} [post]
func (h *AuditHandler) RestoreRecord(c *gin.Context) {
	recordID, err := h.matchRecord(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RestoreRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resourceID, err := h.undoService.Restore(recordID, req.NewName, actor, c.ClientIP())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"resource_id": resourceID})
}

// RevertRecord handles reverting an update record
// @Summary     Revert an update
// @Description Re-apply the prior field values of an update record onto the
// @Description live resource. Fields changed since the recorded update are
// @Description overwritten; fields outside the diff are left untouched.
// @Tags        audit
// @Produce     json
// @Security    BearerAuth
// @Param       type path int true "Resource type of the record"
// @Param       id   path int true "Audit record ID"
// @Success     200 {object} map[string]uint "Resource id"
// @Failure     400 {object} ErrorResponse "Record is not an update entry"
// @Failure     404 {object} ErrorResponse "Record not found or resource gone"
// @Failure     409 {object} ErrorResponse "Already consumed"
// @Router      /audit/revert/{type}/{id} [post]
func (h *AuditHandler) RevertRecord(c *gin.Context) {
	recordID, err := h.matchRecord(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resourceID, err := h.undoService.Revert(recordID, actor, c.ClientIP())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"resource_id": resourceID})
}

// PurgeRecords handles bulk-deleting audit records
// @Summary     Purge audit records
// @Description Hard-delete the given records. The purge itself lands on the
// @Description trail as a single summary record.
// @Tags        audit
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body PurgeRequest true "Record ids to purge"
// @Success     200 {object} map[string]int64 "Deleted count"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Admin only"
// @Router      /audit [delete]
func (h *AuditHandler) PurgeRecords(c *gin.Context) {
	var req PurgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleted, err := h.auditService.Purge(req.IDs, actor, c.ClientIP())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.hub.Publish(events.Event{Category: "audit"})

	c.JSON(http.StatusOK, gin.H{"deleted_count": deleted})
}

// matchRecord parses the type and id path parameters and verifies the record
// exists under that resource type. The type segment guards against a stale
// dashboard posting a record id that now belongs to a different resource's
// history.
func (h *AuditHandler) matchRecord(c *gin.Context) (uint, error) {
	rt := resources.Type(c.Param("type"))
	if !resources.Valid(rt) {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown resource type")
	}

	recordID, err := parsePathID(c, "id")
	if err != nil {
		return 0, err
	}

	record, err := h.auditService.GetRecord(recordID)
	if err != nil {
		return 0, err
	}
	if record.ResourceType != string(rt) {
		return 0, apperrors.ErrRecordNotFound
	}
	return recordID, nil
}

// parseFilterTime accepts RFC3339 or a bare date. Empty input means no bound.
func parseFilterTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}

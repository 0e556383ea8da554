package rest

import (
	"net/http"
	"strings"
	"time"

	"hr_project/internal/apperrors"
	"hr_project/internal/auth"
	"hr_project/internal/domain"
	"hr_project/internal/middleware"
	"hr_project/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AnnouncementHandler struct {
	announcements *repository.AnnouncementRepository
	now           func() time.Time
	log           *zap.Logger
}

type createAnnouncementRequest struct {
	Title        string      `json:"title" binding:"required,notblank,max=255"`
	Content      string      `json:"content" binding:"required,notblank"`
	IsPinned     bool        `json:"is_pinned"`
	StartDate    *time.Time  `json:"start_date"`
	EndDate      *time.Time  `json:"end_date"`
	RecipientIDs []uuid.UUID `json:"recipient_ids"`
}

type updateAnnouncementRequest struct {
	Title     *string    `json:"title" binding:"omitempty,notblank,max=255"`
	Content   *string    `json:"content" binding:"omitempty,notblank"`
	IsPinned  *bool      `json:"is_pinned"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type approvalRequest struct {
	AnnouncementID uuid.UUID           `json:"announcement_id" binding:"required"`
	ApprovalStatus domain.ReviewStatus `json:"approval_status" binding:"required"`
}

type markReadRequest struct {
	AnnouncementID uuid.UUID `json:"announcement_id" binding:"required"`
}

type announcementFilterQuery struct {
	pageQuery
	Title     string `form:"title"`
	Content   string `form:"content"`
	AuthorID  string `form:"author_id"`
	IsPinned  *bool  `form:"is_pinned"`
	Status    string `form:"approval_status"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

func visibilityFor(p *auth.Principal) repository.Visibility {
	return repository.Visibility{All: p.IsAdmin, ViewerID: p.ID}
}

func checkDateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return apperrors.Validation("end_date must not be before start_date")
	}
	return nil
}

// Create stores an announcement. Admin announcements are approved immediately,
// manager announcements wait for review.
func (h *AnnouncementHandler) Create(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if err := auth.RequireUser(p); err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := auth.RequireAnyRole(p, domain.MANAGER); err != nil {
		respondError(c, h.log, err)
		return
	}
	var req createAnnouncementRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := checkDateRange(req.StartDate, req.EndDate); err != nil {
		respondError(c, h.log, err)
		return
	}

	status := domain.StatusPending
	if p.IsAdmin {
		status = domain.StatusApproved
	}
	author := p.ID
	a := &domain.Announcement{
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		AuthorID:  &author,
		IsPinned:  req.IsPinned,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    status,
	}
	if err := h.announcements.Create(c.Request.Context(), a, req.RecipientIDs); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info("Announcement created", zap.String("announcement_id", a.ID.String()), zap.String("status", string(a.Status)))
	c.JSON(http.StatusCreated, a)
}

func (h *AnnouncementHandler) GetAll(c *gin.Context) {
	page, err := queryPage(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	items, err := h.announcements.List(c.Request.Context(), visibilityFor(middleware.CurrentPrincipal(c)), page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, items)
}

func (h *AnnouncementHandler) Filter(c *gin.Context) {
	var q announcementFilterQuery
	if err := bindQuery(c, &q); err != nil {
		respondError(c, h.log, err)
		return
	}
	f := repository.AnnouncementFilter{
		Title:    q.Title,
		Content:  q.Content,
		IsPinned: q.IsPinned,
	}
	var err error
	if f.AuthorID, err = parseUUIDParam("author_id", q.AuthorID); err != nil {
		respondError(c, h.log, err)
		return
	}
	if f.StartFrom, err = parseDate("start_date", q.StartDate); err != nil {
		respondError(c, h.log, err)
		return
	}
	if f.EndBefore, err = parseDate("end_date", q.EndDate); err != nil {
		respondError(c, h.log, err)
		return
	}
	if q.Status != "" {
		status, err := domain.ParseReviewStatus(q.Status)
		if err != nil {
			respondError(c, h.log, apperrors.Validation("approval_status must be one of Pending, Approved, Rejected"))
			return
		}
		f.Status = &status
	}

	items, err := h.announcements.Filter(c.Request.Context(), visibilityFor(middleware.CurrentPrincipal(c)), f, q.page())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, items)
}

func (h *AnnouncementHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	a, err := h.announcements.FindVisible(c.Request.Context(), id, visibilityFor(middleware.CurrentPrincipal(c)))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, a)
}

// loadOwned fetches the announcement for a mutation by p. Non-admins get forbidden both
// for announcements they may not touch and for ones that do not exist.
func (h *AnnouncementHandler) loadOwned(c *gin.Context, p *auth.Principal, id uuid.UUID) (*domain.Announcement, error) {
	if err := auth.RequireUser(p); err != nil {
		return nil, err
	}
	a, err := h.announcements.FindByID(c.Request.Context(), id)
	if err != nil {
		if !p.IsAdmin && apperrors.Is(err, apperrors.KindNotFound) {
			return nil, auth.ErrForbidden
		}
		return nil, err
	}
	if err := auth.CanMutateOwned(p, a.AuthorID, a.Status); err != nil {
		return nil, err
	}
	return a, nil
}

func (h *AnnouncementHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	p := middleware.CurrentPrincipal(c)
	a, err := h.loadOwned(c, p, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req updateAnnouncementRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	start, end := a.StartDate, a.EndDate
	fields := map[string]any{}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		fields["content"] = *req.Content
	}
	if req.IsPinned != nil {
		fields["is_pinned"] = *req.IsPinned
	}
	if req.StartDate != nil {
		fields["start_date"] = *req.StartDate
		start = req.StartDate
	}
	if req.EndDate != nil {
		fields["end_date"] = *req.EndDate
		end = req.EndDate
	}
	if err := checkDateRange(start, end); err != nil {
		respondError(c, h.log, err)
		return
	}

	var updated *domain.Announcement
	if p.IsAdmin {
		updated, err = h.announcements.Update(c.Request.Context(), id, fields)
	} else {
		updated, err = h.announcements.UpdateOwned(c.Request.Context(), id, p.ID, fields)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, updated)
}

func (h *AnnouncementHandler) UpdateApproval(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if err := auth.RequireAdminUser(p); err != nil {
		respondError(c, h.log, err)
		return
	}
	var req approvalRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	a, err := h.announcements.SetStatus(c.Request.Context(), req.AnnouncementID, req.ApprovalStatus)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info("Announcement reviewed",
		zap.String("announcement_id", a.ID.String()),
		zap.String("status", string(a.Status)),
		zap.String("by", p.ID.String()),
	)
	ok(c, a)
}

func (h *AnnouncementHandler) MarkAsRead(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if err := auth.RequireUser(p); err != nil {
		respondError(c, h.log, err)
		return
	}
	var req markReadRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.announcements.FindVisible(ctx, req.AnnouncementID, visibilityFor(p)); err != nil {
		respondError(c, h.log, err)
		return
	}
	rec, err := h.announcements.MarkRead(ctx, req.AnnouncementID, p.ID, h.now().UTC())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, rec)
}

func (h *AnnouncementHandler) GetRecipient(c *gin.Context) {
	announcementID, err := pathID(c, "announcement_id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	userID, err := pathID(c, "user_id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := auth.RequireSelfOrAdmin(middleware.CurrentPrincipal(c), userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	rec, err := h.announcements.FindRecipient(c.Request.Context(), announcementID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, rec)
}

func (h *AnnouncementHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	p := middleware.CurrentPrincipal(c)
	if _, err := h.loadOwned(c, p, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	if p.IsAdmin {
		err = h.announcements.Delete(c.Request.Context(), id)
	} else {
		err = h.announcements.DeleteOwned(c.Request.Context(), id, p.ID)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info("Announcement deleted", zap.String("announcement_id", id.String()), zap.String("by", p.ID.String()))
	c.Status(http.StatusNoContent)
}

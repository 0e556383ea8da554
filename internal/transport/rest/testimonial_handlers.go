package rest

import (
	"net/http"

	"hr_project/internal/apperrors"
	"hr_project/internal/auth"
	"hr_project/internal/domain"
	"hr_project/internal/middleware"
	"hr_project/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TestimonialHandler struct {
	testimonials *repository.TestimonialRepository
	log          *zap.Logger
}

type testimonialContentRequest struct {
	Content string `json:"content" binding:"required,notblank,max=5000"`
}

type reviewTestimonialRequest struct {
	Status        domain.ReviewStatus `json:"status" binding:"required"`
	AdminComments string              `json:"admin_comments" binding:"max=2000"`
}

type testimonialFilterQuery struct {
	pageQuery
	EmployeeName string `form:"employee_name"`
	Department   string `form:"department"`
	Content      string `form:"content"`
	UserID       string `form:"user_id"`
	Status       string `form:"status"`
}

// testimonialAuthor is the part of the author's profile shown with a testimonial.
type testimonialAuthor struct {
	ID         uuid.UUID `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Department string    `json:"department,omitempty"`
}

type testimonialResponse struct {
	*domain.Testimonial
	Author *testimonialAuthor `json:"user,omitempty"`
}

func testimonialView(t *domain.Testimonial) testimonialResponse {
	resp := testimonialResponse{Testimonial: t}
	if t.User != nil {
		resp.Author = &testimonialAuthor{
			ID:         t.User.ID,
			FirstName:  t.User.FirstName,
			LastName:   t.User.LastName,
			Department: t.User.Department,
		}
	}
	return resp
}

func testimonialViews(items []domain.Testimonial) []testimonialResponse {
	views := make([]testimonialResponse, 0, len(items))
	for i := range items {
		views = append(views, testimonialView(&items[i]))
	}
	return views
}

func (h *TestimonialHandler) GetAll(c *gin.Context) {
	page, err := queryPage(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	items, err := h.testimonials.List(c.Request.Context(), visibilityFor(middleware.CurrentPrincipal(c)), page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, testimonialViews(items))
}

func (h *TestimonialHandler) Filter(c *gin.Context) {
	var q testimonialFilterQuery
	if err := bindQuery(c, &q); err != nil {
		respondError(c, h.log, err)
		return
	}
	f := repository.TestimonialFilter{
		EmployeeName: q.EmployeeName,
		Department:   q.Department,
		Content:      q.Content,
	}
	var err error
	if f.UserID, err = parseUUIDParam("user_id", q.UserID); err != nil {
		respondError(c, h.log, err)
		return
	}
	if q.Status != "" {
		status, err := domain.ParseReviewStatus(q.Status)
		if err != nil {
			respondError(c, h.log, apperrors.Validation("status must be one of Pending, Approved, Rejected"))
			return
		}
		f.Status = &status
	}
	items, err := h.testimonials.Filter(c.Request.Context(), visibilityFor(middleware.CurrentPrincipal(c)), f, q.page())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, testimonialViews(items))
}

func (h *TestimonialHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	t, err := h.testimonials.FindVisible(c.Request.Context(), id, visibilityFor(middleware.CurrentPrincipal(c)))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, testimonialView(t))
}

func (h *TestimonialHandler) Create(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if err := auth.RequireUser(p); err != nil {
		respondError(c, h.log, err)
		return
	}
	var req testimonialContentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	t := &domain.Testimonial{UserID: p.ID, Content: req.Content, Status: domain.StatusPending}
	if err := h.testimonials.Create(c.Request.Context(), t); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, testimonialView(t))
}

func (h *TestimonialHandler) loadOwned(c *gin.Context, p *auth.Principal, id uuid.UUID) (*domain.Testimonial, error) {
	if err := auth.RequireUser(p); err != nil {
		return nil, err
	}
	t, err := h.testimonials.FindByID(c.Request.Context(), id)
	if err != nil {
		if !p.IsAdmin && apperrors.Is(err, apperrors.KindNotFound) {
			return nil, auth.ErrForbidden
		}
		return nil, err
	}
	if err := auth.CanMutateOwned(p, &t.UserID, t.Status); err != nil {
		return nil, err
	}
	return t, nil
}

func (h *TestimonialHandler) Update(c *gin.Context) {
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
	var req testimonialContentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	fields := map[string]any{"content": req.Content}
	var t *domain.Testimonial
	if p.IsAdmin {
		t, err = h.testimonials.Update(c.Request.Context(), id, fields)
	} else {
		t, err = h.testimonials.UpdateOwned(c.Request.Context(), id, p.ID, fields)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, testimonialView(t))
}

func (h *TestimonialHandler) Review(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	p := middleware.CurrentPrincipal(c)
	if err := auth.RequireAdminUser(p); err != nil {
		respondError(c, h.log, err)
		return
	}
	var req reviewTestimonialRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	t, err := h.testimonials.Review(c.Request.Context(), id, req.Status, req.AdminComments)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info("Testimonial reviewed",
		zap.String("testimonial_id", id.String()),
		zap.String("status", string(t.Status)),
		zap.String("by", p.ID.String()),
	)
	ok(c, testimonialView(t))
}

func (h *TestimonialHandler) Delete(c *gin.Context) {
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
		err = h.testimonials.Delete(c.Request.Context(), id)
	} else {
		err = h.testimonials.DeleteOwned(c.Request.Context(), id, p.ID)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

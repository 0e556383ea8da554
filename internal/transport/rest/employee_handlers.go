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
	"hr_project/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EmployeeHandler struct {
	users *repository.UserRepository
	log   *zap.Logger
}

type createEmployeeRequest struct {
	Email              string       `json:"email" binding:"required,email,max=255"`
	Password           string       `json:"password" binding:"required,min=8,max=72"`
	FirstName          string       `json:"first_name" binding:"required,notblank,max=100"`
	LastName           string       `json:"last_name" binding:"max=100"`
	Role               *domain.Role `json:"role"`
	IsAdmin            bool         `json:"is_admin"`
	ContactNumber      string       `json:"contact_number" binding:"max=32"`
	DOB                *time.Time   `json:"dob"`
	Address            string       `json:"address" binding:"max=500"`
	Department         string       `json:"department" binding:"max=100"`
	ProfilePictureURL  string       `json:"profile_picture_url" binding:"omitempty,url"`
	JoiningDate        *time.Time   `json:"joining_date"`
	ReportingManagerID *uuid.UUID   `json:"reporting_manager_id"`
}

type updateEmployeeRequest struct {
	Email              *string      `json:"email" binding:"omitempty,email,max=255"`
	FirstName          *string      `json:"first_name" binding:"omitempty,notblank,max=100"`
	LastName           *string      `json:"last_name" binding:"omitempty,max=100"`
	Role               *domain.Role `json:"role"`
	IsAdmin            *bool        `json:"is_admin"`
	IsActive           *bool        `json:"is_active"`
	ContactNumber      *string      `json:"contact_number" binding:"omitempty,max=32"`
	DOB                *time.Time   `json:"dob"`
	Address            *string      `json:"address" binding:"omitempty,max=500"`
	Department         *string      `json:"department" binding:"omitempty,max=100"`
	ProfilePictureURL  *string      `json:"profile_picture_url" binding:"omitempty,url"`
	JoiningDate        *time.Time   `json:"joining_date"`
	ReportingManagerID *uuid.UUID   `json:"reporting_manager_id"`
}

// privileged reports whether the request touches fields only admins may change.
func (r *updateEmployeeRequest) privileged() bool {
	return r.Role != nil || r.IsAdmin != nil || r.IsActive != nil || r.Email != nil ||
		r.JoiningDate != nil || r.ReportingManagerID != nil || r.Department != nil
}

func (r *updateEmployeeRequest) fields() map[string]any {
	fields := map[string]any{}
	if r.Email != nil {
		fields["email"] = *r.Email
	}
	if r.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*r.FirstName)
	}
	if r.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*r.LastName)
	}
	if r.Role != nil {
		fields["role"] = *r.Role
	}
	if r.IsAdmin != nil {
		fields["is_admin"] = *r.IsAdmin
	}
	if r.IsActive != nil {
		fields["is_active"] = *r.IsActive
	}
	if r.ContactNumber != nil {
		fields["contact_number"] = *r.ContactNumber
	}
	if r.DOB != nil {
		fields["dob"] = *r.DOB
	}
	if r.Address != nil {
		fields["address"] = *r.Address
	}
	if r.Department != nil {
		fields["department"] = *r.Department
	}
	if r.ProfilePictureURL != nil {
		fields["profile_picture_url"] = *r.ProfilePictureURL
	}
	if r.JoiningDate != nil {
		fields["joining_date"] = *r.JoiningDate
	}
	if r.ReportingManagerID != nil {
		fields["reporting_manager_id"] = *r.ReportingManagerID
	}
	return fields
}

type employeeFilterQuery struct {
	pageQuery
	FirstName     string `form:"first_name"`
	LastName      string `form:"last_name"`
	Email         string `form:"email"`
	Department    string `form:"department"`
	ContactNumber string `form:"contact_number"`
	Role          string `form:"role"`
	IsActive      *bool  `form:"is_active"`
}

// GetAll lists every employee for admins and only the caller otherwise.
func (h *EmployeeHandler) GetAll(c *gin.Context) {
	page, err := queryPage(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	p := middleware.CurrentPrincipal(c)
	var f repository.UserFilter
	if !p.IsAdmin {
		f.ID = &p.ID
	}
	users, err := h.users.Filter(c.Request.Context(), f, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, users)
}

func (h *EmployeeHandler) Filter(c *gin.Context) {
	var q employeeFilterQuery
	if err := bindQuery(c, &q); err != nil {
		respondError(c, h.log, err)
		return
	}
	f := repository.UserFilter{
		FirstName:     q.FirstName,
		LastName:      q.LastName,
		Email:         q.Email,
		Department:    q.Department,
		ContactNumber: q.ContactNumber,
		IsActive:      q.IsActive,
	}
	if q.Role != "" {
		role, err := domain.ParseRole(q.Role)
		if err != nil {
			respondError(c, h.log, apperrors.Validation("role must be one of employee, manager, admin"))
			return
		}
		f.Role = &role
	}
	p := middleware.CurrentPrincipal(c)
	if !p.IsAdmin {
		f.ID = &p.ID
	}
	users, err := h.users.Filter(c.Request.Context(), f, q.page())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, users)
}

func (h *EmployeeHandler) GetMe(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if err := auth.RequireUser(p); err != nil {
		respondError(c, h.log, err)
		return
	}
	user, err := h.users.FindByID(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, user)
}

func (h *EmployeeHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := auth.RequireSelfOrAdmin(middleware.CurrentPrincipal(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	user, err := h.users.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, user)
}

func (h *EmployeeHandler) Create(c *gin.Context) {
	if err := auth.RequireAdminUser(middleware.CurrentPrincipal(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	var req createEmployeeRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.checkManager(c, req.ReportingManagerID); err != nil {
		respondError(c, h.log, err)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(c, h.log, apperrors.Internal(err))
		return
	}
	user := &domain.User{
		Email:              req.Email,
		PasswordHash:       hash,
		FirstName:          strings.TrimSpace(req.FirstName),
		LastName:           strings.TrimSpace(req.LastName),
		IsAdmin:            req.IsAdmin,
		IsActive:           true,
		ContactNumber:      req.ContactNumber,
		DOB:                req.DOB,
		Address:            req.Address,
		Department:         req.Department,
		ProfilePictureURL:  req.ProfilePictureURL,
		JoiningDate:        req.JoiningDate,
		ReportingManagerID: req.ReportingManagerID,
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if err := h.users.Create(ctx, user); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info("Employee created", zap.String("user_id", user.ID.String()), zap.String("role", user.Role.String()))
	c.JSON(http.StatusCreated, user)
}

// Update lets employees edit their own profile fields and admins edit anything.
func (h *EmployeeHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	p := middleware.CurrentPrincipal(c)
	if err := auth.RequireUser(p); err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := auth.RequireSelfOrAdmin(p, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	var req updateEmployeeRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	if !p.IsAdmin && req.privileged() {
		respondError(c, h.log, auth.ErrForbidden)
		return
	}
	if req.ReportingManagerID != nil && *req.ReportingManagerID == id {
		respondError(c, h.log, apperrors.Validation("An employee cannot report to themselves"))
		return
	}
	if err := h.checkManager(c, req.ReportingManagerID); err != nil {
		respondError(c, h.log, err)
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, req.fields())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, user)
}

// Delete deactivates the employee. The record is kept.
func (h *EmployeeHandler) Delete(c *gin.Context) {
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
	if err := h.users.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info("Employee deactivated", zap.String("user_id", id.String()), zap.String("by", p.ID.String()))
	c.Status(http.StatusNoContent)
}

func (h *EmployeeHandler) checkManager(c *gin.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	manager, err := h.users.FindByID(c.Request.Context(), *id)
	if apperrors.Is(err, apperrors.KindNotFound) || (err == nil && !manager.IsActive) {
		return apperrors.Validation("Reporting manager not found")
	}
	return err
}

package rest

import (
	"net/http"
	"strings"

	"hr_project/internal/auth"
	"hr_project/internal/domain"
	"hr_project/internal/middleware"
	"hr_project/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PolicyHandler struct {
	policies *repository.PolicyRepository
	log      *zap.Logger
}

type createPolicyRequest struct {
	Title       string `json:"title" binding:"required,notblank,max=255"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"max=100"`
	DocumentURL string `json:"document_url" binding:"omitempty,url"`
	Version     string `json:"version" binding:"max=32"`
	IsActive    *bool  `json:"is_active"`
}

type updatePolicyRequest struct {
	Title       *string `json:"title" binding:"omitempty,notblank,max=255"`
	Description *string `json:"description"`
	Category    *string `json:"category" binding:"omitempty,max=100"`
	DocumentURL *string `json:"document_url" binding:"omitempty,url"`
	Version     *string `json:"version" binding:"omitempty,max=32"`
	IsActive    *bool   `json:"is_active"`
}

type policyFilterQuery struct {
	pageQuery
	Title       string `form:"title"`
	Category    string `form:"category"`
	Version     string `form:"version"`
	Description string `form:"description"`
	IsActive    *bool  `form:"is_active"`
}

func (h *PolicyHandler) GetAll(c *gin.Context) {
	page, err := queryPage(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	policies, err := h.policies.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, policies)
}

func (h *PolicyHandler) Filter(c *gin.Context) {
	var q policyFilterQuery
	if err := bindQuery(c, &q); err != nil {
		respondError(c, h.log, err)
		return
	}
	policies, err := h.policies.Filter(c.Request.Context(), repository.PolicyFilter{
		Title:       q.Title,
		Category:    q.Category,
		Version:     q.Version,
		Description: q.Description,
		IsActive:    q.IsActive,
	}, q.page())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, policies)
}

func (h *PolicyHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	policy, err := h.policies.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, policy)
}

func (h *PolicyHandler) Create(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if err := auth.RequireAdminUser(p); err != nil {
		respondError(c, h.log, err)
		return
	}
	var req createPolicyRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	author := p.ID
	policy := &domain.Policy{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    req.Category,
		DocumentURL: req.DocumentURL,
		Version:     req.Version,
		IsActive:    req.IsActive == nil || *req.IsActive,
		CreatedBy:   &author,
	}
	if err := h.policies.Create(c.Request.Context(), policy); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info("Policy created", zap.String("policy_id", policy.ID.String()))
	c.JSON(http.StatusCreated, policy)
}

func (h *PolicyHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := auth.RequireAdminUser(middleware.CurrentPrincipal(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	var req updatePolicyRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	fields := map[string]any{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Category != nil {
		fields["category"] = *req.Category
	}
	if req.DocumentURL != nil {
		fields["document_url"] = *req.DocumentURL
	}
	if req.Version != nil {
		fields["version"] = *req.Version
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	policy, err := h.policies.Update(c.Request.Context(), id, fields)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok(c, policy)
}

func (h *PolicyHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := auth.RequireAdminUser(middleware.CurrentPrincipal(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.policies.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info("Policy deleted", zap.String("policy_id", id.String()))
	c.Status(http.StatusNoContent)
}

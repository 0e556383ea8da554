package rest

import (
	"context"

	"hr_project/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	users         *repository.UserRepository
	announcements *repository.AnnouncementRepository
	policies      *repository.PolicyRepository
	testimonials  *repository.TestimonialRepository
	log           *zap.Logger
}

type countsResponse struct {
	Users         int64 `json:"users"`
	Announcements int64 `json:"announcements"`
	Policies      int64 `json:"policies"`
	Testimonials  int64 `json:"testimonials"`
}

// Counts reports dashboard totals. Users counts active employees only.
func (h *AdminHandler) Counts(c *gin.Context) {
	ctx := c.Request.Context()
	var resp countsResponse
	counters := []struct {
		dst   *int64
		count func(context.Context) (int64, error)
	}{
		{&resp.Users, h.users.Count},
		{&resp.Announcements, h.announcements.Count},
		{&resp.Policies, h.policies.Count},
		{&resp.Testimonials, h.testimonials.Count},
	}
	for _, counter := range counters {
		n, err := counter.count(ctx)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		*counter.dst = n
	}
	ok(c, resp)
}

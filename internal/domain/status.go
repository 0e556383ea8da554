package domain

import (
	"fmt"
	"strings"
)

// ReviewStatus is the moderation state of announcements and testimonials.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "Pending"
	StatusApproved ReviewStatus = "Approved"
	StatusRejected ReviewStatus = "Rejected"
)

func ParseReviewStatus(s string) (ReviewStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "approved":
		return StatusApproved, nil
	case "rejected":
		return StatusRejected, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Mutable reports whether the owner may still edit or delete the item.
func (s ReviewStatus) Mutable() bool {
	return s == StatusPending
}

func (s *ReviewStatus) UnmarshalText(text []byte) error {
	status, err := ParseReviewStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

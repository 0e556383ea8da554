package repository

import (
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Page is skip/limit pagination as accepted by every list endpoint.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	p = p.normalize()
	return q.Offset(p.Skip).Limit(p.Limit)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a lower-cased substring pattern with LIKE metacharacters escaped.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// whereContains adds a case-insensitive substring match on expr when value is non-empty.
func whereContains(q *gorm.DB, expr, value string) *gorm.DB {
	value = strings.TrimSpace(value)
	if value == "" {
		return q
	}
	return q.Where("LOWER("+expr+") LIKE ? ESCAPE '\\'", likePattern(value))
}

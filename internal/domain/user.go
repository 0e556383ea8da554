package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role int32

const (
	EMPLOYEE Role = 0
	MANAGER  Role = 1
	ADMIN    Role = 2
)

var roleNames = map[Role]string{
	EMPLOYEE: "employee",
	MANAGER:  "manager",
	ADMIN:    "admin",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int32(r))
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole accepts the lower-case role name, ignoring surrounding space and case.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for role, name := range roleNames {
		if name == s {
			return role, nil
		}
	}
	return EMPLOYEE, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown role %d", int32(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown role %d", int32(r))
	}
	return r.String(), nil
}

func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	case nil:
		*r = EMPLOYEE
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
}

type User struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email              string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash       string     `gorm:"not null" json:"-"`
	FirstName          string     `gorm:"size:100" json:"first_name"`
	LastName           string     `gorm:"size:100" json:"last_name"`
	Role               Role       `gorm:"type:varchar(16);not null" json:"role"`
	IsAdmin            bool       `gorm:"not null" json:"is_admin"`
	IsActive           bool       `gorm:"not null;index" json:"is_active"`
	ContactNumber      string     `gorm:"size:32" json:"contact_number,omitempty"`
	DOB                *time.Time `json:"dob,omitempty"`
	Address            string     `json:"address,omitempty"`
	Department         string     `gorm:"size:100;index" json:"department,omitempty"`
	ProfilePictureURL  string     `json:"profile_picture_url,omitempty"`
	JoiningDate        *time.Time `json:"joining_date,omitempty"`
	ReportingManagerID *uuid.UUID `gorm:"type:uuid" json:"reporting_manager_id,omitempty"`
	LastLogin          *time.Time `json:"last_login,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Normalize()
	return nil
}

// Normalize lower-cases the email and keeps IsAdmin in step with the admin role.
func (u *User) Normalize() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == ADMIN {
		u.IsAdmin = true
	}
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// StringList stores a JSON array of strings in a single column. Used for the
// set of sign-in provider names a user has authenticated with.
type StringList []string

// Value implements the driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("invalid scan source")
	}
	return json.Unmarshal(bytes, l)
}

// Contains reports whether the list holds the given entry.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

// User is an application user. Authentication is handled by Firebase; uid is
// the stable subject identifier from the verified ID token.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UID       string     `gorm:"type:varchar(128);uniqueIndex;not null" json:"uid" validate:"required"`
	Email     string     `gorm:"type:varchar(200);uniqueIndex;not null" json:"email" validate:"required,email,max=200"`
	Name      string     `gorm:"type:varchar(100)" json:"name" validate:"max=100"`
	Providers StringList `gorm:"type:json" json:"providers"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	BusinessCards []BusinessCard `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Tags          []Tag          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// MergeProvider records a sign-in provider name if it is not already present.
// Returns true when the list changed.
func (u *User) MergeProvider(provider string) bool {
	if provider == "" || u.Providers.Contains(provider) {
		return false
	}
	u.Providers = append(u.Providers, provider)
	return true
}

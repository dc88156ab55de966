package models

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

var tagNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Tag is a user-owned label for business cards. Names are lowercase letters,
// digits and underscores only. BusinessCardsCount is denormalized and kept in
// sync as tags are attached/detached.
type Tag struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"index;not null" json:"user_id"`
	User               User      `gorm:"foreignKey:UserID" json:"-"`
	Name               string    `gorm:"type:varchar(100);not null" json:"name" validate:"required,max=100,tagname"`
	Color              string    `gorm:"type:varchar(7);not null" json:"color" validate:"required"`
	Description        string    `gorm:"type:text" json:"description" validate:"max=1000"`
	BusinessCardsCount int       `gorm:"not null;default:0" json:"business_cards_count"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	BusinessCards []BusinessCard `gorm:"many2many:business_card_tags;" json:"-"`
}

func (t *Tag) Validate() error {
	v := validator.New()
	_ = v.RegisterValidation("tagname", func(fl validator.FieldLevel) bool {
		return tagNamePattern.MatchString(fl.Field().String())
	})

	return v.Struct(t)
}

package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/meishibox/meishibox/internal/pkg/cardcode"
)

// CardStatus is the lifecycle state of a business card. A card is created as
// analyzing and moved to analyzed or failed exactly once by the analyzer.
type CardStatus string

const (
	CardStatusAnalyzing CardStatus = "analyzing"
	CardStatusAnalyzed  CardStatus = "analyzed"
	CardStatusFailed    CardStatus = "failed"
)

// IsTerminal reports whether the status is a terminal analyzer state.
func (s CardStatus) IsTerminal() bool {
	return s == CardStatusAnalyzed || s == CardStatusFailed
}

// BusinessCard is the central entity: a user-owned digitized business card
// with contact fields extracted from the attached images.
type BusinessCard struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	Code   string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	UserID uint       `gorm:"index;not null" json:"user_id"`
	User   User       `gorm:"foreignKey:UserID" json:"-"`
	Status CardStatus `gorm:"type:varchar(20);not null;default:'analyzing'" json:"status"`

	FirstName         *string    `gorm:"type:varchar(100)" json:"first_name" validate:"omitempty,max=100"`
	LastName          *string    `gorm:"type:varchar(100)" json:"last_name" validate:"omitempty,max=100"`
	FirstNamePhonetic *string    `gorm:"type:varchar(100)" json:"first_name_phonetic" validate:"omitempty,max=100"`
	LastNamePhonetic  *string    `gorm:"type:varchar(100)" json:"last_name_phonetic" validate:"omitempty,max=100"`
	Company           *string    `gorm:"type:varchar(100)" json:"company" validate:"omitempty,max=100"`
	JobTitle          *string    `gorm:"type:varchar(100)" json:"job_title" validate:"omitempty,max=100"`
	Department        *string    `gorm:"type:varchar(100)" json:"department" validate:"omitempty,max=100"`
	Website           *string    `gorm:"type:varchar(100)" json:"website" validate:"omitempty,max=100"`
	Address           *string    `gorm:"type:varchar(100)" json:"address" validate:"omitempty,max=100"`
	Email             *string    `gorm:"type:varchar(100)" json:"email" validate:"omitempty,max=100"`
	MobilePhone       *string    `gorm:"type:varchar(100)" json:"mobile_phone" validate:"omitempty,max=100"`
	HomePhone         *string    `gorm:"type:varchar(100)" json:"home_phone" validate:"omitempty,max=100"`
	Fax               *string    `gorm:"type:varchar(100)" json:"fax" validate:"omitempty,max=100"`
	Notes             *string    `gorm:"type:text" json:"notes" validate:"omitempty,max=1000"`
	MeetingDate       *time.Time `gorm:"type:datetime" json:"meeting_date"`

	// Image attachments live in object storage; only the key and content
	// type are persisted here.
	FrontImageKey  string `gorm:"type:varchar(255)" json:"-"`
	FrontImageType string `gorm:"type:varchar(50)" json:"-"`
	BackImageKey   string `gorm:"type:varchar(255)" json:"-"`
	BackImageType  string `gorm:"type:varchar(50)" json:"-"`

	Tags      []Tag     `gorm:"many2many:business_card_tags;" json:"tags,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate generates the unique external code if not present.
func (b *BusinessCard) BeforeCreate(tx *gorm.DB) error {
	if b.Code == "" {
		code, err := cardcode.Generate()
		if err != nil {
			return err
		}
		b.Code = code
	}
	if b.Status == "" {
		b.Status = CardStatusAnalyzing
	}
	return nil
}

func (b *BusinessCard) Validate() error {
	v := validator.New()

	return v.Struct(b)
}

// HasFrontImage reports whether a front image is attached.
func (b *BusinessCard) HasFrontImage() bool {
	return b.FrontImageKey != ""
}

// HasBackImage reports whether a back image is attached.
func (b *BusinessCard) HasBackImage() bool {
	return b.BackImageKey != ""
}

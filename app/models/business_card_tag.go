package models

import "time"

// BusinessCardTag is the join row linking a business card to a tag.
type BusinessCardTag struct {
	BusinessCardID uint      `gorm:"primaryKey;autoIncrement:false" json:"business_card_id"`
	TagID          uint      `gorm:"primaryKey;autoIncrement:false" json:"tag_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

package repository

import (
	"gorm.io/gorm"

	"github.com/meishibox/meishibox/app/models"
)

// defaultTagColor is assigned to tags created implicitly while tagging a card.
const defaultTagColor = "#cccccc"

// tagRepository implements the TagRepository interface
type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository instance
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// Create creates a new tag in the database
func (r *tagRepository) Create(tag *models.Tag) error {
	return r.db.Create(tag).Error
}

// GetByID retrieves a tag by its ID, scoped to the owner
func (r *tagRepository) GetByID(userID, id uint) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.Where("user_id = ? AND id = ?", userID, id).First(&tag).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetByName retrieves a tag by its name, scoped to the owner
func (r *tagRepository) GetByName(userID uint, name string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.Where("user_id = ? AND name = ?", userID, name).First(&tag).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindOrCreateByName resolves a tag name to an existing tag or creates it
// with the default color inside the given transaction.
func (r *tagRepository) FindOrCreateByName(tx *gorm.DB, userID uint, name string) (*models.Tag, error) {
	if tx == nil {
		tx = r.db
	}
	var tag models.Tag
	err := tx.Where("user_id = ? AND name = ?", userID, name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	tag = models.Tag{UserID: userID, Name: name, Color: defaultTagColor}
	if err := tag.Validate(); err != nil {
		return nil, err
	}
	if err := tx.Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// ListByUser retrieves all tags of a user, newest first
func (r *tagRepository) ListByUser(userID uint) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&tags).Error
	return tags, err
}

// Update updates an existing tag in the database
func (r *tagRepository) Update(tag *models.Tag) error {
	return r.db.Save(tag).Error
}

// Delete removes a tag and detaches it from all cards
func (r *tagRepository) Delete(tag *models.Tag) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", tag.ID).Delete(&models.BusinessCardTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(tag).Error
	})
}

// RecalculateCounters refreshes the per-tag card counters for a user
func (r *tagRepository) RecalculateCounters(userID uint) error {
	return recalcTagCounters(r.db, userID)
}

// recalcTagCounters rewrites business_cards_count from the join table.
func recalcTagCounters(tx *gorm.DB, userID uint) error {
	return tx.Exec(`
		UPDATE tags
		SET business_cards_count = (
			SELECT COUNT(*) FROM business_card_tags bct
			WHERE bct.tag_id = tags.id
		)
		WHERE tags.user_id = ?`, userID).Error
}

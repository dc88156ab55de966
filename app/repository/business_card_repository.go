package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meishibox/meishibox/app/models"
)

// CardPageSize is the fixed page size for business card listings.
const CardPageSize = 12

// searchColumns are the free-text searchable business card columns.
var searchColumns = []string{
	"first_name",
	"last_name",
	"first_name_phonetic",
	"last_name_phonetic",
	"company",
	"email",
	"mobile_phone",
	"home_phone",
	"fax",
	"notes",
}

// businessCardRepository implements the BusinessCardRepository interface
type businessCardRepository struct {
	db *gorm.DB
}

// NewBusinessCardRepository creates a new business card repository instance
func NewBusinessCardRepository(db *gorm.DB) BusinessCardRepository {
	return &businessCardRepository{db: db}
}

// Create creates a new business card in the database
func (r *businessCardRepository) Create(card *models.BusinessCard) error {
	return r.db.Create(card).Error
}

// CreateInTx creates a card and runs fn in the same transaction, so that
// side effects such as image uploads can roll the insert back on failure.
func (r *businessCardRepository) CreateInTx(card *models.BusinessCard, fn func(tx *gorm.DB, card *models.BusinessCard) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(card).Error; err != nil {
			return err
		}
		if fn != nil {
			return fn(tx, card)
		}
		return nil
	})
}

// GetByID retrieves a business card by its ID with tags preloaded
func (r *businessCardRepository) GetByID(id uint) (*models.BusinessCard, error) {
	var card models.BusinessCard
	err := r.db.Preload("Tags").First(&card, id).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// GetByCode retrieves a business card by its public code, scoped to the owner
func (r *businessCardRepository) GetByCode(userID uint, code string) (*models.BusinessCard, error) {
	var card models.BusinessCard
	err := r.db.Preload("Tags").
		Where("user_id = ? AND code = ?", userID, code).
		First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// escapeLike escapes LIKE wildcards in user supplied search terms. The `!`
// escape character behaves the same across database engines, backslash does
// not.
func escapeLike(term string) string {
	replacer := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return replacer.Replace(term)
}

// List retrieves one page of a user's business cards, newest first, applying
// the optional free-text, tag and meeting date filters.
func (r *businessCardRepository) List(userID uint, page int, filter CardFilter) (*CardPage, error) {
	if page < 1 {
		page = 1
	}

	query := r.db.Model(&models.BusinessCard{}).Where("business_cards.user_id = ?", userID)

	if term := strings.TrimSpace(filter.Query); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		var conds []string
		var args []interface{}
		for _, col := range searchColumns {
			conds = append(conds, "business_cards."+col+" LIKE ? ESCAPE '!'")
			args = append(args, pattern)
		}
		query = query.Where(strings.Join(conds, " OR "), args...)
	}

	if len(filter.TagIDs) > 0 {
		query = query.
			Joins("JOIN business_card_tags bct ON bct.business_card_id = business_cards.id").
			Where("bct.tag_id IN ?", filter.TagIDs).
			Distinct("business_cards.*")
	}

	if filter.MeetingDateFrom != nil {
		query = query.Where("business_cards.meeting_date >= ?", *filter.MeetingDateFrom)
	}
	if filter.MeetingDateTo != nil {
		query = query.Where("business_cards.meeting_date <= ?", *filter.MeetingDateTo)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Distinct("business_cards.id").Count(&total).Error; err != nil {
		return nil, err
	}

	var cards []models.BusinessCard
	err := query.
		Preload("Tags").
		Order("business_cards.id DESC").
		Offset((page - 1) * CardPageSize).
		Limit(CardPageSize).
		Find(&cards).Error
	if err != nil {
		return nil, err
	}

	totalPages := int((total + CardPageSize - 1) / CardPageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	return &CardPage{
		Cards:       cards,
		CurrentPage: page,
		TotalCount:  total,
		TotalPages:  totalPages,
		IsLastPage:  page >= totalPages,
	}, nil
}

// ListAll retrieves every business card of a user, newest first, for export
func (r *businessCardRepository) ListAll(userID uint) ([]models.BusinessCard, error) {
	var cards []models.BusinessCard
	err := r.db.Preload("Tags").
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&cards).Error
	return cards, err
}

// Update updates an existing business card in the database
func (r *businessCardRepository) Update(card *models.BusinessCard) error {
	return r.db.Save(card).Error
}

// Delete removes a business card and its tag associations
func (r *businessCardRepository) Delete(card *models.BusinessCard) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_card_id = ?", card.ID).Delete(&models.BusinessCardTag{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(card).Error; err != nil {
			return err
		}
		return recalcTagCounters(tx, card.UserID)
	})
}

// UpdateWithTags persists the card and swaps its tag set wholesale in one
// transaction. The card row is locked for the duration so two concurrent
// updates cannot interleave their tag rewrites.
func (r *businessCardRepository) UpdateWithTags(card *models.BusinessCard, tags []models.Tag) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		lookup := tx
		// sqlite has no SELECT ... FOR UPDATE, its single writer covers this.
		if tx.Dialector.Name() != "sqlite" {
			lookup = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var locked models.BusinessCard
		if err := lookup.First(&locked, card.ID).Error; err != nil {
			return err
		}
		if err := tx.Omit("Tags").Save(card).Error; err != nil {
			return err
		}
		if err := tx.Where("business_card_id = ?", card.ID).Delete(&models.BusinessCardTag{}).Error; err != nil {
			return err
		}
		for i := range tags {
			link := models.BusinessCardTag{BusinessCardID: card.ID, TagID: tags[i].ID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		card.Tags = tags
		return recalcTagCounters(tx, card.UserID)
	})
}

package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/meishibox/meishibox/app/models"
	"github.com/meishibox/meishibox/app/repository"
	"github.com/meishibox/meishibox/internal/pkg/apperror"
	"github.com/meishibox/meishibox/internal/pkg/exporter"
	"github.com/meishibox/meishibox/internal/pkg/jobqueue"
	"github.com/meishibox/meishibox/internal/pkg/storage"
)

// defaultLanguageHints is used when the upload doesn't specify any.
var defaultLanguageHints = []string{"en"}

// HandleBusinessCardList returns one page of the user's cards with the
// optional free-text, tag and meeting date filters applied.
func HandleBusinessCardList(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return apperror.BadParameter("page")
		}
	}

	filter := repository.CardFilter{Query: c.Query("q")}
	for _, key := range []string{"tags[]", "tags"} {
		for _, v := range c.Context().QueryArgs().PeekMulti(key) {
			if len(v) == 0 {
				continue
			}
			id, err := strconv.ParseUint(string(v), 10, 32)
			if err != nil {
				return apperror.BadParameter("tags")
			}
			filter.TagIDs = append(filter.TagIDs, uint(id))
		}
	}
	if filter.MeetingDateFrom, err = parseDateParam("meeting_date_from", c.Query("meeting_date_from")); err != nil {
		return err
	}
	if filter.MeetingDateTo, err = parseDateParam("meeting_date_to", c.Query("meeting_date_to")); err != nil {
		return err
	}
	if filter.MeetingDateTo != nil {
		// Inclusive upper bound covering the whole day.
		end := filter.MeetingDateTo.Add(24*time.Hour - time.Second)
		filter.MeetingDateTo = &end
	}

	result, err := repository.GetGlobalRepositories().BusinessCard.List(uc.UserID, page, filter)
	if err != nil {
		return err
	}
	return c.JSON(deps.Cards.Cards(c.Context(), result))
}

// HandleBusinessCardShow returns a single owned card by its code.
func HandleBusinessCardShow(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}

	card, err := repository.GetGlobalRepositories().BusinessCard.GetByCode(uc.UserID, c.Params("code"))
	if err != nil {
		return notFoundIfMissing(err, "business_card")
	}
	return c.JSON(deps.Cards.Card(c.Context(), card))
}

// HandleBusinessCardCreate accepts a multipart upload with a required front
// image and optional back image, stores the images, creates the card in
// analyzing state and enqueues the analysis job.
func HandleBusinessCardCreate(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}

	front, err := c.FormFile("front_image")
	if err != nil {
		return apperror.BadParameter("front_image")
	}
	back, _ := c.FormFile("back_image")

	languageHints := defaultLanguageHints
	if raw := c.FormValue("language_hints"); raw != "" {
		var hints []string
		if err := json.Unmarshal([]byte(raw), &hints); err != nil || len(hints) == 0 {
			return apperror.BadParameter("language_hints")
		}
		languageHints = hints
	}

	frontData, err := readUpload(front)
	if err != nil {
		return err
	}
	var backData []byte
	if back != nil {
		if backData, err = readUpload(back); err != nil {
			return err
		}
	}

	card := &models.BusinessCard{UserID: uc.UserID, Status: models.CardStatusAnalyzing}
	repo := repository.GetGlobalRepositories().BusinessCard
	err = repo.CreateInTx(card, func(tx *gorm.DB, card *models.BusinessCard) error {
		card.FrontImageKey = storage.ObjectKey(uc.UserID, card.ID, "front")
		card.FrontImageType = front.Header.Get("Content-Type")
		if err := deps.Store.Upload(c.Context(), card.FrontImageKey, card.FrontImageType, frontData); err != nil {
			return err
		}
		if back != nil {
			card.BackImageKey = storage.ObjectKey(uc.UserID, card.ID, "back")
			card.BackImageType = back.Header.Get("Content-Type")
			if err := deps.Store.Upload(c.Context(), card.BackImageKey, card.BackImageType, backData); err != nil {
				return err
			}
		}
		return tx.Model(card).Updates(map[string]interface{}{
			"front_image_key":  card.FrontImageKey,
			"front_image_type": card.FrontImageType,
			"back_image_key":   card.BackImageKey,
			"back_image_type":  card.BackImageType,
		}).Error
	})
	if err != nil {
		return err
	}

	payload := jobqueue.AnalyzeCardJobPayload{BusinessCardID: card.ID, LanguageHints: languageHints}
	if _, err := deps.Queue.EnqueueJob(jobqueue.JobTypeAnalyzeCard, payload.ToMap()); err != nil {
		// The card exists; analysis can be retried later, so only log.
		log.Errorf("[BusinessCard] Failed to enqueue analysis for card %d: %v", card.ID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(deps.Cards.Card(c.Context(), card))
}

type tagRefRequest struct {
	ID   *uint   `json:"id"`
	Name *string `json:"name"`
}

type updateCardRequest struct {
	FirstName         *string         `json:"first_name"`
	LastName          *string         `json:"last_name"`
	FirstNamePhonetic *string         `json:"first_name_phonetic"`
	LastNamePhonetic  *string         `json:"last_name_phonetic"`
	Company           *string         `json:"company"`
	JobTitle          *string         `json:"job_title"`
	Department        *string         `json:"department"`
	Website           *string         `json:"website"`
	Address           *string         `json:"address"`
	Email             *string         `json:"email"`
	MobilePhone       *string         `json:"mobile_phone"`
	HomePhone         *string         `json:"home_phone"`
	Fax               *string         `json:"fax"`
	Notes             *string         `json:"notes"`
	MeetingDate       *string         `json:"meeting_date"`
	Tags              []tagRefRequest `json:"tags"`
}

// HandleBusinessCardUpdate overwrites every contact field and replaces the
// card's tag set wholesale.
func HandleBusinessCardUpdate(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}

	repos := repository.GetGlobalRepositories()
	card, err := repos.BusinessCard.GetByCode(uc.UserID, c.Params("code"))
	if err != nil {
		return notFoundIfMissing(err, "business_card")
	}

	var req updateCardRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.BadParameter("body")
	}
	if req.FirstName == nil || *req.FirstName == "" {
		return apperror.Validation(errors.New("first_name is required"))
	}

	tags, err := resolveTagRefs(repos.Tag, uc.UserID, req.Tags)
	if err != nil {
		return err
	}

	card.FirstName = req.FirstName
	card.LastName = req.LastName
	card.FirstNamePhonetic = req.FirstNamePhonetic
	card.LastNamePhonetic = req.LastNamePhonetic
	card.Company = req.Company
	card.JobTitle = req.JobTitle
	card.Department = req.Department
	card.Website = req.Website
	card.Address = req.Address
	card.Email = req.Email
	card.MobilePhone = req.MobilePhone
	card.HomePhone = req.HomePhone
	card.Fax = req.Fax
	card.Notes = req.Notes

	card.MeetingDate = nil
	if req.MeetingDate != nil && *req.MeetingDate != "" {
		meeting, err := parseDateParam("meeting_date", *req.MeetingDate)
		if err != nil {
			return err
		}
		card.MeetingDate = meeting
	}

	if err := card.Validate(); err != nil {
		return apperror.Validation(err)
	}
	if err := repos.BusinessCard.UpdateWithTags(card, tags); err != nil {
		return err
	}

	return c.JSON(deps.Cards.Card(c.Context(), card))
}

// resolveTagRefs maps tag references to tag rows. A reference carries either
// an id of an existing owned tag or a name that is found-or-created.
func resolveTagRefs(tagRepo repository.TagRepository, userID uint, refs []tagRefRequest) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(refs))
	seen := map[uint]struct{}{}
	for _, ref := range refs {
		switch {
		case ref.ID != nil && ref.Name == nil:
			tag, err := tagRepo.GetByID(userID, *ref.ID)
			if err != nil {
				return nil, notFoundIfMissing(err, "tag")
			}
			if _, dup := seen[tag.ID]; !dup {
				seen[tag.ID] = struct{}{}
				tags = append(tags, *tag)
			}
		case ref.Name != nil && ref.ID == nil:
			tag, err := tagRepo.FindOrCreateByName(nil, userID, *ref.Name)
			if err != nil {
				return nil, apperror.Validation(err)
			}
			if _, dup := seen[tag.ID]; !dup {
				seen[tag.ID] = struct{}{}
				tags = append(tags, *tag)
			}
		default:
			return nil, apperror.BadParameter("tags")
		}
	}
	return tags, nil
}

// HandleBusinessCardDelete removes an owned card and schedules its images
// for deletion from storage.
func HandleBusinessCardDelete(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}

	repo := repository.GetGlobalRepositories().BusinessCard
	card, err := repo.GetByCode(uc.UserID, c.Params("code"))
	if err != nil {
		return notFoundIfMissing(err, "business_card")
	}

	if err := repo.Delete(card); err != nil {
		return err
	}

	keys := []string{}
	if card.HasFrontImage() {
		keys = append(keys, card.FrontImageKey)
	}
	if card.HasBackImage() {
		keys = append(keys, card.BackImageKey)
	}
	if len(keys) > 0 {
		payload := jobqueue.DeleteCardImagesJobPayload{BusinessCardID: card.ID, ObjectKeys: keys}
		if _, err := deps.Queue.EnqueueJob(jobqueue.JobTypeDeleteCardImages, payload.ToMap()); err != nil {
			log.Errorf("[BusinessCard] Failed to enqueue image cleanup for card %d: %v", card.ID, err)
		}
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// HandleBusinessCardExport streams every owned card as a CSV attachment.
func HandleBusinessCardExport(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}

	cards, err := repository.GetGlobalRepositories().BusinessCard.ListAll(uc.UserID)
	if err != nil {
		return err
	}
	out, err := exporter.BusinessCardsCSV(cards)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="business_cards.csv"`)
	return c.Send(out)
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

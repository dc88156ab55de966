package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/meishibox/meishibox/app/models"
	"github.com/meishibox/meishibox/app/repository"
	"github.com/meishibox/meishibox/internal/pkg/apperror"
	"github.com/meishibox/meishibox/internal/pkg/viewmodel"
)

// HandleTagList returns all of the user's tags, newest first.
func HandleTagList(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}

	tags, err := repository.GetGlobalRepositories().Tag.ListByUser(uc.UserID)
	if err != nil {
		return err
	}
	return c.JSON(viewmodel.Tags(tags))
}

// HandleTagShow returns a single owned tag.
func HandleTagShow(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}

	tag, err := findOwnedTag(c, uc.UserID)
	if err != nil {
		return err
	}
	return c.JSON(viewmodel.Tag(tag))
}

type updateTagRequest struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// HandleTagUpdate overwrites a tag's name, color and description.
func HandleTagUpdate(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}

	tag, err := findOwnedTag(c, uc.UserID)
	if err != nil {
		return err
	}

	var req updateTagRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.BadParameter("body")
	}

	tag.Name = req.Name
	tag.Color = req.Color
	tag.Description = req.Description
	if err := tag.Validate(); err != nil {
		return apperror.Validation(err)
	}
	if err := repository.GetGlobalRepositories().Tag.Update(tag); err != nil {
		return err
	}
	return c.JSON(viewmodel.Tag(tag))
}

// HandleTagDelete removes a tag and detaches it from every card.
func HandleTagDelete(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}

	tag, err := findOwnedTag(c, uc.UserID)
	if err != nil {
		return err
	}
	if err := repository.GetGlobalRepositories().Tag.Delete(tag); err != nil {
		return err
	}
	return c.JSON(fiber.Map{})
}

func findOwnedTag(c *fiber.Ctx, userID uint) (*models.Tag, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, apperror.NotFound("tag")
	}
	tag, err := repository.GetGlobalRepositories().Tag.GetByID(userID, uint(id))
	if err != nil {
		return nil, notFoundIfMissing(err, "tag")
	}
	return tag, nil
}

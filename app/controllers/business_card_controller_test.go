package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/meishibox/meishibox/app/models"
	"github.com/meishibox/meishibox/internal/pkg/apperror"
)

type fakeTagRepo struct {
	byID   map[uint]*models.Tag
	byName map[string]*models.Tag
	nextID uint
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{byID: map[uint]*models.Tag{}, byName: map[string]*models.Tag{}, nextID: 1}
}

func (f *fakeTagRepo) add(tag models.Tag) *models.Tag {
	tag.ID = f.nextID
	f.nextID++
	f.byID[tag.ID] = &tag
	f.byName[tag.Name] = &tag
	return &tag
}

func (f *fakeTagRepo) Create(tag *models.Tag) error {
	stored := f.add(*tag)
	tag.ID = stored.ID
	return nil
}

func (f *fakeTagRepo) GetByID(userID, id uint) (*models.Tag, error) {
	tag, ok := f.byID[id]
	if !ok || tag.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return tag, nil
}

func (f *fakeTagRepo) GetByName(userID uint, name string) (*models.Tag, error) {
	tag, ok := f.byName[name]
	if !ok || tag.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return tag, nil
}

func (f *fakeTagRepo) FindOrCreateByName(_ *gorm.DB, userID uint, name string) (*models.Tag, error) {
	if tag, err := f.GetByName(userID, name); err == nil {
		return tag, nil
	}
	return f.add(models.Tag{UserID: userID, Name: name, Color: "#cccccc"}), nil
}

func (f *fakeTagRepo) ListByUser(userID uint) ([]models.Tag, error) {
	var tags []models.Tag
	for _, tag := range f.byID {
		if tag.UserID == userID {
			tags = append(tags, *tag)
		}
	}
	return tags, nil
}

func (f *fakeTagRepo) Update(tag *models.Tag) error { return nil }

func (f *fakeTagRepo) Delete(tag *models.Tag) error { return nil }

func (f *fakeTagRepo) RecalculateCounters(userID uint) error { return nil }

func uintPtr(v uint) *uint     { return &v }
func namePtr(s string) *string { return &s }

func TestResolveTagRefsByID(t *testing.T) {
	repo := newFakeTagRepo()
	existing := repo.add(models.Tag{UserID: 1, Name: "conference", Color: "#ff0000"})

	tags, err := resolveTagRefs(repo, 1, []tagRefRequest{{ID: uintPtr(existing.ID)}})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "conference", tags[0].Name)
}

func TestResolveTagRefsByName(t *testing.T) {
	repo := newFakeTagRepo()

	tags, err := resolveTagRefs(repo, 1, []tagRefRequest{{Name: namePtr("sales")}})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "sales", tags[0].Name)

	// resolving the same name again returns the existing tag
	again, err := resolveTagRefs(repo, 1, []tagRefRequest{{Name: namePtr("sales")}})
	require.NoError(t, err)
	assert.Equal(t, tags[0].ID, again[0].ID)
}

func TestResolveTagRefsDeduplicates(t *testing.T) {
	repo := newFakeTagRepo()
	existing := repo.add(models.Tag{UserID: 1, Name: "partner", Color: "#00ff00"})

	tags, err := resolveTagRefs(repo, 1, []tagRefRequest{
		{ID: uintPtr(existing.ID)},
		{Name: namePtr("partner")},
	})
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestResolveTagRefsUnknownID(t *testing.T) {
	repo := newFakeTagRepo()

	_, err := resolveTagRefs(repo, 1, []tagRefRequest{{ID: uintPtr(99)}})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestResolveTagRefsForeignTagID(t *testing.T) {
	repo := newFakeTagRepo()
	other := repo.add(models.Tag{UserID: 2, Name: "private", Color: "#0000ff"})

	_, err := resolveTagRefs(repo, 1, []tagRefRequest{{ID: uintPtr(other.ID)}})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestResolveTagRefsRejectsAmbiguousRef(t *testing.T) {
	repo := newFakeTagRepo()

	_, err := resolveTagRefs(repo, 1, []tagRefRequest{{ID: uintPtr(1), Name: namePtr("both")}})
	assert.ErrorIs(t, err, apperror.ErrBadParameter)

	_, err = resolveTagRefs(repo, 1, []tagRefRequest{{}})
	assert.ErrorIs(t, err, apperror.ErrBadParameter)
}

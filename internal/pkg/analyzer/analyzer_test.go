package analyzer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/meishibox/meishibox/app/models"
	"github.com/meishibox/meishibox/app/repository"
)

func strPtr(s string) *string { return &s }

// fakeCardRepo keeps cards in memory; only the methods the analyzer touches
// do real work.
type fakeCardRepo struct {
	cards map[uint]*models.BusinessCard
}

func newFakeCardRepo(cards ...*models.BusinessCard) *fakeCardRepo {
	m := map[uint]*models.BusinessCard{}
	for _, c := range cards {
		m[c.ID] = c
	}
	return &fakeCardRepo{cards: m}
}

func (r *fakeCardRepo) GetByID(id uint) (*models.BusinessCard, error) {
	card, ok := r.cards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *card
	return &copied, nil
}

func (r *fakeCardRepo) Update(card *models.BusinessCard) error {
	copied := *card
	r.cards[card.ID] = &copied
	return nil
}

func (r *fakeCardRepo) Create(*models.BusinessCard) error { return nil }
func (r *fakeCardRepo) CreateInTx(*models.BusinessCard, func(*gorm.DB, *models.BusinessCard) error) error {
	return nil
}
func (r *fakeCardRepo) GetByCode(uint, string) (*models.BusinessCard, error) { return nil, nil }
func (r *fakeCardRepo) List(uint, int, repository.CardFilter) (*repository.CardPage, error) {
	return nil, nil
}
func (r *fakeCardRepo) ListAll(uint) ([]models.BusinessCard, error) { return nil, nil }
func (r *fakeCardRepo) Delete(*models.BusinessCard) error           { return nil }
func (r *fakeCardRepo) UpdateWithTags(*models.BusinessCard, []models.Tag) error {
	return nil
}

type fakeStore struct {
	objects map[string][]byte
}

func (s *fakeStore) Upload(_ context.Context, key, _ string, data []byte) error {
	s.objects[key] = data
	return nil
}

func (s *fakeStore) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) PresignURL(_ context.Context, key string) (string, error) {
	return "https://example.com/" + key, nil
}

// fakeOCR maps image bytes to text.
type fakeOCR struct {
	texts map[string]string
}

func (o *fakeOCR) ExtractText(_ context.Context, image []byte, _ []string) (string, error) {
	return o.texts[string(image)], nil
}

// fakeFields returns queued results, recording the texts it was given.
type fakeFields struct {
	results []func() (*ContactFields, error)
	calls   int
	texts   []string
}

func (f *fakeFields) ExtractFields(_ context.Context, cardText string) (*ContactFields, error) {
	f.texts = append(f.texts, cardText)
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	return f.results[idx]()
}

func analyzingCard() *models.BusinessCard {
	return &models.BusinessCard{
		ID:             7,
		UserID:         3,
		Status:         models.CardStatusAnalyzing,
		FrontImageKey:  "3/7-front-image",
		FrontImageType: "image/jpeg",
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	repo := newFakeCardRepo(analyzingCard())
	store := &fakeStore{objects: map[string][]byte{"3/7-front-image": []byte("front-bytes")}}
	ocr := &fakeOCR{texts: map[string]string{"front-bytes": "Taro Yamada\nACME Inc."}}
	fields := &fakeFields{results: []func() (*ContactFields, error){
		func() (*ContactFields, error) {
			return &ContactFields{FirstName: strPtr("Taro"), LastName: strPtr("Yamada"), Company: strPtr("ACME Inc.")}, nil
		},
	}}

	a := New(repo, store, ocr, fields)
	require.NoError(t, a.Analyze(context.Background(), 7, []string{"ja", "en"}))

	card := repo.cards[7]
	assert.Equal(t, models.CardStatusAnalyzed, card.Status)
	assert.Equal(t, "Taro", *card.FirstName)
	assert.Equal(t, "Yamada", *card.LastName)
	assert.Equal(t, "ACME Inc.", *card.Company)
	assert.Nil(t, card.Email)

	require.Len(t, fields.texts, 1)
	assert.Equal(t, "Front Business Card Text >>\nTaro Yamada\nACME Inc.", fields.texts[0])
}

func TestAnalyzeIncludesBackImageText(t *testing.T) {
	card := analyzingCard()
	card.BackImageKey = "3/7-back-image"
	repo := newFakeCardRepo(card)
	store := &fakeStore{objects: map[string][]byte{
		"3/7-front-image": []byte("front-bytes"),
		"3/7-back-image":  []byte("back-bytes"),
	}}
	ocr := &fakeOCR{texts: map[string]string{
		"front-bytes": "Taro Yamada",
		"back-bytes":  "taro@example.com",
	}}
	fields := &fakeFields{results: []func() (*ContactFields, error){
		func() (*ContactFields, error) { return &ContactFields{}, nil },
	}}

	a := New(repo, store, ocr, fields)
	require.NoError(t, a.Analyze(context.Background(), 7, nil))

	require.Len(t, fields.texts, 1)
	assert.Equal(t, "Front Business Card Text >>\nTaro Yamada\n\nBack Business Card Text >>\ntaro@example.com", fields.texts[0])
}

func TestAnalyzeMarksFailedAfterExhaustedParseAttempts(t *testing.T) {
	repo := newFakeCardRepo(analyzingCard())
	store := &fakeStore{objects: map[string][]byte{"3/7-front-image": []byte("front-bytes")}}
	ocr := &fakeOCR{texts: map[string]string{"front-bytes": "gibberish"}}
	fields := &fakeFields{results: []func() (*ContactFields, error){
		func() (*ContactFields, error) { return nil, fmt.Errorf("%w: boom", ErrUnparsable) },
	}}

	a := New(repo, store, ocr, fields)
	require.NoError(t, a.Analyze(context.Background(), 7, nil))

	assert.Equal(t, MaxParseAttempts, fields.calls)
	card := repo.cards[7]
	assert.Equal(t, models.CardStatusFailed, card.Status)
	assert.Nil(t, card.FirstName)
	assert.Nil(t, card.Company)
}

func TestAnalyzeRecoversWithinParseAttempts(t *testing.T) {
	repo := newFakeCardRepo(analyzingCard())
	store := &fakeStore{objects: map[string][]byte{"3/7-front-image": []byte("front-bytes")}}
	ocr := &fakeOCR{texts: map[string]string{"front-bytes": "text"}}
	fields := &fakeFields{results: []func() (*ContactFields, error){
		func() (*ContactFields, error) { return nil, fmt.Errorf("%w: boom", ErrUnparsable) },
		func() (*ContactFields, error) { return nil, fmt.Errorf("%w: boom", ErrUnparsable) },
		func() (*ContactFields, error) { return &ContactFields{Email: strPtr("a@b.co")}, nil },
	}}

	a := New(repo, store, ocr, fields)
	require.NoError(t, a.Analyze(context.Background(), 7, nil))

	assert.Equal(t, 3, fields.calls)
	card := repo.cards[7]
	assert.Equal(t, models.CardStatusAnalyzed, card.Status)
	assert.Equal(t, "a@b.co", *card.Email)
}

func TestAnalyzePropagatesTransportError(t *testing.T) {
	repo := newFakeCardRepo(analyzingCard())
	store := &fakeStore{objects: map[string][]byte{"3/7-front-image": []byte("front-bytes")}}
	ocr := &fakeOCR{texts: map[string]string{"front-bytes": "text"}}
	transportErr := errors.New("connection refused")
	fields := &fakeFields{results: []func() (*ContactFields, error){
		func() (*ContactFields, error) { return nil, transportErr },
	}}

	a := New(repo, store, ocr, fields)
	err := a.Analyze(context.Background(), 7, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, transportErr)

	assert.Equal(t, 1, fields.calls)
	assert.Equal(t, models.CardStatusAnalyzing, repo.cards[7].Status)
}

func TestAnalyzeMissingFrontImage(t *testing.T) {
	card := analyzingCard()
	card.FrontImageKey = ""
	repo := newFakeCardRepo(card)

	a := New(repo, &fakeStore{objects: map[string][]byte{}}, &fakeOCR{}, &fakeFields{})
	err := a.Analyze(context.Background(), 7, nil)
	assert.ErrorIs(t, err, ErrMissingImage)
	assert.Equal(t, models.CardStatusAnalyzing, repo.cards[7].Status)
}

func TestAnalyzeRerunsTerminalCardAndOverwritesFields(t *testing.T) {
	card := analyzingCard()
	card.Status = models.CardStatusFailed
	card.FirstName = strPtr("Old")
	card.Company = strPtr("Old Corp")
	repo := newFakeCardRepo(card)
	store := &fakeStore{objects: map[string][]byte{"3/7-front-image": []byte("front-bytes")}}
	ocr := &fakeOCR{texts: map[string]string{"front-bytes": "Hanako Suzuki"}}
	fields := &fakeFields{results: []func() (*ContactFields, error){
		func() (*ContactFields, error) {
			return &ContactFields{FirstName: strPtr("Hanako"), LastName: strPtr("Suzuki")}, nil
		},
	}}

	a := New(repo, store, ocr, fields)
	require.NoError(t, a.Analyze(context.Background(), 7, nil))

	assert.Equal(t, 1, fields.calls)
	got := repo.cards[7]
	assert.Equal(t, models.CardStatusAnalyzed, got.Status)
	assert.Equal(t, "Hanako", *got.FirstName)
	assert.Equal(t, "Suzuki", *got.LastName)
	// Fields the new extraction did not return are cleared, not kept.
	assert.Nil(t, got.Company)
}

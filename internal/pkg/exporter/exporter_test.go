package exporter

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meishibox/meishibox/app/models"
)

func strPtr(s string) *string { return &s }

func TestBusinessCardsCSV(t *testing.T) {
	meeting := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	created := time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC)

	cards := []models.BusinessCard{
		{
			Code:        "aaaaaaaaaaaaaaaaaaaa",
			Status:      models.CardStatusAnalyzed,
			FirstName:   strPtr("Taro"),
			LastName:    strPtr("Yamada"),
			Company:     strPtr("ACME, Inc."),
			MeetingDate: &meeting,
			CreatedAt:   created,
			UpdatedAt:   created,
		},
		{
			Code:      "bbbbbbbbbbbbbbbbbbbb",
			Status:    models.CardStatusFailed,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}

	out, err := BusinessCardsCSV(cards)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 rows

	assert.Equal(t, csvHeader, records[0])
	assert.Len(t, records[0], 19)

	first := records[1]
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaa", first[0])
	assert.Equal(t, "Taro", first[1])
	assert.Equal(t, "ACME, Inc.", first[5])
	assert.Equal(t, "2024-03-15", first[14])
	assert.Equal(t, "analyzed", first[16])
	assert.Equal(t, "2024-03-16T09:00:00Z", first[17])

	// null fields come out as empty strings
	second := records[2]
	assert.Equal(t, "failed", second[16])
	for _, col := range second[1:16] {
		assert.Empty(t, col)
	}
}

func TestBusinessCardsCSVEmpty(t *testing.T) {
	out, err := BusinessCardsCSV(nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	assert.Len(t, lines, 1)
}

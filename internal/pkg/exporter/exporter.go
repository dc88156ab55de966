package exporter

import (
	"bytes"
	"encoding/csv"
	"time"

	"github.com/meishibox/meishibox/app/models"
)

// csvHeader is the fixed export column order.
var csvHeader = []string{
	"Code",
	"First Name",
	"Last Name",
	"First Name Phonetic",
	"Last Name Phonetic",
	"Company",
	"Job Title",
	"Department",
	"Website",
	"Email",
	"Address",
	"Mobile Phone",
	"Home Phone",
	"Fax",
	"Meeting Date",
	"Notes",
	"Status",
	"Created At",
	"Updated At",
}

// BusinessCardsCSV renders the user's cards as a CSV file: one header line
// plus one row per card in the given order. Null fields render as empty
// strings, the meeting date as a calendar date, timestamps as RFC3339.
func BusinessCardsCSV(cards []models.BusinessCard) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for i := range cards {
		if err := w.Write(cardRow(&cards[i])); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cardRow(card *models.BusinessCard) []string {
	return []string{
		card.Code,
		deref(card.FirstName),
		deref(card.LastName),
		deref(card.FirstNamePhonetic),
		deref(card.LastNamePhonetic),
		deref(card.Company),
		deref(card.JobTitle),
		deref(card.Department),
		deref(card.Website),
		deref(card.Email),
		deref(card.Address),
		deref(card.MobilePhone),
		deref(card.HomePhone),
		deref(card.Fax),
		formatDate(card.MeetingDate),
		deref(card.Notes),
		string(card.Status),
		card.CreatedAt.Format(time.RFC3339),
		card.UpdatedAt.Format(time.RFC3339),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

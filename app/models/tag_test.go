package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagValidate(t *testing.T) {
	tests := []struct {
		name    string
		tag     Tag
		wantErr bool
	}{
		{"valid name", Tag{UserID: 1, Name: "conference_2024", Color: "#ff0000"}, false},
		{"digits only", Tag{UserID: 1, Name: "42", Color: "#fff"}, false},
		{"uppercase rejected", Tag{UserID: 1, Name: "Conference", Color: "#fff"}, true},
		{"spaces rejected", Tag{UserID: 1, Name: "my tag", Color: "#fff"}, true},
		{"hyphen rejected", Tag{UserID: 1, Name: "my-tag", Color: "#fff"}, true},
		{"empty name rejected", Tag{UserID: 1, Name: "", Color: "#fff"}, true},
		{"missing color rejected", Tag{UserID: 1, Name: "tag"}, true},
		{"name over limit rejected", Tag{UserID: 1, Name: strings.Repeat("a", 101), Color: "#fff"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tag.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

package analyzer

import "github.com/meishibox/meishibox/app/models"

// ContactFields is the structured result of field extraction. Every field is
// optional; a null means the model could not find it on the card.
type ContactFields struct {
	FirstName         *string `json:"first_name"`
	LastName          *string `json:"last_name"`
	FirstNamePhonetic *string `json:"first_name_phonetic"`
	LastNamePhonetic  *string `json:"last_name_phonetic"`
	Company           *string `json:"company"`
	JobTitle          *string `json:"job_title"`
	Department        *string `json:"department"`
	Website           *string `json:"website"`
	Address           *string `json:"address"`
	Email             *string `json:"email"`
	MobilePhone       *string `json:"mobile_phone"`
	HomePhone         *string `json:"home_phone"`
	Fax               *string `json:"fax"`
}

// ApplyTo copies the extracted fields onto the card verbatim.
func (f *ContactFields) ApplyTo(card *models.BusinessCard) {
	card.FirstName = f.FirstName
	card.LastName = f.LastName
	card.FirstNamePhonetic = f.FirstNamePhonetic
	card.LastNamePhonetic = f.LastNamePhonetic
	card.Company = f.Company
	card.JobTitle = f.JobTitle
	card.Department = f.Department
	card.Website = f.Website
	card.Address = f.Address
	card.Email = f.Email
	card.MobilePhone = f.MobilePhone
	card.HomePhone = f.HomePhone
	card.Fax = f.Fax
}

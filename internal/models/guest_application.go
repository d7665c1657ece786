package models

import (
	"time"

	"gorm.io/datatypes"
)

type Gender string

const (
	GenderMale   Gender = "ERKEK"
	GenderFemale Gender = "KADIN"
	GenderOther  Gender = "DİĞER"
)

type GuestApplication struct {
	ID                   int64           `json:"id" gorm:"primaryKey"`
	FirstName            string          `json:"firstName" gorm:"not null"`
	LastName             string          `json:"lastName" gorm:"not null"`
	BirthDate            *datatypes.Date `json:"birthDate"`
	BirthPlace           string          `json:"birthPlace"`
	InternshipStartDate  *datatypes.Date `json:"internshipStartDate"`
	InternshipEndDate    *datatypes.Date `json:"internshipEndDate"`
	Address              string          `json:"address"`
	Phone                string          `json:"phone"`
	Email                string          `json:"email" gorm:"uniqueIndex;not null"`
	Nationality          string          `json:"nationality"`
	Gender               *Gender         `json:"gender"`
	MilitaryStatus       string          `json:"militaryStatus"`
	EducationInfo        string          `json:"educationInfo"`
	LanguageInfo         string          `json:"languageInfo"`
	ComputerInfo         string          `json:"computerInfo"`
	Message              string          `json:"message"`
	InternshipDepartment string          `json:"internshipDepartment"`
	SemesterGrade        string          `json:"semesterGrade"`
	AcceptEmail          bool            `json:"acceptEmail"`
	AcceptKvkk           bool            `json:"acceptKvkk"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

func (GuestApplication) TableName() string {
	return "guest_applications"
}

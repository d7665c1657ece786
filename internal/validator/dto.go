package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexInt accepts a JSON number or a numeric string.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(strings.Trim(string(data), `"`))
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fl, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || fl != float64(int64(fl)) {
			return fmt.Errorf("invalid integer %q", raw)
		}
		n = int64(fl)
	}
	*f = FlexInt(n)
	return nil
}

// FlexFloat accepts a JSON number or a numeric string.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(strings.Trim(string(data), `"`))
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", raw)
	}
	*f = FlexFloat(n)
	return nil
}

// TagList accepts a JSON array of strings or a comma separated string.
// Entries are trimmed and blanks dropped.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = TagList{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = SplitTags(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("tags must be an array or a comma separated string")
	}
	*t = CleanTags(items)
	return nil
}

// SplitTags splits a comma separated tag string.
func SplitTags(s string) TagList {
	return CleanTags(strings.Split(s, ","))
}

// CleanTags trims entries; a single entry holding commas is split.
func CleanTags(items []string) TagList {
	if len(items) == 1 && strings.Contains(items[0], ",") {
		items = strings.Split(items[0], ",")
	}
	out := TagList{}
	for _, item := range items {
		if v := strings.TrimSpace(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// QuestionInput accepts both the short (q, a, image) and the long
// (question_text, answer_text, image_url) field names.
type QuestionInput struct {
	Q     string  `json:"q" validate:"notblank"`
	A     string  `json:"a"`
	Image *string `json:"image"`
}

func (q *QuestionInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		Q            *string `json:"q"`
		QuestionText *string `json:"question_text"`
		A            *string `json:"a"`
		AnswerText   *string `json:"answer_text"`
		Image        *string `json:"image"`
		ImageURL     *string `json:"image_url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q.Q = firstString(raw.Q, raw.QuestionText)
	q.A = firstString(raw.A, raw.AnswerText)
	q.Image = nil
	if img := firstString(raw.Image, raw.ImageURL); img != "" {
		q.Image = &img
	}
	return nil
}

// firstString returns the first value that is not blank, trimmed.
func firstString(values ...*string) string {
	for _, v := range values {
		if v == nil {
			continue
		}
		if s := strings.TrimSpace(*v); s != "" {
			return s
		}
	}
	return ""
}

// QuestionList accepts a JSON array or a string holding a JSON array.
type QuestionList []QuestionInput

func (l *QuestionList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return l.UnmarshalJSON([]byte(s))
	}
	var items []QuestionInput
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("questions must be valid JSON: %w", err)
	}
	*l = items
	return nil
}

// ParseQuestionList decodes the questions multipart field.
func ParseQuestionList(raw string) (QuestionList, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return QuestionList{}, nil
	}
	var l QuestionList
	if err := l.UnmarshalJSON([]byte(raw)); err != nil {
		return nil, err
	}
	return l, nil
}

// ExamCreateRequest is the body of POST/PUT /exams
type ExamCreateRequest struct {
	VideoID    FlexInt      `json:"videoId" validate:"gt=0"`
	ExamTitle  string       `json:"examTitle" validate:"notblank,max=500"`
	Author     string       `json:"author" validate:"notblank"`
	Tag        string       `json:"tag" validate:"notblank"`
	Department string       `json:"department" validate:"notblank"`
	Questions  QuestionList `json:"questions" validate:"required,min=1,dive"`
}

// VideoUploadForm holds the non-file fields of POST /videos
type VideoUploadForm struct {
	Title    string  `form:"title" validate:"notblank"`
	Uploader string  `form:"uploader" validate:"notblank"`
	Desc     string  `form:"desc"`
	Tags     TagList `form:"tags"`
	Group    string  `form:"group"`
}

// VideoExamForm holds the non-file fields of POST /video-exams
type VideoExamForm struct {
	Title      string       `form:"title" validate:"notblank"`
	Uploader   string       `form:"uploader" validate:"notblank"`
	Desc       string       `form:"desc"`
	Tags       TagList      `form:"tags"`
	ExamTitle  string       `form:"examTitle" validate:"notblank"`
	Author     string       `form:"author" validate:"notblank"`
	Tag        string       `form:"tag" validate:"notblank"`
	Department string       `form:"department" validate:"notblank"`
	Questions  QuestionList `form:"questions" validate:"dive"`
}

type ExamResultRequest struct {
	VideoID   FlexInt    `json:"videoId" validate:"gt=0"`
	Score     *FlexFloat `json:"score" validate:"required"`
	ExamTitle string     `json:"examTitle" validate:"notblank"`
	UserName  string     `json:"userName" validate:"notblank"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,authority"`
}

type UserCreateRequest struct {
	FullName   string  `json:"fullName" validate:"notblank"`
	Role       string  `json:"role" validate:"notblank"`
	WorkArea   string  `json:"workArea" validate:"notblank"`
	Authority  string  `json:"authority" validate:"notblank"`
	Username   string  `json:"username" validate:"notblank"`
	Email      string  `json:"email" validate:"notblank,email"`
	Password   string  `json:"password" validate:"required"`
	Tags       TagList `json:"tags"`
	School     string  `json:"school"`
	Department string  `json:"department"`
}

// UserUpdateRequest only carries the fields present in the body.
type UserUpdateRequest struct {
	FullName   *string  `json:"fullName" validate:"omitempty,notblank"`
	Role       *string  `json:"role"`
	WorkArea   *string  `json:"workArea"`
	Authority  *string  `json:"authority"`
	Username   *string  `json:"username" validate:"omitempty,notblank"`
	Email      *string  `json:"email" validate:"omitempty,email"`
	Password   *string  `json:"password"`
	Tags       *TagList `json:"tags"`
	School     *string  `json:"school"`
	Department *string  `json:"department"`
}

// IsEmpty reports whether no updatable field was supplied. An empty
// password does not count.
func (r *UserUpdateRequest) IsEmpty() bool {
	return r.FullName == nil && r.Role == nil && r.WorkArea == nil && r.Authority == nil &&
		r.Username == nil && r.Email == nil && (r.Password == nil || *r.Password == "") &&
		r.Tags == nil && r.School == nil && r.Department == nil
}

type WatchRequest struct {
	VideoID FlexInt `json:"videoId" validate:"gt=0"`
}

type EducationRequest struct {
	School     string `json:"school"`
	Department string `json:"department"`
}

type EducationListRequest struct {
	Entries []EducationRequest `json:"entries" validate:"required"`
}

type GuestApplicationRequest struct {
	FirstName            string  `json:"firstName" validate:"notblank"`
	LastName             string  `json:"lastName" validate:"notblank"`
	BirthDate            *string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	BirthPlace           string  `json:"birthPlace"`
	InternshipStartDate  *string `json:"internshipStartDate" validate:"omitempty,datetime=2006-01-02"`
	InternshipEndDate    *string `json:"internshipEndDate" validate:"omitempty,datetime=2006-01-02"`
	Address              string  `json:"address"`
	Phone                string  `json:"phone" validate:"max=50"`
	Email                string  `json:"email" validate:"notblank,email"`
	Nationality          string  `json:"nationality"`
	Gender               *string `json:"gender" validate:"omitempty,gender"`
	MilitaryStatus       string  `json:"militaryStatus"`
	EducationInfo        string  `json:"educationInfo"`
	LanguageInfo         string  `json:"languageInfo"`
	ComputerInfo         string  `json:"computerInfo"`
	Message              string  `json:"message"`
	InternshipDepartment string  `json:"internshipDepartment"`
	SemesterGrade        string  `json:"semesterGrade"`
	AcceptEmail          bool    `json:"acceptEmail"`
	AcceptKvkk           bool    `json:"acceptKvkk"`
}

package models

// UserResponse is the public shape of a user. The password never leaves the server.
type UserResponse struct {
	ID         int64    `json:"id"`
	FullName   string   `json:"fullName"`
	Role       string   `json:"role"`
	WorkArea   string   `json:"workArea"`
	Authority  string   `json:"authority"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Tags       []string `json:"tags"`
	School     string   `json:"school"`
	Department string   `json:"department"`
}

func NewUserResponse(u *User) UserResponse {
	tags := []string(u.Tags)
	if tags == nil {
		tags = []string{}
	}
	return UserResponse{
		ID:         u.ID,
		FullName:   u.FullName,
		Role:       u.Role,
		WorkArea:   u.WorkArea,
		Authority:  string(u.Authority),
		Username:   u.Username,
		Email:      u.Email,
		Tags:       tags,
		School:     u.School,
		Department: u.Department,
	}
}

type QuestionView struct {
	Q     string `json:"q"`
	A     string `json:"a"`
	Image string `json:"image"`
}

type ExamView struct {
	ExamTitle  string         `json:"examTitle"`
	Author     string         `json:"author"`
	Tag        string         `json:"tag"`
	Department string         `json:"department"`
	Questions  []QuestionView `json:"questions"`
}

func NewExamView(e *Exam) ExamView {
	view := ExamView{
		ExamTitle:  e.ExamTitle,
		Author:     e.Author,
		Tag:        e.Tag,
		Department: e.Department,
		Questions:  make([]QuestionView, 0, len(e.Questions)),
	}
	for _, q := range e.Questions {
		view.Questions = append(view.Questions, QuestionView{Q: q.QuestionText, A: q.AnswerText, Image: q.ImageURL})
	}
	return view
}

// VideoExamResult is returned by the combined upload+exam flow.
type VideoExamResult struct {
	VideoID int64  `json:"videoId"`
	ExamID  int64  `json:"examId"`
	URL     string `json:"url"`
}

type Education struct {
	School     string `json:"school"`
	Department string `json:"department"`
}

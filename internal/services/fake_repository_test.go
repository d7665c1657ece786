package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/repositories"
)

var errInjected = errors.New("injected failure")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStore struct {
	nextID    int64
	videos    map[int64]*models.Video
	exams     map[int64]*models.Exam
	questions []models.Question
	results   []models.ExamResult
	users     map[int64]*models.User
	education map[int64][]models.UserEducation
	views     map[[2]int64]time.Time
	guests    []models.GuestApplication
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		videos:    map[int64]*models.Video{},
		exams:     map[int64]*models.Exam{},
		users:     map[int64]*models.User{},
		education: map[int64][]models.UserEducation{},
		views:     map[[2]int64]time.Time{},
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	c.nextID = s.nextID
	for k, v := range s.videos {
		cp := *v
		cp.Tags = append(pq.StringArray(nil), v.Tags...)
		c.videos[k] = &cp
	}
	for k, v := range s.exams {
		cp := *v
		c.exams[k] = &cp
	}
	c.questions = append(c.questions, s.questions...)
	c.results = append(c.results, s.results...)
	for k, v := range s.users {
		cp := *v
		cp.Tags = append(pq.StringArray(nil), v.Tags...)
		cp.WatchedVideos = append(pq.Int64Array(nil), v.WatchedVideos...)
		c.users[k] = &cp
	}
	for k, v := range s.education {
		c.education[k] = append([]models.UserEducation(nil), v...)
	}
	for k, v := range s.views {
		c.views[k] = v
	}
	c.guests = append(c.guests, s.guests...)
	return c
}

// cascadeVideo mirrors the ON DELETE CASCADE keys and the watched array cleanup.
func (s *fakeStore) cascadeVideo(id int64) {
	for examID, e := range s.exams {
		if e.VideoID != id {
			continue
		}
		delete(s.exams, examID)
		kept := s.questions[:0]
		for _, q := range s.questions {
			if q.ExamID != examID {
				kept = append(kept, q)
			}
		}
		s.questions = kept
	}

	results := s.results[:0]
	for _, r := range s.results {
		if r.VideoID != id {
			results = append(results, r)
		}
	}
	s.results = results

	for key := range s.views {
		if key[1] == id {
			delete(s.views, key)
		}
	}
	for _, u := range s.users {
		watched := u.WatchedVideos[:0]
		for _, v := range u.WatchedVideos {
			if v != id {
				watched = append(watched, v)
			}
		}
		u.WatchedVideos = watched
	}
}

// fakeRepository keeps every table in memory. WithTransaction serializes
// callers and restores the snapshot taken at its start when fn fails.
type fakeRepository struct {
	mu   sync.Mutex
	txMu sync.Mutex
	s    *fakeStore

	// failQuestionAt makes the n-th question insert of a transaction fail (1-based).
	failQuestionAt  int
	questionInserts int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{s: newFakeStore()}
}

func (r *fakeRepository) Video() repositories.VideoRepository           { return fakeVideos{r} }
func (r *fakeRepository) Exam() repositories.ExamRepository             { return fakeExams{r} }
func (r *fakeRepository) Question() repositories.QuestionRepository     { return fakeQuestions{r} }
func (r *fakeRepository) ExamResult() repositories.ExamResultRepository { return fakeResults{r} }
func (r *fakeRepository) User() repositories.UserRepository             { return fakeUsers{r} }
func (r *fakeRepository) Education() repositories.EducationRepository   { return fakeEducation{r} }
func (r *fakeRepository) Membership() repositories.MembershipRepository { return fakeMembership{r} }

func (r *fakeRepository) GuestApplication() repositories.GuestApplicationRepository {
	return fakeGuests{r}
}

func (r *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	snapshot := r.s.clone()
	r.questionInserts = 0
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.s = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *fakeRepository) Ping(ctx context.Context) error { return nil }
func (r *fakeRepository) Close() error                   { return nil }

// seedVideo stores a video directly and returns its id.
func (r *fakeRepository) seedVideo(content []byte, tags ...string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.s.id()
	r.s.videos[id] = &models.Video{
		ID:        id,
		Title:     "video " + strconv.FormatInt(id, 10),
		Tags:      append(pq.StringArray{}, tags...),
		MimeType:  "video/mp4",
		SizeBytes: int64(len(content)),
		Content:   content,
		CreatedAt: time.Now(),
	}
	return id
}

func (r *fakeRepository) seedUser(u models.User) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = r.s.id()
	if u.WatchedVideos == nil {
		u.WatchedVideos = pq.Int64Array{}
	}
	r.s.users[u.ID] = &u
	return u.ID
}

func (r *fakeRepository) video(id int64) models.Video {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.s.videos[id]; ok {
		return *v
	}
	return models.Video{}
}

func (r *fakeRepository) examCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.s.exams)
}

func (r *fakeRepository) questionTexts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.s.questions))
	for _, q := range r.s.questions {
		out = append(out, q.QuestionText)
	}
	return out
}

func (r *fakeRepository) viewCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.s.views)
}

// ===== VIDEOS =====

type fakeVideos struct{ r *fakeRepository }

func (f fakeVideos) Create(ctx context.Context, video *models.Video) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	video.ID = f.r.s.id()
	video.SizeBytes = int64(len(video.Content))
	video.CreatedAt = time.Now()
	cp := *video
	cp.Tags = append(pq.StringArray{}, video.Tags...)
	f.r.s.videos[video.ID] = &cp
	return nil
}

func (f fakeVideos) SetURL(ctx context.Context, id int64, url string) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	v, ok := f.r.s.videos[id]
	if !ok {
		return repositories.NotFound("video", id)
	}
	v.URL = url
	return nil
}

func (f fakeVideos) List(ctx context.Context) ([]models.Video, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	out := make([]models.Video, 0, len(f.r.s.videos))
	for _, v := range f.r.s.videos {
		cp := *v
		cp.Content = nil
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakeVideos) GetByID(ctx context.Context, id int64) (*models.Video, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	v, ok := f.r.s.videos[id]
	if !ok {
		return nil, repositories.NotFound("video", id)
	}
	cp := *v
	cp.Content = nil
	return &cp, nil
}

func (f fakeVideos) Exists(ctx context.Context, id int64) (bool, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	_, ok := f.r.s.videos[id]
	return ok, nil
}

func (f fakeVideos) Delete(ctx context.Context, id int64) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if _, ok := f.r.s.videos[id]; !ok {
		return repositories.NotFound("video", id)
	}
	delete(f.r.s.videos, id)
	f.r.s.cascadeVideo(id)
	return nil
}

func (f fakeVideos) StreamMeta(ctx context.Context, id int64) (*models.StreamMeta, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	v, ok := f.r.s.videos[id]
	if !ok {
		return nil, repositories.NotFound("video", id)
	}
	return &models.StreamMeta{MimeType: v.MimeType, Total: int64(len(v.Content))}, nil
}

func (f fakeVideos) ReadAll(ctx context.Context, id int64) (*models.StreamMeta, []byte, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	v, ok := f.r.s.videos[id]
	if !ok {
		return nil, nil, repositories.NotFound("video", id)
	}
	return &models.StreamMeta{MimeType: v.MimeType, Total: int64(len(v.Content))}, append([]byte{}, v.Content...), nil
}

// ReadWindow mirrors SQL substring with a 1-based offset.
func (f fakeVideos) ReadWindow(ctx context.Context, id int64, offset, length int64) ([]byte, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	v, ok := f.r.s.videos[id]
	if !ok {
		return nil, repositories.NotFound("video", id)
	}
	start := offset - 1
	if start >= int64(len(v.Content)) {
		return []byte{}, nil
	}
	end := min(start+length, int64(len(v.Content)))
	return append([]byte{}, v.Content[start:end]...), nil
}

func (f fakeVideos) AppendTag(ctx context.Context, id int64, tag string) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	v, ok := f.r.s.videos[id]
	if !ok {
		return repositories.NotFound("video", id)
	}
	if !v.HasTag(tag) {
		v.Tags = append(v.Tags, tag)
	}
	return nil
}

func (f fakeVideos) FindByTags(ctx context.Context, needles []string) ([]models.Video, error) {
	all, _ := f.List(ctx)
	var out []models.Video
	for _, v := range all {
	match:
		for _, tag := range v.Tags {
			lt := strings.ToLower(tag)
			for _, n := range needles {
				if lt == n || strings.Contains(lt, n) {
					out = append(out, v)
					break match
				}
			}
		}
	}
	return out, nil
}

// ===== EXAMS =====

type fakeExams struct{ r *fakeRepository }

func (f fakeExams) ExistsForVideo(ctx context.Context, videoID int64) (bool, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, e := range f.r.s.exams {
		if e.VideoID == videoID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeExams) Create(ctx context.Context, exam *models.Exam) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, e := range f.r.s.exams {
		if e.VideoID == exam.VideoID {
			return repositories.ErrDuplicate
		}
	}
	exam.ID = f.r.s.id()
	cp := *exam
	cp.Questions = nil
	f.r.s.exams[exam.ID] = &cp
	return nil
}

func (f fakeExams) GetByVideoID(ctx context.Context, videoID int64) (*models.Exam, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, e := range f.r.s.exams {
		if e.VideoID != videoID {
			continue
		}
		cp := *e
		for _, q := range f.r.s.questions {
			if q.ExamID == e.ID {
				cp.Questions = append(cp.Questions, q)
			}
		}
		return &cp, nil
	}
	return nil, repositories.NotFound("exam for video", videoID)
}

type fakeQuestions struct{ r *fakeRepository }

func (f fakeQuestions) Create(ctx context.Context, question *models.Question) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	f.r.questionInserts++
	if f.r.failQuestionAt > 0 && f.r.questionInserts == f.r.failQuestionAt {
		return errInjected
	}
	question.ID = f.r.s.id()
	f.r.s.questions = append(f.r.s.questions, *question)
	return nil
}

// ===== EXAM RESULTS =====

type fakeResults struct{ r *fakeRepository }

func (f fakeResults) Create(ctx context.Context, result *models.ExamResult) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	result.ID = f.r.s.id()
	result.CreatedAt = time.Now()
	f.r.s.results = append(f.r.s.results, *result)
	return nil
}

func (f fakeResults) BestScoresByUser(ctx context.Context, userLabel string) ([]models.VideoBestScore, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	best := map[int64]float64{}
	for _, res := range f.r.s.results {
		if !strings.EqualFold(res.User, userLabel) {
			continue
		}
		if cur, ok := best[res.VideoID]; !ok || res.Score > cur {
			best[res.VideoID] = res.Score
		}
	}
	var out []models.VideoBestScore
	for id, score := range best {
		out = append(out, models.VideoBestScore{VideoID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VideoID < out[j].VideoID })
	return out, nil
}

func (f fakeResults) List(ctx context.Context) ([]models.ExamResult, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	return append([]models.ExamResult(nil), f.r.s.results...), nil
}

// ===== USERS =====

type fakeUsers struct{ r *fakeRepository }

func (f fakeUsers) Create(ctx context.Context, user *models.User) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, u := range f.r.s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	user.ID = f.r.s.id()
	cp := *user
	f.r.s.users[user.ID] = &cp
	return nil
}

func (f fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	u, ok := f.r.s.users[id]
	if !ok {
		return nil, repositories.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, u := range f.r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.NotFound("user", email)
}

func (f fakeUsers) List(ctx context.Context) ([]models.User, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []models.User
	for _, u := range f.r.s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeUsers) ExistsByUsernameOrEmail(ctx context.Context, username, email string, excludeID int64) (bool, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, u := range f.r.s.users {
		if u.ID == excludeID {
			continue
		}
		if (username != "" && u.Username == username) || (email != "" && strings.EqualFold(u.Email, email)) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeUsers) Update(ctx context.Context, id int64, update repositories.UserUpdate) (*models.User, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	u, ok := f.r.s.users[id]
	if !ok {
		return nil, repositories.NotFound("user", id)
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.FullName, update.FullName)
	set(&u.Role, update.Role)
	set(&u.WorkArea, update.WorkArea)
	set(&u.Username, update.Username)
	set(&u.Email, update.Email)
	set(&u.PasswordPlain, update.Password)
	set(&u.School, update.School)
	set(&u.Department, update.Department)
	if update.Authority != nil {
		u.Authority = *update.Authority
	}
	if update.Tags != nil {
		u.Tags = pq.StringArray(*update.Tags)
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) DeleteByIDOrUsername(ctx context.Context, key string) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		if _, ok := f.r.s.users[id]; ok {
			delete(f.r.s.users, id)
			return nil
		}
		return repositories.NotFound("user", key)
	}
	for id, u := range f.r.s.users {
		if u.Username == key {
			delete(f.r.s.users, id)
			return nil
		}
	}
	return repositories.NotFound("user", key)
}

func (f fakeUsers) WatchedVideos(ctx context.Context, userID int64) ([]models.WatchedVideo, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	out := []models.WatchedVideo{}
	for key, at := range f.r.s.views {
		if key[0] != userID {
			continue
		}
		if v, ok := f.r.s.videos[key[1]]; ok {
			out = append(out, models.WatchedVideo{ID: v.ID, Title: v.Title, Tags: v.Tags, WatchedAt: at})
		}
	}
	return out, nil
}

func (f fakeUsers) Trainings(ctx context.Context, userID int64) ([]models.Training, error) {
	return []models.Training{}, nil
}

// ===== EDUCATION =====

type fakeEducation struct{ r *fakeRepository }

func (f fakeEducation) ListByUser(ctx context.Context, userID int64) ([]models.UserEducation, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	return append([]models.UserEducation(nil), f.r.s.education[userID]...), nil
}

func (f fakeEducation) ReplaceForUser(ctx context.Context, userID int64, entries []models.UserEducation) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	list := make([]models.UserEducation, 0, len(entries))
	for _, e := range entries {
		e.ID = f.r.s.id()
		e.UserID = userID
		list = append(list, e)
	}
	f.r.s.education[userID] = list
	return nil
}

// ===== MEMBERSHIP =====

type fakeMembership struct{ r *fakeRepository }

func (f fakeMembership) EnsureMember(ctx context.Context, spec repositories.MembershipSpec, ownerID, memberID int64) (*repositories.MembershipResult, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	u, ok := f.r.s.users[ownerID]
	if !ok {
		return nil, repositories.NotFound("user", ownerID)
	}

	res := &repositories.MembershipResult{}
	present := false
	for _, id := range u.WatchedVideos {
		if id == memberID {
			present = true
			break
		}
	}
	if !present {
		u.WatchedVideos = append(u.WatchedVideos, memberID)
		res.Added = true
	}
	key := [2]int64{ownerID, memberID}
	if _, ok := f.r.s.views[key]; !ok {
		f.r.s.views[key] = time.Now()
		res.Logged = true
	}
	res.Members = append([]int64{}, u.WatchedVideos...)
	return res, nil
}

func (f fakeMembership) Members(ctx context.Context, spec repositories.MembershipSpec, ownerID int64) ([]int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	u, ok := f.r.s.users[ownerID]
	if !ok {
		return nil, repositories.NotFound("user", ownerID)
	}
	return append([]int64{}, u.WatchedVideos...), nil
}

// ===== GUEST APPLICATIONS =====

type fakeGuests struct{ r *fakeRepository }

func (f fakeGuests) Create(ctx context.Context, app *models.GuestApplication) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, g := range f.r.s.guests {
		if strings.EqualFold(g.Email, app.Email) {
			return repositories.ErrDuplicate
		}
	}
	app.ID = f.r.s.id()
	app.CreatedAt = time.Now()
	f.r.s.guests = append(f.r.s.guests, *app)
	return nil
}

func (f fakeGuests) List(ctx context.Context) ([]models.GuestApplication, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	out := make([]models.GuestApplication, 0, len(f.r.s.guests))
	for i := len(f.r.s.guests) - 1; i >= 0; i-- {
		out = append(out, f.r.s.guests[i])
	}
	return out, nil
}

package services

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/atknylmz/Urtim-server/internal/events"
	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/validator"
)

func newTestVideoService(repo *fakeRepository, base string) (VideoService, *events.MockEventPublisher) {
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	return NewVideoService(repo, logger, validator.New(), publisher, base), publisher
}

func TestVideoService_Upload(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc, publisher := newTestVideoService(repo, "")

	req := &VideoUploadRequest{
		Form: validator.VideoUploadForm{
			Title:    " Intro ",
			Uploader: "admin",
			Tags:     validator.TagList{"safety", "Genel > onboarding"},
			Group:    "IK",
		},
		Files: []UploadedFile{
			{Filename: "a.mp4", ContentType: "video/mp4", Content: []byte("aaaa")},
			{Filename: "b.bin", Content: []byte("%PDF-1.4 fake")},
		},
		BaseURL: "http://localhost:5000",
	}

	saved, err := svc.Upload(ctx, req)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("saved %d videos, want 2", len(saved))
	}

	first := saved[0]
	if first.Title != "Intro" || first.SizeBytes != 4 || first.Content != nil {
		t.Errorf("first = %+v", first)
	}
	if first.URL != "http://localhost:5000/api/videos/"+itoa(first.ID)+"/stream" {
		t.Errorf("URL = %q", first.URL)
	}
	if got := strings.Join(first.Tags, "|"); got != "IK > safety|Genel > onboarding" {
		t.Errorf("tags = %q", got)
	}
	if saved[1].MimeType != "application/pdf" {
		t.Errorf("sniffed mime = %q", saved[1].MimeType)
	}
	if n := len(publisher.EventsOfType(events.VideoUploaded)); n != 2 {
		t.Errorf("published %d video.uploaded events, want 2", n)
	}

	if _, err := svc.Upload(ctx, &VideoUploadRequest{Form: req.Form}); KindOf(err) != KindValidation {
		t.Errorf("Upload() without files error = %v, want validation", err)
	}
}

func TestVideoService_Stream(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	content := []byte("0123456789")
	id := repo.seedVideo(content)
	emptyID := repo.seedVideo(nil)
	svc, _ := newTestVideoService(repo, "")

	tests := []struct {
		name     string
		id       int64
		header   string
		wantBody string
		partial  bool
		wantKind ErrorKind
		wantErr  bool
	}{
		{name: "whole object", id: id, wantBody: "0123456789"},
		{name: "open ended", id: id, header: "bytes=7-", wantBody: "789", partial: true},
		{name: "bounded", id: id, header: "bytes=2-4", wantBody: "234", partial: true},
		{name: "end clamped", id: id, header: "bytes=8-100", wantBody: "89", partial: true},
		{name: "last byte", id: id, header: "bytes=9-9", wantBody: "9", partial: true},
		{name: "start past end", id: id, header: "bytes=10-", wantErr: true, wantKind: KindRangeNotSatisfiable},
		{name: "suffix form", id: id, header: "bytes=-3", wantErr: true, wantKind: KindRangeNotSatisfiable},
		{name: "reversed", id: id, header: "bytes=5-2", wantErr: true, wantKind: KindRangeNotSatisfiable},
		{name: "empty object", id: emptyID, wantBody: ""},
		{name: "range on empty object", id: emptyID, header: "bytes=0-", wantErr: true, wantKind: KindRangeNotSatisfiable},
		{name: "unknown video", id: 999, wantErr: true, wantKind: KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Stream(ctx, tt.id, tt.header)
			if tt.wantErr {
				if KindOf(err) != tt.wantKind {
					t.Fatalf("Stream() error = %v, want kind %v", err, tt.wantKind)
				}
				if tt.wantKind == KindRangeNotSatisfiable {
					re, ok := IsRangeError(err)
					if !ok || re.Total != int64(len(repo.video(tt.id).Content)) {
						t.Errorf("range error = %#v", err)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("Stream() error = %v", err)
			}
			if !bytes.Equal(res.Body, []byte(tt.wantBody)) {
				t.Errorf("body = %q, want %q", res.Body, tt.wantBody)
			}
			if res.Window.Partial != tt.partial {
				t.Errorf("partial = %v, want %v", res.Window.Partial, tt.partial)
			}
			if res.MimeType != "video/mp4" {
				t.Errorf("mime = %q", res.MimeType)
			}
		})
	}
}

func TestVideoService_Recommended(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	match := repo.seedVideo([]byte("x"), "DEPARTMAN > Bilgi Islem")
	byTag := repo.seedVideo([]byte("x"), "IK > Golang Temelleri")
	repo.seedVideo([]byte("x"), "unrelated")
	userID := repo.seedUser(models.User{Username: "u", Email: "u@example.com", WorkArea: "  bilgi   islem ", Tags: []string{"golang"}})
	bare := repo.seedUser(models.User{Username: "b", Email: "b@example.com"})
	svc, _ := newTestVideoService(repo, "https://cdn.example")

	got, err := svc.Recommended(ctx, userID, "http://ignored")
	if err != nil {
		t.Fatalf("Recommended() error = %v", err)
	}
	ids := map[int64]bool{}
	for _, v := range got {
		ids[v.ID] = true
		if !strings.HasPrefix(v.URL, "https://cdn.example/api/videos/") {
			t.Errorf("URL = %q", v.URL)
		}
	}
	if len(got) != 2 || !ids[match] || !ids[byTag] {
		t.Errorf("recommended = %v", ids)
	}

	none, err := svc.Recommended(ctx, bare, "")
	if err != nil || len(none) != 0 {
		t.Errorf("Recommended() for user without tags = %v, %v", none, err)
	}

	if _, err := svc.Recommended(ctx, 999, ""); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Recommended() unknown user error = %v", err)
	}
}

func TestVideoService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	id := repo.seedVideo([]byte("x"))
	svc, _ := newTestVideoService(repo, "")

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, id); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("second Delete() error = %v, want not found", err)
	}
}

func TestVideoService_DeleteDetachesWatched(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	userID := repo.seedUser(models.User{Username: "ali", Email: "ali@example.com"})
	keep := repo.seedVideo([]byte("a"))
	gone := repo.seedVideo([]byte("b"))
	videos, _ := newTestVideoService(repo, "")
	users, _ := newTestUserService(repo)

	for _, id := range []int64{keep, gone} {
		if _, _, err := users.MarkWatched(ctx, userID, id); err != nil {
			t.Fatalf("MarkWatched(%d) error = %v", id, err)
		}
	}

	if err := videos.Delete(ctx, gone); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	watched, err := users.Watched(ctx, userID)
	if err != nil {
		t.Fatalf("Watched() error = %v", err)
	}
	if len(watched) != 1 || watched[0] != keep {
		t.Errorf("watched = %v, want [%d]", watched, keep)
	}
	if repo.viewCount() != 1 {
		t.Errorf("view rows = %d, want 1", repo.viewCount())
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

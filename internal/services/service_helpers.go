package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/atknylmz/Urtim-server/internal/events"
	"github.com/atknylmz/Urtim-server/internal/metrics"
	"github.com/atknylmz/Urtim-server/internal/models"
)

const fallbackMimeType = "application/octet-stream"

// publishAfterCommit must only be called once the transaction committed.
func publishAfterCommit(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, eventType events.EventType, payload interface{}) {
	err := events.PublishSafe(ctx, publisher, logger, eventType, payload)
	metrics.ObserveEvent(string(eventType), err)
}

func streamURL(base string, videoID int64) string {
	return fmt.Sprintf("%s/api/videos/%d/stream", strings.TrimRight(base, "/"), videoID)
}

// groupTags prefixes each tag with "group > " unless it already names a group.
func groupTags(group string, tags []string) []string {
	group = strings.TrimSpace(group)
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if group != "" && !strings.Contains(t, ">") {
			t = group + " > " + t
		}
		out = append(out, t)
	}
	return out
}

// departmentTag returns "DEPARTMAN > <Title Cased work area>", or "" for a blank work area.
func departmentTag(workArea string) string {
	normalized := strings.Join(strings.Fields(workArea), " ")
	if normalized == "" {
		return ""
	}
	return "DEPARTMAN > " + cases.Title(language.Und).String(normalized)
}

// recommendationNeedles lower-cases and de-duplicates the user's tags plus the department tag.
func recommendationNeedles(user *models.User) []string {
	candidates := append([]string{}, user.Tags...)
	if dept := departmentTag(user.WorkArea); dept != "" {
		candidates = append(candidates, dept)
	}

	seen := make(map[string]struct{}, len(candidates))
	needles := make([]string, 0, len(candidates))
	for _, c := range candidates {
		n := strings.ToLower(strings.TrimSpace(c))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		needles = append(needles, n)
	}
	return needles
}

// newVideo builds the row for an uploaded file. The mime type falls back to
// content sniffing when the client sent none.
func newVideo(title, desc, uploader string, tags []string, file UploadedFile) *models.Video {
	filename := strings.TrimSpace(file.Filename)
	if filename == "" {
		filename = "upload-" + uuid.NewString()
	}

	mimeType := strings.TrimSpace(file.ContentType)
	if mimeType == "" || mimeType == fallbackMimeType {
		mimeType = mimetype.Detect(file.Content).String()
	}

	return &models.Video{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(desc),
		Uploader:    strings.TrimSpace(uploader),
		Tags:        pq.StringArray(append([]string{}, tags...)),
		Filename:    filename,
		MimeType:    mimeType,
		SizeBytes:   int64(len(file.Content)),
		Content:     file.Content,
	}
}

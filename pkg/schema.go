package pkg

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// schemaStatements are idempotent and run in order.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS public.users (
		id             SERIAL PRIMARY KEY,
		full_name      TEXT NOT NULL,
		role           TEXT,
		work_area      TEXT,
		authority      TEXT,
		username       TEXT UNIQUE NOT NULL,
		email          TEXT UNIQUE,
		password_plain TEXT,
		tags           TEXT[],
		school         TEXT,
		department     TEXT,
		watched_videos INTEGER[] DEFAULT '{}'::INTEGER[]
	)`,
	`DROP INDEX IF EXISTS public.users_email_lower_idx`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_key ON public.users (lower(email))`,

	`CREATE TABLE IF NOT EXISTS public.videos (
		id          SERIAL PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT,
		uploader    TEXT,
		tags        TEXT[],
		filename    TEXT,
		mime_type   TEXT,
		size_bytes  INTEGER,
		content     BYTEA,
		url         TEXT,
		created_at  TIMESTAMPTZ DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS videos_created_at_idx ON public.videos (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS videos_tags_gin ON public.videos USING GIN (tags)`,

	`CREATE TABLE IF NOT EXISTS public.exams (
		id         SERIAL PRIMARY KEY,
		video_id   INTEGER REFERENCES public.videos(id) ON DELETE CASCADE,
		exam_title TEXT NOT NULL,
		author     TEXT,
		tag        TEXT,
		department TEXT,
		created_at TIMESTAMPTZ DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS exams_video_id_unique ON public.exams (video_id)`,

	`CREATE TABLE IF NOT EXISTS public.questions (
		id            SERIAL PRIMARY KEY,
		exam_id       INTEGER REFERENCES public.exams(id) ON DELETE CASCADE,
		question_text TEXT NOT NULL,
		answer_text   TEXT,
		image_url     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS questions_exam_id_idx ON public.questions (exam_id)`,

	`CREATE TABLE IF NOT EXISTS public.exam_results (
		id         SERIAL PRIMARY KEY,
		"user"     TEXT NOT NULL,
		video_id   INTEGER REFERENCES public.videos(id) ON DELETE CASCADE,
		exam_title TEXT,
		score      NUMERIC,
		created_at TIMESTAMPTZ DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS exam_results_user_lower_idx ON public.exam_results (lower("user"))`,
	`CREATE INDEX IF NOT EXISTS exam_results_video_id_idx ON public.exam_results (video_id)`,

	`CREATE TABLE IF NOT EXISTS public.user_video_views (
		id         SERIAL PRIMARY KEY,
		user_id    INTEGER REFERENCES public.users(id) ON DELETE CASCADE,
		video_id   INTEGER REFERENCES public.videos(id) ON DELETE CASCADE,
		watched_at TIMESTAMPTZ DEFAULT now(),
		UNIQUE (user_id, video_id)
	)`,

	`CREATE TABLE IF NOT EXISTS public.user_education (
		id         SERIAL PRIMARY KEY,
		user_id    INTEGER REFERENCES public.users(id) ON DELETE CASCADE,
		school     TEXT,
		department TEXT,
		created_at TIMESTAMPTZ DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS public.guest_applications (
		id                    SERIAL PRIMARY KEY,
		first_name            TEXT NOT NULL,
		last_name             TEXT NOT NULL,
		birth_date            DATE,
		birth_place           TEXT,
		internship_start_date DATE,
		internship_end_date   DATE,
		address               TEXT,
		phone                 TEXT,
		email                 TEXT UNIQUE NOT NULL,
		nationality           TEXT,
		gender                TEXT CHECK (gender IN ('ERKEK', 'KADIN', 'DİĞER')),
		military_status       TEXT,
		education_info        TEXT,
		language_info         TEXT,
		computer_info         TEXT,
		message               TEXT,
		internship_department TEXT,
		semester_grade        TEXT,
		accept_email          BOOLEAN DEFAULT false,
		accept_kvkk           BOOLEAN DEFAULT false,
		created_at            TIMESTAMPTZ DEFAULT now(),
		updated_at            TIMESTAMPTZ DEFAULT now()
	)`,
}

// EnsureSchema creates missing tables and indexes. It is safe to run on every start.
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, stmt := range schemaStatements {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("schema statement %d failed: %w", i+1, err)
			}
		}
		return nil
	})
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/studyforge/tutorai/internal/domain"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ChapterRepository persists chapters with their sections and passages.
// Save replaces a chapter wholesale so re-ingestion is idempotent.
type ChapterRepository struct {
	pool *pgxpool.Pool
}

func NewChapterRepository(pool *pgxpool.Pool) *ChapterRepository {
	return &ChapterRepository{pool: pool}
}

func (r *ChapterRepository) Save(ctx context.Context, chapter *domain.Chapter) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := saveChapter(ctx, tx, chapter); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func saveChapter(ctx context.Context, db dbtx, chapter *domain.Chapter) error {
	updatedAt := chapter.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := db.Exec(ctx,
		`INSERT INTO chapters (id, title, content, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET title = $2, content = $3, updated_at = $4`,
		chapter.ID, chapter.Title, chapter.Content, updatedAt,
	)
	if err != nil {
		return err
	}

	// Children are replaced wholesale; positions re-number from zero.
	if _, err := db.Exec(ctx, `DELETE FROM sections WHERE chapter_id = $1`, chapter.ID); err != nil {
		return err
	}
	if _, err := db.Exec(ctx, `DELETE FROM passages WHERE chapter_id = $1`, chapter.ID); err != nil {
		return err
	}

	for i, s := range chapter.Sections {
		_, err := db.Exec(ctx,
			`INSERT INTO sections (chapter_id, position, title, content)
			 VALUES ($1, $2, $3, $4)`,
			chapter.ID, i, s.Title, s.Content,
		)
		if err != nil {
			return err
		}
	}

	for _, p := range chapter.Passages {
		_, err := db.Exec(ctx,
			`INSERT INTO passages (chapter_id, position, text, section_title, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			chapter.ID, p.Index, p.Text, nullableString(p.SectionTitle), pgvector.NewVector(p.Embedding),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *ChapterRepository) GetByID(ctx context.Context, id string) (*domain.Chapter, error) {
	var chapter domain.Chapter
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, content, updated_at FROM chapters WHERE id = $1`,
		id,
	).Scan(&chapter.ID, &chapter.Title, &chapter.Content, &chapter.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChapterNotFound
		}
		return nil, err
	}

	sections, err := r.loadSections(ctx, id)
	if err != nil {
		return nil, err
	}
	chapter.Sections = sections

	passages, err := r.loadPassages(ctx, id)
	if err != nil {
		return nil, err
	}
	chapter.Passages = passages

	return &chapter, nil
}

func (r *ChapterRepository) loadSections(ctx context.Context, chapterID string) ([]domain.Section, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT title, content FROM sections WHERE chapter_id = $1 ORDER BY position`,
		chapterID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []domain.Section
	for rows.Next() {
		var s domain.Section
		if err := rows.Scan(&s.Title, &s.Content); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func (r *ChapterRepository) loadPassages(ctx context.Context, chapterID string) ([]domain.Passage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT position, text, section_title, embedding
		 FROM passages WHERE chapter_id = $1 ORDER BY position`,
		chapterID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passages []domain.Passage
	for rows.Next() {
		var p domain.Passage
		var sectionTitle *string
		var embedding pgvector.Vector
		if err := rows.Scan(&p.Index, &p.Text, &sectionTitle, &embedding); err != nil {
			return nil, err
		}
		if sectionTitle != nil {
			p.SectionTitle = *sectionTitle
		}
		p.Embedding = embedding.Slice()
		passages = append(passages, p)
	}
	return passages, rows.Err()
}

// ListSummaries returns the chapter catalog without loading passages.
func (r *ChapterRepository) ListSummaries(ctx context.Context) ([]*domain.ChapterSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.title, c.updated_at, COUNT(p.chapter_id)
		 FROM chapters c
		 LEFT JOIN passages p ON p.chapter_id = c.id
		 GROUP BY c.id, c.title, c.updated_at
		 ORDER BY c.id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*domain.ChapterSummary
	for rows.Next() {
		var s domain.ChapterSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.UpdatedAt, &s.PassageCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

func (r *ChapterRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM chapters ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ChapterRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM chapters WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrChapterNotFound
	}
	return nil
}

// UpdatePassageEmbedding writes a single passage embedding in place,
// used by the backfill worker without re-saving the whole chapter.
func (r *ChapterRepository) UpdatePassageEmbedding(ctx context.Context, chapterID string, index int, embedding []float32) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE passages SET embedding = $1 WHERE chapter_id = $2 AND position = $3`,
		pgvector.NewVector(embedding), chapterID, index,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrChapterNotFound
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

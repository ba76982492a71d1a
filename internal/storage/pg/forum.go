package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
	internal_errors "github.com/kiezhub-dev/kiezhub/shared/errors"
)

// =========================================================================
// Forum categories
// =========================================================================

func (s *Storage) SaveForumCategory(c domain.ForumCategory) (domain.ForumCategory, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var out domain.ForumCategory
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
            INSERT INTO forum_categories(name, description, color, icon, display_order)
            VALUES($1, $2, $3, $4, $5)
            RETURNING id, name, description, color, icon, is_active, display_order, created_at`,
			c.Name, c.Description, c.Color, c.Icon, c.DisplayOrder,
		).Scan(&out.Id, &out.Name, &out.Description, &out.Color, &out.Icon, &out.IsActive, &out.DisplayOrder, &out.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return &internal_errors.ErrorWithStatusCode{Message: "Category already exists", StatusCode: http.StatusConflict}
			}
			return fmt.Errorf("failed to insert forum category: %w", err)
		}
		return nil
	})
	return out, err
}

// ForumCategories lists categories ordered for display, with thread counts.
func (s *Storage) ForumCategories(includeInactive bool) ([]domain.ForumCategory, error) {
	query := `
        SELECT c.id, c.name, c.description, c.color, c.icon, c.is_active, c.display_order, c.created_at,
               (SELECT count(*) FROM forum_threads t WHERE t.category_id = c.id) AS thread_count
        FROM forum_categories c`
	if !includeInactive {
		query += " WHERE c.is_active"
	}
	query += " ORDER BY c.display_order, c.name"

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query forum categories: %w", err)
	}
	defer rows.Close()

	var out []domain.ForumCategory
	for rows.Next() {
		var c domain.ForumCategory
		err := rows.Scan(&c.Id, &c.Name, &c.Description, &c.Color, &c.Icon, &c.IsActive, &c.DisplayOrder, &c.CreatedAt, &c.ThreadCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forum category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Storage) ForumCategory(id domain.ForumCategoryId) (domain.ForumCategory, error) {
	var c domain.ForumCategory
	err := s.db.QueryRow(`
        SELECT c.id, c.name, c.description, c.color, c.icon, c.is_active, c.display_order, c.created_at,
               (SELECT count(*) FROM forum_threads t WHERE t.category_id = c.id)
        FROM forum_categories c WHERE c.id = $1`,
		id,
	).Scan(&c.Id, &c.Name, &c.Description, &c.Color, &c.Icon, &c.IsActive, &c.DisplayOrder, &c.CreatedAt, &c.ThreadCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ForumCategory{}, &internal_errors.ErrorWithStatusCode{Message: "Category not found", StatusCode: http.StatusNotFound}
		}
		return domain.ForumCategory{}, fmt.Errorf("failed to query forum category: %w", err)
	}
	return c, nil
}

func (s *Storage) UpdateForumCategory(id domain.ForumCategoryId, name, description, color, icon *string, displayOrder *int, isActive *bool) (domain.ForumCategory, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var out domain.ForumCategory
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
            UPDATE forum_categories SET
                name = COALESCE($2, name),
                description = COALESCE($3, description),
                color = COALESCE($4, color),
                icon = COALESCE($5, icon),
                display_order = COALESCE($6, display_order),
                is_active = COALESCE($7, is_active)
            WHERE id = $1
            RETURNING id, name, description, color, icon, is_active, display_order, created_at`,
			id, name, description, color, icon, displayOrder, isActive,
		).Scan(&out.Id, &out.Name, &out.Description, &out.Color, &out.Icon, &out.IsActive, &out.DisplayOrder, &out.CreatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &internal_errors.ErrorWithStatusCode{Message: "Category not found", StatusCode: http.StatusNotFound}
			}
			if isUniqueViolation(err) {
				return &internal_errors.ErrorWithStatusCode{Message: "Category name already taken", StatusCode: http.StatusConflict}
			}
			return fmt.Errorf("failed to update forum category: %w", err)
		}
		return nil
	})
	return out, err
}

// DeleteForumCategory refuses to delete a category that still has threads.
func (s *Storage) DeleteForumCategory(id domain.ForumCategoryId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var threadCount int
		if err := tx.QueryRow("SELECT count(*) FROM forum_threads WHERE category_id = $1", id).Scan(&threadCount); err != nil {
			return fmt.Errorf("failed to count category threads: %w", err)
		}
		if threadCount > 0 {
			return &internal_errors.ErrorWithStatusCode{Message: "Category still has threads", StatusCode: http.StatusConflict}
		}
		result, err := tx.Exec("DELETE FROM forum_categories WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete forum category: %w", err)
		}
		return requireRowsAffected(result, "Category not found")
	})
}

// =========================================================================
// Threads
// =========================================================================

const threadSelect = `
    SELECT t.id, t.title, t.is_pinned, t.is_locked, t.created_at, t.creator_id, t.category_id, t.last_activity,
           u.display_name, u.profile_image_url, u.created_at,
           (SELECT count(*) FROM forum_posts p WHERE p.thread_id = t.id) AS post_count
    FROM forum_threads t
    JOIN users u ON u.id = t.creator_id`

func scanThread(scan func(dest ...any) error) (domain.ForumThread, error) {
	var t domain.ForumThread
	err := scan(&t.Id, &t.Title, &t.IsPinned, &t.IsLocked, &t.CreatedAt, &t.CreatorId, &t.CategoryId, &t.LastActivity,
		&t.Creator.DisplayName, &t.Creator.ProfileImageURL, &t.Creator.CreatedAt,
		&t.PostCount)
	if err != nil {
		return domain.ForumThread{}, err
	}
	t.Creator.Id = t.CreatorId
	return t, nil
}

func (s *Storage) SaveThread(data domain.ThreadCreationData) (domain.ThreadId, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var id domain.ThreadId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
            INSERT INTO forum_threads(title, creator_id, category_id)
            VALUES($1, $2, $3) RETURNING id`,
			data.Title, data.CreatorId, data.CategoryId,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert thread: %w", err)
		}
		return nil
	})
	return id, err
}

func (s *Storage) Thread(id domain.ThreadId) (domain.ForumThread, error) {
	return s.thread(s.db, id)
}

// Threads lists threads pinned-first, most recently active first.
func (s *Storage) Threads(filter domain.ThreadFilter) ([]domain.ForumThread, error) {
	query := threadSelect + " WHERE 1=1"
	args := []any{}
	if filter.CategoryId != 0 {
		args = append(args, filter.CategoryId)
		query += fmt.Sprintf(" AND t.category_id = $%d", len(args))
	}
	if filter.CreatorId != 0 {
		args = append(args, filter.CreatorId)
		query += fmt.Sprintf(" AND t.creator_id = $%d", len(args))
	}
	order := " ORDER BY t.last_activity DESC"
	if filter.PinnedFirst {
		order = " ORDER BY t.is_pinned DESC, t.last_activity DESC"
	}
	args = append(args, filter.Page.Offset, filter.Page.Limit)
	query += order + fmt.Sprintf(" OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query threads: %w", err)
	}
	defer rows.Close()

	var out []domain.ForumThread
	for rows.Next() {
		t, err := scanThread(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Storage) UpdateThread(id domain.ThreadId, upd domain.ThreadUpdate) (domain.ForumThread, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var thread domain.ForumThread
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
            UPDATE forum_threads SET
                title = COALESCE($2, title),
                is_pinned = COALESCE($3, is_pinned),
                is_locked = COALESCE($4, is_locked)
            WHERE id = $1`,
			id, upd.Title, upd.IsPinned, upd.IsLocked)
		if err != nil {
			return fmt.Errorf("failed to update thread: %w", err)
		}
		if err := requireRowsAffected(result, "Thread not found"); err != nil {
			return err
		}
		thread, err = s.thread(tx, id)
		return err
	})
	return thread, err
}

func (s *Storage) DeleteThread(id domain.ThreadId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM forum_threads WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete thread: %w", err)
		}
		return requireRowsAffected(result, "Thread not found")
	})
}

func (s *Storage) thread(q Querier, id domain.ThreadId) (domain.ForumThread, error) {
	t, err := scanThread(q.QueryRow(threadSelect+" WHERE t.id = $1", id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ForumThread{}, &internal_errors.ErrorWithStatusCode{Message: "Thread not found", StatusCode: http.StatusNotFound}
		}
		return domain.ForumThread{}, fmt.Errorf("failed to query thread: %w", err)
	}
	return t, nil
}

// =========================================================================
// Posts
// =========================================================================

// SavePost inserts a post and bumps the thread's last activity in the same
// transaction.
func (s *Storage) SavePost(data domain.PostCreationData) (domain.ForumPost, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var post domain.ForumPost
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
            INSERT INTO forum_posts(content, author_id, thread_id)
            VALUES($1, $2, $3)
            RETURNING id, content, created_at, updated_at, author_id, thread_id`,
			data.Content, data.AuthorId, data.ThreadId,
		).Scan(&post.Id, &post.Content, &post.CreatedAt, &post.UpdatedAt, &post.AuthorId, &post.ThreadId)
		if err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}
		if _, err := tx.Exec("UPDATE forum_threads SET last_activity = $2 WHERE id = $1", data.ThreadId, post.CreatedAt); err != nil {
			return fmt.Errorf("failed to bump thread activity: %w", err)
		}
		return nil
	})
	return post, err
}

func (s *Storage) Post(id domain.PostId) (domain.ForumPost, error) {
	var p domain.ForumPost
	err := s.db.QueryRow(`
        SELECT p.id, p.content, p.created_at, p.updated_at, p.author_id, p.thread_id,
               u.display_name, u.profile_image_url, u.created_at
        FROM forum_posts p
        JOIN users u ON u.id = p.author_id
        WHERE p.id = $1`,
		id,
	).Scan(&p.Id, &p.Content, &p.CreatedAt, &p.UpdatedAt, &p.AuthorId, &p.ThreadId,
		&p.Author.DisplayName, &p.Author.ProfileImageURL, &p.Author.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ForumPost{}, &internal_errors.ErrorWithStatusCode{Message: "Post not found", StatusCode: http.StatusNotFound}
		}
		return domain.ForumPost{}, fmt.Errorf("failed to query post: %w", err)
	}
	p.Author.Id = p.AuthorId
	return p, nil
}

func (s *Storage) Posts(threadId domain.ThreadId, page domain.Page) ([]domain.ForumPost, error) {
	rows, err := s.db.Query(`
        SELECT p.id, p.content, p.created_at, p.updated_at, p.author_id, p.thread_id,
               u.display_name, u.profile_image_url, u.created_at
        FROM forum_posts p
        JOIN users u ON u.id = p.author_id
        WHERE p.thread_id = $1
        ORDER BY p.created_at OFFSET $2 LIMIT $3`,
		threadId, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var out []domain.ForumPost
	for rows.Next() {
		var p domain.ForumPost
		err := rows.Scan(&p.Id, &p.Content, &p.CreatedAt, &p.UpdatedAt, &p.AuthorId, &p.ThreadId,
			&p.Author.DisplayName, &p.Author.ProfileImageURL, &p.Author.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		p.Author.Id = p.AuthorId
		out = append(out, p)
	}
	return out, rows.Err()
}

// PostsBy lists one author's posts across all threads, newest first.
func (s *Storage) PostsBy(authorId domain.UserId, page domain.Page) ([]domain.ForumPost, error) {
	rows, err := s.db.Query(`
        SELECT p.id, p.content, p.created_at, p.updated_at, p.author_id, p.thread_id,
               u.display_name, u.profile_image_url, u.created_at
        FROM forum_posts p
        JOIN users u ON u.id = p.author_id
        WHERE p.author_id = $1
        ORDER BY p.created_at DESC OFFSET $2 LIMIT $3`,
		authorId, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts by author: %w", err)
	}
	defer rows.Close()

	var out []domain.ForumPost
	for rows.Next() {
		var p domain.ForumPost
		err := rows.Scan(&p.Id, &p.Content, &p.CreatedAt, &p.UpdatedAt, &p.AuthorId, &p.ThreadId,
			&p.Author.DisplayName, &p.Author.ProfileImageURL, &p.Author.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		p.Author.Id = p.AuthorId
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Storage) UpdatePost(id domain.PostId, content string) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
            UPDATE forum_posts SET content = $2, updated_at = (now() at time zone 'utc')
            WHERE id = $1`, id, content)
		if err != nil {
			return fmt.Errorf("failed to update post: %w", err)
		}
		return requireRowsAffected(result, "Post not found")
	})
}

func (s *Storage) DeletePost(id domain.PostId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM forum_posts WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return requireRowsAffected(result, "Post not found")
	})
}

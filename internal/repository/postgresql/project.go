package postgresql

import (
	"context"
	"fmt"

	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/pkg/database"
)

type projectRepositoryImpl struct {
	db *database.DB
}

func NewProjectRepository(db *database.DB) project.ProjectRepository {
	return &projectRepositoryImpl{db: db}
}

func (r *projectRepositoryImpl) Create(ctx context.Context, p project.Project) (project.Project, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO projects (name, slug, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, slug, owner_id, created_at, updated_at
	`

	var created project.Project
	err := q.QueryRow(ctx, query, p.Name, p.Slug, p.OwnerID).Scan(
		&created.ID, &created.Name, &created.Slug, &created.OwnerID, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return project.Project{}, project.ErrProjectSlugExists
		}
		return project.Project{}, fmt.Errorf("failed to create project: %w", err)
	}
	return created, nil
}

func (r *projectRepositoryImpl) GetByID(ctx context.Context, id string) (project.Project, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, slug, owner_id, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	var p project.Project
	err := q.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Slug, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return project.Project{}, project.ErrProjectNotFound
		}
		return project.Project{}, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

func (r *projectRepositoryImpl) SlugExists(ctx context.Context, slug string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

func (r *projectRepositoryImpl) Update(ctx context.Context, id string, req project.UpdateProjectRequest) (project.Project, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE projects
		SET name = COALESCE($1, name), updated_at = NOW()
		WHERE id = $2
		RETURNING id, name, slug, owner_id, created_at, updated_at
	`

	var p project.Project
	err := q.QueryRow(ctx, query, req.Name, id).Scan(&p.ID, &p.Name, &p.Slug, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return project.Project{}, project.ErrProjectNotFound
		}
		return project.Project{}, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

func (r *projectRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrProjectNotFound
	}
	return nil
}

func (r *projectRepositoryImpl) ListForUser(ctx context.Context, userID string) ([]project.Membership, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT p.id, p.name, p.slug, p.owner_id, p.created_at, p.updated_at, pm.role
		FROM project_members pm
		JOIN projects p ON p.id = pm.project_id
		WHERE pm.user_id = $1
		ORDER BY pm.joined_at
	`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var out []project.Membership
	for rows.Next() {
		var m project.Membership
		if err := rows.Scan(
			&m.Project.ID, &m.Project.Name, &m.Project.Slug, &m.Project.OwnerID,
			&m.Project.CreatedAt, &m.Project.UpdatedAt, &m.Role,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type memberRepositoryImpl struct {
	db *database.DB
}

func NewMemberRepository(db *database.DB) project.MemberRepository {
	return &memberRepositoryImpl{db: db}
}

const memberSelect = `
		SELECT pm.project_id, pm.user_id, pm.role, pm.manager_id, pm.joined_at, u.email, u.full_name, u.avatar_url
		FROM project_members pm
		JOIN users u ON u.id = pm.user_id
`

func scanMember(row rowScanner) (project.Member, error) {
	var m project.Member
	err := row.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.ManagerID, &m.JoinedAt, &m.Email, &m.FullName, &m.AvatarURL)
	return m, err
}

func (r *memberRepositoryImpl) listMembers(ctx context.Context, where string, args ...interface{}) ([]project.Member, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, memberSelect+" WHERE "+where+" ORDER BY u.full_name, u.email", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var out []project.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *memberRepositoryImpl) Add(ctx context.Context, m project.Member) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO project_members (project_id, user_id, role, manager_id)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := q.Exec(ctx, query, m.ProjectID, m.UserID, m.Role, m.ManagerID); err != nil {
		if isUniqueViolation(err) {
			return project.ErrAlreadyMember
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

func (r *memberRepositoryImpl) Get(ctx context.Context, projectID, userID string) (project.Member, error) {
	q := GetQuerier(ctx, r.db)

	m, err := scanMember(q.QueryRow(ctx, memberSelect+" WHERE pm.project_id = $1 AND pm.user_id = $2", projectID, userID))
	if err != nil {
		if isNoRows(err) {
			return project.Member{}, project.ErrMemberNotFound
		}
		return project.Member{}, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

func (r *memberRepositoryImpl) List(ctx context.Context, projectID string) ([]project.Member, error) {
	return r.listMembers(ctx, "pm.project_id = $1", projectID)
}

func (r *memberRepositoryImpl) ListDirectReports(ctx context.Context, projectID, managerID string) ([]project.Member, error) {
	return r.listMembers(ctx, "pm.project_id = $1 AND pm.manager_id = $2", projectID, managerID)
}

func (r *memberRepositoryImpl) Count(ctx context.Context, projectID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	var n int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM project_members WHERE project_id = $1`, projectID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return n, nil
}

func (r *memberRepositoryImpl) CountByRole(ctx context.Context, projectID string, role project.Role) (int, error) {
	q := GetQuerier(ctx, r.db)

	var n int
	query := `SELECT COUNT(*) FROM project_members WHERE project_id = $1 AND role = $2`
	if err := q.QueryRow(ctx, query, projectID, role).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count members by role: %w", err)
	}
	return n, nil
}

func (r *memberRepositoryImpl) UpdateRole(ctx context.Context, projectID, userID string, role project.Role) error {
	return r.updateMember(ctx, `UPDATE project_members SET role = $1 WHERE project_id = $2 AND user_id = $3`, role, projectID, userID)
}

func (r *memberRepositoryImpl) UpdateManager(ctx context.Context, projectID, userID string, managerID *string) error {
	return r.updateMember(ctx, `UPDATE project_members SET manager_id = $1 WHERE project_id = $2 AND user_id = $3`, managerID, projectID, userID)
}

// LockHierarchy takes a transaction-scoped advisory lock keyed on the project id.
func (r *memberRepositoryImpl) LockHierarchy(ctx context.Context, projectID string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('hierarchy:' || $1))`, projectID); err != nil {
		return fmt.Errorf("failed to lock hierarchy: %w", err)
	}
	return nil
}

func (r *memberRepositoryImpl) Remove(ctx context.Context, projectID, userID string) error {
	q := GetQuerier(ctx, r.db)

	detach := `UPDATE project_members SET manager_id = NULL WHERE project_id = $1 AND manager_id = $2`
	if _, err := q.Exec(ctx, detach, projectID, userID); err != nil {
		return fmt.Errorf("failed to detach reports: %w", err)
	}

	tag, err := q.Exec(ctx, `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrMemberNotFound
	}
	return nil
}

func (r *memberRepositoryImpl) updateMember(ctx context.Context, query string, args ...interface{}) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrMemberNotFound
	}
	return nil
}

package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/pkg/database"
	"github.com/worktally/worktally-backend/internal/repository/postgresql"
)

// openTestDB connects to TEST_DATABASE_URL, applies migrations and truncates every table.
// Tests are skipped when the variable is unset.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	require.NoError(t, database.MigrateUp(dsn))

	db, err := database.NewPostgreSQLDB(dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	tables := []string{
		"notification_preferences",
		"notifications",
		"calendar_entries",
		"task_attachments",
		"task_checklist_items",
		"tasks",
		"work_session_breaks",
		"work_sessions",
		"subscriptions",
		"refresh_tokens",
		"project_members",
		"projects",
		"users",
	}
	_, err = db.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	require.NoError(t, err)

	return db
}

func seedUser(t *testing.T, db *database.DB, name string) user.User {
	t.Helper()

	u, err := postgresql.NewUserRepository(db).Create(context.Background(), user.User{
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		FullName: name,
		Timezone: "UTC",
		Schedule: user.DefaultSchedule(),
	})
	require.NoError(t, err)
	return u
}

func seedProject(t *testing.T, db *database.DB, owner user.User) project.Project {
	t.Helper()
	ctx := context.Background()

	p, err := postgresql.NewProjectRepository(db).Create(ctx, project.Project{
		Name:    "Acme",
		Slug:    "acme-" + uuid.NewString()[:8],
		OwnerID: owner.ID,
	})
	require.NoError(t, err)

	require.NoError(t, postgresql.NewMemberRepository(db).Add(ctx, project.Member{
		ProjectID: p.ID,
		UserID:    owner.ID,
		Role:      project.RoleAdmin,
	}))
	return p
}

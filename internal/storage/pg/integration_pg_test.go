package pg

import (
	"context"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/kiezhub-dev/kiezhub/shared/config"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	internal_errors "github.com/kiezhub-dev/kiezhub/shared/errors"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var storage *Storage

func TestMain(m *testing.M) {
	ctx := context.Background()
	var container *postgres.PostgresContainer
	storage, container = mustSetup(ctx)
	defer teardown(ctx, storage, container)

	exitCode := m.Run()
	os.Exit(exitCode)
}

func mustSetup(ctx context.Context) (*Storage, *postgres.PostgresContainer) {
	dbName := "kiezhub"
	dbUser := "user"
	dbPassword := "password"
	container, err := postgres.Run(ctx,
		"postgres:15.3-alpine",
		postgres.WithInitScripts(filepath.Join("migrations", "init.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			// First, we wait for the container to log readiness twice.
			// This is because it will restart itself after the first startup.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("failed to start container: %s", err)
	}
	containerPort, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("failed to obtain container port: %s", err)
	}
	port, err := strconv.Atoi(containerPort.Port())
	if err != nil {
		log.Fatalf("failed to obtain int container port: %s", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("failed to obtain container host: %s", err)
	}

	storage, err := New(&config.Config{
		Public:  config.Public{DefaultPageSize: 20, MaxPageSize: 100},
		Private: config.Private{Pg: config.Pg{Host: host, Port: port, User: dbUser, Password: dbPassword, Dbname: dbName}},
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres container: %s", err)
	}
	return storage, container
}

func teardown(ctx context.Context, storage *Storage, container *postgres.PostgresContainer) {
	if err := storage.Cleanup(); err != nil {
		log.Printf("failed to close storage connection: %s", err)
	}
	if err := container.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}
}

// =========================================================================
// Shared helpers
// =========================================================================

// generateString returns a short random identifier so tests sharing one
// database never collide on unique columns.
func generateString(t *testing.T) string {
	t.Helper()
	return strconv.FormatInt(rand.Int63(), 36)
}

func requireNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	e, ok := err.(*internal_errors.ErrorWithStatusCode)
	require.True(t, ok, "Expected ErrorWithStatusCode, got %T: %v", err, err)
	require.Equal(t, 404, e.StatusCode, "Expected status code 404")
}

func createTestUser(t *testing.T) domain.UserId {
	t.Helper()
	suffix := generateString(t)
	id, err := storage.SaveUser(domain.User{
		DisplayName: "user_" + suffix,
		Email:       suffix + "@example.com",
		PassHash:    "hash",
	})
	require.NoError(t, err, "createTestUser should not fail")
	return id
}

func createTestEventCategory(t *testing.T) domain.CategoryId {
	t.Helper()
	c, err := storage.SaveEventCategory("category_"+generateString(t), "test category")
	require.NoError(t, err, "createTestEventCategory should not fail")
	return c.Id
}

func createTestEvent(t *testing.T, creatorId domain.UserId, categoryId domain.CategoryId, startsAt time.Time) domain.EventId {
	t.Helper()
	id, err := storage.SaveEvent(domain.EventCreationData{
		Title:       "Event " + generateString(t),
		Description: "test event",
		StartsAt:    startsAt,
		Location:    "Nachbarschaftshaus",
		CreatorId:   creatorId,
		CategoryId:  categoryId,
	})
	require.NoError(t, err, "createTestEvent should not fail")
	return id
}

func createTestForumCategory(t *testing.T) domain.ForumCategoryId {
	t.Helper()
	c, err := storage.SaveForumCategory(domain.ForumCategory{
		Name:        "forum_" + generateString(t),
		Description: "test forum category",
		Color:       "#336699",
	})
	require.NoError(t, err, "createTestForumCategory should not fail")
	return c.Id
}

func createTestThread(t *testing.T, creatorId domain.UserId, categoryId domain.ForumCategoryId) domain.ThreadId {
	t.Helper()
	id, err := storage.SaveThread(domain.ThreadCreationData{
		Title:      "Thread " + generateString(t),
		CategoryId: categoryId,
		CreatorId:  creatorId,
	})
	require.NoError(t, err, "createTestThread should not fail")
	return id
}

func createTestService(t *testing.T, userId domain.UserId) domain.ServiceId {
	t.Helper()
	id, err := storage.SaveService(domain.ServiceCreationData{
		Title:       "Service " + generateString(t),
		Description: "test service",
		IsOffering:  true,
		PriceType:   "free",
		UserId:      userId,
	})
	require.NoError(t, err, "createTestService should not fail")
	return id
}

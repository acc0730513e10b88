//go:build integration

// Package integration runs the repositories against a real PostgreSQL.
// Run with: go test -v -tags=integration ./test/integration/...
package integration

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/Ramsey-B/iris/config"
	"github.com/Ramsey-B/iris/internal/repositories/castingrequest"
	"github.com/Ramsey-B/iris/internal/repositories/company"
	"github.com/Ramsey-B/iris/internal/repositories/contactproposal"
	"github.com/Ramsey-B/iris/internal/repositories/person"
	"github.com/Ramsey-B/iris/internal/repositories/project"
	"github.com/Ramsey-B/iris/pkg/catalog"
	"github.com/Ramsey-B/iris/pkg/contacts"
	"github.com/Ramsey-B/iris/pkg/database"
	"github.com/Ramsey-B/iris/pkg/duplicates"
	"github.com/Ramsey-B/iris/pkg/matching"
	"github.com/Ramsey-B/iris/pkg/models"
)

const dbName = "iris"

var testDB database.DB

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "user",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       dbName,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres: %v\n", err)
		os.Exit(1)
	}

	code := run(ctx, m, container)
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func run(ctx context.Context, m *testing.M, container testcontainers.Container) int {
	host, err := container.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read container host: %v\n", err)
		return 1
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read container port: %v\n", err)
		return 1
	}

	logger := getTestLogger()
	db, err := database.Connect(ctx, database.ConnectionConfig{
		Driver:   "postgres",
		Host:     host,
		Port:     port.Port(),
		User:     "user",
		Password: "password",
		Name:     dbName,
		SSLMode:  "disable",
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		return 1
	}
	defer db.Raw().Close()

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: "../../db/pg",
	})
	if err := migrations.Migrate(dbName, db); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate: %v\n", err)
		return 1
	}

	testDB = db
	return m.Run()
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	require.True(t, httperror.IsHTTPError(err), "expected HTTP error, got: %v", err)
	assert.Equal(t, status, httperror.GetStatusCode(err))
}

func TestCompanyRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := company.NewRepository(testDB, getTestLogger())

	created, err := repo.Create(ctx, models.CreateCompanyRequest{
		Name:        "Мосфильм",
		Email:       "info@mosfilm.ru",
		CompanyType: models.CompanyTypeProduction,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.True(t, created.IsActive)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Мосфильм", got.Name)

	active, err := repo.ListActiveByType(ctx, string(models.CompanyTypeProduction))
	require.NoError(t, err)
	assert.NotEmpty(t, active)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.Get(ctx, created.ID)
	assertStatus(t, err, http.StatusNotFound)
	assertStatus(t, repo.Delete(ctx, created.ID), http.StatusNotFound)
}

func TestCastingRequestRepository_ListSince(t *testing.T) {
	ctx := context.Background()
	repo := castingrequest.NewRepository(testDB, getTestLogger())
	now := time.Now().UTC()

	old, err := repo.Create(ctx, &models.CastingRequest{Text: "старый запрос", AuthorID: "author-a", CreatedAt: now.Add(-30 * 24 * time.Hour)})
	require.NoError(t, err)
	recent, err := repo.Create(ctx, &models.CastingRequest{Text: "новый запрос", AuthorID: "author-a", CreatedAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	other, err := repo.Create(ctx, &models.CastingRequest{Text: "чужой запрос", AuthorID: "author-b", CreatedAt: now.Add(-time.Hour)})
	require.NoError(t, err)

	rows, err := repo.ListSince(ctx, now.Add(-7*24*time.Hour), "author-a")
	require.NoError(t, err)

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, recent.ID)
	assert.NotContains(t, ids, old.ID)
	assert.NotContains(t, ids, other.ID)
}

func TestDetector_WithHistory(t *testing.T) {
	ctx := context.Background()
	logger := getTestLogger()
	repo := castingrequest.NewRepository(testDB, logger)

	preset, err := config.Preset("balanced")
	require.NoError(t, err)
	detector := duplicates.NewDetector(logger, preset, repo)

	text := "Кастинг в полнометражный фильм: ищем актрису 25-30 лет на главную роль, съёмки в Москве в июне"
	_, err = repo.Create(ctx, &models.CastingRequest{Text: text, AuthorID: "detector-author"})
	require.NoError(t, err)

	verdict, err := detector.IsDuplicate(ctx, text+"!", "detector-author")
	require.NoError(t, err)
	assert.True(t, verdict.IsDuplicate)
	require.NotNil(t, verdict.MatchedRequestID)

	verdict, err = detector.IsDuplicate(ctx, "Совершенно другой текст про рекламный ролик для банка с участием детей", "detector-author")
	require.NoError(t, err)
	assert.False(t, verdict.IsDuplicate)
}

func TestContactConsolidation(t *testing.T) {
	ctx := context.Background()
	logger := getTestLogger()

	matchingCfg, err := config.LoadMatchingConfig("")
	require.NoError(t, err)

	persons := person.NewRepository(testDB, logger, models.DefaultContactCapacity)
	proposals := contactproposal.NewRepository(testDB, logger)
	engine := matching.NewEngine(logger, catalog.NewStore(
		company.NewRepository(testDB, logger),
		project.NewRepository(testDB, logger),
		persons,
	), matchingCfg)
	service := contacts.NewService(logger, persons, proposals, engine, database.NewTxRunner(testDB, logger), models.DefaultContactCapacity)

	anna, err := persons.Create(ctx, models.CreatePersonRequest{
		Name:       "Анна Петрова",
		PersonType: models.PersonTypeCastingDirector,
		Contacts:   models.ContactSet{Phones: []string{"+7 900 111-22-33"}},
	})
	require.NoError(t, err)

	result, err := service.CheckAndAddContacts(ctx, models.ConsolidateContactsRequest{
		PersonName: "Анна Петрова",
		Phone:      "8 (900) 111-22-33",
		Email:      "anna.petrova@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, result.PersonID)
	assert.Equal(t, anna.ID, *result.PersonID)
	require.Len(t, result.Notifications, 1)
	assert.Equal(t, models.ContactTypeEmail, result.Notifications[0].ContactType)

	stored, err := persons.Get(ctx, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"anna.petrova@example.com"}, stored.Contacts.Emails)
	assert.Len(t, stored.Contacts.Phones, 1)

	found, err := service.FindPersonByContact(ctx, models.ContactTypeEmail, "ANNA.PETROVA@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, anna.ID, found.ID)

	proposalID := result.Notifications[0].ProposalID
	confirmed, err := service.ConfirmProposal(ctx, proposalID, "reviewer")
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ResolvedBy)
	assert.Equal(t, "reviewer", *confirmed.ResolvedBy)

	_, err = service.RejectProposal(ctx, proposalID, "reviewer")
	assertStatus(t, err, http.StatusConflict)
}

// retire removes rows from the active catalog the two ways it happens in practice.
func retire(t *testing.T, ctx context.Context, table string, softDelete func(context.Context, int64) error, deletedID, deactivatedID int64) {
	t.Helper()
	require.NoError(t, softDelete(ctx, deletedID))
	_, err := testDB.Raw().ExecContext(ctx, fmt.Sprintf("UPDATE %s SET is_active = FALSE WHERE id = $1", table), deactivatedID)
	require.NoError(t, err)
}

func TestCatalog_ExcludesInactiveRows(t *testing.T) {
	ctx := context.Background()
	logger := getTestLogger()

	matchingCfg, err := config.LoadMatchingConfig("")
	require.NoError(t, err)

	companies := company.NewRepository(testDB, logger)
	projects := project.NewRepository(testDB, logger)
	persons := person.NewRepository(testDB, logger, models.DefaultContactCapacity)
	engine := matching.NewEngine(logger, catalog.NewStore(companies, projects, persons), matchingCfg)

	tests := []struct {
		name     string
		category models.Category
		query    string
		// seed returns the ids of the active, soft-deleted and deactivated rows
		seed func(t *testing.T) (active, deleted, deactivated int64)
		list func() ([]int64, error)
	}{
		{
			name:     "companies",
			category: models.CategoryCompany,
			query:    "Студия Северное Сияние",
			seed: func(t *testing.T) (int64, int64, int64) {
				var ids [3]int64
				for i := range ids {
					c, err := companies.Create(ctx, models.CreateCompanyRequest{Name: "Студия Северное Сияние", CompanyType: models.CompanyTypeStreaming})
					require.NoError(t, err)
					ids[i] = c.ID
				}
				retire(t, ctx, "companies", companies.Delete, ids[1], ids[2])
				return ids[0], ids[1], ids[2]
			},
			list: func() ([]int64, error) {
				rows, err := companies.ListActiveByType(ctx, string(models.CompanyTypeStreaming))
				ids := make([]int64, 0, len(rows))
				for _, r := range rows {
					ids = append(ids, r.ID)
				}
				return ids, err
			},
		},
		{
			name:     "projects",
			category: models.CategoryProject,
			query:    "Ледяной перевал",
			seed: func(t *testing.T) (int64, int64, int64) {
				var ids [3]int64
				for i := range ids {
					p, err := projects.Create(ctx, models.CreateProjectRequest{Title: "Ледяной перевал", ProjectType: models.ProjectTypeSeries, Status: models.ProjectStatusPreProduction})
					require.NoError(t, err)
					ids[i] = p.ID
				}
				retire(t, ctx, "projects", projects.Delete, ids[1], ids[2])
				return ids[0], ids[1], ids[2]
			},
			list: func() ([]int64, error) {
				rows, err := projects.ListActiveByStatus(ctx, string(models.ProjectStatusPreProduction))
				ids := make([]int64, 0, len(rows))
				for _, r := range rows {
					ids = append(ids, r.ID)
				}
				return ids, err
			},
		},
		{
			name:     "persons",
			category: models.CategoryPerson,
			query:    "Евгения Ломоносова",
			seed: func(t *testing.T) (int64, int64, int64) {
				var ids [3]int64
				for i := range ids {
					p, err := persons.Create(ctx, models.CreatePersonRequest{Name: "Евгения Ломоносова", PersonType: models.PersonTypeAgent})
					require.NoError(t, err)
					ids[i] = p.ID
				}
				retire(t, ctx, "persons", persons.Delete, ids[1], ids[2])
				return ids[0], ids[1], ids[2]
			},
			list: func() ([]int64, error) {
				rows, err := persons.ListActive(ctx, string(models.PersonTypeAgent))
				ids := make([]int64, 0, len(rows))
				for _, r := range rows {
					ids = append(ids, r.ID)
				}
				return ids, err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active, deleted, deactivated := tt.seed(t)

			listed, err := tt.list()
			require.NoError(t, err)
			assert.Contains(t, listed, active)
			assert.NotContains(t, listed, deleted)
			assert.NotContains(t, listed, deactivated)

			candidates, err := engine.SearchByName(ctx, tt.category, tt.query, 50)
			require.NoError(t, err)
			found := make([]int64, 0, len(candidates))
			for _, c := range candidates {
				found = append(found, c.ID)
			}
			assert.Contains(t, found, active)
			assert.NotContains(t, found, deleted)
			assert.NotContains(t, found, deactivated)
		})
	}
}

func TestContactProposalRepository_PendingConflictReturnsExisting(t *testing.T) {
	ctx := context.Background()
	logger := getTestLogger()
	persons := person.NewRepository(testDB, logger, models.DefaultContactCapacity)
	proposals := contactproposal.NewRepository(testDB, logger)

	owner, err := persons.Create(ctx, models.CreatePersonRequest{Name: "Олег Смирнов", PersonType: models.PersonTypeProducer})
	require.NoError(t, err)

	first := &models.ContactAdditionProposal{PersonID: owner.ID, ContactType: models.ContactTypeEmail, ContactValue: "oleg@example.com"}
	require.NoError(t, proposals.Create(ctx, first))

	second := &models.ContactAdditionProposal{PersonID: owner.ID, ContactType: models.ContactTypeEmail, ContactValue: "oleg@example.com"}
	require.NoError(t, proposals.Create(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	stored, err := proposals.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusPending, stored.Status)
}

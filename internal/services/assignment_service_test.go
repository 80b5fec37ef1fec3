package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/models"
	"github.com/yukikurage/questboard-api/internal/repository"
)

func TestAssignmentService_CreateWithFile(t *testing.T) {
	env := setupTestEnv(t)
	env.seedCompany(t, "biz_1", "user_a")
	env.assignments.now = func() time.Time { return time.UnixMilli(1700000000000) }

	a, err := env.assignments.Create(context.Background(), CreateAssignmentInput{
		CompanyID:   "biz_1",
		UserID:      "user_a",
		Title:       "  Essay  ",
		Description: "draft",
		Tags:        "go, sql, go",
		File:        &FileInput{Name: "my essay.pdf", Size: 5, Reader: strings.NewReader("hello")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Essay", a.Title)
	assert.Equal(t, models.TagList{"go", "sql"}, a.Tags)
	require.NotNil(t, a.FileURL)
	assert.Equal(t, "https://files.test/biz_1/user_a/1700000000000_my_essay.pdf", *a.FileURL)
	assert.Equal(t, "my essay.pdf", *a.FileName)
	require.NotNil(t, a.User)
	assert.Equal(t, "user_a", a.User.Username)

	obj, ok := env.store.Get("biz_1/user_a/1700000000000_my_essay.pdf")
	require.True(t, ok)
	assert.Equal(t, "application/pdf", obj.ContentType)
}

func TestAssignmentService_UploadFailureLeavesNoRecord(t *testing.T) {
	env := setupTestEnv(t)
	env.seedCompany(t, "biz_1", "user_a")
	env.store.FailUploads = errors.New("bucket unavailable")

	_, err := env.assignments.Create(context.Background(), CreateAssignmentInput{
		CompanyID: "biz_1",
		UserID:    "user_a",
		Title:     "Broken",
		File:      &FileInput{Name: "a.png", Size: 3, Reader: strings.NewReader("png")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailed)

	list, total, err := env.assignments.List(context.Background(), ListAssignmentsInput{CompanyID: "biz_1"})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.EqualValues(t, 0, total)
	assert.EqualValues(t, 0, env.progressOf(t, "user_a", "biz_1").CurrentXP)
}

type failingAssignmentRepo struct {
	repository.AssignmentRepository
}

func (failingAssignmentRepo) Create(ctx context.Context, a *models.Assignment) error {
	return errors.New("insert failed")
}

func TestAssignmentService_InsertFailureRemovesUpload(t *testing.T) {
	env := setupTestEnv(t)
	env.seedCompany(t, "biz_1", "user_a")

	svc := NewAssignmentService(logger.Nop(),
		failingAssignmentRepo{repository.NewAssignmentRepository(env.db)},
		repository.NewCompanyRepository(env.db),
		env.store, env.progress, 0)

	_, err := svc.Create(context.Background(), CreateAssignmentInput{
		CompanyID: "biz_1",
		UserID:    "user_a",
		Title:     "Lost",
		File:      &FileInput{Name: "a.txt", Size: 2, Reader: strings.NewReader("hi")},
	})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 0, env.store.Len())
}

func TestAssignmentService_Validation(t *testing.T) {
	env := setupTestEnv(t)
	env.seedCompany(t, "biz_1", "user_a")
	ctx := context.Background()

	cases := map[string]CreateAssignmentInput{
		"blank title":   {Title: "   "},
		"long title":    {Title: strings.Repeat("x", 201)},
		"too many tags": {Title: "t", Tags: "a,b,c,d,e,f,g,h,i,j,k"},
		"bad tag":       {Title: "t", Tags: `a"b`},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			in.CompanyID, in.UserID = "biz_1", "user_a"
			_, err := env.assignments.Create(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := env.assignments.Create(ctx, CreateAssignmentInput{
		CompanyID: "biz_1", UserID: "user_a", Title: "big",
		File: &FileInput{Name: "big.bin", Size: 4096, Reader: strings.NewReader("")},
	})
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, 0, env.store.Len())
}

func TestAssignmentService_ListAndStats(t *testing.T) {
	env := setupTestEnv(t)
	env.seedCompany(t, "biz_1", "user_a", "user_b")
	env.seedCompany(t, "biz_2", "user_c")
	ctx := context.Background()

	env.createAssignment(t, "biz_1", "user_a", "one")
	env.createAssignment(t, "biz_1", "user_b", "two")
	other := env.createAssignment(t, "biz_2", "user_c", "elsewhere")

	list, total, err := env.assignments.List(ctx, ListAssignmentsInput{CompanyID: "biz_1", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	_, err = env.assignments.Get(ctx, "biz_1", other.ID)
	assert.ErrorIs(t, err, ErrAssignmentNotFound)

	stats, err := env.assignments.Stats(ctx, "biz_1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalAssignments)
	assert.EqualValues(t, 2, stats.TotalUsers)
}

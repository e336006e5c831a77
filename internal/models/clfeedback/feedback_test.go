package clfeedback

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"vitrine/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeProjects map[uint]bool

func (f fakeProjects) Exists(_ context.Context, id uint) (bool, error) {
	if id == 500 {
		return false, errors.New("db down")
	}
	return f[id], nil
}

func setupService(t *testing.T) (*FeedbackService, *gorm.DB) {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, testDB.AutoMigrate(&Feedback{}))
	return NewFeedbackService(testDB, fakeProjects{1: true, 2: true}), testDB
}

func validRequest() CreateRequest {
	return CreateRequest{PortfolioID: 1, Name: "Alice", Company: "Acme", Content: "Très bon travail", Rating: 5}
}

var hexToken = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestNewLinkToken(t *testing.T) {
	a, err := NewLinkToken()
	require.NoError(t, err)
	b, err := NewLinkToken()
	require.NoError(t, err)

	assert.Regexp(t, hexToken, a)
	assert.NotEqual(t, a, b)
}

func TestCreateAndGetByToken(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	f, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)
	assert.Regexp(t, hexToken, f.LinkToken)
	assert.False(t, f.IsApproved)
	assert.False(t, f.IsPublic)

	got, err := svc.GetByToken(ctx, f.LinkToken)
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, "Très bon travail", got.Content)

	_, err = svc.GetByToken(ctx, "00000000000000000000000000000000")
	assert.True(t, apperrors.IsNotFoundError(err))
	_, err = svc.GetByToken(ctx, "court")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestCreateValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
		check  func(error) bool
	}{
		{"sans projet", func(r *CreateRequest) { r.PortfolioID = 0 }, apperrors.IsValidationError},
		{"sans nom", func(r *CreateRequest) { r.Name = " " }, apperrors.IsValidationError},
		{"sans contenu", func(r *CreateRequest) { r.Content = "" }, apperrors.IsValidationError},
		{"note trop basse", func(r *CreateRequest) { r.Rating = 0 }, apperrors.IsValidationError},
		{"note trop haute", func(r *CreateRequest) { r.Rating = 6 }, apperrors.IsValidationError},
		{"projet inconnu", func(r *CreateRequest) { r.PortfolioID = 99 }, apperrors.IsNotFoundError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.Create(ctx, req)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}

	req := validRequest()
	req.PortfolioID = 500
	_, err := svc.Create(ctx, req)
	assert.Error(t, err)
	assert.False(t, apperrors.IsNotFoundError(err))
}

func TestListPublicFilters(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	combos := []struct{ approved, public bool }{
		{false, false}, {true, false}, {false, true}, {true, true},
	}
	var visible uint
	for _, c := range combos {
		f, err := svc.Create(ctx, validRequest())
		require.NoError(t, err)
		_, err = svc.Patch(ctx, f.ID, PatchRequest{IsApproved: &c.approved, IsPublic: &c.public})
		require.NoError(t, err)
		if c.approved && c.public {
			visible = f.ID
		}
	}

	public, err := svc.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, visible, public[0].ID)

	all, err := svc.List(ctx, ListOptions{IncludeAll: true})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestListByPortfolio(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	req := validRequest()
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)
	req.PortfolioID = 2
	_, err = svc.Create(ctx, req)
	require.NoError(t, err)

	list, err := svc.List(ctx, ListOptions{IncludeAll: true, PortfolioID: 2})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, uint(2), list[0].PortfolioID)
}

func TestSubmitByTokenResetsApproval(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	f, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)
	yes := true
	approved, err := svc.Patch(ctx, f.ID, PatchRequest{IsApproved: &yes, IsPublic: &yes})
	require.NoError(t, err)
	require.True(t, approved.IsApproved)

	updated, err := svc.SubmitByToken(ctx, f.LinkToken, SubmitRequest{
		Name:    "Alice Dupont",
		Company: "",
		Content: "Encore mieux",
		Rating:  4,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsApproved)
	assert.True(t, updated.IsPublic)
	assert.Equal(t, "Alice Dupont", updated.Name)
	assert.Empty(t, updated.Company)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, f.LinkToken, updated.LinkToken)

	require.NotNil(t, updated.SubmittedAt)

	// lien à usage unique
	_, err = svc.SubmitByToken(ctx, f.LinkToken, SubmitRequest{Name: "Mallory", Content: "Remplacé", Rating: 1})
	assert.True(t, apperrors.IsDuplicateError(err))
	again, err := svc.GetByToken(ctx, f.LinkToken)
	require.NoError(t, err)
	assert.Equal(t, "Encore mieux", again.Content)

	_, err = svc.SubmitByToken(ctx, f.LinkToken, SubmitRequest{Name: "x", Content: "y", Rating: 9})
	assert.True(t, apperrors.IsValidationError(err))

	_, err = svc.SubmitByToken(ctx, "ffffffffffffffffffffffffffffffff", SubmitRequest{Name: "x", Content: "y", Rating: 3})
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestLinkTokenOnlyInManagedView(t *testing.T) {
	svc, _ := setupService(t)
	f, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	public, err := json.Marshal(f)
	require.NoError(t, err)
	assert.NotContains(t, string(public), "linkToken")
	assert.NotContains(t, string(public), f.LinkToken)

	managed, err := json.Marshal(ManagedList([]Feedback{*f}))
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(managed, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, f.LinkToken, decoded[0]["linkToken"])
	assert.Equal(t, "Alice", decoded[0]["name"])
}

func TestPatchAndDelete(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	f, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	rating := 0
	_, err = svc.Patch(ctx, f.ID, PatchRequest{Rating: &rating})
	assert.True(t, apperrors.IsValidationError(err))

	content := "Contenu modéré"
	patched, err := svc.Patch(ctx, f.ID, PatchRequest{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, content, patched.Content)

	_, err = svc.Patch(ctx, 999, PatchRequest{Content: &content})
	assert.True(t, apperrors.IsNotFoundError(err))

	require.NoError(t, svc.Delete(ctx, f.ID))
	assert.True(t, apperrors.IsNotFoundError(svc.Delete(ctx, f.ID)))
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/repository"
)

func newTestReviewService(t *testing.T) (ReviewService, *gorm.DB) {
	db := newTestDB(t)
	return NewReviewService(repository.NewReviewRepository(db), repository.NewTitleRepo(db)), db
}

func TestCreateReview(t *testing.T) {
	svc, db := newTestReviewService(t)
	reader := seedUser(t, db, "reader", models.RoleUser)
	title := seedTitle(t, db, "Blade Runner")

	resp, err := svc.Create(context.Background(), actorFor(reader), title.ID, dto.CreateReviewDTO{
		Text:  "Holds up.",
		Score: 9,
	})

	require.NoError(t, err)
	assert.Equal(t, "reader", resp.Author)
	assert.Equal(t, 9, resp.Score)
	assert.Equal(t, "Holds up.", resp.Text)
}

func TestCreateReview_Anonymous(t *testing.T) {
	svc, db := newTestReviewService(t)
	title := seedTitle(t, db, "Blade Runner")

	_, err := svc.Create(context.Background(), permissions.Anonymous(), title.ID, dto.CreateReviewDTO{
		Text:  "drive-by",
		Score: 5,
	})

	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCreateReview_ScoreOutOfRange(t *testing.T) {
	svc, db := newTestReviewService(t)
	reader := seedUser(t, db, "reader", models.RoleUser)
	title := seedTitle(t, db, "Blade Runner")

	for _, score := range []int{0, 11, -1} {
		_, err := svc.Create(context.Background(), actorFor(reader), title.ID, dto.CreateReviewDTO{
			Text:  "out of range",
			Score: score,
		})
		assert.ErrorIs(t, err, ErrScoreOutOfRange, "score %d", score)
	}
}

func TestCreateReview_UnknownTitle(t *testing.T) {
	svc, db := newTestReviewService(t)
	reader := seedUser(t, db, "reader", models.RoleUser)

	_, err := svc.Create(context.Background(), actorFor(reader), 9999, dto.CreateReviewDTO{
		Text:  "nothing here",
		Score: 5,
	})

	assert.ErrorIs(t, err, ErrNotFound)
}

// A second review for the same title by the same author loses on the unique
// index; the first review stays untouched.
func TestCreateReview_DuplicateAuthor(t *testing.T) {
	svc, db := newTestReviewService(t)
	reader := seedUser(t, db, "reader", models.RoleUser)
	title := seedTitle(t, db, "Blade Runner")

	first, err := svc.Create(context.Background(), actorFor(reader), title.ID, dto.CreateReviewDTO{
		Text:  "first impression",
		Score: 7,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), actorFor(reader), title.ID, dto.CreateReviewDTO{
		Text:  "changed my mind",
		Score: 3,
	})
	assert.ErrorIs(t, err, ErrReviewExists)

	kept, err := svc.Get(context.Background(), title.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first impression", kept.Text)
	assert.Equal(t, 7, kept.Score)
}

// Same author, different titles: both reviews are fine.
func TestCreateReview_SameAuthorDifferentTitles(t *testing.T) {
	svc, db := newTestReviewService(t)
	reader := seedUser(t, db, "reader", models.RoleUser)
	first := seedTitle(t, db, "Alien")
	second := seedTitle(t, db, "Aliens")

	_, err := svc.Create(context.Background(), actorFor(reader), first.ID, dto.CreateReviewDTO{Text: "scary", Score: 9})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), actorFor(reader), second.ID, dto.CreateReviewDTO{Text: "loud", Score: 8})
	assert.NoError(t, err)
}

func TestUpdateReview_OnlyAuthorOrModerator(t *testing.T) {
	svc, db := newTestReviewService(t)
	author := seedUser(t, db, "author", models.RoleUser)
	other := seedUser(t, db, "other", models.RoleUser)
	mod := seedUser(t, db, "mod", models.RoleModerator)
	title := seedTitle(t, db, "Blade Runner")

	created, err := svc.Create(context.Background(), actorFor(author), title.ID, dto.CreateReviewDTO{Text: "ok", Score: 5})
	require.NoError(t, err)

	newText := "someone else's words"
	_, err = svc.Update(context.Background(), actorFor(other), title.ID, created.ID, dto.UpdateReviewDTO{Text: &newText})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	modText := "cleaned up by moderation"
	updated, err := svc.Update(context.Background(), actorFor(mod), title.ID, created.ID, dto.UpdateReviewDTO{Text: &modText})
	require.NoError(t, err)
	assert.Equal(t, "cleaned up by moderation", updated.Text)
	// author binding survives a moderator edit
	assert.Equal(t, "author", updated.Author)
}

func TestUpdateReview_ScoreStillBounded(t *testing.T) {
	svc, db := newTestReviewService(t)
	author := seedUser(t, db, "author", models.RoleUser)
	title := seedTitle(t, db, "Blade Runner")

	created, err := svc.Create(context.Background(), actorFor(author), title.ID, dto.CreateReviewDTO{Text: "ok", Score: 5})
	require.NoError(t, err)

	bad := 11
	_, err = svc.Update(context.Background(), actorFor(author), title.ID, created.ID, dto.UpdateReviewDTO{Score: &bad})
	assert.ErrorIs(t, err, ErrScoreOutOfRange)
}

func TestDeleteReview(t *testing.T) {
	svc, db := newTestReviewService(t)
	author := seedUser(t, db, "author", models.RoleUser)
	other := seedUser(t, db, "other", models.RoleUser)
	title := seedTitle(t, db, "Blade Runner")

	created, err := svc.Create(context.Background(), actorFor(author), title.ID, dto.CreateReviewDTO{Text: "ok", Score: 5})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), actorFor(other), title.ID, created.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	err = svc.Delete(context.Background(), actorFor(author), title.ID, created.ID)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), title.ID, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteReview_Moderator(t *testing.T) {
	svc, db := newTestReviewService(t)
	author := seedUser(t, db, "author", models.RoleUser)
	mod := seedUser(t, db, "mod", models.RoleModerator)
	title := seedTitle(t, db, "Blade Runner")

	created, err := svc.Create(context.Background(), actorFor(author), title.ID, dto.CreateReviewDTO{Text: "ok", Score: 5})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), actorFor(mod), title.ID, created.ID))
	_, err = svc.Get(context.Background(), title.ID, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// A review is addressed through its title; the right review id under the
// wrong title must read as not found, not leak across titles.
func TestGetReview_WrongTitle(t *testing.T) {
	svc, db := newTestReviewService(t)
	author := seedUser(t, db, "author", models.RoleUser)
	title := seedTitle(t, db, "Alien")
	unrelated := seedTitle(t, db, "Aliens")

	created, err := svc.Create(context.Background(), actorFor(author), title.ID, dto.CreateReviewDTO{Text: "ok", Score: 5})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), unrelated.ID, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListReviewsByTitle(t *testing.T) {
	svc, db := newTestReviewService(t)
	title := seedTitle(t, db, "Blade Runner")

	for i, name := range []string{"alice", "bob", "carol"} {
		u := seedUser(t, db, name, models.RoleUser)
		_, err := svc.Create(context.Background(), actorFor(u), title.ID, dto.CreateReviewDTO{
			Text:  "review",
			Score: i + 5,
		})
		require.NoError(t, err)
	}

	page, err := svc.ListByTitle(context.Background(), title.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "alice", page.Data[0].Author)
	assert.Equal(t, "bob", page.Data[1].Author)

	_, err = svc.ListByTitle(context.Background(), 9999, 1, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

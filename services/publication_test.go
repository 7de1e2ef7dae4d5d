package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor-marketplace/events"
	"tutor-marketplace/models"
)

func TestApprovePublicationAwardsFixedPoints(t *testing.T) {
	env := newTestEnv(t)
	author := env.user(t, "sara", models.RoleStudent, 7)
	admin := env.user(t, "root", models.RoleAdmin, 0)
	pub := env.publication(t, author)

	out, err := env.publications.ApprovePublication(context.Background(), pub.ID, admin.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PublicationApproved, out.Status)
	require.NotNil(t, out.ApprovedBy)
	assert.Equal(t, admin.ID, *out.ApprovedBy)
	require.NotNil(t, out.ApprovedAt)
	assert.True(t, out.ApprovedAt.Equal(env.now))

	assert.Equal(t, int64(27), env.balance(t, author.ID))
	rows := env.ledger(t, author.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(20), rows[0].Points)
	assert.Equal(t, models.SourcePublicationApproval, rows[0].Source)

	approved := env.recorder.Named(events.NameArticleApproved)
	require.Len(t, approved, 1)
	ev := approved[0].(events.ArticleApproved)
	assert.Equal(t, author.ID, ev.AuthorID)
	assert.Equal(t, int64(20), ev.Points)
}

func TestApprovePublicationOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "omar", models.RoleStudent, 0)
	admin := env.user(t, "root", models.RoleAdmin, 0)
	pub := env.publication(t, author)

	_, err := env.publications.ApprovePublication(ctx, pub.ID, admin.ID)
	require.NoError(t, err)
	_, err = env.publications.ApprovePublication(ctx, pub.ID, admin.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, int64(20), env.balance(t, author.ID))
	assert.Len(t, env.recorder.Named(events.NameArticleApproved), 1)

	_, err = env.publications.ApprovePublication(ctx, 9999, admin.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRejectedPublicationCannotBeApproved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "lina", models.RoleStudent, 0)
	admin := env.user(t, "root", models.RoleAdmin, 0)
	pub := env.publication(t, author)

	out, err := env.publications.RejectPublication(ctx, pub.ID, admin.ID, "<i>off topic</i>")
	require.NoError(t, err)
	assert.Equal(t, models.PublicationRejected, out.Status)
	assert.Equal(t, "off topic", out.RejectionReason)

	_, err = env.publications.ApprovePublication(ctx, pub.ID, admin.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = env.publications.RejectPublication(ctx, pub.ID, admin.ID, "again")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Zero(t, env.balance(t, author.ID))
}

func TestCreatePublicationSanitizesAndSlugs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "nour", models.RoleStudent, 0)

	first, err := env.publications.CreatePublication(ctx, author.ID, PublicationInput{
		Title: "  My <b>Summer</b> Trip ",
		Body:  `<p onclick="x()">We went to the sea</p><script>steal()</script>`,
	})
	require.NoError(t, err)
	assert.Equal(t, "My Summer Trip", first.Title)
	assert.Equal(t, "my-summer-trip", first.Slug)
	assert.Equal(t, models.PublicationPending, first.Status)
	assert.Contains(t, first.Body, "We went to the sea")
	assert.NotContains(t, first.Body, "onclick")
	assert.NotContains(t, first.Body, "script")

	second, err := env.publications.CreatePublication(ctx, author.ID, PublicationInput{Title: "My Summer Trip", Body: "again"})
	require.NoError(t, err)
	assert.Equal(t, "my-summer-trip-2", second.Slug)

	_, err = env.publications.CreatePublication(ctx, 9999, PublicationInput{Title: "x", Body: "y"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPublishedOnlyApproved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "sara", models.RoleStudent, 0)
	admin := env.user(t, "root", models.RoleAdmin, 0)
	approved := env.publication(t, author)
	env.publication(t, author)

	_, err := env.publications.ApprovePublication(ctx, approved.ID, admin.ID)
	require.NoError(t, err)

	list, err := env.publications.ListPublished(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, approved.ID, list[0].ID)
}

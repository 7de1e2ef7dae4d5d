package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tutor-marketplace/events"
	"tutor-marketplace/models"
)

const testSecret = "certificate-test-secret"

func (e *testEnv) certificates(t *testing.T, store *memStore) *CertificateService {
	t.Helper()
	svc := NewCertificateService(e.db, store, e.dispatcher, testSecret, "https://tutor.test/verify/", zap.NewNop())
	svc.now = func() time.Time { return e.now }
	svc.Register(e.dispatcher)
	return svc
}

func TestNotificationsFollowEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	notifications := NewNotificationService(env.db, zap.NewNop())
	notifications.Register(env.dispatcher)

	author := env.user(t, "sara", models.RoleStudent, 0)
	admin := env.user(t, "root", models.RoleAdmin, 0)
	env.communityBadge(t, "first-steps", 10)
	pub := env.publication(t, author)

	_, err := env.publications.ApprovePublication(ctx, pub.ID, admin.ID)
	require.NoError(t, err)

	list, err := notifications.List(ctx, author.ID, false, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	types := []string{list[0].Type, list[1].Type, list[2].Type}
	assert.ElementsMatch(t, []string{events.NamePointsAwarded, events.NameBadgeGranted, events.NameArticleApproved}, types)
	for _, n := range list {
		assert.NotEmpty(t, n.TitleEn)
		assert.NotEmpty(t, n.TitleAr)
	}

	empty, err := notifications.List(ctx, admin.ID, false, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, notifications.MarkRead(ctx, author.ID, list[0].ID))
	require.NoError(t, notifications.MarkRead(ctx, author.ID, list[0].ID), "marking twice is fine")
	unread, err := notifications.List(ctx, author.ID, true, 0)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	assert.ErrorIs(t, notifications.MarkRead(ctx, admin.ID, list[1].ID), ErrNotFound)
}

func TestNotificationCursor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	notifications := NewNotificationService(env.db, zap.NewNop())

	student := env.user(t, "sara", models.RoleStudent, 0)
	other := env.user(t, "omar", models.RoleStudent, 0)

	latest, err := notifications.LatestID(ctx, student.ID)
	require.NoError(t, err)
	assert.Zero(t, latest)

	require.NoError(t, notifications.Handle(ctx, events.PointsAwarded{UserID: student.ID, Amount: 5, Total: 5}))
	latest, err = notifications.LatestID(ctx, student.ID)
	require.NoError(t, err)
	require.NotZero(t, latest)

	require.NoError(t, notifications.Handle(ctx, events.PointsAwarded{UserID: other.ID, Amount: 7, Total: 7}))
	require.NoError(t, notifications.Handle(ctx, events.PointsAwarded{UserID: student.ID, Amount: 3, Total: 8}))
	require.NoError(t, notifications.Handle(ctx, events.BadgeGranted{UserID: student.ID, BadgeName: "Starter"}))

	fresh, err := notifications.Since(ctx, student.ID, latest)
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	assert.Less(t, fresh[0].ID, fresh[1].ID)
	assert.Equal(t, events.NamePointsAwarded, fresh[0].Type)
	assert.Equal(t, events.NameBadgeGranted, fresh[1].Type)
	for _, n := range fresh {
		assert.Equal(t, student.ID, n.UserID)
		assert.Greater(t, n.ID, latest)
	}

	none, err := notifications.Since(ctx, student.ID, fresh[1].ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNotificationText(t *testing.T) {
	n, ok := notificationFor(events.PointsAwarded{UserID: 4, Amount: 19, Total: 74})
	require.True(t, ok)
	assert.Equal(t, uint(4), n.UserID)
	assert.Equal(t, "You earned 19 points", n.TitleEn)
	assert.Contains(t, n.BodyEn, "74")
	assert.Contains(t, n.TitleAr, "19")

	n, ok = notificationFor(events.ChallengeSubmissionReviewed{StudentID: 4, ChallengeTitle: "Poetry", Status: "rejected"})
	require.True(t, ok)
	assert.Equal(t, "Poetry: rejected.", n.BodyEn)
	assert.Contains(t, n.BodyAr, "مرفوض")
}

func TestCertificateIssuedForApprovedChallenge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	store := newMemStore()
	certs := env.certificates(t, store)
	student := env.user(t, "sara", models.RoleStudent, 0)
	teacher := env.user(t, "mr-k", models.RoleTeacher, 0)
	ch := env.challenge(t, 20)
	sub := env.challengeSubmission(t, ch, student)

	_, err := env.challenges.EvaluateSubmission(ctx, sub.ID, EvaluationInput{Rating: ratingPtr(5)}, teacher.ID, nil, nil, false)
	require.NoError(t, err)

	list, err := certs.ListForUser(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	cert := list[0]
	require.NotNil(t, cert.ChallengeID)
	assert.Equal(t, ch.ID, *cert.ChallengeID)
	assert.Equal(t, "Completed the challenge "+ch.Title, cert.TitleEn)
	assert.Equal(t, "https://cdn.test/certificates/"+cert.Serial+".html", cert.FileURL)

	body := string(store.objects["certificates/"+cert.Serial+".html"])
	assert.Contains(t, body, "sara")
	assert.Contains(t, body, cert.Serial)
	assert.Contains(t, body, "14 March 2026")
	assert.Contains(t, body, "https://tutor.test/verify/")

	issued := env.recorder.Named(events.NameCertificateIssued)
	require.Len(t, issued, 1)
	assert.Equal(t, cert.ID, issued[0].(events.CertificateIssued).CertificateID)

	token, err := certs.Token(&cert)
	require.NoError(t, err)
	verified, err := certs.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, verified.ID)

	_, err = certs.Verify(ctx, token+"x")
	assert.ErrorIs(t, err, ErrInvalidToken)
	other := NewCertificateService(env.db, store, env.dispatcher, "another-secret", "", zap.NewNop())
	_, err = other.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCertificateSkippedForRejectedAndRepeats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	store := newMemStore()
	certs := env.certificates(t, store)
	student := env.user(t, "omar", models.RoleStudent, 0)
	teacher := env.user(t, "mr-k", models.RoleTeacher, 0)
	ch := env.challenge(t, 10)

	rejected := env.challengeSubmission(t, ch, student)
	_, err := env.challenges.EvaluateSubmission(ctx, rejected.ID, EvaluationInput{Status: "rejected"}, teacher.ID, nil, nil, false)
	require.NoError(t, err)
	list, err := certs.ListForUser(ctx, student.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	ev := events.ChallengeSubmissionReviewed{StudentID: student.ID, ChallengeID: ch.ID, ChallengeTitle: ch.Title, Status: models.SubmissionApproved}
	first, err := certs.IssueForChallenge(ctx, ev)
	require.NoError(t, err)
	require.NotNil(t, first)
	again, err := certs.IssueForChallenge(ctx, ev)
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Len(t, store.objects, 1)
}

func TestCertificateUploadFailureLeavesNoRow(t *testing.T) {
	env := newTestEnv(t)
	store := newMemStore()
	store.err = errors.New("bucket unavailable")
	certs := env.certificates(t, store)
	student := env.user(t, "lina", models.RoleStudent, 0)
	ch := env.challenge(t, 10)

	_, err := certs.IssueForChallenge(context.Background(), events.ChallengeSubmissionReviewed{
		StudentID: student.ID, ChallengeID: ch.ID, ChallengeTitle: ch.Title, Status: models.SubmissionApproved,
	})
	assert.ErrorContains(t, err, "bucket unavailable")

	var count int64
	require.NoError(t, env.db.Model(&models.Certificate{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLeaderboardCacheDroppedOnAward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cache := newMemCache()
	board := NewLeaderboardService(env.db, cache, time.Minute, zap.NewNop())
	board.Register(env.dispatcher)

	a := env.user(t, "sara", models.RoleStudent, 30)
	b := env.user(t, "omar", models.RoleStudent, 50)
	env.user(t, "mr-k", models.RoleTeacher, 500)
	env.user(t, "new", models.RoleStudent, 0)

	top, err := board.Top(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, LeaderboardEntry{Rank: 1, UserID: b.ID, Name: "omar", Points: 50}, top[0])
	assert.Equal(t, a.ID, top[1].UserID)

	_, err = env.points.AwardPoints(ctx, a.ID, 40, models.SourceAdminGrant, nil, "x", "x")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.deletes)

	top, err = board.Top(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, a.ID, top[0].UserID)
	assert.Equal(t, int64(70), top[0].Points)
}

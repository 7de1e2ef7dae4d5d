package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor-marketplace/events"
	"tutor-marketplace/models"
)

func TestChallengeApprovalAwardsRewardPlusBonus(t *testing.T) {
	env := newTestEnv(t)
	student := env.user(t, "sara", models.RoleStudent, 0)
	teacher := env.user(t, "mr-k", models.RoleTeacher, 0)
	ch := env.challenge(t, 50)
	sub := env.challengeSubmission(t, ch, student)

	out, err := env.challenges.EvaluateSubmission(context.Background(), sub.ID,
		EvaluationInput{Rating: ratingPtr(4)}, teacher.ID, nil, &teacher.ID, false)
	require.NoError(t, err)

	assert.Equal(t, int64(55), out.PointsEarned)
	assert.Equal(t, int64(55), env.balance(t, student.ID))

	rows := env.ledger(t, student.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, models.SourceChallenge, rows[0].Source)

	reviewed := env.recorder.Named(events.NameChallengeSubmissionReviewed)
	require.Len(t, reviewed, 1)
	ev := reviewed[0].(events.ChallengeSubmissionReviewed)
	assert.Equal(t, ch.ID, ev.ChallengeID)
	assert.Equal(t, ch.Title, ev.ChallengeTitle)
	assert.Equal(t, int64(55), ev.Points)
}

func TestChallengePoints(t *testing.T) {
	rules := DefaultRewardRules
	assert.Equal(t, int64(50), rules.ChallengePoints(50, 0))
	assert.Equal(t, int64(50), rules.ChallengePoints(50, 3.9))
	assert.Equal(t, int64(55), rules.ChallengePoints(50, 4))
	assert.Equal(t, int64(60), rules.ChallengePoints(50, 4.5))
	assert.Equal(t, int64(10), rules.ChallengePoints(0, 5))
}

func TestChallengeRejectionAndReReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "omar", models.RoleStudent, 0)
	teacher := env.user(t, "mr-k", models.RoleTeacher, 0)
	sub := env.challengeSubmission(t, env.challenge(t, 30), student)

	out, err := env.challenges.EvaluateSubmission(ctx, sub.ID, EvaluationInput{Status: "rejected"}, teacher.ID, nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, out.Status)
	assert.Zero(t, env.balance(t, student.ID))

	_, err = env.challenges.EvaluateSubmission(ctx, sub.ID, EvaluationInput{Rating: ratingPtr(5)}, teacher.ID, nil, nil, false)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	assert.Zero(t, env.balance(t, student.ID))
}

func TestChallengeSubmitRespectsWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "lina", models.RoleStudent, 0)
	ch := env.challenge(t, 10)

	sub, err := env.challenges.Submit(ctx, ch.ID, student.ID, "poem")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSubmitted, sub.Status)

	_, err = env.challenges.Submit(ctx, ch.ID, student.ID, "another poem")
	assert.ErrorIs(t, err, ErrDuplicate)

	env.now = env.now.Add(48 * time.Hour)
	other := env.user(t, "late", models.RoleStudent, 0)
	_, err = env.challenges.Submit(ctx, ch.ID, other.ID, "too late")
	assert.ErrorIs(t, err, ErrChallengeClosed)

	require.NoError(t, env.db.Model(ch).Update("is_active", false).Error)
	env.now = env.now.Add(-48 * time.Hour)
	_, err = env.challenges.Submit(ctx, ch.ID, other.ID, "inactive")
	assert.ErrorIs(t, err, ErrChallengeClosed)
}

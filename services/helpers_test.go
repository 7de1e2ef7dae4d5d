package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tutor-marketplace/events"
	"tutor-marketplace/models"
)

type testEnv struct {
	db           *gorm.DB
	dispatcher   *events.Dispatcher
	recorder     *events.Recorder
	badges       *BadgeService
	points       *PointsService
	projects     *SubmissionService
	challenges   *ChallengeSubmissionService
	publications *PublicationService
	packages     *PackageService
	bookings     *BookingService
	now          time.Time
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	logger := zap.NewNop()

	env := &testEnv{
		db:         db,
		dispatcher: events.NewDispatcher(logger),
		recorder:   &events.Recorder{},
		now:        time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	env.recorder.Attach(env.dispatcher)

	clock := func() time.Time { return env.now }
	env.badges = NewBadgeService(db, logger)
	env.points = NewPointsService(db, env.badges, env.dispatcher, logger)
	env.projects = NewSubmissionService(db, env.points, env.badges, env.dispatcher, DefaultRewardRules, logger)
	env.projects.now = clock
	env.challenges = NewChallengeSubmissionService(db, env.points, env.badges, env.dispatcher, DefaultRewardRules, logger)
	env.challenges.now = clock
	env.publications = NewPublicationService(db, env.points, env.dispatcher, DefaultRewardRules, logger)
	env.publications.now = clock
	env.packages = NewPackageService(db, env.points, env.dispatcher, logger)
	env.packages.now = clock
	env.bookings = NewBookingService(db, logger)
	env.bookings.now = clock
	return env
}

func (e *testEnv) user(t *testing.T, name string, role models.Role, points int64) *models.User {
	t.Helper()
	u := models.User{
		Name:   name,
		Email:  fmt.Sprintf("%s-%d@example.com", name, time.Now().UnixNano()),
		Role:   role,
		Points: points,
		Locale: "en",
	}
	require.NoError(t, e.db.Create(&u).Error)
	return &u
}

func (e *testEnv) communityBadge(t *testing.T, slug string, threshold int64) *models.Badge {
	t.Helper()
	return e.badge(t, slug, models.BadgeCategoryCommunity, threshold, true, models.BadgeStatusApproved)
}

func (e *testEnv) badge(t *testing.T, slug string, category models.BadgeCategory, threshold int64, active bool, status string) *models.Badge {
	t.Helper()
	b := models.Badge{
		Slug:           slug,
		NameEn:         slug,
		NameAr:         slug,
		Category:       category,
		PointsRequired: threshold,
		IsActive:       active,
		Status:         status,
	}
	require.NoError(t, e.db.Create(&b).Error)
	return &b
}

func (e *testEnv) projectSubmission(t *testing.T, student *models.User) *models.ProjectSubmission {
	t.Helper()
	p := models.Project{Title: "Solar system model", Slug: fmt.Sprintf("solar-%d", time.Now().UnixNano())}
	require.NoError(t, e.db.Create(&p).Error)
	sub := models.ProjectSubmission{
		ProjectID: p.ID,
		StudentID: student.ID,
		Content:   "my work",
		Review:    models.Review{Status: models.SubmissionSubmitted},
	}
	require.NoError(t, e.db.Create(&sub).Error)
	return &sub
}

func (e *testEnv) challenge(t *testing.T, reward int64) *models.Challenge {
	t.Helper()
	starts := e.now.Add(-24 * time.Hour)
	ends := e.now.Add(24 * time.Hour)
	c := models.Challenge{
		Title:        "Poetry week",
		Slug:         fmt.Sprintf("poetry-%d", time.Now().UnixNano()),
		PointsReward: reward,
		StartsAt:     &starts,
		EndsAt:       &ends,
		IsActive:     true,
	}
	require.NoError(t, e.db.Create(&c).Error)
	return &c
}

func (e *testEnv) challengeSubmission(t *testing.T, challenge *models.Challenge, student *models.User) *models.ChallengeSubmission {
	t.Helper()
	sub := models.ChallengeSubmission{
		ChallengeID: challenge.ID,
		StudentID:   student.ID,
		Content:     "entry",
		Review:      models.Review{Status: models.SubmissionSubmitted},
	}
	require.NoError(t, e.db.Create(&sub).Error)
	return &sub
}

func (e *testEnv) publication(t *testing.T, author *models.User) *models.Publication {
	t.Helper()
	pub := models.Publication{
		AuthorID: author.ID,
		Title:    "My first article",
		Slug:     fmt.Sprintf("article-%d", time.Now().UnixNano()),
		Body:     "<p>hello</p>",
		Status:   models.PublicationPending,
	}
	require.NoError(t, e.db.Create(&pub).Error)
	return &pub
}

func (e *testEnv) pkg(t *testing.T, bonus int64, sessions int) *models.Package {
	t.Helper()
	p := models.Package{
		Name:          "Starter",
		Slug:          fmt.Sprintf("starter-%d", time.Now().UnixNano()),
		Price:         49.5,
		SessionsCount: sessions,
		DurationDays:  30,
		PointsBonus:   bonus,
		IsActive:      true,
	}
	require.NoError(t, e.db.Create(&p).Error)
	return &p
}

func (e *testEnv) balance(t *testing.T, userID uint) int64 {
	t.Helper()
	var u models.User
	require.NoError(t, e.db.First(&u, userID).Error)
	return u.Points
}

func (e *testEnv) ledger(t *testing.T, userID uint) []models.Point {
	t.Helper()
	var rows []models.Point
	require.NoError(t, e.db.Where("user_id = ?", userID).Order("id ASC").Find(&rows).Error)
	return rows
}

func (e *testEnv) heldBadges(t *testing.T, userID uint) []uint {
	t.Helper()
	var ids []uint
	require.NoError(t, e.db.Model(&models.UserBadge{}).Where("user_id = ?", userID).Order("badge_id ASC").Pluck("badge_id", &ids).Error)
	return ids
}

func ratingPtr(v float64) *float64 {
	return &v
}

// memStore is an in-memory utils.ObjectStore.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), body...)
	return "https://cdn.test/" + key, nil
}

// memCache is an in-memory utils.Cache that counts deletes.
type memCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	deletes int
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (c *memCache) GetJSON(_ context.Context, key string, dst interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.items[key]
	if !ok {
		return false
	}
	return json.Unmarshal(b, dst) == nil
}

func (c *memCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) {
	b, _ := json.Marshal(v)
	c.mu.Lock()
	c.items[key] = b
	c.mu.Unlock()
}

func (c *memCache) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	c.deletes++
}

// Package events carries the domain events of the rewards pipeline to in-process listeners.
package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const (
	NamePointsAwarded               = "points.awarded"
	NameBadgeGranted                = "badge.granted"
	NameProjectEvaluated            = "project.evaluated"
	NameChallengeSubmissionReviewed = "challenge_submission.reviewed"
	NameArticleApproved             = "article.approved"
	NameCertificateIssued           = "certificate.issued"
)

// Event is a plain data carrier. UserID is the user the event is about.
type Event interface {
	Name() string
	Recipient() uint
}

type PointsAwarded struct {
	UserID      uint
	PointID     uint
	Amount      int64
	Total       int64
	Source      string
	ReferenceID *uint
}

func (PointsAwarded) Name() string      { return NamePointsAwarded }
func (e PointsAwarded) Recipient() uint { return e.UserID }

type BadgeGranted struct {
	UserID    uint
	BadgeID   uint
	BadgeName string
	Category  string
	GrantedBy *uint
}

func (BadgeGranted) Name() string      { return NameBadgeGranted }
func (e BadgeGranted) Recipient() uint { return e.UserID }

type ProjectEvaluated struct {
	SubmissionID uint
	ProjectID    uint
	ProjectTitle string
	StudentID    uint
	ReviewerID   uint
	Status       string
	Rating       float64
	Points       int64
}

func (ProjectEvaluated) Name() string      { return NameProjectEvaluated }
func (e ProjectEvaluated) Recipient() uint { return e.StudentID }

type ChallengeSubmissionReviewed struct {
	SubmissionID   uint
	ChallengeID    uint
	ChallengeTitle string
	StudentID      uint
	ReviewerID     uint
	Status         string
	Rating         float64
	Points         int64
}

func (ChallengeSubmissionReviewed) Name() string      { return NameChallengeSubmissionReviewed }
func (e ChallengeSubmissionReviewed) Recipient() uint { return e.StudentID }

type ArticleApproved struct {
	PublicationID uint
	Title         string
	AuthorID      uint
	AdminID       uint
	Points        int64
}

func (ArticleApproved) Name() string      { return NameArticleApproved }
func (e ArticleApproved) Recipient() uint { return e.AuthorID }

type CertificateIssued struct {
	CertificateID uint
	Serial        string
	UserID        uint
	TitleEn       string
	TitleAr       string
	FileURL       string
}

func (CertificateIssued) Name() string      { return NameCertificateIssued }
func (e CertificateIssued) Recipient() uint { return e.UserID }

// Handler reacts to one event. Returned errors are logged, never propagated to the publisher.
type Handler func(ctx context.Context, e Event) error

// Dispatcher delivers events synchronously, in subscription order.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers h for the named event. "*" receives every event.
func (d *Dispatcher) Subscribe(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// Dispatch runs every handler for each event. A panicking or failing handler does not
// stop the others.
func (d *Dispatcher) Dispatch(ctx context.Context, evts ...Event) {
	for _, e := range evts {
		if e == nil {
			continue
		}
		d.mu.RLock()
		hs := make([]Handler, 0, len(d.handlers[e.Name()])+len(d.handlers["*"]))
		hs = append(hs, d.handlers[e.Name()]...)
		hs = append(hs, d.handlers["*"]...)
		d.mu.RUnlock()

		d.logger.Debug("dispatching event",
			zap.String("event", e.Name()),
			zap.Uint("user_id", e.Recipient()),
			zap.Int("handlers", len(hs)),
		)
		for _, h := range hs {
			if err := d.run(ctx, h, e); err != nil {
				d.logger.Error("event handler failed",
					zap.String("event", e.Name()),
					zap.Uint("user_id", e.Recipient()),
					zap.Error(err),
				)
			}
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, e)
}

// Recorder collects dispatched events. Useful for listeners that batch, and for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Attach subscribes the recorder to every event of d.
func (r *Recorder) Attach(d *Dispatcher) {
	d.Subscribe("*", func(_ context.Context, e Event) error {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
		return nil
	})
}

// Named returns the recorded events with the given name, in dispatch order.
func (r *Recorder) Named(name string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

package service

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/lock"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/contract"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/specification"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/unitofwork"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/pkg/events"

	"github.com/google/uuid"
)

// memStore is one snapshot of every table. Transactions work on a clone and swap it in on commit.
type memStore struct {
	users         map[uuid.UUID]entity.User
	premises      map[uuid.UUID]entity.Premises
	areas         map[uuid.UUID]entity.CruManagementArea
	applications  map[uuid.UUID]entity.Application
	assessments   map[uuid.UUID]entity.Assessment
	pas           map[uuid.UUID]entity.PlacementApplication
	prs           map[uuid.UUID]entity.PlacementRequest
	bookings      map[uuid.UUID]entity.SpaceBooking
	emails        map[uuid.UUID]entity.EmailNotification
	notifications map[uuid.UUID]entity.Notification
	triggers      map[uuid.UUID]contract.Trigger
	cancelledBy   map[uuid.UUID]uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[uuid.UUID]entity.User{},
		premises:      map[uuid.UUID]entity.Premises{},
		areas:         map[uuid.UUID]entity.CruManagementArea{},
		applications:  map[uuid.UUID]entity.Application{},
		assessments:   map[uuid.UUID]entity.Assessment{},
		pas:           map[uuid.UUID]entity.PlacementApplication{},
		prs:           map[uuid.UUID]entity.PlacementRequest{},
		bookings:      map[uuid.UUID]entity.SpaceBooking{},
		emails:        map[uuid.UUID]entity.EmailNotification{},
		notifications: map[uuid.UUID]entity.Notification{},
		triggers:      map[uuid.UUID]contract.Trigger{},
		cancelledBy:   map[uuid.UUID]uuid.UUID{},
	}
}

func (s *memStore) clone() *memStore {
	return &memStore{
		users:         maps.Clone(s.users),
		premises:      maps.Clone(s.premises),
		areas:         maps.Clone(s.areas),
		applications:  maps.Clone(s.applications),
		assessments:   maps.Clone(s.assessments),
		pas:           maps.Clone(s.pas),
		prs:           maps.Clone(s.prs),
		bookings:      maps.Clone(s.bookings),
		emails:        maps.Clone(s.emails),
		notifications: maps.Clone(s.notifications),
		triggers:      maps.Clone(s.triggers),
		cancelledBy:   maps.Clone(s.cancelledBy),
	}
}

type fakeFactory struct {
	mu    sync.Mutex
	store *memStore

	// staleBookings makes guarded booking updates miss, as if another writer got there first.
	staleBookings map[uuid.UUID]bool
	commitErr     error
	begins        int
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{store: newMemStore(), staleBookings: map[uuid.UUID]bool{}}
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUoW{factory: f}
}

// snapshot returns the committed state. Callers must not mutate it.
func (f *fakeFactory) snapshot() *memStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store
}

func (f *fakeFactory) seed(agg *entity.ApplicationAggregate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.store
	app := agg.Application
	if app.CreatedBy != nil {
		s.users[app.CreatedBy.Id] = *app.CreatedBy
	}
	if app.CruManagementArea != nil {
		s.areas[app.CruManagementArea.Id] = *app.CruManagementArea
	}
	s.applications[app.Id] = *app
	for _, a := range agg.Assessments {
		if a.AllocatedTo != nil {
			s.users[a.AllocatedTo.Id] = *a.AllocatedTo
		}
		s.assessments[a.Id] = *a
	}
	for _, pa := range agg.PlacementApplications {
		s.pas[pa.Id] = *pa
	}
	for _, pr := range agg.PlacementRequests {
		s.prs[pr.Id] = *pr
	}
	for _, b := range agg.SpaceBookings {
		if b.Premises != nil {
			s.premises[b.Premises.Id] = *b.Premises
		}
		s.bookings[b.Id] = *b
	}
}

type fakeUoW struct {
	factory *fakeFactory
	work    *memStore
}

func (u *fakeUoW) Begin(ctx context.Context) error {
	if u.work != nil {
		return errors.New("transaction already started")
	}
	u.factory.mu.Lock()
	defer u.factory.mu.Unlock()
	u.factory.begins++
	u.work = u.factory.store.clone()
	return nil
}

func (u *fakeUoW) Commit() error {
	if u.work == nil {
		return errors.New("no transaction to commit")
	}
	work := u.work
	u.work = nil
	u.factory.mu.Lock()
	defer u.factory.mu.Unlock()
	if u.factory.commitErr != nil {
		return u.factory.commitErr
	}
	u.factory.store = work
	return nil
}

func (u *fakeUoW) Rollback() error {
	if u.work == nil {
		return errors.New("no transaction to rollback")
	}
	u.work = nil
	return nil
}

// do runs fn against the transaction's snapshot, or against the committed store under the
// factory lock when no transaction is open.
func (u *fakeUoW) do(fn func(s *memStore) error) error {
	if u.work != nil {
		return fn(u.work)
	}
	u.factory.mu.Lock()
	defer u.factory.mu.Unlock()
	return fn(u.factory.store)
}

func (u *fakeUoW) UserRepository() contract.UserRepository         { return fakeUsers{u} }
func (u *fakeUoW) PremisesRepository() contract.PremisesRepository { return fakePremises{u} }
func (u *fakeUoW) ApplicationRepository() contract.ApplicationRepository {
	return fakeApplications{u}
}
func (u *fakeUoW) AssessmentRepository() contract.AssessmentRepository {
	return fakeAssessments{u}
}
func (u *fakeUoW) PlacementApplicationRepository() contract.PlacementApplicationRepository {
	return fakePlacementApplications{u}
}
func (u *fakeUoW) PlacementRequestRepository() contract.PlacementRequestRepository {
	return fakePlacementRequests{u}
}
func (u *fakeUoW) SpaceBookingRepository() contract.SpaceBookingRepository {
	return fakeSpaceBookings{u}
}
func (u *fakeUoW) EmailNotificationRepository() contract.EmailNotificationRepository {
	return fakeEmails{u}
}
func (u *fakeUoW) NotificationRepository() contract.NotificationRepository {
	return fakeNotifications{u}
}

// matches understands the id filters; ordering, preloading and locking are no-ops here.
func matches(specs []specification.Specification, id, applicationId uuid.UUID) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if s.ID != id {
				return false
			}
		case specification.ByApplicationID:
			if s.ApplicationID != applicationId {
				return false
			}
		}
	}
	return true
}

func byCreation[T any](items []*T, createdAt func(*T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).Before(createdAt(items[j]))
	})
}

type fakeUsers struct{ u *fakeUoW }

func (r fakeUsers) Create(ctx context.Context, user *entity.User) error {
	return r.u.do(func(s *memStore) error { s.users[user.Id] = *user; return nil })
}

func (r fakeUsers) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var found *entity.User
	err := r.u.do(func(s *memStore) error {
		for _, v := range s.users {
			if matches(specs, v.Id, uuid.Nil) {
				v := v
				found = &v
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r fakeUsers) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	var out []*entity.User
	err := r.u.do(func(s *memStore) error {
		for _, v := range s.users {
			if matches(specs, v.Id, uuid.Nil) {
				v := v
				out = append(out, &v)
			}
		}
		return nil
	})
	return out, err
}

type fakePremises struct{ u *fakeUoW }

func (r fakePremises) Create(ctx context.Context, p *entity.Premises) error {
	return r.u.do(func(s *memStore) error { s.premises[p.Id] = *p; return nil })
}

func (r fakePremises) CreateCruManagementArea(ctx context.Context, a *entity.CruManagementArea) error {
	return r.u.do(func(s *memStore) error { s.areas[a.Id] = *a; return nil })
}

func (r fakePremises) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Premises, error) {
	var found *entity.Premises
	err := r.u.do(func(s *memStore) error {
		for _, v := range s.premises {
			if matches(specs, v.Id, uuid.Nil) {
				v := v
				found = &v
			}
		}
		return nil
	})
	return found, err
}

type fakeApplications struct{ u *fakeUoW }

func (r fakeApplications) Create(ctx context.Context, a *entity.Application) error {
	return r.u.do(func(s *memStore) error { s.applications[a.Id] = *a; return nil })
}

func (r fakeApplications) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Application, error) {
	var found *entity.Application
	err := r.u.do(func(s *memStore) error {
		for _, v := range s.applications {
			if matches(specs, v.Id, v.Id) {
				v := v
				found = &v
			}
		}
		return nil
	})
	return found, err
}

func (r fakeApplications) Withdraw(ctx context.Context, a *entity.Application) error {
	return r.u.do(func(s *memStore) error {
		stored, ok := s.applications[a.Id]
		if !ok || stored.IsWithdrawn {
			return contract.ErrStaleRow
		}
		stored.IsWithdrawn = true
		stored.WithdrawalReason = a.WithdrawalReason
		stored.OtherWithdrawalReason = a.OtherWithdrawalReason
		stored.WithdrawnAt = a.WithdrawnAt
		stored.Status = a.Status
		stored.UpdatedAt = a.UpdatedAt
		s.applications[a.Id] = stored
		return nil
	})
}

func (r fakeApplications) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ApplicationStatus, at time.Time) error {
	return r.u.do(func(s *memStore) error {
		stored, ok := s.applications[id]
		if !ok {
			return contract.ErrStaleRow
		}
		stored.Status = status
		stored.UpdatedAt = at
		s.applications[id] = stored
		return nil
	})
}

type fakeAssessments struct{ u *fakeUoW }

func (r fakeAssessments) Create(ctx context.Context, a *entity.Assessment) error {
	return r.u.do(func(s *memStore) error { s.assessments[a.Id] = *a; return nil })
}

func (r fakeAssessments) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Assessment, error) {
	var out []*entity.Assessment
	err := r.u.do(func(s *memStore) error {
		for _, v := range s.assessments {
			if matches(specs, v.Id, v.ApplicationId) {
				v := v
				out = append(out, &v)
			}
		}
		return nil
	})
	byCreation(out, func(a *entity.Assessment) time.Time { return a.CreatedAt })
	return out, err
}

func (r fakeAssessments) Withdraw(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.u.do(func(s *memStore) error {
		stored, ok := s.assessments[id]
		if !ok {
			return contract.ErrStaleRow
		}
		stored.IsWithdrawn = true
		stored.UpdatedAt = at
		s.assessments[id] = stored
		return nil
	})
}

type fakePlacementApplications struct{ u *fakeUoW }

func (r fakePlacementApplications) Create(ctx context.Context, pa *entity.PlacementApplication) error {
	return r.u.do(func(s *memStore) error { s.pas[pa.Id] = *pa; return nil })
}

func (r fakePlacementApplications) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PlacementApplication, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r fakePlacementApplications) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PlacementApplication, error) {
	var out []*entity.PlacementApplication
	err := r.u.do(func(s *memStore) error {
		for _, v := range s.pas {
			if matches(specs, v.Id, v.ApplicationId) {
				v := v
				out = append(out, &v)
			}
		}
		return nil
	})
	byCreation(out, func(p *entity.PlacementApplication) time.Time { return p.CreatedAt })
	return out, err
}

func (r fakePlacementApplications) Withdraw(ctx context.Context, id uuid.UUID, reason entity.PlacementWithdrawalReason, at time.Time, trigger *contract.Trigger) error {
	return r.u.do(func(s *memStore) error {
		stored, ok := s.pas[id]
		if !ok || stored.IsWithdrawn {
			return contract.ErrStaleRow
		}
		stored.IsWithdrawn = true
		stored.WithdrawalReason = &reason
		stored.WithdrawnAt = &at
		stored.UpdatedAt = at
		s.pas[id] = stored
		if trigger != nil {
			s.triggers[id] = *trigger
		}
		return nil
	})
}

type fakePlacementRequests struct{ u *fakeUoW }

func (r fakePlacementRequests) Create(ctx context.Context, pr *entity.PlacementRequest) error {
	return r.u.do(func(s *memStore) error { s.prs[pr.Id] = *pr; return nil })
}

func (r fakePlacementRequests) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PlacementRequest, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r fakePlacementRequests) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PlacementRequest, error) {
	var out []*entity.PlacementRequest
	err := r.u.do(func(s *memStore) error {
		for _, v := range s.prs {
			if matches(specs, v.Id, v.ApplicationId) {
				v := v
				out = append(out, &v)
			}
		}
		return nil
	})
	byCreation(out, func(p *entity.PlacementRequest) time.Time { return p.CreatedAt })
	return out, err
}

func (r fakePlacementRequests) Withdraw(ctx context.Context, id uuid.UUID, reason entity.PlacementWithdrawalReason, at time.Time, trigger *contract.Trigger) error {
	return r.u.do(func(s *memStore) error {
		stored, ok := s.prs[id]
		if !ok || stored.IsWithdrawn {
			return contract.ErrStaleRow
		}
		stored.IsWithdrawn = true
		stored.WithdrawalReason = &reason
		stored.WithdrawnAt = &at
		stored.UpdatedAt = at
		s.prs[id] = stored
		if trigger != nil {
			s.triggers[id] = *trigger
		}
		return nil
	})
}

type fakeSpaceBookings struct{ u *fakeUoW }

func (r fakeSpaceBookings) Create(ctx context.Context, b *entity.SpaceBooking) error {
	return r.u.do(func(s *memStore) error { s.bookings[b.Id] = *b; return nil })
}

func (r fakeSpaceBookings) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SpaceBooking, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r fakeSpaceBookings) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SpaceBooking, error) {
	var out []*entity.SpaceBooking
	err := r.u.do(func(s *memStore) error {
		for _, v := range s.bookings {
			if matches(specs, v.Id, v.ApplicationId) {
				v := v
				out = append(out, &v)
			}
		}
		return nil
	})
	byCreation(out, func(b *entity.SpaceBooking) time.Time { return b.CreatedAt })
	return out, err
}

func (r fakeSpaceBookings) open(id uuid.UUID, fn func(b *entity.SpaceBooking)) error {
	return r.u.do(func(s *memStore) error {
		stored, ok := s.bookings[id]
		if !ok || r.u.factory.staleBookings[id] || stored.IsCancelled() || stored.HasArrival() || stored.HasNonArrival() {
			return contract.ErrStaleRow
		}
		fn(&stored)
		s.bookings[id] = stored
		return nil
	})
}

func (r fakeSpaceBookings) Cancel(ctx context.Context, id uuid.UUID, reason string, at time.Time, cancelledBy *uuid.UUID) error {
	err := r.open(id, func(b *entity.SpaceBooking) {
		b.CancellationOccurredAt = &at
		b.CancellationRecordedAt = &at
		b.CancellationReason = &reason
		b.UpdatedAt = at
	})
	if err == nil && cancelledBy != nil {
		_ = r.u.do(func(s *memStore) error { s.cancelledBy[id] = *cancelledBy; return nil })
	}
	return err
}

func (r fakeSpaceBookings) RecordArrival(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.open(id, func(b *entity.SpaceBooking) {
		b.ActualArrivalAt = &at
		b.UpdatedAt = at
	})
}

func (r fakeSpaceBookings) RecordNonArrival(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	return r.open(id, func(b *entity.SpaceBooking) {
		b.NonArrivalConfirmedAt = &at
		b.NonArrivalReason = &reason
		b.UpdatedAt = at
	})
}

type fakeEmails struct{ u *fakeUoW }

func (r fakeEmails) CreateBatch(ctx context.Context, emails []*entity.EmailNotification) error {
	return r.u.do(func(s *memStore) error {
		for _, e := range emails {
			s.emails[e.Id] = *e
		}
		return nil
	})
}

func (r fakeEmails) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EmailNotification, error) {
	var out []*entity.EmailNotification
	err := r.u.do(func(s *memStore) error {
		for _, v := range s.emails {
			if !matches(specs, v.Id, v.ApplicationId) {
				continue
			}
			if !redeliverable(specs, v) {
				continue
			}
			v := v
			out = append(out, &v)
		}
		return nil
	})
	byCreation(out, func(e *entity.EmailNotification) time.Time { return e.CreatedAt })
	return out, err
}

func redeliverable(specs []specification.Specification, e entity.EmailNotification) bool {
	for _, spec := range specs {
		if s, ok := spec.(specification.Redeliverable); ok {
			return e.Status != entity.EmailStatusSent && e.Attempts < s.MaxAttempts
		}
	}
	return true
}

func (r fakeEmails) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.u.do(func(s *memStore) error {
		stored, ok := s.emails[id]
		if !ok || stored.Status == entity.EmailStatusSent {
			return nil
		}
		stored.Status = entity.EmailStatusSent
		stored.SentAt = &at
		stored.Attempts++
		stored.LastError = nil
		s.emails[id] = stored
		return nil
	})
}

func (r fakeEmails) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.u.do(func(s *memStore) error {
		stored, ok := s.emails[id]
		if !ok || stored.Status == entity.EmailStatusSent {
			return nil
		}
		stored.Status = entity.EmailStatusFailed
		stored.Attempts++
		stored.LastError = &reason
		s.emails[id] = stored
		return nil
	})
}

type fakeNotifications struct{ u *fakeUoW }

func (r fakeNotifications) Create(ctx context.Context, n *entity.Notification) error {
	return r.u.do(func(s *memStore) error { s.notifications[n.Id] = *n; return nil })
}

func (r fakeNotifications) FindByUser(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.Notification, int64, error) {
	var all []*entity.Notification
	err := r.u.do(func(s *memStore) error {
		for _, v := range s.notifications {
			if v.UserId == userId {
				v := v
				all = append(all, &v)
			}
		}
		return nil
	})
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return []*entity.Notification{}, total, err
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, err
}

func (r fakeNotifications) CountUnread(ctx context.Context, userId uuid.UUID) (int64, error) {
	var n int64
	err := r.u.do(func(s *memStore) error {
		for _, v := range s.notifications {
			if v.UserId == userId && !v.IsRead {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r fakeNotifications) MarkAsRead(ctx context.Context, id, userId uuid.UUID, at time.Time) error {
	return r.u.do(func(s *memStore) error {
		stored, ok := s.notifications[id]
		if !ok || stored.UserId != userId {
			return contract.ErrStaleRow
		}
		stored.IsRead = true
		stored.ReadAt = &at
		s.notifications[id] = stored
		return nil
	})
}

func (r fakeNotifications) MarkAllAsRead(ctx context.Context, userId uuid.UUID, at time.Time) error {
	return r.u.do(func(s *memStore) error {
		for id, v := range s.notifications {
			if v.UserId == userId && !v.IsRead {
				v.IsRead = true
				v.ReadAt = &at
				s.notifications[id] = v
			}
		}
		return nil
	})
}

// keyLocker serialises callers per key with in-process mutexes.
type keyLocker struct {
	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	acquired []string
	released int
	err      error
}

func newKeyLocker() *keyLocker {
	return &keyLocker{locks: map[string]*sync.Mutex{}}
}

func (l *keyLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	if l.err != nil {
		l.mu.Unlock()
		return nil, l.err
	}
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.acquired = append(l.acquired, key)
	l.mu.Unlock()

	m.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.Unlock()
			l.mu.Lock()
			l.released++
			l.mu.Unlock()
		})
	}, nil
}

var _ lock.ILocker = (*keyLocker)(nil)

type fakeQueue struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (q *fakeQueue) Publish(ctx context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.payloads = append(q.payloads, payload)
	return nil
}

type fakeEventBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *fakeEventBus) Publish(ctx context.Context, event events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *fakeEventBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.EventType()
	}
	return out
}

type sentMail struct {
	To         string
	TemplateId string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(toEmail, templateId string, personalisation map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: toEmail, TemplateId: templateId})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

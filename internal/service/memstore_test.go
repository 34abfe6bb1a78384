package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/lab_booking/internal/cache"
	"github.com/Freeeeeet/lab_booking/internal/clock"
	"github.com/Freeeeeet/lab_booking/internal/event"
	"github.com/Freeeeeet/lab_booking/internal/model"
	"github.com/Freeeeeet/lab_booking/internal/repository"
)

// memData — содержимое in-memory хранилища
type memData struct {
	labs     map[int64]*model.Laboratory
	bookings map[int64]*model.Booking
	drafts   map[int64]*model.Draft
	comments map[int64]*model.Comment
	nextID   int64
}

func (d *memData) clone() *memData {
	c := &memData{
		labs:     make(map[int64]*model.Laboratory, len(d.labs)),
		bookings: make(map[int64]*model.Booking, len(d.bookings)),
		drafts:   make(map[int64]*model.Draft, len(d.drafts)),
		comments: make(map[int64]*model.Comment, len(d.comments)),
		nextID:   d.nextID,
	}
	for id, lab := range d.labs {
		cp := *lab
		c.labs[id] = &cp
	}
	for id, b := range d.bookings {
		cp := *b
		c.bookings[id] = &cp
	}
	for id, dr := range d.drafts {
		cp := *dr
		c.drafts[id] = &cp
	}
	for id, cm := range d.comments {
		cp := *cm
		c.comments[id] = &cp
	}
	return c
}

// memStore — реализация repository.Store для тестов сервисов.
// WithinTx сериализуется мьютексом и откатывает данные из снимка при
// ошибке — это даёт ту же семантику, что транзакция с блокировкой
// строки лаборатории.
type memStore struct {
	mu   sync.Mutex
	data *memData
	inTx bool
}

func newMemStore() *memStore {
	return &memStore{data: &memData{
		labs:     make(map[int64]*model.Laboratory),
		bookings: make(map[int64]*model.Booking),
		drafts:   make(map[int64]*model.Draft),
		comments: make(map[int64]*model.Comment),
	}}
}

func (s *memStore) Labs() repository.LabRepository         { return &memLabs{s} }
func (s *memStore) Bookings() repository.BookingRepository { return &memBookings{s} }
func (s *memStore) Drafts() repository.DraftRepository     { return &memDrafts{s} }
func (s *memStore) Comments() repository.CommentRepository { return &memComments{s} }

func (s *memStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &memStore{data: s.data, inTx: true}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

type memLabs struct{ s *memStore }

func (r *memLabs) GetByID(_ context.Context, id int64) (*model.Laboratory, error) {
	lab, ok := r.s.data.labs[id]
	if !ok {
		return nil, nil
	}
	cp := *lab
	return &cp, nil
}

func (r *memLabs) ListActive(_ context.Context) ([]*model.Laboratory, error) {
	var labs []*model.Laboratory
	for _, lab := range r.s.data.labs {
		if lab.Bookable() {
			cp := *lab
			labs = append(labs, &cp)
		}
	}
	return labs, nil
}

func (r *memLabs) Lock(_ context.Context, id int64) error {
	// сериализацию обеспечивает мьютекс WithinTx
	if _, ok := r.s.data.labs[id]; !ok {
		return &model.NotFoundError{Entity: "laboratory", ID: id}
	}
	return nil
}

type memBookings struct{ s *memStore }

func (r *memBookings) Create(_ context.Context, b *model.Booking) error {
	r.s.data.nextID++
	b.ID = r.s.data.nextID
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	r.s.data.bookings[b.ID] = &cp
	return nil
}

func (r *memBookings) GetByID(_ context.Context, id int64) (*model.Booking, error) {
	b, ok := r.s.data.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *memBookings) Update(_ context.Context, b *model.Booking) error {
	if _, ok := r.s.data.bookings[b.ID]; !ok {
		return &model.NotFoundError{Entity: "booking", ID: b.ID}
	}
	cp := *b
	r.s.data.bookings[b.ID] = &cp
	return nil
}

func (r *memBookings) SetStatus(_ context.Context, id int64, status model.BookingStatus,
	reviewerID int64, reviewedAt time.Time, rejectReason *string) error {

	b, ok := r.s.data.bookings[id]
	if !ok {
		return &model.NotFoundError{Entity: "booking", ID: id}
	}
	b.Status = status
	b.ReviewerID = &reviewerID
	b.ReviewedAt = &reviewedAt
	b.RejectReason = rejectReason
	return nil
}

func (r *memBookings) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.data.bookings[id]; !ok {
		return &model.NotFoundError{Entity: "booking", ID: id}
	}
	delete(r.s.data.bookings, id)
	return nil
}

func (r *memBookings) ApprovedOnDate(_ context.Context, labID int64, date time.Time) ([]*model.Booking, error) {
	var bookings []*model.Booking
	for _, b := range r.s.data.bookings {
		if b.LabID == labID && b.Status == model.BookingStatusApproved && sameDay(b.Date, date) {
			cp := *b
			bookings = append(bookings, &cp)
		}
	}
	return bookings, nil
}

func (r *memBookings) ListPending(_ context.Context) ([]*model.Booking, error) {
	var bookings []*model.Booking
	for _, b := range r.s.data.bookings {
		if b.Status == model.BookingStatusPending {
			cp := *b
			bookings = append(bookings, &cp)
		}
	}
	return bookings, nil
}

func (r *memBookings) CountPending(_ context.Context) (int64, error) {
	var count int64
	for _, b := range r.s.data.bookings {
		if b.Status == model.BookingStatusPending {
			count++
		}
	}
	return count, nil
}

type memDrafts struct{ s *memStore }

func (r *memDrafts) Create(_ context.Context, d *model.Draft) error {
	r.s.data.nextID++
	d.ID = r.s.data.nextID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	r.s.data.drafts[d.ID] = &cp
	return nil
}

func (r *memDrafts) GetByID(_ context.Context, id int64) (*model.Draft, error) {
	d, ok := r.s.data.drafts[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *memDrafts) Update(_ context.Context, d *model.Draft) error {
	if _, ok := r.s.data.drafts[d.ID]; !ok {
		return &model.NotFoundError{Entity: "draft", ID: d.ID}
	}
	cp := *d
	r.s.data.drafts[d.ID] = &cp
	return nil
}

func (r *memDrafts) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.data.drafts[id]; !ok {
		return &model.NotFoundError{Entity: "draft", ID: id}
	}
	delete(r.s.data.drafts, id)
	return nil
}

func (r *memDrafts) ListByRequester(_ context.Context, requesterID int64) ([]*model.Draft, error) {
	var drafts []*model.Draft
	for _, d := range r.s.data.drafts {
		if d.RequesterID == requesterID {
			cp := *d
			drafts = append(drafts, &cp)
		}
	}
	return drafts, nil
}

func (r *memDrafts) DeleteDatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	for id, d := range r.s.data.drafts {
		if d.Date != nil && d.Date.Before(cutoff) {
			delete(r.s.data.drafts, id)
			deleted++
		}
	}
	return deleted, nil
}

type memComments struct{ s *memStore }

func (r *memComments) Create(_ context.Context, c *model.Comment) error {
	r.s.data.nextID++
	c.ID = r.s.data.nextID
	c.CreatedAt = time.Now()
	cp := *c
	r.s.data.comments[c.ID] = &cp
	return nil
}

func (r *memComments) ListByBooking(_ context.Context, bookingID int64) ([]*model.Comment, error) {
	var comments []*model.Comment
	for _, c := range r.s.data.comments {
		if c.BookingID == bookingID {
			cp := *c
			comments = append(comments, &cp)
		}
	}
	return comments, nil
}

func (r *memComments) MarkRead(_ context.Context, id int64) error {
	c, ok := r.s.data.comments[id]
	if !ok {
		return &model.NotFoundError{Entity: "comment", ID: id}
	}
	c.IsRead = true
	return nil
}

// testCache — кэш на map с учётом семантики ErrMiss
type testCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newTestCache() *testCache {
	return &testCache{data: make(map[string][]byte)}
}

func (c *testCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return data, nil
}

func (c *testCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *testCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func (c *testCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
	return nil
}

func (c *testCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

func (c *testCache) put(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = []byte("stale")
}

// eventRecorder собирает опубликованные события
type eventRecorder struct {
	mu        sync.Mutex
	envelopes []event.Envelope
}

func (r *eventRecorder) HandleEvent(_ context.Context, env event.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envelopes = append(r.envelopes, env)
	return nil
}

func (r *eventRecorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []string
	for _, env := range r.envelopes {
		kinds = append(kinds, env.Event.Kind())
	}
	return kinds
}

func (r *eventRecorder) reset() {
	r.mu.Lock()
	r.envelopes = nil
	r.mu.Unlock()
}

// fixture собирает сервисы поверх in-memory хранилища с настоящей шиной
// и настоящим инвалидатором — как в продакшен-связке
type fixture struct {
	store    *memStore
	cache    *testCache
	clk      *clock.Fixed
	rec      *eventRecorder
	bookings *BookingService
	drafts   *DraftService
	comments *CommentService
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	store := newMemStore()
	store.data.labs[1] = &model.Laboratory{ID: 1, Name: "Химическая лаборатория", Capacity: 30, IsActive: true}
	store.data.labs[2] = &model.Laboratory{ID: 2, Name: "Физическая лаборатория", Capacity: 0, IsActive: true}
	store.data.labs[3] = &model.Laboratory{ID: 3, Name: "Закрытая лаборатория", Capacity: 20, IsActive: false}
	store.data.labs[4] = &model.Laboratory{ID: 4, Name: "Склад реактивов", Capacity: 0, IsActive: true, StorageOnly: true}

	c := newTestCache()
	clk := clock.NewFixed(now)
	logger := zap.NewNop()
	rec := &eventRecorder{}

	bus := event.NewBus(logger)
	bus.Subscribe(cache.NewInvalidator(c, logger))
	bus.Subscribe(rec)

	return &fixture{
		store:    store,
		cache:    c,
		clk:      clk,
		rec:      rec,
		bookings: NewBookingService(store, c, clk, bus, logger, 5*time.Minute),
		drafts:   NewDraftService(store, clk, bus, logger),
		comments: NewCommentService(store, clk, bus, logger),
	}
}

// seedBooking кладёт заявку прямо в хранилище, минуя сервис
func (f *fixture) seedBooking(b *model.Booking) *model.Booking {
	f.store.data.nextID++
	b.ID = f.store.data.nextID
	if b.Status == "" {
		b.Status = model.BookingStatusPending
	}
	cp := *b
	f.store.data.bookings[b.ID] = &cp
	return b
}

// seedDraft кладёт черновик прямо в хранилище
func (f *fixture) seedDraft(d *model.Draft) *model.Draft {
	f.store.data.nextID++
	d.ID = f.store.data.nextID
	cp := *d
	f.store.data.drafts[d.ID] = &cp
	return d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

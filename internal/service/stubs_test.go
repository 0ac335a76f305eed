package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mendo-app/backend/internal/model"
)

// memStore is an in-memory double for the SQL repositories. It mirrors
// their semantics closely enough for service tests: sentinel errors,
// duplicate keys, ordering and the two transactional quote flows.
type memStore struct {
	mu       sync.Mutex
	users    map[uint64]model.User
	requests map[uint64]model.RepairRequest
	quotes   map[uint64]model.Quote
	images   map[uint64]model.RepairImage
	nextID   uint64
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uint64]model.User),
		requests: make(map[uint64]model.RepairRequest),
		quotes:   make(map[uint64]model.Quote),
		images:   make(map[uint64]model.RepairImage),
	}
}

func (m *memStore) id() uint64 {
	m.nextID++
	return m.nextID
}

// --- UserStore ---

func (m *memStore) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, ex := range m.users {
		if ex.Email == u.Email {
			return model.ErrEmailTaken
		}
		if ex.Username == u.Username {
			return model.ErrUsernameTaken
		}
	}
	u.ID = m.id()
	u.CreatedAt = time.Now().UTC()
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (m *memStore) GetByUsername(_ context.Context, username string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (m *memStore) UpdateProfile(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex, ok := m.users[u.ID]
	if !ok {
		return model.ErrUserNotFound
	}
	for _, other := range m.users {
		if other.ID != u.ID && other.Username == u.Username {
			return model.ErrUsernameTaken
		}
	}
	ex.Username = u.Username
	ex.Role = u.Role
	ex.City = u.City
	ex.Bio = u.Bio
	ex.Phone = u.Phone
	ex.AvatarURL = u.AvatarURL
	m.users[u.ID] = ex
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uint64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.Status = status
	if status == model.StatusActive && u.VerifiedAt == nil {
		now := time.Now().UTC()
		u.VerifiedAt = &now
	}
	m.users[id] = u
	return nil
}

func (m *memStore) MarkVerified(_ context.Context, id uint64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	if u.VerifiedAt == nil {
		u.VerifiedAt = &at
	}
	if u.Status == model.StatusPendingVerification {
		u.Status = model.StatusActive
	}
	m.users[id] = u
	return nil
}

func (m *memStore) ListActiveRepairers(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		if u.Role == model.RoleRepairer && u.Status == model.StatusActive {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) List(_ context.Context, role, status string, limit, offset int) ([]model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.User
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		if status != "" && u.Status != status {
			continue
		}
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	return pageOf(all, limit, offset), total, nil
}

func (m *memStore) DeleteByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for id, u := range m.users {
		if u.Email == email {
			delete(m.users, id)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *memStore) CountByRole(_ context.Context, role string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountCreatedSince(_ context.Context, t time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if !u.CreatedAt.Before(t) {
			n++
		}
	}
	return n, nil
}

// requestStore / quoteStore / imageStore expose the other interfaces over the
// same memStore so the quote flows can see the request rows.

type requestStore struct{ *memStore }

func (m requestStore) Create(_ context.Context, rr *model.RepairRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rr.ID = m.id()
	rr.CreatedAt = time.Now().UTC()
	rr.UpdatedAt = rr.CreatedAt
	m.requests[rr.ID] = *rr
	return nil
}

func (m requestStore) GetByID(_ context.Context, id uint64) (model.RepairRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rr, ok := m.requests[id]
	if !ok {
		return model.RepairRequest{}, model.ErrRequestNotFound
	}
	return rr, nil
}

func (m requestStore) GetSummary(_ context.Context, id uint64) (model.RequestSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rr, ok := m.requests[id]
	if !ok {
		return model.RequestSummary{}, model.ErrRequestNotFound
	}
	return m.summarize(rr), nil
}

func (m *memStore) summarize(rr model.RepairRequest) model.RequestSummary {
	s := model.RequestSummary{RepairRequest: rr}
	for _, q := range m.quotes {
		if q.RepairRequestID == rr.ID {
			s.QuotesCount++
		}
	}
	if u, ok := m.users[rr.ClientID]; ok {
		s.ClientUsername = u.Username
		s.ClientCity = u.City
	}
	return s
}

func (m requestStore) Search(_ context.Context, f model.RequestFilter) ([]model.RequestSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.RequestSummary
	for _, rr := range m.requests {
		if f.Category != "" && f.Category != "all" && rr.Category != f.Category {
			continue
		}
		if f.Status != "" && f.Status != "all" && rr.Status != f.Status {
			continue
		}
		if f.City != "" && !strings.Contains(strings.ToLower(rr.City), strings.ToLower(f.City)) {
			continue
		}
		if f.Search != "" {
			needle := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(rr.Title), needle) &&
				!strings.Contains(strings.ToLower(rr.Description), needle) {
				continue
			}
		}
		out = append(out, m.summarize(rr))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m requestStore) ListByClient(_ context.Context, clientID uint64) ([]model.RequestSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.RequestSummary
	for _, rr := range m.requests {
		if rr.ClientID == clientID {
			out = append(out, m.summarize(rr))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m requestStore) List(_ context.Context, status, category string, limit, offset int) ([]model.RequestSummary, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.RequestSummary
	for _, rr := range m.requests {
		if status != "" && rr.Status != status {
			continue
		}
		if category != "" && rr.Category != category {
			continue
		}
		out = append(out, m.summarize(rr))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	return pageOf(out, limit, offset), total, nil
}

func (m requestStore) SetStatus(_ context.Context, id uint64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rr, ok := m.requests[id]
	if !ok {
		return model.ErrRequestNotFound
	}
	rr.Status = status
	rr.UpdatedAt = time.Now().UTC()
	m.requests[id] = rr
	return nil
}

func (m requestStore) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.requests)), nil
}

func (m requestStore) CountByStatus(_ context.Context, status string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, rr := range m.requests {
		if rr.Status == status {
			n++
		}
	}
	return n, nil
}

func (m requestStore) CountCreatedSince(_ context.Context, t time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, rr := range m.requests {
		if !rr.CreatedAt.Before(t) {
			n++
		}
	}
	return n, nil
}

type quoteStore struct{ *memStore }

func (m quoteStore) CreateForOpenRequest(_ context.Context, q *model.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rr, ok := m.requests[q.RepairRequestID]
	if !ok {
		return model.ErrRequestNotFound
	}
	if rr.Status != model.RequestOpen && rr.Status != model.RequestQuoted {
		return model.ErrRequestClosed
	}
	q.ID = m.id()
	q.Status = model.QuotePending
	q.CreatedAt = time.Now().UTC()
	m.quotes[q.ID] = *q
	rr.Status = model.RequestQuoted
	rr.UpdatedAt = q.CreatedAt
	m.requests[rr.ID] = rr
	return nil
}

func (m quoteStore) Accept(_ context.Context, quoteID, clientID uint64) (model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[quoteID]
	if !ok {
		return model.Quote{}, model.ErrQuoteNotFound
	}
	rr := m.requests[q.RepairRequestID]
	if rr.ClientID != clientID {
		return model.Quote{}, model.ErrForbidden
	}
	for id, sib := range m.quotes {
		if sib.RepairRequestID == rr.ID && id != quoteID {
			sib.Status = model.QuoteRejected
			m.quotes[id] = sib
		}
	}
	q.Status = model.QuoteAccepted
	m.quotes[quoteID] = q
	rr.Status = model.RequestAccepted
	accepted := quoteID
	rr.AcceptedQuoteID = &accepted
	rr.UpdatedAt = time.Now().UTC()
	m.requests[rr.ID] = rr
	return q, nil
}

func (m quoteStore) GetByID(_ context.Context, id uint64) (model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[id]
	if !ok {
		return model.Quote{}, model.ErrQuoteNotFound
	}
	return q, nil
}

func (m quoteStore) ListByRequest(_ context.Context, requestID uint64) ([]model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Quote
	for _, q := range m.quotes {
		if q.RepairRequestID == requestID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m quoteStore) ListByRepairer(_ context.Context, repairerID uint64) ([]model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Quote
	for _, q := range m.quotes {
		if q.RepairerID == repairerID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m quoteStore) List(_ context.Context, status string, limit, offset int) ([]model.Quote, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Quote
	for _, q := range m.quotes {
		if status != "" && q.Status != status {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	return pageOf(out, limit, offset), total, nil
}

func (m quoteStore) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.quotes)), nil
}

func (m quoteStore) CountCreatedSince(_ context.Context, t time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, q := range m.quotes {
		if !q.CreatedAt.Before(t) {
			n++
		}
	}
	return n, nil
}

type imageStore struct{ *memStore }

func (m imageStore) Create(_ context.Context, img *model.RepairImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	img.ID = m.id()
	img.CreatedAt = time.Now().UTC()
	m.images[img.ID] = *img
	return nil
}

func (m imageStore) ListByRequest(_ context.Context, requestID uint64) ([]model.RepairImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.RepairImage
	for _, img := range m.images {
		if img.RepairRequestID == requestID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func pageOf[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// stubNotifier records notification calls for assertions.
type stubNotifier struct {
	mu        sync.Mutex
	welcomes  []string // recipient emails
	fanouts   []int    // repairer counts per RequestCreated
	submitted []uint64 // quote ids
	accepted  []uint64 // quote ids
	alerts    []string // subjects
}

func (n *stubNotifier) Welcome(_ context.Context, u model.User, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomes = append(n.welcomes, u.Email)
}

func (n *stubNotifier) RequestCreated(_ context.Context, _ model.RepairRequest, _ model.User, repairers []model.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fanouts = append(n.fanouts, len(repairers))
}

func (n *stubNotifier) QuoteSubmitted(_ context.Context, q model.Quote, _ model.RepairRequest, _, _ model.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.submitted = append(n.submitted, q.ID)
}

func (n *stubNotifier) QuoteAccepted(_ context.Context, q model.Quote, _ model.RepairRequest, _, _ model.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accepted = append(n.accepted, q.ID)
}

func (n *stubNotifier) AdminAlert(_ context.Context, subject, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, subject)
}

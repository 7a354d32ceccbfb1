package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/langchou/wattgazer/internal/models"
	"github.com/langchou/wattgazer/internal/repository"
)

var errStore = errors.New("connection refused")

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[int64]*models.User)}
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]*models.Session)}
}

func (m *memSessions) Create(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.Token] = &cp
	return nil
}

func (m *memSessions) Get(_ context.Context, token string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[token]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memSessions) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, s := range m.sessions {
		if s.IsExpired(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

type memDevices struct {
	mu       sync.Mutex
	nextID   int64
	devices  []*models.Device
	readings *memReadings
	err      error
}

func newMemDevices(readings *memReadings) *memDevices {
	d := &memDevices{readings: readings}
	if readings != nil {
		readings.devices = d
	}
	return d
}

func (m *memDevices) Create(_ context.Context, device *models.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	device.ID = m.nextID
	device.CreatedAt = time.Now()
	m.devices = append(m.devices, device)
	return nil
}

func (m *memDevices) CreateMany(ctx context.Context, devices []*models.Device) error {
	for _, d := range devices {
		if err := m.Create(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (m *memDevices) ListByUserID(_ context.Context, userID int64) ([]*models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return lo.Filter(m.devices, func(d *models.Device, _ int) bool { return d.UserID == userID }), nil
}

func (m *memDevices) GetByIDForUser(_ context.Context, id, userID int64) (*models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := lo.Find(m.devices, func(d *models.Device) bool { return d.ID == id && d.UserID == userID })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d, nil
}

func (m *memDevices) LatestReadings(_ context.Context, userID int64) (map[int64]*models.Reading, error) {
	latest := make(map[int64]*models.Reading)
	for _, r := range m.readings.all() {
		if m.owner(r.DeviceID) != userID {
			continue
		}
		if cur, ok := latest[r.DeviceID]; !ok || r.Timestamp.After(cur.Timestamp) {
			latest[r.DeviceID] = r
		}
	}
	return latest, nil
}

func (m *memDevices) owner(deviceID int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.devices {
		if d.ID == deviceID {
			return d.UserID
		}
	}
	return 0
}

type memReadings struct {
	mu       sync.Mutex
	nextID   int64
	readings []*models.Reading
	devices  *memDevices
	err      error

	lastDeviceIDs []int64
	lastStart     time.Time
	lastEnd       time.Time
}

func (m *memReadings) Create(_ context.Context, r *models.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	r.ID = m.nextID
	m.readings = append(m.readings, r)
	return nil
}

func (m *memReadings) CreateMany(ctx context.Context, readings []*models.Reading) (int64, error) {
	for _, r := range readings {
		if err := m.Create(ctx, r); err != nil {
			return 0, err
		}
	}
	return int64(len(readings)), nil
}

func (m *memReadings) all() []*models.Reading {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Reading(nil), m.readings...)
}

func (m *memReadings) ListInRange(_ context.Context, userID int64, deviceIDs []int64, start, end time.Time) ([]*models.Reading, error) {
	m.mu.Lock()
	m.lastDeviceIDs, m.lastStart, m.lastEnd = deviceIDs, start, end
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.filter(userID, deviceIDs, func(r *models.Reading) bool {
		return !r.Timestamp.Before(start) && !r.Timestamp.After(end)
	}), nil
}

func (m *memReadings) ListSince(_ context.Context, userID int64, deviceIDs []int64, since time.Time) ([]*models.Reading, error) {
	return m.filter(userID, deviceIDs, func(r *models.Reading) bool {
		return !r.Timestamp.Before(since)
	}), nil
}

func (m *memReadings) filter(userID int64, deviceIDs []int64, keep func(*models.Reading) bool) []*models.Reading {
	out := lo.Filter(m.all(), func(r *models.Reading, _ int) bool {
		if m.devices != nil && m.devices.owner(r.DeviceID) != userID {
			return false
		}
		if deviceIDs != nil && !lo.Contains(deviceIDs, r.DeviceID) {
			return false
		}
		return keep(r)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

type memQueries struct {
	mu      sync.Mutex
	nextID  int64
	records []*models.QueryRecord
	err     error
}

func (m *memQueries) Create(_ context.Context, record *models.QueryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	record.ID = m.nextID
	record.CreatedAt = time.Now()
	m.records = append(m.records, record)
	return nil
}

func (m *memQueries) ListByUserID(_ context.Context, userID int64, limit, offset int) ([]*models.QueryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.QueryRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID == userID {
			out = append(out, m.records[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memQueries) CountByUserID(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(lo.CountBy(m.records, func(r *models.QueryRecord) bool { return r.UserID == userID })), nil
}

type sentMessage struct {
	userID  int64
	msgType string
	data    interface{}
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) SendToUser(userID int64, msgType string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{userID, msgType, data})
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return lo.Map(n.sent, func(m sentMessage, _ int) string { return m.msgType })
}

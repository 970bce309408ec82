package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/limbsorthopaedic/clinic-backend/internal/models"
)

// MemStorage keeps everything in process memory; contents are lost on
// restart. Lists are returned in id order.
type MemStorage struct {
	mu           sync.RWMutex
	users        map[uint]models.User
	profiles     map[uint]models.Profile
	appointments map[uint]models.Appointment
	stages       map[uint]models.TreatmentStage

	nextUser, nextProfile, nextAppointment, nextStage uint

	now func() time.Time
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		users:           make(map[uint]models.User),
		profiles:        make(map[uint]models.Profile),
		appointments:    make(map[uint]models.Appointment),
		stages:          make(map[uint]models.TreatmentStage),
		nextUser:        1,
		nextProfile:     1,
		nextAppointment: 1,
		nextStage:       1,
		now:             time.Now,
	}
}

func (m *MemStorage) GetUser(ctx context.Context, id uint) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStorage) ListUsers(ctx context.Context) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateUser rejects a username or email already in use, case-insensitively
// for email.
func (m *MemStorage) CreateUser(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	now := m.now().UTC()
	u.ID = m.nextUser
	m.nextUser++
	u.IsActive = true
	u.CreatedAt = now
	u.UpdatedAt = now
	m.users[u.ID] = *u
	return nil
}

func (m *MemStorage) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.UserID == userID {
			p := p
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// SaveProfile updates the user's profile in place or creates it. The check
// and the write happen under one lock.
func (m *MemStorage) SaveProfile(ctx context.Context, p *models.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	for id, existing := range m.profiles {
		if existing.UserID == p.UserID {
			p.ID = id
			p.CreatedAt = existing.CreatedAt
			p.UpdatedAt = now
			m.profiles[id] = *p
			return nil
		}
	}
	p.ID = m.nextProfile
	m.nextProfile++
	p.CreatedAt = now
	p.UpdatedAt = now
	m.profiles[p.ID] = *p
	return nil
}

func (m *MemStorage) GetAppointment(ctx context.Context, id uint) (*models.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *MemStorage) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	return m.filterAppointments(ctx, func(models.Appointment) bool { return true })
}

func (m *MemStorage) ListUserAppointments(ctx context.Context, userID uint) ([]models.Appointment, error) {
	return m.filterAppointments(ctx, func(a models.Appointment) bool { return a.UserID == userID })
}

func (m *MemStorage) filterAppointments(ctx context.Context, keep func(models.Appointment) bool) ([]models.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Appointment, 0)
	for _, a := range m.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStorage) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	a.ID = m.nextAppointment
	m.nextAppointment++
	if a.Status == "" {
		a.Status = "pending"
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	m.appointments[a.ID] = *a
	return nil
}

func (m *MemStorage) UpdateAppointmentStatus(ctx context.Context, id uint, status string) (*models.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = m.now().UTC()
	m.appointments[id] = a
	return &a, nil
}

func (m *MemStorage) GetStage(ctx context.Context, id uint) (*models.TreatmentStage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemStorage) ListStages(ctx context.Context) ([]models.TreatmentStage, error) {
	return m.filterStages(ctx, func(models.TreatmentStage) bool { return true })
}

func (m *MemStorage) ListUserStages(ctx context.Context, patientID uint) ([]models.TreatmentStage, error) {
	return m.filterStages(ctx, func(s models.TreatmentStage) bool { return s.PatientID == patientID })
}

func (m *MemStorage) filterStages(ctx context.Context, keep func(models.TreatmentStage) bool) ([]models.TreatmentStage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.TreatmentStage, 0)
	for _, s := range m.stages {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStorage) CreateStage(ctx context.Context, s *models.TreatmentStage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	s.ID = m.nextStage
	m.nextStage++
	if s.Date.IsZero() {
		s.Date = now
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	m.stages[s.ID] = *s
	return nil
}

func (m *MemStorage) UpdateStage(ctx context.Context, id uint, upd StageUpdate) (*models.TreatmentStage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stages[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Stage != nil {
		s.Stage = *upd.Stage
	}
	if upd.Notes != nil {
		s.Notes = *upd.Notes
	}
	s.UpdatedAt = m.now().UTC()
	m.stages[id] = s
	return &s, nil
}

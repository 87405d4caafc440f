// Package memstore is an in-process implementation of the repositories. It
// backs the server when no DATABASE_URL is configured and doubles as the
// store for service and handler tests.
package memstore

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"finwise/internal/apperr"
	"finwise/internal/models"
)

type dayKey struct {
	userID int64
	day    string
}

// Store keeps users, activity and submissions in memory. It enforces the same
// uniqueness rules as the Postgres schema.
type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	nextUserID  int64
	nextSubID   int64
	nextActID   int64
	users       map[int64]*models.User
	byUsername  map[string]int64
	byEmail     map[string]int64
	activity    map[int64][]models.Activity
	submissions map[int64][]models.Submission
	days        map[dayKey]struct{}
	profiles    map[int64]models.FinancialProfile
}

// Users is the credential store view of a Store.
type Users struct{ *Store }

// Submissions is the questionnaire view of a Store.
type Submissions struct{ *Store }

// Profiles is the financial profile view of a Store.
type Profiles struct{ *Store }

// Users returns the user repository backed by s.
func (s *Store) Users() *Users { return &Users{s} }

// Submissions returns the submission repository backed by s.
func (s *Store) Submissions() *Submissions { return &Submissions{s} }

// Profiles returns the financial profile repository backed by s.
func (s *Store) Profiles() *Profiles { return &Profiles{s} }

// SetClock replaces the time source used for created/updated stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func New() *Store {
	return &Store{
		now:         time.Now,
		users:       map[int64]*models.User{},
		byUsername:  map[string]int64{},
		byEmail:     map[string]int64{},
		activity:    map[int64][]models.Activity{},
		submissions: map[int64][]models.Submission{},
		days:        map[dayKey]struct{}{},
		profiles:    map[int64]models.FinancialProfile{},
	}
}

func userNotFound() error {
	return apperr.NotFound(apperr.CodeUserNotFound, "User not found")
}

func dateOnly(t time.Time) string {
	return t.Format(time.DateOnly)
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.ProfilePhoto != nil {
		v := *u.ProfilePhoto
		c.ProfilePhoto = &v
	}
	if u.LastLogin != nil {
		v := *u.LastLogin
		c.LastLogin = &v
	}
	if u.LastIP != nil {
		v := *u.LastIP
		c.LastIP = &v
	}
	return &c
}

func (s *Users) Create(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[u.Username]; ok {
		return apperr.Conflict(apperr.CodeDuplicateUsername, "User with this username already exists.")
	}
	email := strings.ToLower(u.Email)
	if _, ok := s.byEmail[email]; ok {
		return apperr.Conflict(apperr.CodeDuplicateEmail, "User with this email already exists.")
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}

	s.nextUserID++
	now := s.now()
	u.ID = s.nextUserID
	u.Email = email
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = cloneUser(u)
	s.byUsername[u.Username] = u.ID
	s.byEmail[email] = u.ID
	return nil
}

func (s *Users) FindByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, userNotFound()
	}
	return cloneUser(u), nil
}

// FindByUsernameOrEmail prefers an email match over a username match.
func (s *Users) FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byEmail[strings.ToLower(identifier)]; ok {
		return cloneUser(s.users[id]), nil
	}
	if id, ok := s.byUsername[identifier]; ok {
		return cloneUser(s.users[id]), nil
	}
	return nil, userNotFound()
}

func (s *Users) List(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// update runs fn on the stored user under the write lock.
func (s *Store) update(id int64, fn func(u *models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, userNotFound()
	}
	fn(u)
	u.UpdatedAt = s.now()
	return cloneUser(u), nil
}

func (s *Users) UpdateProfile(ctx context.Context, id int64, p models.ProfileUpdate) (*models.User, error) {
	if p.Empty() {
		return s.FindByID(ctx, id)
	}
	return s.update(id, func(u *models.User) {
		if p.FirstName != nil {
			u.FirstName = *p.FirstName
		}
		if p.LastName != nil {
			u.LastName = *p.LastName
		}
		if p.Gender != nil {
			u.Gender = *p.Gender
		}
		if p.ReceiveNotifications != nil {
			u.ReceiveNotifications = *p.ReceiveNotifications
		}
	})
}

func (s *Users) SetPhoto(ctx context.Context, id int64, ref string) error {
	_, err := s.update(id, func(u *models.User) { u.ProfilePhoto = &ref })
	return err
}

func (s *Users) SetBlocked(ctx context.Context, id int64, blocked bool) error {
	_, err := s.update(id, func(u *models.User) { u.Blocked = blocked })
	return err
}

func (s *Users) ToggleBlocked(ctx context.Context, id int64) (bool, error) {
	u, err := s.update(id, func(u *models.User) { u.Blocked = !u.Blocked })
	if err != nil {
		return false, err
	}
	return u.Blocked, nil
}

func (s *Users) SetRole(ctx context.Context, id int64, role string) error {
	_, err := s.update(id, func(u *models.User) { u.Role = role })
	return err
}

func (s *Users) SetPassword(ctx context.Context, id int64, hash string) error {
	_, err := s.update(id, func(u *models.User) { u.PasswordHash = hash })
	return err
}

// Delete removes the user together with their activity and submissions.
func (s *Users) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return userNotFound()
	}
	delete(s.byUsername, u.Username)
	delete(s.byEmail, u.Email)
	delete(s.users, id)
	delete(s.activity, id)
	for _, sub := range s.submissions[id] {
		delete(s.days, dayKey{userID: id, day: dateOnly(sub.Day)})
	}
	delete(s.submissions, id)
	delete(s.profiles, id)
	return nil
}

func (s *Users) RecordActivity(ctx context.Context, id int64, action string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return userNotFound()
	}
	s.appendActivity(id, action, at)
	return nil
}

func (s *Store) appendActivity(id int64, action string, at time.Time) {
	s.nextActID++
	s.activity[id] = append(s.activity[id], models.Activity{ID: s.nextActID, UserID: id, Action: action, Timestamp: at})
}

func (s *Users) RecordLogin(ctx context.Context, id int64, at time.Time, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return userNotFound()
	}
	u.LastLogin = &at
	u.LastIP = &ip
	s.appendActivity(id, models.ActionLogin, at)
	return nil
}

// ListActivity returns the newest 100 entries, newest first.
func (s *Users) ListActivity(ctx context.Context, id int64) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.activity[id]
	out := make([]models.Activity, 0, min(len(log), 100))
	for i := len(log) - 1; i >= 0 && len(out) < 100; i-- {
		out = append(out, log[i])
	}
	return out, nil
}

func (s *Submissions) ExistsForDay(ctx context.Context, userID int64, day time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.days[dayKey{userID: userID, day: dateOnly(day)}]
	return ok, nil
}

// Create stores sub; a second submission for the same (user, day) is a conflict.
func (s *Submissions) Create(ctx context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := dayKey{userID: sub.UserID, day: dateOnly(sub.Day)}
	if _, ok := s.days[key]; ok {
		return apperr.Conflict(apperr.CodeAlreadySubmittedToday, "You have already submitted a questionnaire today.")
	}
	if _, ok := s.users[sub.UserID]; !ok {
		return userNotFound()
	}
	s.nextSubID++
	sub.ID = s.nextSubID
	s.days[key] = struct{}{}
	s.submissions[sub.UserID] = append(s.submissions[sub.UserID], *sub)
	return nil
}

func (s *Submissions) Latest(ctx context.Context, userID int64) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subs := s.submissions[userID]
	if len(subs) == 0 {
		return nil, apperr.NotFound(apperr.CodeNoQuestionnaire, "No questionnaire found.")
	}
	latest := subs[0]
	for _, sub := range subs[1:] {
		if sub.CreatedAt.After(latest.CreatedAt) || (sub.CreatedAt.Equal(latest.CreatedAt) && sub.ID > latest.ID) {
			latest = sub
		}
	}
	return &latest, nil
}

func (s *Submissions) ListByUser(ctx context.Context, userID int64) ([]models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Submission{}, s.submissions[userID]...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CountByUser(ctx context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.submissions[userID]), nil
}

// buckets orders by count descending, breaking ties with less on the value
// the same way the SQL ORDER BY does.
func buckets(counts map[string]int, less func(a, b string) bool) []models.Bucket {
	out := make([]models.Bucket, 0, len(counts))
	for v, n := range counts {
		out = append(out, models.Bucket{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return less(out[i].Value, out[j].Value)
		}
		return out[i].Count > out[j].Count
	})
	return out
}

func textLess(a, b string) bool { return a < b }

// numericLess compares values produced by strconv.Itoa.
func numericLess(a, b string) bool {
	x, _ := strconv.Atoi(a)
	y, _ := strconv.Atoi(b)
	return x < y
}

func (s *Store) RiskTolerance(ctx context.Context, userID *int64) ([]models.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[string]int{}
	for uid, subs := range s.submissions {
		if userID != nil && uid != *userID {
			continue
		}
		for _, sub := range subs {
			counts[strconv.Itoa(sub.RiskTolerance)]++
		}
	}
	return buckets(counts, numericLess), nil
}

func (s *Store) Lifestyle(ctx context.Context) ([]models.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[string]int{}
	for _, subs := range s.submissions {
		for _, sub := range subs {
			counts[sub.Lifestyle]++
		}
	}
	return buckets(counts, textLess), nil
}

func (s *Store) Overview(ctx context.Context, today, weekStart time.Time) (*models.Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var o models.Overview
	o.TotalUsers = len(s.users)
	for _, u := range s.users {
		if u.IsAdmin() {
			o.Admins++
		}
		if u.Blocked {
			o.BlockedUsers++
		}
	}
	todayKey, weekKey := dateOnly(today), dateOnly(weekStart)
	for _, subs := range s.submissions {
		active := false
		for _, sub := range subs {
			o.TotalSubmissions++
			d := dateOnly(sub.Day)
			if d == todayKey {
				o.SubmissionsToday++
			}
			if d >= weekKey {
				active = true
			}
		}
		if active {
			o.ActiveUsersThisWeek++
		}
	}
	return &o, nil
}

func cloneProfile(p models.FinancialProfile) *models.FinancialProfile {
	p.CustomExpenses = append([]models.CustomExpense{}, p.CustomExpenses...)
	return &p
}

func (s *Profiles) Get(ctx context.Context, userID int64) (*models.FinancialProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, apperr.NotFound(apperr.CodeNoFinancialProfile, "No financial profile found.")
	}
	return cloneProfile(p), nil
}

// Upsert stores p as the user's only profile and reports whether it is new.
func (s *Profiles) Upsert(ctx context.Context, p *models.FinancialProfile) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[p.UserID]; !ok {
		return false, userNotFound()
	}
	now := s.now()
	prev, exists := s.profiles[p.UserID]
	if exists {
		p.CreatedAt = prev.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.CustomExpenses == nil {
		p.CustomExpenses = []models.CustomExpense{}
	}
	s.profiles[p.UserID] = *cloneProfile(*p)
	return !exists, nil
}

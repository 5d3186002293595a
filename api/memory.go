package main

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// memoryStore keeps everything in process memory. It backs the
// -store=memory development mode and the test suite; data is gone on exit.
type memoryStore struct {
	mu    sync.Mutex
	users map[string]*user
	tasks map[string]*task
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users: make(map[string]*user),
		tasks: make(map[string]*task),
	}
}

func (s *memoryStore) createUser(u *user) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return errDuplicateEmail
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	clone := *u
	s.users[u.ID] = &clone
	return nil
}

func (s *memoryStore) getUserByEmail(email string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) getUserByID(id string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (s *memoryStore) updateUser(u *user) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return errNotFound
	}
	for _, existing := range s.users {
		if existing.Email == u.Email && existing.ID != u.ID {
			return errDuplicateEmail
		}
	}
	clone := *u
	s.users[u.ID] = &clone
	return nil
}

func (s *memoryStore) listUsers() ([]user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]user, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	return users, nil
}

func (s *memoryStore) createTask(t *task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	clone := *t
	s.tasks[t.ID] = &clone
	return nil
}

func (s *memoryStore) getTask(userID, id string) (*task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, errNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *memoryStore) listTasks(userID string) ([]task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tasks []task
	for _, t := range s.tasks {
		if t.UserID == userID {
			tasks = append(tasks, *t)
		}
	}
	return tasks, nil
}

func (s *memoryStore) updateTask(userID, id string, patch taskPatch) (*task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, errNotFound
	}
	patch.apply(t)
	clone := *t
	return &clone, nil
}

func (s *memoryStore) deleteTask(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return errNotFound
	}
	delete(s.tasks, id)
	return nil
}

// seedStore loads a few demo users (password "password123") and a handful of
// tasks per user, so the memory mode is usable straight away.
func seedStore(s store) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []*user{
		{Name: "Admin User", Email: "admin@example.com", PasswordHash: hash, IsAdmin: true, Avatar: "https://randomuser.me/api/portraits/men/1.jpg"},
		{Name: "John Doe", Email: "john@example.com", PasswordHash: hash, Avatar: "https://randomuser.me/api/portraits/men/32.jpg"},
		{Name: "Jane Smith", Email: "jane@example.com", PasswordHash: hash, Avatar: "https://randomuser.me/api/portraits/women/44.jpg"},
	}

	priorities := []taskPriority{priorityLow, priorityMedium, priorityHigh}
	categories := []taskCategory{categoryWork, categoryPersonal, categoryShopping, categoryHealth, categoryEducation}

	for _, u := range users {
		if err := s.createUser(u); err != nil {
			return err
		}
		n := rand.Intn(3) + 3
		for i := 0; i < n; i++ {
			due := time.Now().Add(time.Duration(rand.Intn(7*24)) * time.Hour)
			t := &task{
				UserID:      u.ID,
				Title:       fmt.Sprintf("Sample Task %d for %s", i+1, u.Name),
				Description: fmt.Sprintf("This is a sample task description for %s", u.Name),
				Completed:   rand.Float64() > 0.7,
				DueDate:     due,
				Priority:    priorities[rand.Intn(len(priorities))],
				Category:    categories[rand.Intn(len(categories))],
			}
			if err := s.createTask(t); err != nil {
				return err
			}
		}
	}
	return nil
}

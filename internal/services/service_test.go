// internal/services/service_test.go
package services_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"questlab/internal/config"
	"questlab/internal/database"
	"questlab/internal/models"
	"questlab/internal/services"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := database.MigrateDB(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		MaxUploadBytes:   1 << 20, // 1MB keeps oversize fixtures small
		AllowedMIMETypes: []string{"image/png", "image/jpeg"},
	}
}

func newQuestService(db *gorm.DB) *services.QuestService {
	return services.NewQuestService(db, newMemStore())
}

func newUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user, err := services.NewUserService(db).Register(username, "secret123", role)
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	return user
}

func newQuestInput(title string) services.QuestInput {
	return services.QuestInput{
		Title:       title,
		Description: "desc",
		Tags:        []string{"science", "physics"},
		Tasks: []services.TaskInput{
			{Title: "Observe Motion", Prompt: "Find moving objects", Instructions: "Use everyday examples"},
		},
	}
}

// memStore is an in-memory storage.Store for pipeline tests.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.failPut {
		return errors.New("store down")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) URL(ctx context.Context, key string) (string, error) {
	return "mem://" + key, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var errTest = errors.New("generator down")

// stubGenerator returns a fixed feedback text or an error.
type stubGenerator struct {
	text string
	err  error
}

func (s stubGenerator) Generate(ctx context.Context, reflection string, tags []string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func pngUpload(name string, size int) services.Upload {
	data := make([]byte, size)
	copy(data, []byte("\x89PNG\r\n\x1a\n"))
	return uploadFromBytes(name, data)
}

func uploadFromBytes(name string, data []byte) services.Upload {
	return services.Upload{
		FileName: name,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// internal/handlers/handlers_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"questlab/internal/auth"
	"questlab/internal/config"
	"questlab/internal/database"
	"questlab/internal/feedback"
	"questlab/internal/handlers"
	"questlab/internal/models"
	"questlab/internal/services"
	"questlab/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := database.MigrateDB(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	cfg := config.Config{
		MaxUploadBytes:   1 << 20, // 1MB cap keeps oversize fixtures small
		AllowedMIMETypes: []string{"image/png", "image/jpeg"},
	}
	tokens := auth.NewManager("test-secret")

	router := handlers.NewRouter(handlers.Deps{
		DB:          db,
		Tokens:      tokens,
		Users:       services.NewUserService(db),
		Quests:      services.NewQuestService(db, store),
		Submissions: services.NewSubmissionService(db, cfg, store, feedback.KeywordAnalyzer{}),
		Dashboards:  services.NewDashboardService(db),
		Store:       store,
	})
	return &testApp{router: router, db: db}
}

func (a *testApp) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return a.do(t, method, path, token, bytes.NewReader(raw), "application/json")
}

func (a *testApp) register(t *testing.T, username, role string) string {
	t.Helper()
	w := a.doJSON(t, http.MethodPost, "/api/register", "", gin.H{
		"username": username,
		"password": "secret123",
		"role":     role,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s failed: %d %s", username, w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func pngBytes(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte("\x89PNG\r\n\x1a\n"))
	return data
}

func multipartBody(t *testing.T, reflection string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("reflection_text", reflection); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	for name, data := range files {
		fw, err := mw.CreateFormFile("media", name)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func (a *testApp) createPublishedQuest(t *testing.T, token string) (questID, taskID string) {
	t.Helper()
	w := a.doJSON(t, http.MethodPost, "/api/quests", token, gin.H{
		"title":       "Trail Cleanup",
		"description": "Clean a local trail and reflect on it.",
		"tags":        []string{"science"},
		"tasks": []gin.H{
			{"title": "Pick a trail", "prompt": "Document the litter you find"},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create quest failed: %d %s", w.Code, w.Body.String())
	}
	var quest struct {
		ID    string `json:"id"`
		Tasks []struct {
			ID string `json:"id"`
		} `json:"tasks"`
	}
	decode(t, w, &quest)

	w = a.do(t, http.MethodPost, "/api/quests/"+quest.ID+"/publish", token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("publish failed: %d %s", w.Code, w.Body.String())
	}
	return quest.ID, quest.Tasks[0].ID
}

func TestQuestLifecycleEndToEnd(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t, "creatorA", "creator")

	// Create: quest starts as a draft and stays out of the gallery.
	w := app.doJSON(t, http.MethodPost, "/api/quests", token, gin.H{
		"title": "Trail Cleanup",
		"tasks": []gin.H{{"title": "Pick a trail", "prompt": "Document what you find"}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", w.Code, w.Body.String())
	}
	var quest struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, w, &quest)
	if quest.Status != models.QuestDraft {
		t.Fatalf("expected draft, got %s", quest.Status)
	}

	var gallery struct {
		Quests []json.RawMessage `json:"quests"`
	}
	w = app.do(t, http.MethodGet, "/api/quests", "", nil, "")
	decode(t, w, &gallery)
	if len(gallery.Quests) != 0 {
		t.Fatalf("draft must not be in gallery, got %d quests", len(gallery.Quests))
	}

	// Publish: quest appears in the gallery; a second publish conflicts.
	w = app.do(t, http.MethodPost, "/api/quests/"+quest.ID+"/publish", token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("publish failed: %d %s", w.Code, w.Body.String())
	}
	w = app.do(t, http.MethodPost, "/api/quests/"+quest.ID+"/publish", token, nil, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double publish, got %d", w.Code)
	}

	w = app.do(t, http.MethodGet, "/api/quests", "", nil, "")
	decode(t, w, &gallery)
	if len(gallery.Quests) != 1 {
		t.Fatalf("published quest missing from gallery")
	}
}

func TestQuesterCannotCreateQuest(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t, "learnerB", "quester")

	w := app.doJSON(t, http.MethodPost, "/api/quests", token, gin.H{
		"title": "Nope",
		"tasks": []gin.H{{"title": "t", "prompt": "p"}},
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for quester quest creation, got %d", w.Code)
	}
}

func TestSubmitEndToEnd(t *testing.T) {
	app := newTestApp(t)
	creator := app.register(t, "creatorA", "creator")
	quester := app.register(t, "learnerB", "quester")

	_, taskID := app.createPublishedQuest(t, creator)

	body, contentType := multipartBody(t, "I observed an experiment with data.",
		map[string][]byte{"evidence.png": pngBytes(2048)})
	w := app.do(t, http.MethodPost, "/api/tasks/"+taskID+"/submissions", quester, body, contentType)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit failed: %d %s", w.Code, w.Body.String())
	}

	var resp struct {
		Submission struct {
			ID       string  `json:"id"`
			Feedback *string `json:"feedback"`
			Media    []struct {
				URL string `json:"url"`
			} `json:"media"`
			FeedbackStatus string `json:"feedback_status"`
		} `json:"submission"`
	}
	decode(t, w, &resp)
	if len(resp.Submission.Media) != 1 {
		t.Fatalf("expected 1 media, got %d", len(resp.Submission.Media))
	}
	if resp.Submission.Media[0].URL == "" {
		t.Fatalf("expected media url in response")
	}
	if resp.Submission.Feedback == nil || *resp.Submission.Feedback == "" {
		t.Fatalf("expected populated feedback")
	}
	if resp.Submission.FeedbackStatus != "complete" {
		t.Fatalf("expected complete status, got %s", resp.Submission.FeedbackStatus)
	}

	// The stored media is fetchable through the media endpoint.
	w = app.do(t, http.MethodGet, resp.Submission.Media[0].URL, "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("media fetch failed: %d", w.Code)
	}
}

func TestSubmitOversizedFileRejected(t *testing.T) {
	app := newTestApp(t)
	creator := app.register(t, "creatorA", "creator")
	quester := app.register(t, "learnerB", "quester")

	_, taskID := app.createPublishedQuest(t, creator)

	body, contentType := multipartBody(t, "text",
		map[string][]byte{"huge.png": pngBytes((1 << 20) + 1)})
	w := app.do(t, http.MethodPost, "/api/tasks/"+taskID+"/submissions", quester, body, contentType)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized file, got %d %s", w.Code, w.Body.String())
	}

	var subs, media int64
	app.db.Model(&models.Submission{}).Count(&subs)
	app.db.Model(&models.Media{}).Count(&media)
	if subs != 0 || media != 0 {
		t.Fatalf("expected zero persisted rows, got %d submissions, %d media", subs, media)
	}
}

func TestDashboardShowsSubmissionCount(t *testing.T) {
	app := newTestApp(t)
	creator := app.register(t, "creatorA", "creator")
	quester := app.register(t, "learnerB", "quester")

	_, taskID := app.createPublishedQuest(t, creator)

	body, contentType := multipartBody(t, "I learned about litter.",
		map[string][]byte{"evidence.png": pngBytes(2048)})
	w := app.do(t, http.MethodPost, "/api/tasks/"+taskID+"/submissions", quester, body, contentType)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit failed: %d %s", w.Code, w.Body.String())
	}

	w = app.do(t, http.MethodGet, "/api/dashboard", creator, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard failed: %d %s", w.Code, w.Body.String())
	}
	var dash struct {
		CreatedQuests []struct {
			Quest struct {
				Title string `json:"title"`
			} `json:"quest"`
			SubmissionCount int64 `json:"submission_count"`
		} `json:"created_quests"`
	}
	decode(t, w, &dash)
	if len(dash.CreatedQuests) != 1 {
		t.Fatalf("expected 1 quest on dashboard, got %d", len(dash.CreatedQuests))
	}
	if dash.CreatedQuests[0].Quest.Title != "Trail Cleanup" || dash.CreatedQuests[0].SubmissionCount != 1 {
		t.Fatalf("expected Trail Cleanup with 1 submission, got %+v", dash.CreatedQuests[0])
	}
}

func TestDraftVisibility(t *testing.T) {
	app := newTestApp(t)
	creator := app.register(t, "creatorA", "creator")
	stranger := app.register(t, "strangerC", "quester")

	w := app.doJSON(t, http.MethodPost, "/api/quests", creator, gin.H{
		"title": "Secret Draft",
		"tasks": []gin.H{{"title": "t", "prompt": "p"}},
	})
	var quest struct {
		ID string `json:"id"`
	}
	decode(t, w, &quest)

	// Owner sees the draft; guests and other users do not.
	if w := app.do(t, http.MethodGet, "/api/quests/"+quest.ID, creator, nil, ""); w.Code != http.StatusOK {
		t.Fatalf("owner draft view failed: %d", w.Code)
	}
	if w := app.do(t, http.MethodGet, "/api/quests/"+quest.ID, "", nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("guest must not see draft, got %d", w.Code)
	}
	if w := app.do(t, http.MethodGet, "/api/quests/"+quest.ID, stranger, nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("stranger must not see draft, got %d", w.Code)
	}
}

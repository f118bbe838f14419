package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/questsupremacy/questd/internal/api/session"
	"github.com/questsupremacy/questd/internal/core/domain"
	"github.com/questsupremacy/questd/internal/core/service"
	"github.com/questsupremacy/questd/internal/infrastructure/store/file"
)

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	store, err := file.New(file.Config{Path: filepath.Join(t.TempDir(), "quest_data.json")}, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("file.New: %v", err)
	}
	quests := service.NewQuestGenerator(service.DefaultBatchSize)
	return NewRouter(Deps{
		Identity: service.NewIdentityService(store, quests, zerolog.Nop()),
		Profiles: service.NewProfileService(store, quests, zerolog.Nop()),
		Quests:   service.NewQuestService(store, quests, zerolog.Nop()),
		Sessions: session.NewManager("test-secret", time.Hour, false),
		Log:      zerolog.Nop(),
	})
}

func do(t *testing.T, e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestRouter_PlayerJourney(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodPost, "/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"secret1"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d %s", rec.Code, rec.Body)
	}
	registered := decode[map[string]any](t, rec)
	token := registered["token"].(string)
	userID := registered["user"].(map[string]any)["id"]

	rec = do(t, e, http.MethodPost, "/api/auth/register", `{"username":"alice","email":"other@example.com","password":"secret1"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: expected 400, got %d", rec.Code)
	}

	rec = do(t, e, http.MethodGet, "/api/auth/me", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rec.Code)
	}
	if me := decode[map[string]any](t, rec); me["user"].(map[string]any)["id"] != userID {
		t.Fatalf("me returned another account: %+v", me)
	}

	rec = do(t, e, http.MethodGet, "/api/game/daily-quests", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("daily-quests: expected 200, got %d", rec.Code)
	}
	quests := decode[[]domain.Quest](t, rec)
	if len(quests) != service.DefaultBatchSize {
		t.Fatalf("expected %d quests, got %d", service.DefaultBatchSize, len(quests))
	}
	q := quests[0]

	rec = do(t, e, http.MethodPost, "/api/game/complete-quest", `{"quest_id":"`+q.ID+`"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d %s", rec.Code, rec.Body)
	}
	receipt := decode[domain.CompletionReceipt](t, rec)
	if receipt.XPGained != q.XPReward || receipt.Category != q.Category {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	rec = do(t, e, http.MethodPost, "/api/game/complete-quest", `{"questId":"`+q.ID+`"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second completion: expected 400, got %d", rec.Code)
	}
	rec = do(t, e, http.MethodPost, "/api/game/complete-quest", `{"quest_id":"nope"}`, token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown quest: expected 404, got %d", rec.Code)
	}
	rec = do(t, e, http.MethodPost, "/api/game/complete-quest", `{}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing id: expected 400, got %d", rec.Code)
	}

	rec = do(t, e, http.MethodGet, "/api/game/player-stats", "", token)
	stats := decode[map[string]any](t, rec)
	if stats["total_xp"] != float64(q.XPReward) || stats["quests_completed"] != float64(1) {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	rec = do(t, e, http.MethodGet, "/api/game/achievements", "", token)
	if list := decode[[]domain.Achievement](t, rec); len(list) != 1 || list[0].ID != "first_quest" {
		t.Fatalf("unexpected achievements: %+v", list)
	}
}

func TestRouter_LoginFailures(t *testing.T) {
	e := newTestRouter(t)
	do(t, e, http.MethodPost, "/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"secret1"}`, "")

	rec := do(t, e, http.MethodPost, "/api/auth/register", `{"username":"bob","email":"bob@example.com","password":"secret1"}`, "")
	id := decode[map[string]any](t, rec)["user"].(map[string]any)["id"]
	rec = do(t, e, http.MethodPost, "/api/auth/login", `{"username":"bob","password":"secret1"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rec.Code)
	}
	if got := decode[map[string]any](t, rec)["user"].(map[string]any)["id"]; id == nil || got != id {
		t.Fatalf("login returned id %v, registered %v", got, id)
	}

	cases := []struct {
		body string
		want int
	}{
		{`{"username":"alice","password":"secret1"}`, http.StatusOK},
		{`{"username":"alice","password":"wrong-pw"}`, http.StatusUnauthorized},
		{`{"username":"ghost","password":"secret1"}`, http.StatusNotFound},
		{`{"username":"alice"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if rec := do(t, e, http.MethodPost, "/api/auth/login", tc.body, ""); rec.Code != tc.want {
			t.Fatalf("login %s: expected %d, got %d", tc.body, tc.want, rec.Code)
		}
	}
}

func TestRouter_RequiresSession(t *testing.T) {
	e := newTestRouter(t)
	for _, path := range []string{"/api/auth/me", "/api/game/player-stats", "/api/game/daily-quests", "/api/game/achievements"} {
		if rec := do(t, e, http.MethodGet, path, "", ""); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
	if rec := do(t, e, http.MethodPost, "/api/game/complete-quest", `{"quest_id":"x"}`, "bogus"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("complete-quest: expected 401, got %d", rec.Code)
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	e := newTestRouter(t)
	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		if rec := do(t, e, http.MethodGet, path, "", ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
	if rec := do(t, e, http.MethodPost, "/api/auth/logout", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}
}

func TestRouter_StaleSessionIsUnauthorized(t *testing.T) {
	e := newTestRouter(t)
	token, err := session.NewManager("test-secret", time.Hour, false).
		Establish(echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder()), "ghost")
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	for _, r := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/auth/me", ""},
		{http.MethodGet, "/api/game/player-stats", ""},
		{http.MethodGet, "/api/game/daily-quests", ""},
		{http.MethodGet, "/api/game/achievements", ""},
		{http.MethodGet, "/api/game/settings", ""},
		{http.MethodPost, "/api/game/complete-quest", `{"quest_id":"20261017-01"}`},
	} {
		rec := do(t, e, r.method, r.path, r.body, token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d %s", r.method, r.path, rec.Code, rec.Body)
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != session.CookieName || cookies[0].MaxAge >= 0 {
			t.Fatalf("%s: expected the session cookie cleared, got %+v", r.path, cookies)
		}
	}
}

func TestRouter_Settings(t *testing.T) {
	e := newTestRouter(t)
	rec := do(t, e, http.MethodPost, "/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"secret1"}`, "")
	token := decode[map[string]any](t, rec)["token"].(string)

	rec = do(t, e, http.MethodGet, "/api/game/settings", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("settings: expected 200, got %d", rec.Code)
	}
	if got := decode[domain.Settings](t, rec); got != domain.DefaultSettings() {
		t.Fatalf("unexpected defaults: %+v", got)
	}

	rec = do(t, e, http.MethodPut, "/api/game/settings", `{"notifications":false}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update settings: expected 200, got %d %s", rec.Code, rec.Body)
	}
	rec = do(t, e, http.MethodGet, "/api/game/settings", "", token)
	if got := decode[domain.Settings](t, rec); !got.DarkMode || got.Notifications {
		t.Fatalf("update not persisted: %+v", got)
	}

	if rec := do(t, e, http.MethodPut, "/api/game/settings", `{}`, token); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty update: expected 400, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodPut, "/api/game/settings", `{"dark_mode":false}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous update: expected 401, got %d", rec.Code)
	}
}

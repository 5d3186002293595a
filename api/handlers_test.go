package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type authResponse struct {
	User  user   `json:"user"`
	Token string `json:"token"`
}

func doRequest(t *testing.T, h http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", rr.Body.String(), err)
	}
}

func registerTestUser(t *testing.T, h http.Handler, name, email string) authResponse {
	t.Helper()
	rr := doRequest(t, h, http.MethodPost, "/v1/users", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "password123",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", rr.Code, rr.Body.String())
	}
	var resp authResponse
	decodeResponse(t, rr, &resp)
	return resp
}

func TestRegisterLoginAndDuplicateEmail(t *testing.T) {
	app := newTestApplication(t)
	h := composeRoutes(app)

	resp := registerTestUser(t, h, "John Doe", "john@example.com")
	if resp.Token == "" {
		t.Fatal("registration did not return a session token")
	}
	if !resp.User.IsOnline || resp.User.LastLogin == nil {
		t.Error("registration must log the user in")
	}
	if resp.User.IsAdmin {
		t.Error("registered users must not be administrators")
	}

	rr := doRequest(t, h, http.MethodPost, "/v1/users", "", map[string]any{
		"name":     "John Again",
		"email":    "john@example.com",
		"password": "password123",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate registration returned %d, want %d", rr.Code, http.StatusConflict)
	}
	users, err := app.storage.listUsers()
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 {
		t.Fatalf("user count = %d, want 1", len(users))
	}

	rr = doRequest(t, h, http.MethodPost, "/v1/users/auth", "", map[string]any{
		"email":    "john@example.com",
		"password": "wrong-password",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad password login returned %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	rr = doRequest(t, h, http.MethodPost, "/v1/users/auth", "", map[string]any{
		"email":    "john@example.com",
		"password": "password123",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rr.Code, rr.Body.String())
	}
	var login authResponse
	decodeResponse(t, rr, &login)
	if login.Token == "" || !login.User.IsOnline {
		t.Errorf("unexpected login response %+v", login)
	}
}

func TestLogoutMarksUserOffline(t *testing.T) {
	app := newTestApplication(t)
	h := composeRoutes(app)
	resp := registerTestUser(t, h, "John Doe", "john@example.com")

	rr := doRequest(t, h, http.MethodPost, "/v1/users/logout", resp.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout returned %d: %s", rr.Code, rr.Body.String())
	}

	u, err := app.storage.getUserByID(resp.User.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.IsOnline {
		t.Error("logout must mark the user offline")
	}
}

func TestTaskLifecycle(t *testing.T) {
	app := newTestApplication(t)
	h := composeRoutes(app)
	resp := registerTestUser(t, h, "John Doe", "john@example.com")

	rr := doRequest(t, h, http.MethodPost, "/v1/tasks", resp.Token, map[string]any{
		"description": "no title or due date",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid create returned %d, want %d", rr.Code, http.StatusBadRequest)
	}

	rr = doRequest(t, h, http.MethodPost, "/v1/tasks", resp.Token, map[string]any{
		"title":    "Pay rent",
		"due_date": time.Now().Add(12 * time.Hour),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rr.Code, rr.Body.String())
	}
	var created task
	decodeResponse(t, rr, &created)
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Error("create must assign id and created_at")
	}
	if created.Priority != priorityMedium || created.Category != categoryPersonal {
		t.Errorf("defaults not applied: priority=%q category=%q", created.Priority, created.Category)
	}
	if created.Completed || created.ReminderSent {
		t.Error("new tasks must start incomplete and unreminded")
	}
	if created.UserID != resp.User.ID {
		t.Errorf("task owner = %q, want %q", created.UserID, resp.User.ID)
	}

	// An empty patch changes nothing.
	rr = doRequest(t, h, http.MethodPatch, "/v1/tasks/"+created.ID, resp.Token, map[string]any{})
	if rr.Code != http.StatusOK {
		t.Fatalf("empty patch returned %d: %s", rr.Code, rr.Body.String())
	}
	var unchanged task
	decodeResponse(t, rr, &unchanged)
	if unchanged.Title != created.Title || unchanged.Priority != created.Priority || !unchanged.DueDate.Equal(created.DueDate) {
		t.Errorf("empty patch modified the task: %+v != %+v", unchanged, created)
	}

	rr = doRequest(t, h, http.MethodPatch, "/v1/tasks/"+created.ID, resp.Token, map[string]any{
		"completed": true,
		"priority":  "high",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch returned %d: %s", rr.Code, rr.Body.String())
	}
	var updated task
	decodeResponse(t, rr, &updated)
	if !updated.Completed || updated.Priority != priorityHigh {
		t.Errorf("patch not applied: %+v", updated)
	}
	if updated.Title != created.Title {
		t.Error("patch must leave unspecified fields alone")
	}

	rr = doRequest(t, h, http.MethodPatch, "/v1/tasks/"+created.ID, resp.Token, map[string]any{
		"priority": "urgent",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid priority patch returned %d, want %d", rr.Code, http.StatusBadRequest)
	}

	rr = doRequest(t, h, http.MethodDelete, "/v1/tasks/"+created.ID, resp.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete returned %d: %s", rr.Code, rr.Body.String())
	}
	rr = doRequest(t, h, http.MethodGet, "/v1/tasks/"+created.ID, resp.Token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete returned %d, want %d", rr.Code, http.StatusNotFound)
	}
	rr = doRequest(t, h, http.MethodDelete, "/v1/tasks/"+created.ID, resp.Token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("double delete returned %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestReminderSentCannotBeReset(t *testing.T) {
	app := newTestApplication(t)
	h := composeRoutes(app)
	resp := registerTestUser(t, h, "John Doe", "john@example.com")

	rr := doRequest(t, h, http.MethodPost, "/v1/tasks", resp.Token, map[string]any{
		"title":    "Water plants",
		"due_date": time.Now().Add(48 * time.Hour),
	})
	var created task
	decodeResponse(t, rr, &created)

	rr = doRequest(t, h, http.MethodPatch, "/v1/tasks/"+created.ID, resp.Token, map[string]any{
		"reminder_sent": true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("setting reminder_sent returned %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, h, http.MethodPatch, "/v1/tasks/"+created.ID, resp.Token, map[string]any{
		"reminder_sent": false,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("resetting reminder_sent returned %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestTasksAreScopedToOwner(t *testing.T) {
	app := newTestApplication(t)
	h := composeRoutes(app)
	owner := registerTestUser(t, h, "Owner", "owner@example.com")
	other := registerTestUser(t, h, "Other", "other@example.com")

	rr := doRequest(t, h, http.MethodPost, "/v1/tasks", owner.Token, map[string]any{
		"title":    "Private task",
		"due_date": time.Now().Add(time.Hour),
	})
	var created task
	decodeResponse(t, rr, &created)

	rr = doRequest(t, h, http.MethodGet, "/v1/tasks/"+created.ID, other.Token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("cross-user get returned %d, want %d", rr.Code, http.StatusNotFound)
	}
	rr = doRequest(t, h, http.MethodPatch, "/v1/tasks/"+created.ID, other.Token, map[string]any{"completed": true})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("cross-user patch returned %d, want %d", rr.Code, http.StatusNotFound)
	}
	rr = doRequest(t, h, http.MethodDelete, "/v1/tasks/"+created.ID, other.Token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("cross-user delete returned %d, want %d", rr.Code, http.StatusNotFound)
	}

	rr = doRequest(t, h, http.MethodGet, "/v1/tasks", other.Token, nil)
	var tasks []task
	decodeResponse(t, rr, &tasks)
	if len(tasks) != 0 {
		t.Fatalf("another user's listing returned %d tasks, want 0", len(tasks))
	}
}

func TestUpcomingFilterReflectsCompletion(t *testing.T) {
	app := newTestApplication(t)
	h := composeRoutes(app)
	resp := registerTestUser(t, h, "John Doe", "john@example.com")

	rr := doRequest(t, h, http.MethodPost, "/v1/tasks", resp.Token, map[string]any{
		"title":    "Pay rent",
		"due_date": time.Now().Add(12 * time.Hour),
		"priority": "high",
	})
	var created task
	decodeResponse(t, rr, &created)

	rr = doRequest(t, h, http.MethodGet, "/v1/tasks?filter=upcoming", resp.Token, nil)
	var tasks []task
	decodeResponse(t, rr, &tasks)
	if len(tasks) != 1 || tasks[0].ID != created.ID {
		t.Fatalf("upcoming filter returned %+v, want the new task", tasks)
	}

	doRequest(t, h, http.MethodPatch, "/v1/tasks/"+created.ID, resp.Token, map[string]any{"completed": true})

	rr = doRequest(t, h, http.MethodGet, "/v1/tasks?filter=upcoming", resp.Token, nil)
	decodeResponse(t, rr, &tasks)
	if len(tasks) != 0 {
		t.Fatalf("upcoming filter returned %+v after completion, want none", tasks)
	}

	rr = doRequest(t, h, http.MethodGet, "/v1/tasks?filter=bogus", resp.Token, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bogus filter returned %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestNotificationEndpoints(t *testing.T) {
	app := newTestApplication(t)
	h := composeRoutes(app)
	resp := registerTestUser(t, h, "John Doe", "john@example.com")

	rr := doRequest(t, h, http.MethodPost, "/v1/tasks", resp.Token, map[string]any{
		"title":    "Pay rent",
		"due_date": time.Now().Add(12 * time.Hour),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rr.Code, rr.Body.String())
	}

	// Session restore picks up the reminder.
	rr = doRequest(t, h, http.MethodPost, "/v1/notifications/sync", resp.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("sync returned %d: %s", rr.Code, rr.Body.String())
	}
	var state struct {
		Notifications []notification `json:"notifications"`
		Unread        int            `json:"unread"`
	}
	decodeResponse(t, rr, &state)
	if len(state.Notifications) != 1 || state.Unread != 1 {
		t.Fatalf("expected one unread notification, got %+v", state)
	}

	// A second restore must not duplicate it.
	rr = doRequest(t, h, http.MethodPost, "/v1/notifications/sync", resp.Token, nil)
	decodeResponse(t, rr, &state)
	if len(state.Notifications) != 1 {
		t.Fatalf("second sync duplicated the reminder: %+v", state)
	}

	rr = doRequest(t, h, http.MethodPut, fmt.Sprintf("/v1/notifications/%s/read", state.Notifications[0].ID), resp.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("mark read returned %d: %s", rr.Code, rr.Body.String())
	}
	decodeResponse(t, rr, &state)
	if state.Unread != 0 {
		t.Errorf("unread = %d after mark read, want 0", state.Unread)
	}

	rr = doRequest(t, h, http.MethodDelete, "/v1/notifications", resp.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("clear returned %d: %s", rr.Code, rr.Body.String())
	}
	rr = doRequest(t, h, http.MethodGet, "/v1/notifications", resp.Token, nil)
	decodeResponse(t, rr, &state)
	if len(state.Notifications) != 0 {
		t.Errorf("expected no notifications after clear, got %+v", state.Notifications)
	}
}

func TestUserListRequiresAdmin(t *testing.T) {
	app := newTestApplication(t)
	h := composeRoutes(app)
	resp := registerTestUser(t, h, "John Doe", "john@example.com")

	rr := doRequest(t, h, http.MethodGet, "/v1/users", resp.Token, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("non-admin user list returned %d, want %d", rr.Code, http.StatusForbidden)
	}

	hash, err := hashPassword("password123")
	if err != nil {
		t.Fatal(err)
	}
	admin := &user{Name: "Admin", Email: "admin@example.com", PasswordHash: hash, IsAdmin: true}
	if err := app.storage.createUser(admin); err != nil {
		t.Fatal(err)
	}
	rr = doRequest(t, h, http.MethodPost, "/v1/users/auth", "", map[string]any{
		"email":    "admin@example.com",
		"password": "password123",
	})
	var adminResp authResponse
	decodeResponse(t, rr, &adminResp)

	rr = doRequest(t, h, http.MethodGet, "/v1/users", adminResp.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin user list returned %d: %s", rr.Code, rr.Body.String())
	}
	var users []user
	decodeResponse(t, rr, &users)
	if len(users) != 2 {
		t.Errorf("user list returned %d users, want 2", len(users))
	}
}

func TestRequireAuthRejectsBadTokens(t *testing.T) {
	app := newTestApplication(t)
	h := composeRoutes(app)

	rr := doRequest(t, h, http.MethodGet, "/v1/tasks", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing token returned %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	rr = doRequest(t, h, http.MethodGet, "/v1/tasks", "not-a-token", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token returned %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestProfileUpdate(t *testing.T) {
	app := newTestApplication(t)
	h := composeRoutes(app)
	resp := registerTestUser(t, h, "John Doe", "john@example.com")

	rr := doRequest(t, h, http.MethodPut, "/v1/users/me", resp.Token, map[string]any{
		"name":   "John Updated",
		"avatar": "https://example.com/avatar.png",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("profile update returned %d: %s", rr.Code, rr.Body.String())
	}
	var updated user
	decodeResponse(t, rr, &updated)
	if updated.Name != "John Updated" || updated.Avatar != "https://example.com/avatar.png" {
		t.Errorf("profile not updated: %+v", updated)
	}
	if updated.Email != "john@example.com" {
		t.Error("unspecified profile fields must keep prior values")
	}

	rr = doRequest(t, h, http.MethodPut, "/v1/users/me", resp.Token, map[string]any{
		"password": "short",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("weak password update returned %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

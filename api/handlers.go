package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"
)

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	healthCheck := struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
		Version     string `json:"version"`
	}{
		Status:      "available",
		Environment: app.config.env,
		Version:     version,
	}
	writeJSON(w, http.StatusOK, healthCheck)
}

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	v := newValidator()
	v.checkCond(input.Name != "", "name", "must be provided")
	v.checkCond(len(input.Name) <= 255, "name", "must be atmost 255 characters")
	v.checkEmail(input.Email)
	v.checkPassword(input.Password)
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	// Registration logs the user in immediately.
	now := time.Now()
	u := &user{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		IsOnline:     true,
		LastLogin:    &now,
		Avatar:       fmt.Sprintf("https://randomuser.me/api/portraits/men/%d.jpg", rand.Intn(50)),
	}
	err = app.storage.createUser(u)
	if err != nil {
		switch {
		case errors.Is(err, errDuplicateEmail):
			writeError(w, err, http.StatusConflict)
		default:
			log.Println(err)
			writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		}
		return
	}

	token, err := app.createSessionToken(u)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	if err := app.generateReminders(u); err != nil {
		log.Println(err)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":  u,
		"token": token,
	})
}

func (app *application) authenticateUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	v := newValidator()
	v.checkEmail(input.Email)
	v.checkCond(input.Password != "", "password", "must be provided")
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	u, err := app.verifyCredentials(input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidCredentials):
			writeError(w, err, http.StatusUnauthorized)
		default:
			log.Println(err)
			writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		}
		return
	}

	now := time.Now()
	u.IsOnline = true
	u.LastLogin = &now
	if err := app.storage.updateUser(u); err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	token, err := app.createSessionToken(u)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	if err := app.generateReminders(u); err != nil {
		log.Println(err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":  u,
		"token": token,
	})
}

func (app *application) logoutUserHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	u.IsOnline = false
	if err := app.storage.updateUser(u); err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	// Session notifications do not outlive the session.
	app.notifications.clear(u.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (app *application) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, getUserFromRequest(r))
}

func (app *application) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	var input struct {
		Name     *string `json:"name"`
		Password *string `json:"password"`
		Avatar   *string `json:"avatar"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	v := newValidator()
	if input.Name != nil {
		v.checkCond(*input.Name != "", "name", "must be provided")
		v.checkCond(len(*input.Name) <= 255, "name", "must be atmost 255 characters")
	}
	if input.Password != nil {
		v.checkPassword(*input.Password)
	}
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	if input.Name != nil {
		u.Name = *input.Name
	}
	if input.Avatar != nil {
		u.Avatar = *input.Avatar
	}
	if input.Password != nil {
		hash, err := hashPassword(*input.Password)
		if err != nil {
			log.Println(err)
			writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
			return
		}
		u.PasswordHash = hash
	}

	if err := app.storage.updateUser(u); err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (app *application) getUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := app.storage.listUsers()
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (app *application) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	var input struct {
		Title       string       `json:"title"`
		Description string       `json:"description"`
		DueDate     time.Time    `json:"due_date"`
		Priority    taskPriority `json:"priority"`
		Category    taskCategory `json:"category"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	if input.Priority == "" {
		input.Priority = priorityMedium
	}
	if input.Category == "" {
		input.Category = categoryPersonal
	}

	v := newValidator()
	v.checkTitle(input.Title)
	v.checkCond(!input.DueDate.IsZero(), "due_date", "must be provided")
	v.checkPriority(input.Priority)
	v.checkCategory(input.Category)
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	t := &task{
		UserID:      u.ID,
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    input.Priority,
		Category:    input.Category,
	}
	if err := app.storage.createTask(t); err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (app *application) getTasksHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	params, err := parseViewParams(r.URL.Query())
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	tasks, err := app.storage.listTasks(u.ID)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, applyView(tasks, params, time.Now()))
}

func (app *application) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	t, err := app.storage.getTask(u.ID, r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, errNotFound):
			writeError(w, err, http.StatusNotFound)
		default:
			log.Println(err)
			writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (app *application) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	var patch taskPatch
	err := json.NewDecoder(r.Body).Decode(&patch)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	v := newValidator()
	if patch.Title != nil {
		v.checkTitle(*patch.Title)
	}
	if patch.DueDate != nil {
		v.checkCond(!patch.DueDate.IsZero(), "due_date", "must be a valid timestamp")
	}
	if patch.Priority != nil {
		v.checkPriority(*patch.Priority)
	}
	if patch.Category != nil {
		v.checkCategory(*patch.Category)
	}
	// reminder_sent only ever moves forward; a reminder cannot be un-sent.
	if patch.ReminderSent != nil {
		v.checkCond(*patch.ReminderSent, "reminder_sent", "cannot be reset")
	}
	if v.hasErrors() {
		writeError(w, v.toError(), http.StatusBadRequest)
		return
	}

	t, err := app.storage.updateTask(u.ID, r.PathValue("id"), patch)
	if err != nil {
		switch {
		case errors.Is(err, errNotFound):
			writeError(w, err, http.StatusNotFound)
		default:
			log.Println(err)
			writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (app *application) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	err := app.storage.deleteTask(u.ID, r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, errNotFound):
			writeError(w, err, http.StatusNotFound)
		default:
			log.Println(err)
			writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
}

func (app *application) syncNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	if err := app.generateReminders(u); err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	app.writeNotifications(w, u)
}

func (app *application) getNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	app.writeNotifications(w, getUserFromRequest(r))
}

func (app *application) markNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	if !app.notifications.markRead(u.ID, r.PathValue("id")) {
		writeError(w, errNotFound, http.StatusNotFound)
		return
	}
	app.writeNotifications(w, u)
}

func (app *application) clearNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	app.notifications.clear(u.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "notifications cleared"})
}

func (app *application) writeNotifications(w http.ResponseWriter, u *user) {
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": app.notifications.list(u.ID),
		"unread":        app.notifications.unreadCount(u.ID),
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func composeJSONError(err error) string {
	jsonError := map[string]string{
		"error": err.Error(),
	}
	result, err := json.Marshal(jsonError)
	if err != nil {
		log.Println(err)
		return ""
	}
	return string(result)
}

func writeError(w http.ResponseWriter, err error, statusCode int) {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	fmt.Fprintln(w, composeJSONError(err))
}

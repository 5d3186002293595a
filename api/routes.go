package main

import (
	"net/http"
)

func composeRoutes(app *application) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/healthcheck", app.healthCheckHandler)

	mux.HandleFunc("POST /v1/users", app.registerUserHandler)
	mux.HandleFunc("POST /v1/users/auth", app.authenticateUserHandler)
	mux.HandleFunc("POST /v1/users/logout", app.requireAuth(app.logoutUserHandler))
	mux.HandleFunc("GET /v1/users/me", app.requireAuth(app.getProfileHandler))
	mux.HandleFunc("PUT /v1/users/me", app.requireAuth(app.updateProfileHandler))
	mux.HandleFunc("GET /v1/users", app.requireAuth(requireAdmin(app.getUsersHandler)))

	mux.HandleFunc("POST /v1/tasks", app.requireAuth(app.createTaskHandler))
	mux.HandleFunc("GET /v1/tasks", app.requireAuth(app.getTasksHandler))
	mux.HandleFunc("GET /v1/tasks/{id}", app.requireAuth(app.getTaskHandler))
	mux.HandleFunc("PATCH /v1/tasks/{id}", app.requireAuth(app.updateTaskHandler))
	mux.HandleFunc("DELETE /v1/tasks/{id}", app.requireAuth(app.deleteTaskHandler))

	mux.HandleFunc("POST /v1/notifications/sync", app.requireAuth(app.syncNotificationsHandler))
	mux.HandleFunc("GET /v1/notifications", app.requireAuth(app.getNotificationsHandler))
	mux.HandleFunc("PUT /v1/notifications/{id}/read", app.requireAuth(app.markNotificationReadHandler))
	mux.HandleFunc("DELETE /v1/notifications", app.requireAuth(app.clearNotificationsHandler))

	var handler http.Handler = mux
	if len(app.config.cors.trustedOrigins) > 0 {
		handler = app.enableCORS(handler)
	}
	if app.config.limiter.enabled {
		handler = app.rateLimit(handler)
	}
	return handler
}

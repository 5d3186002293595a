package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// notificationCenter holds each user's session notifications in memory.
// Nothing here survives a restart; durability comes from the reminder_sent
// flag on the task itself.
type notificationCenter struct {
	mu      sync.Mutex
	entries map[string][]notification
}

func newNotificationCenter() *notificationCenter {
	return &notificationCenter{
		entries: make(map[string][]notification),
	}
}

func (c *notificationCenter) add(userID string, n notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Newest first, matching how reminders are surfaced to the user.
	c.entries[userID] = append([]notification{n}, c.entries[userID]...)
}

func (c *notificationCenter) list(userID string) []notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(make([]notification, 0, len(c.entries[userID])), c.entries[userID]...)
}

func (c *notificationCenter) unreadCount(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, n := range c.entries[userID] {
		if !n.Read {
			count++
		}
	}
	return count
}

func (c *notificationCenter) markRead(userID, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.entries[userID] {
		if n.ID == id {
			c.entries[userID][i].Read = true
			return true
		}
	}
	return false
}

func (c *notificationCenter) clear(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// generateReminders runs once per session establishment (login, registration
// or an explicit sync after a client reload). Each qualifying task gets
// exactly one reminder, ever: reminder_sent is flipped in the store before
// the notification is emitted, so a task that was already reminded is never
// picked up again, no matter how many sessions follow.
func (app *application) generateReminders(u *user) error {
	tasks, err := app.storage.listTasks(u.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, t := range tasks {
		if t.ReminderSent || !isUpcoming(t, now) {
			continue
		}

		sent := true
		if _, err := app.storage.updateTask(u.ID, t.ID, taskPatch{ReminderSent: &sent}); err != nil {
			log.Println(err)
			continue
		}

		app.notifications.add(u.ID, notification{
			ID:      uuid.NewString(),
			Title:   "Upcoming Task",
			Message: fmt.Sprintf("%q is due soon", t.Title),
			Time:    now,
			Type:    "reminder",
			TaskID:  t.ID,
		})

		if app.mailer != nil {
			go func(u user, t task) {
				if err := app.mailer.sendTaskReminder(&u, t); err != nil {
					log.Println(err)
				}
			}(*u, t)
		}
	}
	return nil
}

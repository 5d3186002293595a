package main

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// upcomingWindow bounds how far ahead a task may be due and still count as
// upcoming (and qualify for a reminder).
const upcomingWindow = 24 * time.Hour

type taskFilter string

const (
	filterAll       taskFilter = "all"
	filterActive    taskFilter = "active"
	filterCompleted taskFilter = "completed"
	filterOverdue   taskFilter = "overdue"
	filterUpcoming  taskFilter = "upcoming"
)

type taskSort string

const (
	sortByDueDate  taskSort = "due_date"
	sortByTitle    taskSort = "title"
	sortByPriority taskSort = "priority"
)

type sortOrder string

const (
	orderAsc  sortOrder = "asc"
	orderDesc sortOrder = "desc"
)

type viewParams struct {
	filter taskFilter
	search string
	sort   taskSort
	order  sortOrder
}

func parseViewParams(q url.Values) (viewParams, error) {
	p := viewParams{
		filter: filterAll,
		search: q.Get("search"),
		sort:   sortByDueDate,
		order:  orderAsc,
	}
	if v := q.Get("filter"); v != "" {
		switch f := taskFilter(v); f {
		case filterAll, filterActive, filterCompleted, filterOverdue, filterUpcoming:
			p.filter = f
		default:
			return p, fmt.Errorf("unknown filter %q", v)
		}
	}
	if v := q.Get("sort"); v != "" {
		switch s := taskSort(v); s {
		case sortByDueDate, sortByTitle, sortByPriority:
			p.sort = s
		default:
			return p, fmt.Errorf("unknown sort key %q", v)
		}
	}
	if v := q.Get("order"); v != "" {
		switch o := sortOrder(v); o {
		case orderAsc, orderDesc:
			p.order = o
		default:
			return p, fmt.Errorf("unknown sort order %q", v)
		}
	}
	return p, nil
}

func isOverdue(t task, now time.Time) bool {
	return !t.Completed && t.DueDate.Before(now)
}

func isUpcoming(t task, now time.Time) bool {
	if t.Completed || t.DueDate.Before(now) {
		return false
	}
	return !t.DueDate.After(now.Add(upcomingWindow))
}

// applyView derives a presentation-ready list from tasks: filter, then
// case-insensitive search over title and description, then sort. The input
// slice is never modified.
func applyView(tasks []task, p viewParams, now time.Time) []task {
	result := make([]task, 0, len(tasks))

	for _, t := range tasks {
		switch p.filter {
		case filterActive:
			if t.Completed {
				continue
			}
		case filterCompleted:
			if !t.Completed {
				continue
			}
		case filterOverdue:
			if !isOverdue(t, now) {
				continue
			}
		case filterUpcoming:
			if !isUpcoming(t, now) {
				continue
			}
		}
		result = append(result, t)
	}

	if p.search != "" {
		term := strings.ToLower(p.search)
		matched := result[:0]
		for _, t := range result {
			if strings.Contains(strings.ToLower(t.Title), term) ||
				strings.Contains(strings.ToLower(t.Description), term) {
				matched = append(matched, t)
			}
		}
		result = matched
	}

	sort.Slice(result, func(i, j int) bool {
		c := compareTasks(result[i], result[j], p.sort)
		if p.order == orderDesc {
			return c > 0
		}
		return c < 0
	})

	return result
}

func compareTasks(a, b task, key taskSort) int {
	switch key {
	case sortByTitle:
		return strings.Compare(a.Title, b.Title)
	case sortByPriority:
		return a.Priority.ordinal() - b.Priority.ordinal()
	default:
		switch {
		case a.DueDate.Before(b.DueDate):
			return -1
		case a.DueDate.After(b.DueDate):
			return 1
		}
		return 0
	}
}

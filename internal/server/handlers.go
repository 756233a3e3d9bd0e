package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/packmate/internal/calendar"
	"github.com/stellarlinkco/packmate/internal/model"
	"github.com/stellarlinkco/packmate/internal/planner"
	"github.com/stellarlinkco/packmate/internal/suggest"
)

const (
	dateLayout    = "2006-01-02"
	maxImportSize = 1 << 20 // 1MB
)

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

// failFor maps domain errors onto HTTP status codes.
func failFor(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		fail(c, http.StatusNotFound, err)
	case errors.Is(err, model.ErrListCompleted):
		fail(c, http.StatusConflict, err)
	case errors.Is(err, model.ErrUnparseable):
		fail(c, http.StatusUnprocessableEntity, err)
	case errors.Is(err, model.ErrEmptyTitle),
		errors.Is(err, model.ErrEmptyUtterance),
		errors.Is(err, model.ErrUnknownItem),
		errors.Is(err, planner.ErrNoEvents),
		errors.Is(err, planner.ErrNoItems),
		errors.Is(err, planner.ErrNoName):
		fail(c, http.StatusBadRequest, err)
	default:
		fail(c, http.StatusInternalServerError, err)
	}
}

// parseDate accepts a calendar day or an RFC 3339 timestamp. Days are placed
// in the planner clock's location.
func (s *Server) parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return s.planner.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, s.planner.Now().Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", v)
	}
	return t, nil
}

type eventRequest struct {
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Items   []string `json:"items"`
	Details string   `json:"details"`
}

func (s *Server) bindEvent(c *gin.Context) (model.Event, bool) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return model.Event{}, false
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return model.Event{}, false
	}
	return model.Event{Title: req.Title, Date: date, Items: req.Items, Details: req.Details}, true
}

// Events

func (s *Server) handleListEvents(c *gin.Context) {
	var events []model.Event
	switch c.Query("filter") {
	case "", "all":
		events = s.planner.SearchEvents(c.Query("q"))
	case "today":
		events = s.planner.TodaysEvents()
	case "upcoming":
		limit := planner.DefaultUpcomingLimit
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				fail(c, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
				return
			}
			limit = n
		}
		events = s.planner.UpcomingEvents(limit)
	case "overdue":
		events = s.planner.OverdueEvents()
	case "completed":
		events = s.planner.CompletedEvents()
	default:
		fail(c, http.StatusBadRequest, fmt.Errorf("unknown filter %q", c.Query("filter")))
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": events, "count": len(events)})
}

func (s *Server) handleCreateEvent(c *gin.Context) {
	e, good := s.bindEvent(c)
	if !good {
		return
	}
	created, err := s.planner.AddEvent(c.Request.Context(), e)
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusCreated, created)
}

func (s *Server) handleGetEvent(c *gin.Context) {
	e, err := s.planner.Event(c.Param("id"))
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusOK, e)
}

func (s *Server) handleUpdateEvent(c *gin.Context) {
	e, good := s.bindEvent(c)
	if !good {
		return
	}
	e.ID = c.Param("id")
	updated, err := s.planner.UpdateEvent(c.Request.Context(), e)
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusOK, updated)
}

func (s *Server) handleDeleteEvent(c *gin.Context) {
	if err := s.planner.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		failFor(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleCompleteEvent(c *gin.Context) {
	req := struct {
		Completed *bool `json:"completed"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, err)
		return
	}
	done := req.Completed == nil || *req.Completed
	e, err := s.planner.SetEventCompleted(c.Request.Context(), c.Param("id"), done)
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusOK, e)
}

func (s *Server) handleEventStatus(c *gin.Context) {
	status, err := s.planner.EventStatus(c.Param("id"))
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"status": status})
}

func (s *Server) handleStats(c *gin.Context) {
	stats := s.planner.Statistics()
	ok(c, http.StatusOK, gin.H{
		"total":          stats.Total,
		"today":          stats.Today,
		"upcoming":       stats.Upcoming,
		"completed":      stats.Completed,
		"completionRate": stats.CompletionRate(),
	})
}

// Inventory

func (s *Server) handleListInventory(c *gin.Context) {
	items := s.planner.Inventory()
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items, "count": len(items)})
}

func (s *Server) handleAddInventory(c *gin.Context) {
	req := struct {
		Items []string `json:"items"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if len(req.Items) == 0 {
		fail(c, http.StatusBadRequest, planner.ErrNoName)
		return
	}
	added, err := s.planner.AddItems(c.Request.Context(), req.Items)
	if err != nil {
		failFor(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "added": added, "data": s.planner.Inventory()})
}

func (s *Server) handleRemoveInventory(c *gin.Context) {
	removed, err := s.planner.RemoveItem(c.Request.Context(), c.Param("item"))
	if err != nil {
		failFor(c, err)
		return
	}
	if !removed {
		fail(c, http.StatusNotFound, fmt.Errorf("item %q: %w", c.Param("item"), model.ErrNotFound))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleClearInventory(c *gin.Context) {
	if err := s.planner.ClearInventory(c.Request.Context()); err != nil {
		failFor(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Shopping lists

func (s *Server) handleListLists(c *gin.Context) {
	var lists []model.ShoppingList
	switch c.DefaultQuery("state", "active") {
	case "active":
		lists = s.planner.ActiveShoppingLists()
	case "completed":
		lists = s.planner.CompletedShoppingLists()
	default:
		fail(c, http.StatusBadRequest, fmt.Errorf("unknown state %q", c.Query("state")))
		return
	}
	if lists == nil {
		lists = []model.ShoppingList{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": lists, "count": len(lists)})
}

func (s *Server) handleCreateList(c *gin.Context) {
	req := struct {
		EventIDs []string `json:"eventIds"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	list, err := s.planner.CreateShoppingList(c.Request.Context(), req.EventIDs)
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusCreated, list)
}

func (s *Server) handleGetList(c *gin.Context) {
	list, err := s.planner.ShoppingList(c.Param("id"))
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

func (s *Server) handleDeleteList(c *gin.Context) {
	if err := s.planner.DeleteShoppingList(c.Request.Context(), c.Param("id")); err != nil {
		failFor(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type itemRequest struct {
	Item string `json:"item"`
}

func (s *Server) handleCheckItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	list, err := s.planner.CheckItem(c.Request.Context(), c.Param("id"), req.Item)
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

func (s *Server) handleUncheckItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	list, err := s.planner.UncheckItem(c.Request.Context(), c.Param("id"), req.Item)
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

func (s *Server) handleCompleteList(c *gin.Context) {
	list, err := s.planner.CompleteShoppingList(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

// Parsing, suggestions and calendar

func (s *Server) handleParse(c *gin.Context) {
	req := struct {
		Utterance string `json:"utterance"`
		Save      bool   `json:"save"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	draft, source, err := s.parser.Parse(c.Request.Context(), req.Utterance)
	if err != nil {
		failFor(c, err)
		return
	}
	resp := gin.H{"success": true, "data": draft, "source": source}
	if req.Save {
		e, err := s.planner.AddEvent(c.Request.Context(), draft.ToEvent())
		if err != nil {
			failFor(c, err)
			return
		}
		resp["event"] = e
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSuggestions(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	date, err := s.parseDate(c.Query("date"))
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	items := []string{}
	if len([]rune(title)) >= suggest.MinTitleLength {
		if got := s.suggest.SuggestAll(c.Request.Context(), title, date); got != nil {
			items = got
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "title": title, "data": items, "count": len(items)})
}

func (s *Server) handleExportCalendar(c *gin.Context) {
	body := calendar.Export(s.planner.Events(), s.planner.Now())
	c.Header("Content-Disposition", `attachment; filename="packmate.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func (s *Server) handleImportCalendar(c *gin.Context) {
	res, err := calendar.Import(io.LimitReader(c.Request.Body, maxImportSize), calendar.ImportOptions{
		Now:      s.planner.Now(),
		Location: s.planner.Now().Location(),
	})
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	added, err := s.planner.ImportDrafts(c.Request.Context(), res.Drafts)
	if err != nil {
		failFor(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"added":   added,
		"drafts":  len(res.Drafts),
		"skipped": res.Skipped,
	})
}

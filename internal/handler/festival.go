package handler

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/westfest/internal/countdown"
	"github.com/iliyamo/westfest/internal/model"
	"github.com/iliyamo/westfest/internal/schedule"
)

// Festival is the static description of the event shared by the programme
// endpoints and the home screen.
type Festival struct {
	Name     string
	Target   time.Time
	Location *time.Location
	Schedule schedule.Schedule
	Clock    clockwork.Clock
	Interval time.Duration
}

func (f Festival) now() time.Time {
	if f.Clock == nil {
		return time.Now().In(f.Location)
	}
	return f.Clock.Now().In(f.Location)
}

// FestivalHandler serves the countdown and the programme.
type FestivalHandler struct {
	Festival Festival
}

func NewFestivalHandler(f Festival) *FestivalHandler { return &FestivalHandler{Festival: f} }

type dayResp struct {
	Day    string        `json:"day"`
	Events []model.Event `json:"events"`
}

type scheduleResp struct {
	Name     string    `json:"name"`
	Start    time.Time `json:"start"`
	Timezone string    `json:"timezone"`
	Days     []dayResp `json:"days"`
}

// Countdown returns the home screen frame for the current instant.
func (h *FestivalHandler) Countdown(c echo.Context) error {
	f := h.Festival
	return c.JSON(http.StatusOK, countdown.Snapshot(f.Target, f.Schedule, f.now()))
}

// Schedule returns the whole programme, starting on the opening day.
func (h *FestivalHandler) Schedule(c echo.Context) error {
	f := h.Festival
	resp := scheduleResp{Name: f.Name, Start: f.Target, Timezone: f.Location.String()}
	for _, key := range schedule.Days(f.Schedule, f.Target.Weekday()) {
		d, _ := schedule.ParseDay(key)
		resp.Days = append(resp.Days, dayResp{Day: key, Events: schedule.Day(f.Schedule, d)})
	}
	return c.JSON(http.StatusOK, resp)
}

// Day returns one day's events. Unscheduled days have no events.
func (h *FestivalHandler) Day(c echo.Context) error {
	d, err := schedule.ParseDay(c.Param("day"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown day"})
	}
	return c.JSON(http.StatusOK, dayResp{Day: schedule.DayKey(d), Events: schedule.Day(h.Festival.Schedule, d)})
}

// Calendar exports the programme as an iCalendar feed.
func (h *FestivalHandler) Calendar(c echo.Context) error {
	f := h.Festival
	body := schedule.Calendar(f.Schedule, f.Target, f.Location, f.Name)
	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="westfest.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// HTMXResponse collects the status, HX-Trigger events and HTML body of a
// partial response and writes them in one go.
type HTMXResponse struct {
	status int
	events map[string]any
	header http.Header
	body   []byte
}

// NewHTMXResponse starts a 200 response with no events.
func NewHTMXResponse() *HTMXResponse {
	return &HTMXResponse{
		status: http.StatusOK,
		events: map[string]any{},
		header: http.Header{},
	}
}

func (b *HTMXResponse) Status(code int) *HTMXResponse {
	b.status = code
	return b
}

// Trigger queues a client event. A later call with the same name replaces
// the detail.
func (b *HTMXResponse) Trigger(event string, detail any) *HTMXResponse {
	b.events[event] = detail
	return b
}

// TriggerReadingsRefreshed tells the page which view was refreshed and how
// many endpoints were dropped. view is empty for a full refresh.
func (b *HTMXResponse) TriggerReadingsRefreshed(view string, paths int) *HTMXResponse {
	return b.Trigger("readings:refreshed", map[string]any{"view": view, "paths": paths})
}

// NotificationType selects the toast style in app.js.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Notify queues a show-notification toast. Errors stay on screen longer.
func (b *HTMXResponse) Notify(kind NotificationType, message string) *HTMXResponse {
	duration := 3000
	if kind == NotificationError {
		duration = 5000
	}
	return b.Trigger("show-notification", map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": duration,
	})
}

func (b *HTMXResponse) Header(name, value string) *HTMXResponse {
	b.header.Set(name, value)
	return b
}

// HTML sets an HTML body.
func (b *HTMXResponse) HTML(body string) *HTMXResponse {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = []byte(body)
	return b
}

// Write sends the response. Events that fail to encode are dropped.
func (b *HTMXResponse) Write(w http.ResponseWriter) {
	for name, values := range b.header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	if len(b.events) > 0 {
		if events, err := json.Marshal(b.events); err == nil {
			w.Header().Set("HX-Trigger", string(events))
		}
	}
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse renders the error block shown in place of a view or table.
// The message is escaped. HX-Reswap marks the body for app.js, which swaps
// it into the target despite the error status.
func ErrorResponse(status int, message string) *HTMXResponse {
	return NewHTMXResponse().
		Status(status).
		Header("HX-Reswap", errorSwap).
		HTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

const errorSwap = "innerHTML"

func BadRequestError(message string) *HTMXResponse {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *HTMXResponse {
	return ErrorResponse(http.StatusNotFound, message)
}

// BadGatewayError is used when the metering API fails.
func BadGatewayError(message string) *HTMXResponse {
	return ErrorResponse(http.StatusBadGateway, message)
}

func InternalServerError(message string) *HTMXResponse {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// MethodNotAllowedError is a bodiless 405 carrying the Allow header.
func MethodNotAllowedError(allowed string) *HTMXResponse {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowed)
}

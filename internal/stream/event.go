package stream

import (
	"bytes"
	"encoding/json"

	"github.com/jackzampolin/wikitutor/internal/explain"
)

// EventType discriminates stream records.
type EventType string

const (
	EventStatus  EventType = "status"
	EventInitial EventType = "initial"
	EventSection EventType = "section"
	EventError   EventType = "error"
)

// Event is one newline-delimited record of an explain stream. Status and
// error events carry Message; initial and section events carry Data.
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
	Data    any       `json:"data"`
}

type messageRecord struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
}

type dataRecord struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// MarshalJSON writes the record shape for the event's type: status and
// error records always have a message, the others always have data.
func (e Event) MarshalJSON() ([]byte, error) {
	var record any = dataRecord{Type: e.Type, Data: e.Data}
	if e.Type == EventStatus || e.Type == EventError {
		record = messageRecord{Type: e.Type, Message: e.Message}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// InitialData announces the page and how many sections will follow.
type InitialData struct {
	PageTitle     string  `json:"pageTitle"`
	MainImageURL  *string `json:"mainImageUrl"`
	OriginalURL   string  `json:"originalUrl"`
	TotalSections int     `json:"totalSections"`
}

// SectionData carries one explained section. CurrentIndex is 1-based.
type SectionData struct {
	SectionTitle    string         `json:"sectionTitle"`
	PedagogicalData explain.Result `json:"pedagogicalData"`
	CurrentIndex    int            `json:"currentIndex"`
	TotalSections   int            `json:"totalSections"`
}

func StatusEvent(message string) Event {
	return Event{Type: EventStatus, Message: message}
}

func InitialEvent(data InitialData) Event {
	return Event{Type: EventInitial, Data: data}
}

func SectionEvent(data SectionData) Event {
	return Event{Type: EventSection, Data: data}
}

func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}

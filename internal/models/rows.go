package models

import "strings"

// RowWidth is the number of columns every row occupies in the sheet (A:F).
const RowWidth = 6

type Kind string

const (
	KindWaitlist Kind = "waitlist"
	KindEvent    Kind = "event"
)

// Row is the wire layout: [timestamp, kind, c3, c4, c5, c6]. The meaning of
// c3..c6 depends on the kind; only Encode and DecodeRow know the offsets.
type Row [RowWidth]string

// Record is a typed row. WaitlistEntry and InteractionEvent are the only
// implementations.
type Record interface {
	Kind() Kind
	Row() Row
}

type WaitlistEntry struct {
	Timestamp string `json:"timestamp"`
	Email     string `json:"email"`
	Project   string `json:"project"`
	Username  string `json:"username"`
	Referrer  string `json:"referrer"`
}

func (WaitlistEntry) Kind() Kind { return KindWaitlist }

func (e WaitlistEntry) Row() Row {
	return Row{e.Timestamp, string(KindWaitlist), e.Email, e.Project, e.Username, e.Referrer}
}

type InteractionEvent struct {
	Timestamp string `json:"timestamp"`
	EventName string `json:"eventName"`
	Page      string `json:"page"`
	Metadata  string `json:"metadata"`
}

func (InteractionEvent) Kind() Kind { return KindEvent }

// Row leaves the sixth column empty.
func (e InteractionEvent) Row() Row {
	return Row{e.Timestamp, string(KindEvent), e.EventName, e.Page, e.Metadata, ""}
}

type AnalyticsSnapshot struct {
	Waitlist []WaitlistEntry    `json:"waitlist"`
	Events   []InteractionEvent `json:"events"`
	Mock     bool               `json:"mock"`
}

// EmptySnapshot is returned when no backing store could be read.
func EmptySnapshot() AnalyticsSnapshot {
	return AnalyticsSnapshot{
		Waitlist: []WaitlistEntry{},
		Events:   []InteractionEvent{},
		Mock:     true,
	}
}

func Encode(r Record) Row {
	return r.Row()
}

// NormalizeRow pads short rows with empty strings and drops columns past F.
func NormalizeRow(cells []string) Row {
	var row Row
	copy(row[:], cells)
	return row
}

// DecodeRow returns false for rows whose kind is not recognised.
func DecodeRow(row Row) (Record, bool) {
	switch Kind(strings.TrimSpace(row[1])) {
	case KindWaitlist:
		return WaitlistEntry{
			Timestamp: row[0],
			Email:     row[2],
			Project:   row[3],
			Username:  row[4],
			Referrer:  row[5],
		}, true
	case KindEvent:
		return InteractionEvent{
			Timestamp: row[0],
			EventName: row[2],
			Page:      row[3],
			Metadata:  row[4],
		}, true
	default:
		return nil, false
	}
}

func Decode(rows []Row) AnalyticsSnapshot {
	snapshot := AnalyticsSnapshot{
		Waitlist: []WaitlistEntry{},
		Events:   []InteractionEvent{},
	}

	for _, row := range rows {
		record, ok := DecodeRow(row)
		if !ok {
			continue
		}

		switch r := record.(type) {
		case WaitlistEntry:
			snapshot.Waitlist = append(snapshot.Waitlist, r)
		case InteractionEvent:
			snapshot.Events = append(snapshot.Events, r)
		}
	}

	return snapshot
}

// DecodeCells is Decode for raw, possibly ragged, cell lists.
func DecodeCells(cells [][]string) AnalyticsSnapshot {
	rows := make([]Row, 0, len(cells))
	for _, c := range cells {
		rows = append(rows, NormalizeRow(c))
	}
	return Decode(rows)
}

// CountKind counts rows of the given kind without decoding them.
func CountKind(rows []Row, kind Kind) int {
	n := 0
	for _, row := range rows {
		if Kind(strings.TrimSpace(row[1])) == kind {
			n++
		}
	}
	return n
}

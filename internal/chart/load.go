package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/tidwall/gjson"

	"github.com/cbegin/phiview-go/internal/logging"
)

var (
	// ErrNoChart is returned when a document cannot be parsed into a chart.
	ErrNoChart = errors.New("no chart")
	// ErrUnsupportedVersion is returned for documents with formatVersion < 1.
	ErrUnsupportedVersion = errors.New("unsupported chart format version")
)

const (
	// Reference playfield used by format version 1 packed move values.
	legacyRefX = 440
	legacyRefY = 260

	defaultEventStart = -999999
	defaultEventEnd   = 1e9
)

type document struct {
	FormatVersion int       `json:"formatVersion"`
	Offset        float64   `json:"offset"`
	NumOfNotes    int       `json:"numOfNotes"`
	JudgeLineList []lineDoc `json:"judgeLineList"`
}

type lineDoc struct {
	BPM                      float64    `json:"bpm"`
	SpeedEvents              []speedDoc `json:"speedEvents"`
	JudgeLineMoveEvents      []pairDoc  `json:"judgeLineMoveEvents"`
	JudgeLineRotateEvents    []pairDoc  `json:"judgeLineRotateEvents"`
	JudgeLineDisappearEvents []pairDoc  `json:"judgeLineDisappearEvents"`
	NotesAbove               []noteDoc  `json:"notesAbove"`
	NotesBelow               []noteDoc  `json:"notesBelow"`
}

type speedDoc struct {
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Value     float64 `json:"value"`
}

type pairDoc struct {
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Start2    float64 `json:"start2"`
	End2      float64 `json:"end2"`
}

type noteDoc struct {
	Type      int     `json:"type"`
	Time      float64 `json:"time"`
	PositionX float64 `json:"positionX"`
	Speed     float64 `json:"speed"`
	HoldTime  float64 `json:"holdTime"`
}

// Load reads a whole chart document from r and parses it.
func Load(r io.Reader) (*Chart, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("read chart document", "The chart file could not be read."))
	}
	return Parse(data)
}

// Parse decodes a chart document, applies format-version specific fixes,
// derives floor positions and resolves siblings. A nil chart is returned with
// the error for any document that is not valid.
func Parse(data []byte) (*Chart, error) {
	if !gjson.ValidBytes(data) {
		return nil, invalid(ErrNoChart, "chart document is not valid JSON", "The chart file is not valid JSON.")
	}
	version := gjson.GetBytes(data, "formatVersion")
	if !version.Exists() || version.Int() < 1 {
		return nil, invalid(ErrUnsupportedVersion,
			fmt.Sprintf("formatVersion %q", version.Raw),
			"The chart has no supported format version.")
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, invalid(fmt.Errorf("%w: %v", ErrNoChart, err), "decode chart document", "The chart file has an unexpected structure.")
	}

	c := &Chart{
		FormatVersion: doc.FormatVersion,
		Offset:        doc.Offset,
		Lines:         make([]*JudgeLine, 0, len(doc.JudgeLineList)),
	}
	for i, ld := range doc.JudgeLineList {
		if !(ld.BPM > 0) || math.IsInf(ld.BPM, 0) {
			return nil, invalid(fmt.Errorf("%w: line %d has bpm %v", ErrNoChart, i, ld.BPM),
				"judge line tempo", "A judge line in the chart has an invalid tempo.")
		}
		c.Lines = append(c.Lines, buildLine(ld, doc.FormatVersion))
	}
	for _, l := range c.Lines {
		l.rebuildFloor()
	}
	c.ResolveSiblings()

	logging.L().Debug("chart parsed",
		"formatVersion", c.FormatVersion,
		"lines", len(c.Lines),
		"notes", c.NoteCount(),
		"declaredNotes", doc.NumOfNotes)
	return c, nil
}

func invalid(err error, internal, external string) error {
	return fault.Wrap(err, fmsg.WithDesc(internal, external), ftag.With(ftag.InvalidArgument))
}

func buildLine(ld lineDoc, version int) *JudgeLine {
	l := &JudgeLine{BPM: ld.BPM}

	l.SpeedEvents = make([]SpeedEvent, 0, len(ld.SpeedEvents))
	for _, ev := range ld.SpeedEvents {
		l.SpeedEvents = append(l.SpeedEvents, SpeedEvent{StartTime: ev.StartTime, EndTime: ev.EndTime, Value: ev.Value})
	}
	l.MoveEvents = pairEvents(ld.JudgeLineMoveEvents)
	if version == 1 {
		decodeLegacyMoves(l.MoveEvents)
	}
	l.RotateEvents = pairEvents(ld.JudgeLineRotateEvents)
	l.FadeEvents = pairEvents(ld.JudgeLineDisappearEvents)
	normalizeTracks(l)

	l.NotesAbove = notes(ld.NotesAbove)
	l.NotesBelow = notes(ld.NotesBelow)
	return l
}

func pairEvents(docs []pairDoc) []LineEvent {
	out := make([]LineEvent, 0, len(docs))
	for _, ev := range docs {
		out = append(out, LineEvent(ev))
	}
	return out
}

func notes(docs []noteDoc) []*Note {
	out := make([]*Note, 0, len(docs))
	for _, nd := range docs {
		out = append(out, &Note{
			Type:      NoteType(nd.Type),
			Time:      nd.Time,
			PositionX: nd.PositionX,
			Speed:     nd.Speed,
			HoldTime:  nd.HoldTime,
		})
	}
	return out
}

// decodeLegacyMoves unpacks version 1 move values, where each of start and end
// holds x*1000+y in reference playfield pixels.
func decodeLegacyMoves(events []LineEvent) {
	for i := range events {
		ev := &events[i]
		sx, sy := unpackLegacy(ev.Start)
		ex, ey := unpackLegacy(ev.End)
		ev.Start = sx / legacyRefX / 2
		ev.Start2 = sy / legacyRefY / 2
		ev.End = ex / legacyRefX / 2
		ev.End2 = ey / legacyRefY / 2
	}
}

func unpackLegacy(v float64) (x, y float64) {
	return math.Floor(v / 1000), math.Round(math.Mod(v, 1000))
}

// normalizeTracks orders every track by start time and gives empty tracks a
// single event spanning all time.
func normalizeTracks(l *JudgeLine) {
	if len(l.SpeedEvents) == 0 {
		l.SpeedEvents = []SpeedEvent{{StartTime: defaultEventStart, EndTime: defaultEventEnd, Value: 1}}
	}
	if len(l.MoveEvents) == 0 {
		l.MoveEvents = []LineEvent{{StartTime: defaultEventStart, EndTime: defaultEventEnd, Start: 0.5, End: 0.5, Start2: 0.5, End2: 0.5}}
	}
	if len(l.RotateEvents) == 0 {
		l.RotateEvents = []LineEvent{{StartTime: defaultEventStart, EndTime: defaultEventEnd}}
	}
	if len(l.FadeEvents) == 0 {
		l.FadeEvents = []LineEvent{{StartTime: defaultEventStart, EndTime: defaultEventEnd, Start: 1, End: 1}}
	}
	sort.SliceStable(l.SpeedEvents, func(i, j int) bool { return l.SpeedEvents[i].StartTime < l.SpeedEvents[j].StartTime })
	sortLineEvents(l.MoveEvents)
	sortLineEvents(l.RotateEvents)
	sortLineEvents(l.FadeEvents)
}

func sortLineEvents(events []LineEvent) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].StartTime < events[j].StartTime })
}

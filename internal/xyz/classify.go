package xyz

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the classification of one raw text line.
type Kind int

const (
	// KindMalformed marks lines that carry no information: empty, too
	// short, or a marker keyword without an identifier.
	KindMalformed Kind = iota
	// KindComment marks header/comment records, including structured
	// annotations.
	KindComment
	// KindLineMarker marks the start of a new survey line or tie line.
	KindLineMarker
	// KindDataRecord marks a row of whitespace-separated numeric fields.
	KindDataRecord
)

// minLineLen is the shortest line worth classifying. Anything shorter
// cannot hold a marker keyword or a data field.
const minLineLen = 2

// Class is the outcome of classifying one raw line. Exactly the fields for
// the classified Kind are populated.
type Class struct {
	Kind Kind

	// Comment
	Annotation *Annotation // non-nil for doubled-marker structured annotations

	// LineMarker
	LineID string
	IsTie  bool

	// DataRecord
	Fields   []string
	HasDummy bool
}

// Annotation is a structured doubled-marker comment. Only FLIGHT and DATE
// annotations are recognized; everything else stays an ordinary comment.
type Annotation struct {
	Flight   int
	Date     time.Time
	IsDate   bool
	IsFlight bool
}

// Classifier categorizes raw text lines. It is pure and is used identically
// by all passes over a survey file, so every pass sees the same structure.
type Classifier struct {
	commentMarker byte
	dummyMarker   string
}

// NewClassifier builds a classifier for the given comment and dummy markers.
func NewClassifier(commentMarker byte, dummyMarker string) Classifier {
	return Classifier{commentMarker: commentMarker, dummyMarker: dummyMarker}
}

// Classify categorizes a single raw text line. Leading whitespace is
// ignored. The rules are checked in order: length, comment marker, marker
// keyword, data record.
func (c Classifier) Classify(raw string) Class {
	line := strings.TrimLeft(raw, " \t")
	line = strings.TrimRight(line, "\r\n")

	if len(line) < minLineLen {
		return Class{Kind: KindMalformed}
	}

	if line[0] == c.commentMarker {
		cls := Class{Kind: KindComment}
		if len(line) > 1 && line[1] == c.commentMarker {
			cls.Annotation = parseAnnotation(line[2:])
		}
		return cls
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Class{Kind: KindMalformed}
	}

	switch strings.ToLower(fields[0]) {
	case "line", "tie":
		if len(fields) < 2 {
			return Class{Kind: KindMalformed}
		}
		return Class{
			Kind:   KindLineMarker,
			LineID: fields[1],
			IsTie:  strings.EqualFold(fields[0], "tie"),
		}
	}

	hasDummy := false
	for _, f := range fields {
		if f == c.dummyMarker {
			hasDummy = true
			break
		}
	}
	return Class{Kind: KindDataRecord, Fields: fields, HasDummy: hasDummy}
}

// IsDummy reports whether a single field token is the dummy marker.
func (c Classifier) IsDummy(field string) bool {
	return field == c.dummyMarker
}

// parseAnnotation recognizes FLIGHT and DATE annotations. Unrecognized
// annotation bodies return nil: the line stays an opaque comment.
func parseAnnotation(body string) *Annotation {
	fields := strings.Fields(body)
	if len(fields) < 2 {
		return nil
	}
	switch strings.ToUpper(fields[0]) {
	case "FLIGHT":
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil
		}
		return &Annotation{Flight: n, IsFlight: true}
	case "DATE":
		d, ok := parseAnnotationDate(fields[1])
		if !ok {
			return nil
		}
		return &Annotation{Date: d, IsDate: true}
	}
	return nil
}

// parseAnnotationDate accepts dd/mm/yyyy or yyyy/mm/dd, decided by the
// width of the first token.
func parseAnnotationDate(s string) (time.Time, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	var yearStr, monthStr, dayStr string
	if len(parts[0]) == 4 {
		yearStr, monthStr, dayStr = parts[0], parts[1], parts[2]
	} else {
		dayStr, monthStr, yearStr = parts[0], parts[1], parts[2]
	}

	year, errY := strconv.Atoi(yearStr)
	month, errM := strconv.Atoi(monthStr)
	day, errD := strconv.Atoi(dayStr)
	if errY != nil || errM != nil || errD != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// Package persist saves editor drafts locally and remotely.
//
// Local saves are fast and synchronous and run often. Remote saves are slow,
// retried with backoff and never surface an error to the editor: the local
// copy is what protects the user's work.
package persist

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// snapshotVersion is the current on-disk snapshot format.
const snapshotVersion = 1

// Snapshot is the persisted form of the editor state.
type Snapshot struct {
	DraftID        string
	Title          string
	Content        string
	SelectionStart int
	SelectionEnd   int
	SavedAt        time.Time

	// Revision increases with every content change. It is not persisted
	// remotely; the remote loop uses it to skip unchanged drafts.
	Revision uint64
}

// ParseError reports a snapshot that could not be decoded.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse snapshot: " + e.Reason
}

// Encode serializes the snapshot as JSON.
func (s Snapshot) Encode() ([]byte, error) {
	fields := []struct {
		path  string
		value any
	}{
		{"version", snapshotVersion},
		{"draftId", s.DraftID},
		{"title", s.Title},
		{"content", s.Content},
		{"selection.start", s.SelectionStart},
		{"selection.end", s.SelectionEnd},
		{"savedAt", s.SavedAt.UTC().Format(time.RFC3339Nano)},
		{"revision", s.Revision},
	}

	doc := []byte(`{}`)
	for _, f := range fields {
		var err error
		doc, err = sjson.SetBytes(doc, f.path, f.value)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot %s: %w", f.path, err)
		}
	}
	return doc, nil
}

// DecodeSnapshot parses a snapshot written by Encode.
// Missing optional fields decode to their zero values.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return Snapshot{}, &ParseError{Reason: "invalid JSON"}
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return Snapshot{}, &ParseError{Reason: "not an object"}
	}
	if v := doc.Get("version").Int(); v > snapshotVersion {
		return Snapshot{}, &ParseError{Reason: fmt.Sprintf("unsupported version %d", v)}
	}
	content := doc.Get("content")
	if !content.Exists() {
		return Snapshot{}, &ParseError{Reason: "missing content"}
	}

	s := Snapshot{
		DraftID:        doc.Get("draftId").String(),
		Title:          doc.Get("title").String(),
		Content:        content.String(),
		SelectionStart: int(doc.Get("selection.start").Int()),
		SelectionEnd:   int(doc.Get("selection.end").Int()),
		Revision:       doc.Get("revision").Uint(),
	}
	if ts := doc.Get("savedAt").String(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Snapshot{}, &ParseError{Reason: "bad savedAt: " + err.Error()}
		}
		s.SavedAt = t
	}
	return s, nil
}

// remotePayload is the body sent to a remote draft endpoint.
func remotePayload(s Snapshot) ([]byte, error) {
	doc := []byte(`{}`)
	var err error
	for _, f := range []struct {
		path  string
		value any
	}{
		{"draftId", s.DraftID},
		{"title", s.Title},
		{"content", s.Content},
		{"timestamp", s.SavedAt.UTC().Format(time.RFC3339Nano)},
	} {
		if doc, err = sjson.SetBytes(doc, f.path, f.value); err != nil {
			return nil, fmt.Errorf("encode payload %s: %w", f.path, err)
		}
	}
	return doc, nil
}

// decodePayload parses a body produced by remotePayload.
func decodePayload(data []byte) (Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return Snapshot{}, &ParseError{Reason: "invalid JSON"}
	}
	doc := gjson.ParseBytes(data)
	s := Snapshot{
		DraftID: doc.Get("draftId").String(),
		Title:   doc.Get("title").String(),
		Content: doc.Get("content").String(),
	}
	if ts := doc.Get("timestamp").String(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Snapshot{}, &ParseError{Reason: "bad timestamp: " + err.Error()}
		}
		s.SavedAt = t
	}
	return s, nil
}

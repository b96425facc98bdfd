// Package deadletter holds the pure naming scheme for dead-letter files.
// Everything about a record's identity and lifecycle state is carried in
// its filename, so an operator can triage a directory listing without
// opening a single file.
package deadletter

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/shopsync/internal/models"
)

// TimestampLayout is the compact timestamp embedded in filenames.
const TimestampLayout = "20060102150405"

const (
	prefix = "dead_letter_"
	ext    = ".json"
)

// Meta is the identity a filename encodes.
type Meta struct {
	Kind       models.ItemKind
	Reason     string
	ItemID     string
	CapturedAt time.Time
}

// knownReasons mirrors the capture taxonomy so ParseName can split the
// reason from an item id that itself contains underscores.
var knownReasons = []string{
	"validation_failed",
	"invalid_response",
	"unknown_response",
	"create_failed",
	"update_failed",
	"exception",
}

// EncodeName builds the capture filename for a record.
func EncodeName(kind models.ItemKind, reason, itemID string, at time.Time) string {
	return fmt.Sprintf("%s%s_%s_%s_%s%s",
		prefix, kind, reason, Sanitize(itemID), at.Format(TimestampLayout), ext)
}

// IsCaptured reports whether a filename is an untransitioned record. A
// transitioned file carries a state suffix after the extension and no
// longer matches.
func IsCaptured(name string) bool {
	return strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ext)
}

// ParseName decodes a capture filename back into its identity.
func ParseName(name string) (Meta, error) {
	if !IsCaptured(name) {
		return Meta{}, fmt.Errorf("not a dead-letter filename: %s", name)
	}
	body := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext)

	kind, rest, ok := strings.Cut(body, "_")
	if !ok {
		return Meta{}, fmt.Errorf("malformed dead-letter filename: %s", name)
	}

	reason := ""
	for _, r := range knownReasons {
		if strings.HasPrefix(rest, r+"_") {
			reason = r
			rest = strings.TrimPrefix(rest, r+"_")
			break
		}
	}
	if reason == "" {
		return Meta{}, fmt.Errorf("unknown reason in dead-letter filename: %s", name)
	}

	tsAt := strings.LastIndex(rest, "_")
	if tsAt <= 0 {
		return Meta{}, fmt.Errorf("malformed dead-letter filename: %s", name)
	}
	itemID, ts := rest[:tsAt], rest[tsAt+1:]

	capturedAt, err := time.Parse(TimestampLayout, ts)
	if err != nil {
		return Meta{}, fmt.Errorf("bad timestamp in dead-letter filename %s: %w", name, err)
	}

	return Meta{
		Kind:       models.ItemKind(kind),
		Reason:     reason,
		ItemID:     itemID,
		CapturedAt: capturedAt,
	}, nil
}

// Sanitize strips filename-hostile characters from an item id.
func Sanitize(id string) string {
	out := make([]rune, 0, len(id))
	for _, r := range id {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

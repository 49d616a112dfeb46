package syntax

import (
	"errors"
	"fmt"
	"strings"
)

// AT-URI pointing at a specific record: at://<authority>/<collection>/<rkey>
//
// This package only handles the record-level form, which is all the bot needs (list URIs, created list items).
type ATURI string

func NewRecordURI(authority DID, collection NSID, rkey string) ATURI {
	return ATURI(fmt.Sprintf("at://%s/%s/%s", authority, collection, rkey))
}

func ParseRecordURI(raw string) (ATURI, error) {
	if !strings.HasPrefix(raw, "at://") {
		return "", errors.New("AT-URI must start with at://")
	}
	parts := strings.Split(raw[len("at://"):], "/")
	if len(parts) != 3 {
		return "", fmt.Errorf("expected record AT-URI with three path segments: %s", raw)
	}
	if _, err := ParseAtIdentifier(parts[0]); err != nil {
		return "", fmt.Errorf("AT-URI authority: %w", err)
	}
	if _, err := ParseNSID(parts[1]); err != nil {
		return "", fmt.Errorf("AT-URI collection: %w", err)
	}
	if parts[2] == "" {
		return "", errors.New("AT-URI record key is empty")
	}
	return ATURI(raw), nil
}

func (u ATURI) segment(idx int) string {
	parts := strings.Split(strings.TrimPrefix(string(u), "at://"), "/")
	if idx >= len(parts) {
		return ""
	}
	return parts[idx]
}

func (u ATURI) Authority() AtIdentifier {
	return AtIdentifier(u.segment(0))
}

func (u ATURI) Collection() NSID {
	return NSID(u.segment(1))
}

func (u ATURI) RecordKey() string {
	return u.segment(2)
}

func (u ATURI) String() string {
	return string(u)
}

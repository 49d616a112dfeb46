package syntax

import (
	"errors"
	"strings"
)

// Either a DID or a handle. Used where users may type either, eg on the command line.
type AtIdentifier string

func ParseAtIdentifier(raw string) (AtIdentifier, error) {
	if raw == "" {
		return "", errors.New("expected AT account identifier, got empty string")
	}
	raw = strings.TrimPrefix(raw, "@")
	if strings.HasPrefix(raw, "did:") {
		did, err := ParseDID(raw)
		if err != nil {
			return "", err
		}
		return did.AtIdentifier(), nil
	}
	handle, err := ParseHandle(raw)
	if err != nil {
		return "", err
	}
	return handle.Normalize().AtIdentifier(), nil
}

func (n AtIdentifier) IsDID() bool {
	return strings.HasPrefix(string(n), "did:")
}

func (n AtIdentifier) DID() DID {
	if n.IsDID() {
		return DID(n)
	}
	return ""
}

func (n AtIdentifier) Handle() Handle {
	if n != "" && !n.IsDID() {
		return Handle(n)
	}
	return ""
}

func (n AtIdentifier) String() string {
	return string(n)
}

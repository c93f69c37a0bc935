package connection

import "strings"

// ConnType is the kind of connection activity a challenge represents.
type ConnType string

const (
	TypeVisit ConnType = "visit"
	TypeCall  ConnType = "call"
)

// Classify is the single source of truth for recognizing connection
// challenges. Everything that needs to know whether a challenge targets a
// family member goes through these functions; never repeat the substring
// checks at call sites.

// IsConnection reports whether the challenge title denotes a visit or call.
func IsConnection(title string) bool {
	_, ok := Classify(title)
	return ok
}

// Classify returns the connection type for a title. A title containing both
// keywords classifies as a visit.
func Classify(title string) (ConnType, bool) {
	lower := strings.ToLower(title)
	if strings.Contains(lower, "visit") {
		return TypeVisit, true
	}
	if strings.Contains(lower, "call") {
		return TypeCall, true
	}
	return "", false
}

// ActionWord returns the past-tense verb used in feed messages.
func ActionWord(title string) string {
	switch t, _ := Classify(title); t {
	case TypeVisit:
		return "visited"
	case TypeCall:
		return "called"
	}
	return "connected with"
}

// Icon returns the display icon for a challenge title.
func Icon(title string) string {
	switch t, _ := Classify(title); t {
	case TypeVisit:
		return "🏡"
	case TypeCall:
		return "📞"
	}
	return "🤝"
}

package grid

import (
	"regexp"
	"strings"

	"github.com/pokrovsky/timetable-api/internal/textutil"
)

// Delivery-mode tokens a cell can normalize to.
const (
	ModeOnline  = "онлайн"
	ModeOffline = "офлайн"
	ModeRemote  = "дистант"
)

// Go's \b is ASCII-only, so Cyrillic words get explicit boundary classes.
var modeRx = regexp.MustCompile(`(?i)(?:^|[^\p{L}\d])(онлайн|online|оф+лайн|offline|дистанц\p{L}*|дистант\p{L}*|удал[её]нн\p{L}*|очно)(?:[^\p{L}\d]|$)`)

var (
	cabPrefixRx = regexp.MustCompile(`(?i)каб(?:инет)?\.?\s*[:-]?\s*([\p{L}\d_/ \t-]+)`)
	cabCodeRx   = regexp.MustCompile(`(?i)(?:^|[^\p{L}\d])(\p{L}\s*\d{1,2}\s*-\s*\d{2}(?:/\s*\p{L}\s*\d{1,2}\s*-\s*\d{2})*)(?:[^\p{L}\d]|$)`)
	cabHallRx   = regexp.MustCompile(`(?i)(спортзал(?:\s*\d*)?|актовый зал|спорт[ .-]?зал|ауд\.?\s*\d+)`)

	spaceRx = regexp.MustCompile(`\s+`)
)

func normalizeMode(s string) string {
	t := strings.ToLower(s)
	switch {
	case strings.Contains(t, "онлайн") || strings.Contains(t, "online"):
		return ModeOnline
	case strings.Contains(t, "офлайн") || strings.Contains(t, "offline") || strings.Contains(t, "очно"):
		return ModeOffline
	case strings.Contains(t, "дистан") || strings.Contains(t, "удал"):
		return ModeRemote
	}
	return strings.TrimSpace(s)
}

// ExtractCabinet pattern-matches a cell's free text into either a delivery
// mode token or a normalized room code (uppercase, no spaces, ASCII hyphen,
// Ё folded to Е). The mode check runs first so a room code embedded in prose
// about a mode never wins. Only the first matching line is used; "" means
// nothing matched.
func ExtractCabinet(text string) string {
	if text == "" {
		return ""
	}
	for _, line := range strings.Split(textutil.UnifyHyphens(textutil.NormLines(text)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := modeRx.FindStringSubmatch(line); m != nil {
			return normalizeMode(m[1])
		}
		if cab := matchCabinet(line); cab != "" {
			return canonicalCabinet(cab)
		}
	}
	return ""
}

// matchCabinet evaluates the room-code strategies in priority order and
// returns the first hit.
func matchCabinet(line string) string {
	if m := cabPrefixRx.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := cabCodeRx.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := cabHallRx.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

func canonicalCabinet(cab string) string {
	cab = spaceRx.ReplaceAllString(textutil.UnifyHyphens(cab), "")
	cab = strings.ToUpper(cab)
	return strings.ReplaceAll(cab, "Ё", "Е")
}

// IsPhysicalCabinet reports whether the token names an actual room rather
// than a delivery mode.
func IsPhysicalCabinet(cab string) bool {
	if cab == "" {
		return false
	}
	u := strings.ToUpper(cab)
	for _, mode := range []string{"ОНЛАЙН", "ОФЛАЙН", "ДИСТАНТ"} {
		if strings.Contains(u, mode) {
			return false
		}
	}
	return true
}

var cabSplitRx = regexp.MustCompile(`[\/,;|]+`)

// SplitCabinets divides a multi-room token like "Г3-04/Г4-03" into individual
// rooms, dropping delivery-mode leftovers.
func SplitCabinets(cab string) []string {
	if cab == "" {
		return nil
	}
	var out []string
	for _, part := range cabSplitRx.Split(cab, -1) {
		p := strings.ToUpper(strings.TrimSpace(part))
		if p == "" || !IsPhysicalCabinet(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

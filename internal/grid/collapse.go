package grid

import (
	"fmt"
	"regexp"
	"strings"
)

var timeKeyRx = regexp.MustCompile(`(\d{1,2}):(\d{2}).*?(\d{1,2}):(\d{2})`)

// TimeKey canonicalizes a time-range text to "HH:MM-HH:MM". Text without two
// recognizable timestamps is returned as-is (dots unified to colons).
func TimeKey(t string) string {
	s := strings.TrimSpace(strings.ReplaceAll(t, ".", ":"))
	m := timeKeyRx.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return fmt.Sprintf("%s:%s-%s:%s", zfill(m[1]), m[2], zfill(m[3]), m[4])
}

func zfill(h string) string {
	if len(h) == 1 {
		return "0" + h
	}
	return h
}

// Collapse merges entries sharing a normalized time key: subjects are
// concatenated with " / " and rooms joined with "/", both in first-seen
// order and de-duplicated.
func Collapse(items []Entry) []Entry {
	var order []string
	subjects := make(map[string][]string)
	cabinets := make(map[string][]string)

	for _, it := range items {
		k := TimeKey(it.Time)
		if _, seen := subjects[k]; !seen {
			order = append(order, k)
			subjects[k] = nil
			cabinets[k] = nil
		}
		s := strings.TrimSpace(it.Subject)
		if s != "" && !contains(subjects[k], s) {
			subjects[k] = append(subjects[k], s)
		}
		cab := strings.TrimSpace(it.Cabinet)
		if s != "" && cab != "" && !contains(cabinets[k], cab) {
			cabinets[k] = append(cabinets[k], cab)
		}
	}

	var out []Entry
	for _, k := range order {
		if k == "" {
			continue
		}
		subj := strings.Join(subjects[k], " / ")
		if subj == "" {
			subj = "—"
		}
		t := k
		if strings.Contains(k, "-") && strings.Contains(k, ":") {
			parts := strings.SplitN(k, "-", 2)
			t = parts[0] + " - " + parts[1]
		}
		out = append(out, Entry{
			Time:    t,
			Subject: subj,
			Cabinet: strings.Join(cabinets[k], "/"),
		})
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

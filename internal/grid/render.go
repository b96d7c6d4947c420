package grid

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var showTimeRx = regexp.MustCompile(`\d{1,2}[:.]\d{2}.*\d{1,2}[:.]\d{2}`)

// Render produces the human-readable schedule text with HTML-light markup
// (bold tags only). An entry without a recognizable two-timestamp range
// omits the time; an entry without a room shows an explicit placeholder.
func Render(dateLabel, class string, items []Entry) string {
	if len(items) == 0 {
		return "Пусто."
	}
	lines := []string{
		fmt.Sprintf("<b>РАСПИСАНИЕ НА %s</b>", html.EscapeString(dateLabel)),
		fmt.Sprintf("Класс: <b>%s</b>", html.EscapeString(class)),
		"",
	}
	for i, it := range items {
		subj := "—"
		if it.Subject != "" {
			subj = fmt.Sprintf("<b>%s</b>", html.EscapeString(it.Subject))
		}
		if showTimeRx.MatchString(it.Time) {
			lines = append(lines, fmt.Sprintf("%d — (%s) %s", i+1, html.EscapeString(it.Time), subj))
		} else {
			lines = append(lines, fmt.Sprintf("%d — %s", i+1, subj))
		}
		if it.Cabinet != "" {
			lines = append(lines, fmt.Sprintf("Кабинет: <b>%s</b>", html.EscapeString(it.Cabinet)))
		} else {
			lines = append(lines, "Кабинет: <b>—</b>")
		}
	}
	return strings.Join(lines, "\n")
}

package schedule

import "strings"

// cronMarker tags the lines owned by task so they can be replaced or removed
// without touching the rest of the user's crontab.
func cronMarker(task string) string {
	return "# dw:" + task
}

// withCronEntry returns crontab with task's entry replaced by line.
func withCronEntry(crontab, task, line string) string {
	kept, _ := withoutCronEntry(crontab, task)
	if kept != "" && !strings.HasSuffix(kept, "\n") {
		kept += "\n"
	}
	return kept + line + " " + cronMarker(task) + "\n"
}

// withoutCronEntry returns crontab without task's entry and whether one was
// present.
func withoutCronEntry(crontab, task string) (string, bool) {
	marker := cronMarker(task)
	var (
		kept  []string
		found bool
	)
	for _, l := range strings.Split(crontab, "\n") {
		if strings.HasSuffix(strings.TrimSpace(l), marker) {
			found = true
			continue
		}
		kept = append(kept, l)
	}
	out := strings.Join(kept, "\n")
	if strings.TrimSpace(out) == "" {
		return "", found
	}
	return out, found
}

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode"
)

var knownDesktops = map[string]bool{
	"gnome":    true,
	"cinnamon": true,
	"mate":     true,
	"deepin":   true,
	"xfce":     true,
	"kde":      true,
}

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// ValidationResult separates problems that must stop the program from ones
// that were corrected in place.
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

func (r ValidationResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

func (r ValidationResult) AllErrors() []error {
	all := make([]error, 0, len(r.Fatals)+len(r.Warnings))
	all = append(all, r.Fatals...)
	all = append(all, r.Warnings...)
	return all
}

// Validate checks the config and returns every problem found. Out-of-range
// numbers are clamped to safe values and reported as warnings.
func (c *Config) Validate() []error {
	return c.ValidateTiered().AllErrors()
}

// ValidateTiered is Validate with the fatal/warning split preserved.
func (c *Config) ValidateTiered() ValidationResult {
	var r ValidationResult

	if strings.TrimSpace(c.DataDir) == "" {
		r.Fatals = append(r.Fatals, fmt.Errorf("data_dir must not be empty"))
	}

	if strings.TrimSpace(c.TaskName) == "" {
		r.Fatals = append(r.Fatals, fmt.Errorf("task_name must not be empty"))
	} else {
		for _, ch := range c.TaskName {
			if unicode.IsControl(ch) || ch == '#' || ch == '"' {
				r.Fatals = append(r.Fatals, fmt.Errorf("task_name %q contains characters not allowed in a schedule entry", c.TaskName))
				break
			}
		}
	}

	if c.S3.Endpoint != "" {
		u, err := url.Parse(c.S3.Endpoint)
		if err != nil {
			r.Fatals = append(r.Fatals, fmt.Errorf("s3.endpoint %q is not a valid URL: %w", c.S3.Endpoint, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			r.Fatals = append(r.Fatals, fmt.Errorf("s3.endpoint scheme must be http or https, got %q", u.Scheme))
		}
	}

	if c.Azure.AccountURL != "" {
		u, err := url.Parse(c.Azure.AccountURL)
		if err != nil || u.Scheme != "https" {
			r.Fatals = append(r.Fatals, fmt.Errorf("azure.account_url %q must be an https URL", c.Azure.AccountURL))
		}
	}

	if (c.B2.AccountID == "") != (c.B2.ApplicationKey == "") {
		r.Fatals = append(r.Fatals, fmt.Errorf("b2.account_id and b2.application_key must be set together"))
	}

	if c.DesktopEnv != "" && !knownDesktops[strings.ToLower(c.DesktopEnv)] {
		r.Warnings = append(r.Warnings, fmt.Errorf("unknown desktop_env %q, falling back to detection", c.DesktopEnv))
		c.DesktopEnv = ""
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	c.DownloadWorkers = clamp(&r, "download_workers", c.DownloadWorkers, 1, 32)
	c.DownloadQueueSize = clamp(&r, "download_queue_size", c.DownloadQueueSize, 1, 10000)
	c.HTTPTimeoutSeconds = clamp(&r, "http_timeout_seconds", c.HTTPTimeoutSeconds, 5, 600)
	c.LogMaxSizeMB = clamp(&r, "log_max_size_mb", c.LogMaxSizeMB, 1, 1024)
	c.LogMaxBackups = clamp(&r, "log_max_backups", c.LogMaxBackups, 1, 50)

	for _, err := range r.Fatals {
		slog.Error("config validation", "error", err)
	}
	for _, err := range r.Warnings {
		slog.Warn("config validation", "error", err)
	}

	return r
}

func clamp(r *ValidationResult, key string, v, lo, hi int) int {
	switch {
	case v < lo:
		r.Warnings = append(r.Warnings, fmt.Errorf("%s %d is below minimum %d, clamping", key, v, lo))
		return lo
	case v > hi:
		r.Warnings = append(r.Warnings, fmt.Errorf("%s %d exceeds maximum %d, clamping", key, v, hi))
		return hi
	}
	return v
}

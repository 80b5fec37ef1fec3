package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeFileName replaces every character outside [a-zA-Z0-9.-] with an underscore.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "file"
	}
	return unsafeFileChars.ReplaceAllString(name, "_")
}

// AttachmentKey builds the storage key company/user/<unix millis>_<sanitized name>.
func AttachmentKey(companyID, userID, fileName string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%d_%s", companyID, userID, now.UnixMilli(), SanitizeFileName(fileName))
}

// ParseTags splits a comma separated tag string, trimming blanks and duplicates.
func ParseTags(raw string) []string {
	tags := []string{}
	seen := map[string]struct{}{}
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

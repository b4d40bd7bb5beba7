package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// ComposeSourceKey builds the key under which a loaded source record is
// addressed by field mapping rules: "<platform>_<id>".
func ComposeSourceKey(platform string, id int64) string {
	return strings.ToLower(strings.TrimSpace(platform)) + "_" + strconv.FormatInt(id, 10)
}

// ParseDate parses an optional YYYY-MM-DD date. Blank input yields nil.
func ParseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(*s))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", *s)
	}
	return &t, nil
}

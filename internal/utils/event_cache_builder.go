package utils

import (
	"strconv"
	"strings"
	"time"
)

func BuildEventsListCacheKey(search *string, from *time.Time, limit, offset int) string {
	s := ""
	if search != nil {
		s = strings.ToLower(strings.TrimSpace(*search))
	}
	f := ""
	if from != nil {
		f = from.UTC().Format(time.RFC3339Nano)
	}

	return "events:list:v1:limit=" + strconv.Itoa(limit) +
		":offset=" + strconv.Itoa(offset) +
		":search=" + s +
		":from=" + f
}

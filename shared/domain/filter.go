package domain

import (
	"fmt"
	"strings"
)

// FilterCategory selects which attachments the catalog lists.
type FilterCategory int

const (
	FilterAll FilterCategory = iota
	FilterReceivedOnly
	FilterImages
	FilterAudio
	FilterMidi
	FilterVideo
)

var filterNames = map[FilterCategory]string{
	FilterAll:          "all",
	FilterReceivedOnly: "received",
	FilterImages:       "images",
	FilterAudio:        "audio",
	FilterMidi:         "midi",
	FilterVideo:        "video",
}

// Filters lists every category in tab order.
var Filters = []FilterCategory{FilterAll, FilterReceivedOnly, FilterImages, FilterAudio, FilterMidi, FilterVideo}

func (f FilterCategory) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return fmt.Sprintf("filter(%d)", int(f))
}

func (f FilterCategory) Valid() bool {
	_, ok := filterNames[f]
	return ok
}

// ParseFilter maps a filter name to its category. An empty name means FilterAll.
func ParseFilter(name string) (FilterCategory, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return FilterAll, nil
	}
	for f, n := range filterNames {
		if n == name {
			return f, nil
		}
	}
	return FilterAll, fmt.Errorf("unknown filter %q", name)
}

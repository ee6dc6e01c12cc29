package feed

import (
	"fmt"
	"strings"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run marks items rejected by the feed's filters. Items keep their order;
// callers skip the marked ones.
func (f *Filterer) Run(items []Item, feedConfig *Config) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		item.IsFiltered, item.FilterReason = f.check(item, feedConfig.Filters)
		out[i] = item
	}
	return out
}

func (f *Filterer) check(item Item, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := strings.ToLower(fieldValue(item, filter.Field))

		if term, ok := containsAny(value, filter.Excludes); ok {
			return true, fmt.Sprintf("%s contains excluded term '%s'", filter.Field, term)
		}

		if len(filter.Includes) > 0 {
			if _, ok := containsAny(value, filter.Includes); !ok {
				return true, fmt.Sprintf("%s matches none of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func containsAny(lowerValue string, terms []string) (string, bool) {
	for _, term := range terms {
		if strings.Contains(lowerValue, strings.ToLower(term)) {
			return term, true
		}
	}
	return "", false
}

func fieldValue(item Item, field string) string {
	switch field {
	case "title":
		return item.Title
	case "body":
		return item.Body
	case "description":
		return item.Description
	case "content":
		return item.Content
	case "authors":
		return strings.Join(item.Authors, " ")
	case "link":
		return item.Link
	case "categories":
		return strings.Join(item.Categories, " ")
	default:
		return ""
	}
}

func isFilterField(field string) bool {
	switch field {
	case "title", "body", "description", "content", "authors", "link", "categories":
		return true
	}
	return false
}

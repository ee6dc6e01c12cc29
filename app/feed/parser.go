package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       feed.Title,
		Link:        feed.Link,
		Description: feed.Description,
		Language:    feed.Language,
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.normalizeItem(item))
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	link := strings.TrimSpace(item.Link)

	// gofeed maps Atom <summary> onto Description, so the body order is
	// description, then content.
	return Item{
		GUID:        cmp.Or(item.GUID, link),
		Title:       cmp.Or(strings.TrimSpace(item.Title), NoTitle),
		Link:        link,
		Body:        cmp.Or(item.Description, item.Content),
		Description: item.Description,
		Content:     item.Content,
		PublishedAt: cmp.Or(item.PublishedParsed, item.UpdatedParsed),
		Authors:     p.extractAuthors(item),
		Categories:  item.Categories,
	}
}

func (p *Parser) extractAuthors(item *gofeed.Item) []string {
	people := item.Authors
	if len(people) == 0 && item.Author != nil {
		people = []*gofeed.Person{item.Author}
	}

	var authors []string
	for _, person := range people {
		if person == nil {
			continue
		}
		if s := formatAuthor(person.Name, person.Email); s != "" {
			authors = append(authors, s)
		}
	}
	return authors
}

func formatAuthor(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s (%s)", email, name)
	case name != "":
		return name
	default:
		return email
	}
}

package importers

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Feed tag names used by the Goodreads shelf RSS feed.
const (
	feedTagItem        = "item"
	feedTagTitle       = "title"
	feedTagAuthor      = "author_name"
	feedTagUserRating  = "user_rating"
	feedTagUserReadAt  = "user_read_at"
	feedTagBookID      = "book_id"
	feedTagISBN        = "isbn"
	feedTagAvgRating   = "average_rating"
	feedTagPublished   = "book_published"
	feedTagNumPages    = "num_pages"
	feedTagLargeImage  = "book_large_image_url"
	feedTagMediumImage = "book_medium_image_url"
	feedTagSmallImage  = "book_image_url"

	cdataPrefix = "<![CDATA["
	cdataSuffix = "]]>"
)

// feedItem collects the text of every tag found inside one <item> block.
// CDATA-wrapped values and plain values are kept apart so that a CDATA value
// wins regardless of document order.
type feedItem struct {
	cdata map[string]string
	plain map[string]string
}

func newFeedItem() *feedItem {
	return &feedItem{
		cdata: make(map[string]string),
		plain: make(map[string]string),
	}
}

func (it *feedItem) record(tag, content string) {
	trimmed := strings.TrimSpace(content)
	if inner, ok := unwrapCDATA(trimmed); ok {
		if _, seen := it.cdata[tag]; !seen {
			it.cdata[tag] = strings.TrimSpace(inner)
		}
		return
	}
	if _, seen := it.plain[tag]; !seen {
		it.plain[tag] = strings.TrimSpace(html.UnescapeString(trimmed))
	}
}

// Tag returns the value of the named tag, or "" when the item has none.
func (it *feedItem) Tag(name string) string {
	if v, ok := it.cdata[name]; ok {
		return v
	}
	return it.plain[name]
}

// unwrapCDATA reports whether s consists of exactly one CDATA section.
func unwrapCDATA(s string) (string, bool) {
	if !strings.HasPrefix(s, cdataPrefix) || !strings.HasSuffix(s, cdataSuffix) {
		return "", false
	}
	inner := s[len(cdataPrefix) : len(s)-len(cdataSuffix)]
	if strings.Contains(inner, cdataSuffix) {
		return "", false
	}
	return inner, true
}

type openTag struct {
	name string
	buf  strings.Builder
}

// ParseGoodreadsFeed extracts book records from a Goodreads shelf RSS feed in
// document order. Each <item> block is read on its own: a block with broken
// markup only loses the tags that cannot be recovered, and items without a
// title or author are skipped with a warning. An error is returned only when
// reading r fails.
func ParseGoodreadsFeed(r io.Reader) ([]entities.BookRecord, []ParseWarning, error) {
	z := html.NewTokenizer(r)
	z.AllowCDATA(true)

	var (
		books    []entities.BookRecord
		warnings []ParseWarning
		item     *feedItem
		stack    []*openTag
		index    int
	)

	appendRaw := func(raw []byte) {
		for _, open := range stack {
			open.buf.Write(raw)
		}
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				// An unterminated trailing <item> is not a complete block.
				return books, warnings, nil
			}
			return books, warnings, fmt.Errorf("read feed: %w", z.Err())

		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			// Feed markup is XML: textarea, script, style or title never
			// switch the tokenizer into raw text mode.
			z.NextIsNotRawText()
			if item == nil {
				if tag == feedTagItem {
					item = newFeedItem()
					stack = stack[:0]
				}
				continue
			}
			appendRaw(z.Raw())
			stack = append(stack, &openTag{name: tag})

		case html.EndTagToken:
			if item == nil {
				continue
			}
			name, _ := z.TagName()
			tag := string(name)
			if tag == feedTagItem {
				index++
				if book, ok := feedItemToRecord(item); ok {
					books = append(books, book)
				} else {
					warnings = append(warnings, ParseWarning{
						Reason: fmt.Sprintf("item %d: missing title or author", index),
					})
				}
				item = nil
				stack = stack[:0]
				continue
			}

			idx := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].name == tag {
					idx = i
					break
				}
			}
			if idx < 0 {
				appendRaw(z.Raw())
				continue
			}
			// Tags opened after idx were never closed and carry no value.
			closed := stack[idx]
			stack = stack[:idx]
			item.record(closed.name, closed.buf.String())
			appendRaw(z.Raw())

		default:
			if item != nil {
				appendRaw(z.Raw())
			}
		}
	}
}

func feedItemToRecord(item *feedItem) (entities.BookRecord, bool) {
	title := item.Tag(feedTagTitle)
	author := item.Tag(feedTagAuthor)
	if title == "" || author == "" {
		return entities.BookRecord{}, false
	}

	imageURL := item.Tag(feedTagLargeImage)
	if imageURL == "" {
		imageURL = item.Tag(feedTagMediumImage)
	}
	if imageURL == "" {
		imageURL = item.Tag(feedTagSmallImage)
	}

	return entities.BookRecord{
		Title:         title,
		Author:        author,
		Rating:        clampRating(ParseLeadingInt(item.Tag(feedTagUserRating))),
		ReadAt:        item.Tag(feedTagUserReadAt),
		BookID:        item.Tag(feedTagBookID),
		ISBN:          item.Tag(feedTagISBN),
		ImageURL:      imageURL,
		AverageRating: nonNegative(ParseLeadingFloat(item.Tag(feedTagAvgRating))),
		BookPublished: item.Tag(feedTagPublished),
		NumPages:      nonNegative(ParseLeadingInt(item.Tag(feedTagNumPages))),
		Source:        entities.RecordSourceRSS,
	}, true
}

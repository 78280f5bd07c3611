package importers

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func wrapFeed(items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
<channel>
  <title>Reader's bookshelf: read</title>
  <link><![CDATA[https://www.goodreads.com/review/list/1?shelf=read]]></link>
` + strings.Join(items, "\n") + `
</channel>
</rss>`
}

func TestParseGoodreadsFeed_FullItem(t *testing.T) {
	feed := wrapFeed(`<item>
  <guid><![CDATA[https://www.goodreads.com/review/show/1]]></guid>
  <pubDate><![CDATA[Sat, 10 Feb 2024 07:12:00 -0800]]></pubDate>
  <title><![CDATA[Dune (Dune, #1)]]></title>
  <link><![CDATA[https://www.goodreads.com/review/show/1]]></link>
  <book_id>44767458</book_id>
  <book_image_url><![CDATA[https://images.example.com/dune-s.jpg]]></book_image_url>
  <book_small_image_url><![CDATA[https://images.example.com/dune-s.jpg]]></book_small_image_url>
  <book_medium_image_url><![CDATA[https://images.example.com/dune-m.jpg]]></book_medium_image_url>
  <book_large_image_url><![CDATA[https://images.example.com/dune-l.jpg]]></book_large_image_url>
  <book_description><![CDATA[Set on the desert planet <i>Arrakis</i>...]]></book_description>
  <book id="44767458">
    <num_pages>658</num_pages>
  </book>
  <author_name>Frank Herbert</author_name>
  <isbn>0593099320</isbn>
  <user_name>Reader</user_name>
  <user_rating>5</user_rating>
  <user_read_at><![CDATA[Sat, 10 Feb 2024 00:00:00 -0800]]></user_read_at>
  <user_date_added><![CDATA[Mon, 01 Jan 2024 10:00:00 -0800]]></user_date_added>
  <user_shelves>read</user_shelves>
  <user_review></user_review>
  <average_rating>4.27</average_rating>
  <book_published>1965</book_published>
  <description><![CDATA[<a href="https://www.goodreads.com/book/show/44767458"><img src="x"></a>]]></description>
</item>`)

	books, warnings, err := ParseGoodreadsFeed(strings.NewReader(feed))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	want := []entities.BookRecord{{
		Title:         "Dune (Dune, #1)",
		Author:        "Frank Herbert",
		Rating:        5,
		ReadAt:        "Sat, 10 Feb 2024 00:00:00 -0800",
		BookID:        "44767458",
		ISBN:          "0593099320",
		ImageURL:      "https://images.example.com/dune-l.jpg",
		AverageRating: 4.27,
		BookPublished: "1965",
		NumPages:      658,
		Source:        entities.RecordSourceRSS,
	}}
	if diff := cmp.Diff(want, books); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestParseGoodreadsFeed_MinimalItem(t *testing.T) {
	feed := wrapFeed(`<item><title><![CDATA[Dune]]></title><author_name><![CDATA[Frank Herbert]]></author_name><user_rating>5</user_rating></item>`)

	books, _, err := ParseGoodreadsFeed(strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, "Frank Herbert", books[0].Author)
	assert.Equal(t, 5, books[0].Rating)
	assert.Empty(t, books[0].ImageURL)
	assert.Equal(t, entities.RecordSourceRSS, books[0].Source)
}

func TestParseGoodreadsFeed_PrefersCDATA(t *testing.T) {
	feed := wrapFeed(`<item>
  <title>Plain Title</title>
  <title><![CDATA[CDATA Title]]></title>
  <author_name>Plain Author</author_name>
</item>`)

	books, _, err := ParseGoodreadsFeed(strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "CDATA Title", books[0].Title)
	assert.Equal(t, "Plain Author", books[0].Author)
}

func TestParseGoodreadsFeed_DropsItemsWithoutTitleOrAuthor(t *testing.T) {
	feed := wrapFeed(
		`<item><title>Only Title</title></item>`,
		`<item><title>Kept</title><author_name>Someone</author_name></item>`,
		`<item><author_name>Only Author</author_name></item>`,
		`<item><title><![CDATA[   ]]></title><author_name>Blank Title</author_name></item>`,
	)

	books, warnings, err := ParseGoodreadsFeed(strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Kept", books[0].Title)

	require.Len(t, warnings, 3)
	assert.Equal(t, "item 1: missing title or author", warnings[0].String())
	assert.Equal(t, "item 3: missing title or author", warnings[1].String())
	assert.Equal(t, "item 4: missing title or author", warnings[2].String())
}

func TestParseGoodreadsFeed_ImageFallback(t *testing.T) {
	feed := wrapFeed(
		`<item><title>A</title><author_name>X</author_name><book_medium_image_url>https://images.example.com/m.jpg</book_medium_image_url><book_image_url>https://images.example.com/s.jpg</book_image_url></item>`,
		`<item><title>B</title><author_name>X</author_name><book_image_url>https://images.example.com/s.jpg</book_image_url></item>`,
		`<item><title>C</title><author_name>X</author_name><book_large_image_url></book_large_image_url><book_image_url>https://images.example.com/c.jpg</book_image_url></item>`,
	)

	books, _, err := ParseGoodreadsFeed(strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "https://images.example.com/m.jpg", books[0].ImageURL)
	assert.Equal(t, "https://images.example.com/s.jpg", books[1].ImageURL)
	assert.Equal(t, "https://images.example.com/c.jpg", books[2].ImageURL)
}

func TestParseGoodreadsFeed_CaseInsensitiveTagsAndEntities(t *testing.T) {
	feed := wrapFeed(`<ITEM><Title>Pride &amp; Prejudice</Title><AUTHOR_NAME>Jane Austen</AUTHOR_NAME><User_Rating>4</User_Rating></ITEM>`)

	books, _, err := ParseGoodreadsFeed(strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Pride & Prejudice", books[0].Title)
	assert.Equal(t, "Jane Austen", books[0].Author)
	assert.Equal(t, 4, books[0].Rating)
}

func TestParseGoodreadsFeed_LenientNumbers(t *testing.T) {
	feed := wrapFeed(`<item><title>T</title><author_name>A</author_name><user_rating>seven</user_rating><average_rating>n/a</average_rating><num_pages>-10</num_pages></item>`)

	books, _, err := ParseGoodreadsFeed(strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 0, books[0].Rating)
	assert.Equal(t, 0.0, books[0].AverageRating)
	assert.Equal(t, 0, books[0].NumPages)
}

func TestParseGoodreadsFeed_BrokenMarkup(t *testing.T) {
	feed := wrapFeed(
		`<item><title>Broken</title><author_name>Someone<user_rating>3</user_rating></item>`,
		`<item><title>Fine</title><author_name>Other</author_name></item>`,
		`<item><title>Unterminated</title><author_name>Nobody</author_name>`,
	)

	books, _, err := ParseGoodreadsFeed(strings.NewReader(feed))
	require.NoError(t, err)

	titles := make([]string, 0, len(books))
	for _, b := range books {
		titles = append(titles, b.Title)
	}
	assert.Equal(t, []string{"Fine"}, titles)
}

func TestParseGoodreadsFeed_Empty(t *testing.T) {
	books, warnings, err := ParseGoodreadsFeed(strings.NewReader(wrapFeed()))
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.Empty(t, warnings)

	books, _, err = ParseGoodreadsFeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestParseGoodreadsFeed_RawTextElementsStayInsideTheirItem(t *testing.T) {
	feed := wrapFeed(
		`<item><title>T5</title><author_name>A</author_name><textarea>oops</item>`,
		`<item><title>T6</title><author_name>B</author_name><script>var x = 1;</item>`,
		`<item><title>T7</title><author_name>C</author_name><style>p {}</style><user_rating>4</user_rating></item>`,
	)

	books, warnings, err := ParseGoodreadsFeed(strings.NewReader(feed))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.Len(t, books, 3)
	assert.Equal(t, "T5", books[0].Title)
	assert.Equal(t, "T6", books[1].Title)
	assert.Equal(t, "T7", books[2].Title)
	assert.Equal(t, 4, books[2].Rating)
}

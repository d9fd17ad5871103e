package chiasenhac

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/shared"
	"github.com/desertthunder/musicutil/internal/source"
)

var (
	ErrNoSongInfo   = fmt.Errorf("%w: song info", shared.ErrMarkupNotFound)
	ErrNoSearchForm = fmt.Errorf("%w: search form", shared.ErrMarkupNotFound)
)

var sizePattern = regexp.MustCompile(`(?i)^\d+(?:[.,]\d+)?\s*[KMG]?B$`)

// ScrapeSearch extracts up to max results from a search page, in page order.
// max <= 0 means one full page.
func ScrapeSearch(doc *goquery.Document, max int) []models.SearchResult {
	if max <= 0 {
		max = MaxSearchPageResult
	}

	if nav := doc.Find("div#nav-music").First(); nav.Length() > 0 {
		return scrapeSearchList(nav, max)
	}
	return scrapeSearchTable(doc.Find("table.tbtable").First(), max)
}

// scrapeSearchList reads the current markup: one li per song, title in h5.
func scrapeSearchList(nav *goquery.Selection, max int) []models.SearchResult {
	var results []models.SearchResult
	nav.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		h5 := li.Find("h5").First()
		if h5.Length() == 0 {
			return true
		}

		r := models.SearchResult{Song: source.Text(h5)}
		if href, ok := h5.Find("a").First().Attr("href"); ok {
			r.URL = strings.TrimSpace(href)
		}
		if author := li.Find("div.author").First(); author.Length() > 0 {
			r.Artist = source.Text(author)
		}

		results = append(results, r)
		return len(results) < max
	})
	return results
}

// scrapeSearchTable reads the older markup: a results table whose first row is a header.
func scrapeSearchTable(table *goquery.Selection, max int) []models.SearchResult {
	var results []models.SearchResult
	table.Find("tr").EachWithBreak(func(i int, tr *goquery.Selection) bool {
		if i == 0 {
			return true
		}

		cell := tr.Find("td").Eq(1)
		a := cell.Find("a").First()
		if a.Length() == 0 {
			return true
		}

		r := models.SearchResult{Song: source.Text(a)}
		if href, ok := a.Attr("href"); ok {
			r.URL = strings.TrimSpace(href)
		}
		artist := cell.Find("p").FilterFunction(func(_ int, p *goquery.Selection) bool {
			return p.Find("a").Length() == 0
		})
		if p := artist.First(); p.Length() > 0 {
			r.Artist = source.Text(p)
		}

		results = append(results, r)
		return len(results) < max
	})
	return results
}

// ScrapeDownloadDetails extracts the download links of a song page.
//
// Anchors with an unrecognised label keep [models.QualityUnknown]. Anchors
// without href have an empty URL.
func ScrapeDownloadDetails(doc *goquery.Document) []models.DownloadLink {
	anchors := doc.Find("a.download_item")
	if anchors.Length() == 0 {
		anchors = doc.Find(`a[title*="Click"]`)
	}

	links := make([]models.DownloadLink, 0, anchors.Length())
	anchors.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		q, size := parseDownloadTexts(source.Lines(a))
		links = append(links, models.DownloadLink{Quality: q, URL: strings.TrimSpace(href), Size: size})
	})
	return links
}

func parseDownloadTexts(texts []string) (models.Quality, string) {
	for i, text := range texts {
		_, after, found := strings.Cut(text, m4a32Label)
		if !found {
			continue
		}
		size := strings.TrimSpace(strings.TrimLeft(after, " :-"))
		if size == "" && i+1 < len(texts) {
			size = texts[i+1]
		}
		return models.M4A32, size
	}

	q := models.QualityUnknown
	for _, text := range texts {
		if q = models.MatchQuality(text); q != models.QualityUnknown {
			break
		}
	}

	var size string
	for i := len(texts) - 1; i >= 0; i-- {
		if sizePattern.MatchString(texts[i]) {
			size = texts[i]
			break
		}
	}
	return q, size
}

// ScrapeSongInfo extracts the metadata and lyrics of a song page.
func ScrapeSongInfo(doc *goquery.Document) (models.SongInfo, error) {
	lyrics := doc.Find("div#fulllyric").First()

	if info := doc.Find("div#pills-plus").First(); info.Length() > 0 {
		return scrapeSongInfoTabs(info, lyrics), nil
	}
	if lyrics.Length() > 0 {
		return scrapeSongInfoLegacy(lyrics), nil
	}
	return models.SongInfo{}, ErrNoSongInfo
}

func scrapeSongInfoTabs(info, lyrics *goquery.Selection) models.SongInfo {
	song := models.SongInfo{
		Name:   source.Text(info.Find("h4 span").First()),
		Lyrics: source.Lines(lyrics),
	}

	info.Find("li").Each(func(i int, li *goquery.Selection) {
		switch i {
		case 0:
			song.Artist = anchorsOrValue(li)
		case 1:
			song.Album = anchorsOrValue(li)
		case 2:
			song.Year = labelValue(source.Text(li))
		}
	})
	return song
}

func scrapeSongInfoLegacy(div *goquery.Selection) models.SongInfo {
	song := models.SongInfo{
		Name:   source.Text(div.Find("strong a").First()),
		Lyrics: source.Lines(div.Find("p.genmed").First()),
	}

	div.Find("b").Each(func(i int, b *goquery.Selection) {
		switch i {
		case 0:
			song.Artist = source.Text(b)
		case 1:
			song.Album = anchorsOrValue(b)
		case 2:
			song.Year = source.Text(b)
		}
	})
	return song
}

// anchorsOrValue joins the anchor texts of sel, or falls back to the text after its label.
func anchorsOrValue(sel *goquery.Selection) string {
	var names []string
	sel.Find("a").Each(func(_ int, a *goquery.Selection) {
		if name := source.Text(a); name != "" {
			names = append(names, name)
		}
	})
	if len(names) > 0 {
		return strings.Join(names, ", ")
	}
	return labelValue(source.Text(sel))
}

// labelValue turns "Năm phát hành: 2019" into "2019".
func labelValue(text string) string {
	if i := strings.LastIndex(text, ":"); i >= 0 {
		return strings.TrimSpace(text[i+1:])
	}
	return strings.TrimSpace(text)
}

// ScrapeSearchURL returns the action of the site's search form without its trailing "?s=".
func ScrapeSearchURL(doc *goquery.Document) (string, error) {
	action, ok := doc.Find(`form[name="song_list"]`).First().Attr("action")
	if !ok || strings.TrimSpace(action) == "" {
		return "", ErrNoSearchForm
	}
	return strings.TrimSuffix(strings.TrimSpace(action), "?s="), nil
}

package pubgallery

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubgallery/discovery"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	Description string        `xml:"description"`
	PubDate     string        `xml:"pubDate"`
	GUID        string        `xml:"guid"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int    `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// renderRSS publishes recent uploads, newest first.
func (a *App) renderRSS(c echo.Context, uploads []Upload) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(uploads))
	for _, u := range uploads {
		pubDate := ""
		if t, err := time.Parse(time.RFC3339, u.UploadedAt); err == nil {
			pubDate = t.Format(time.RFC1123Z)
		}
		imgURL := a.absoluteAssetURL(discovery.AssetRef(assetRoot + "/" + u.Folder + "/" + u.Filename))
		title := u.OriginalName
		if title == "" {
			title = u.Filename
		}
		items = append(items, rssItem{
			Title:       title,
			Link:        BuildURL(base, "gallery", u.Folder),
			Description: fmt.Sprintf("New image in %s (%dx%d)", u.Folder, u.Width, u.Height),
			PubDate:     pubDate,
			GUID:        imgURL,
			Enclosure:   &rssEnclosure{URL: imgURL, Length: u.Size, Type: "image/jpeg"},
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        base,
			Description: a.Config.Description,
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}

func (a *App) absoluteAssetURL(ref discovery.AssetRef) string {
	u := a.assetURL(ref)
	if strings.HasPrefix(u, "/") {
		return strings.TrimRight(a.Config.URL, "/") + u
	}
	return u
}

package clrss

import (
	"encoding/xml"
	"mime"
	"os"
	"path/filepath"
	"time"
)

// RSS représente le flux RSS complet
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Channel Channel  `xml:"channel"`
}

// Channel représente le canal RSS
type Channel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	Copyright     string    `xml:"copyright,omitempty"`
	Generator     string    `xml:"generator"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []RSSItem `xml:"item"`
}

// RSSItem représente un projet dans le flux RSS
type RSSItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	Description string        `xml:"description"`
	Category    string        `xml:"category,omitempty"`
	GUID        string        `xml:"guid"`
	PubDate     string        `xml:"pubDate"`
	Enclosure   *RSSEnclosure `xml:"enclosure"`
}

type RSSEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// New canal vide en RSS 2.0
func New(title, link, description, generator string, now time.Time) RSS {
	return RSS{
		Version: "2.0",
		Channel: Channel{
			Title:         title,
			Link:          link,
			Description:   description,
			Language:      "fr-FR",
			Generator:     generator,
			LastBuildDate: now.Format(time.RFC1123Z),
			Items:         []RSSItem{},
		},
	}
}

// Marshal XML indenté précédé de l'en-tête
func (r RSS) Marshal() ([]byte, error) {
	output, err := xml.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), output...), nil
}

// FileInfo taille et type MIME d'un fichier local pour l'enclosure
func FileInfo(path string) (size int64, mimeType string, err error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return 0, "", err
	}

	mimeType = mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return fileInfo.Size(), mimeType, nil
}

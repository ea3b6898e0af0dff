package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/podbrief/podbrief/app/cfg"
	"github.com/podbrief/podbrief/app/database"
)

const (
	channelDescription = "Personalized audio digests generated from your reading queue."
	fallbackSummary    = "Your personalized audio digest episode."
	// Duration emitted when the worker did not report one.
	placeholderDuration = "00:10:00"
	enclosureMIMEType   = "audio/mpeg"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Run renders the account's episodes as an RSS 2.0 podcast document. Output
// is a pure function of the stored account and episode data; no wall-clock
// timestamps are emitted.
func (g *Generator) Run(account database.Account, episodes []database.Episode) (string, error) {
	baseUrl := cfg.Get().BaseUrl

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", channelTitle(account.Email), 4)
	g.writeElement(&buf, "link", baseUrl, 4)
	g.writeElement(&buf, "description", channelDescription, 4)

	selfLink := fmt.Sprintf("%s/feed/%s", baseUrl, account.FeedToken)
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	g.writeElement(&buf, "language", "en-us", 4)
	g.writeElement(&buf, "itunes:author", "podbrief", 4)
	buf.WriteString("    <itunes:category text=\"Technology\" />\n")
	buf.WriteString(fmt.Sprintf("    <itunes:image href=\"%s\" />\n",
		html.EscapeString(baseUrl+"/cover.png")))

	for _, episode := range episodes {
		g.writeItem(&buf, episode)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, episode database.Episode) {
	buf.WriteString("    <item>\n")

	g.writeElement(buf, "title", episode.Title, 6)

	buf.WriteString("      <description><![CDATA[")
	buf.WriteString(cmp.Or(episode.Summary, fallbackSummary))
	buf.WriteString("]]></description>\n")

	g.writeElement(buf, "pubDate", episode.CreatedAt.UTC().Format(time.RFC1123Z), 6)

	// Enclosure length is deliberately a literal zero: the stored episode
	// carries no byte size and podcast clients tolerate the omission.
	buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
		html.EscapeString(episode.AudioURL), enclosureMIMEType))

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(episode.ID))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "itunes:duration", formatDuration(episode.DurationSeconds), 6)

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

// channelTitle derives the feed title from the email local-part.
func channelTitle(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		local = email
	}
	return fmt.Sprintf("%s's Audio Digest", local)
}

func formatDuration(seconds *int) string {
	if seconds == nil {
		return placeholderDuration
	}

	total := *seconds
	if total < 0 {
		total = 0
	}

	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

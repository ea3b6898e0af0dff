package feed

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/podbrief/podbrief/app/cfg"
	"github.com/podbrief/podbrief/app/database"
)

func setupTestConfig() {
	// Clear os.Args to prevent config parsing from failing
	oldArgs := os.Args
	os.Args = []string{"test"}
	defer func() { os.Args = oldArgs }()

	if os.Getenv("PORT") == "" {
		os.Setenv("PORT", "8080")
	}

	cfg.Load()
}

func testAccount() database.Account {
	return database.Account{
		ID:        "account-uuid",
		Email:     "casey@example.com",
		FeedToken: "tok-abc123",
	}
}

func intPtr(v int) *int {
	return &v
}

func TestGenerateFeed(t *testing.T) {
	setupTestConfig()
	generator := NewGenerator()

	createdAt := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)

	episodes := []database.Episode{
		{
			ID:              "episode-1-uuid",
			AccountID:       "account-uuid",
			Title:           "Morning Digest: AI and Chips",
			Summary:         "Today we cover two articles about AI hardware.",
			AudioURL:        "https://cdn.example.com/audio/episode1.mp3",
			DurationSeconds: intPtr(754),
			CreatedAt:       createdAt,
		},
		{
			ID:        "episode-2-uuid",
			AccountID: "account-uuid",
			Title:     "Evening Digest",
			AudioURL:  "https://cdn.example.com/audio/episode2.mp3",
			CreatedAt: createdAt.Add(-24 * time.Hour),
		},
	}

	rss, err := generator.Run(testAccount(), episodes)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(rss, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("Feed should contain XML declaration")
	}

	if !strings.Contains(rss, `<rss version="2.0"`) {
		t.Error("Feed should contain RSS 2.0 declaration")
	}

	if !strings.Contains(rss, `xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd"`) {
		t.Error("Feed should contain itunes namespace")
	}

	if !strings.Contains(rss, `xmlns:atom="http://www.w3.org/2005/Atom"`) {
		t.Error("Feed should contain atom namespace")
	}

	// Channel metadata derived from the account
	if !strings.Contains(rss, "<title>casey&#39;s Audio Digest</title>") {
		t.Error("Channel title should be derived from the email local-part")
	}

	if !strings.Contains(rss, "<link>http://localhost:8080</link>") {
		t.Error("Channel link should be the configured base URL")
	}

	if !strings.Contains(rss, `<atom:link href="http://localhost:8080/feed/tok-abc123" rel="self" type="application/rss+xml" />`) {
		t.Error("Feed should contain atom:link self reference with the feed token")
	}

	if !strings.Contains(rss, "<language>en-us</language>") {
		t.Error("Feed should contain fixed language tag")
	}

	if !strings.Contains(rss, `<itunes:image href="http://localhost:8080/cover.png" />`) {
		t.Error("Feed should contain cover image derived from base URL")
	}

	// First episode
	if !strings.Contains(rss, "<title>Morning Digest: AI and Chips</title>") {
		t.Error("Feed should contain first episode title")
	}

	if !strings.Contains(rss, "<description><![CDATA[Today we cover two articles about AI hardware.]]></description>") {
		t.Error("Feed should wrap the summary in a CDATA section")
	}

	if !strings.Contains(rss, "<pubDate>Tue, 05 Mar 2024 09:30:00 +0000</pubDate>") {
		t.Error("Feed should contain the episode creation time as RFC1123Z UTC")
	}

	if !strings.Contains(rss, `<enclosure url="https://cdn.example.com/audio/episode1.mp3" length="0" type="audio/mpeg" />`) {
		t.Error("Feed should contain enclosure with literal zero length")
	}

	if !strings.Contains(rss, `<guid isPermaLink="false">episode-1-uuid</guid>`) {
		t.Error("Feed should contain non-permalink GUID equal to the episode id")
	}

	if !strings.Contains(rss, "<itunes:duration>00:12:34</itunes:duration>") {
		t.Error("Feed should format duration as HH:MM:SS")
	}

	// Second episode has no summary and no duration
	if !strings.Contains(rss, "<description><![CDATA[Your personalized audio digest episode.]]></description>") {
		t.Error("Feed should fall back to the fixed description when summary is absent")
	}

	if !strings.Contains(rss, "<itunes:duration>00:10:00</itunes:duration>") {
		t.Error("Feed should use the placeholder duration when none is stored")
	}

	if !strings.Contains(rss, "</channel>") {
		t.Error("Feed should contain closing channel tag")
	}

	if !strings.Contains(rss, "</rss>") {
		t.Error("Feed should contain closing rss tag")
	}
}

func TestGenerateFeedIsDeterministic(t *testing.T) {
	setupTestConfig()
	generator := NewGenerator()

	episodes := []database.Episode{
		{
			ID:        "episode-uuid",
			AccountID: "account-uuid",
			Title:     "Digest",
			AudioURL:  "https://cdn.example.com/audio/digest.mp3",
			CreatedAt: time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC),
		},
	}

	first, err := generator.Run(testAccount(), episodes)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	second, err := generator.Run(testAccount(), episodes)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if first != second {
		t.Error("Two renders of the same stored state should be byte-identical")
	}
}

func TestGenerateFeedWithSpecialCharacters(t *testing.T) {
	setupTestConfig()
	generator := NewGenerator()

	episodes := []database.Episode{
		{
			ID:        "special-episode-uuid",
			AccountID: "account-uuid",
			Title:     `Digest with <tags> & "quotes"`,
			Summary:   "Summary stays raw inside CDATA: <em>&</em>",
			AudioURL:  "https://cdn.example.com/audio/special.mp3?a=1&b=2",
			CreatedAt: time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC),
		},
	}

	rss, err := generator.Run(testAccount(), episodes)
	if err != nil {
		t.Fatalf("Expected no error with special characters, got: %v", err)
	}

	if !strings.Contains(rss, "Digest with &lt;tags&gt; &amp; &#34;quotes&#34;") {
		t.Error("Episode title should have escaped special characters")
	}

	if !strings.Contains(rss, "<![CDATA[Summary stays raw inside CDATA: <em>&</em>]]>") {
		t.Error("Summary should be emitted unescaped inside CDATA")
	}

	if !strings.Contains(rss, `url="https://cdn.example.com/audio/special.mp3?a=1&amp;b=2"`) {
		t.Error("Enclosure URL should have escaped ampersands")
	}

	// The document must remain parseable after escaping
	parsed, err := gofeed.NewParser().ParseString(rss)
	if err != nil {
		t.Fatalf("Escaped feed should remain well-formed XML, got: %v", err)
	}

	if len(parsed.Items) != 1 {
		t.Fatalf("Expected 1 parsed item, got %d", len(parsed.Items))
	}

	if parsed.Items[0].Title != `Digest with <tags> & "quotes"` {
		t.Errorf("Parsed title should round-trip the original text, got %q", parsed.Items[0].Title)
	}
}

func TestGenerateFeedWithNoEpisodes(t *testing.T) {
	setupTestConfig()
	generator := NewGenerator()

	rss, err := generator.Run(testAccount(), nil)
	if err != nil {
		t.Fatalf("Expected no error with no episodes, got: %v", err)
	}

	if !strings.Contains(rss, "<channel>") {
		t.Error("Empty feed should still contain a channel element")
	}

	if strings.Contains(rss, "<item>") {
		t.Error("Empty feed should not contain any items")
	}

	if _, err := gofeed.NewParser().ParseString(rss); err != nil {
		t.Errorf("Empty feed should be valid RSS, got: %v", err)
	}
}

func TestChannelTitle(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"casey@example.com", "casey's Audio Digest"},
		{"a.b+c@example.com", "a.b+c's Audio Digest"},
		{"no-at-sign", "no-at-sign's Audio Digest"},
	}

	for _, test := range tests {
		if got := channelTitle(test.email); got != test.expected {
			t.Errorf("For email %q, expected %q, got %q", test.email, test.expected, got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  *int
		expected string
	}{
		{nil, "00:10:00"},
		{intPtr(0), "00:00:00"},
		{intPtr(59), "00:00:59"},
		{intPtr(61), "00:01:01"},
		{intPtr(3661), "01:01:01"},
		{intPtr(36000), "10:00:00"},
		{intPtr(-5), "00:00:00"},
	}

	for _, test := range tests {
		if got := formatDuration(test.seconds); got != test.expected {
			t.Errorf("For %v seconds, expected %q, got %q", test.seconds, test.expected, got)
		}
	}
}

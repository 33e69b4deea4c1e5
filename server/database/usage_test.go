package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeUsage(t *testing.T) {
	apps := []AppUsage{
		{AppName: "chrome", Seconds: 300, URLs: []URLUsage{}},
		{AppName: "terminal", Seconds: 200, URLs: []URLUsage{}},
	}
	urls := []appURLRow{
		{AppName: "chrome", URL: "https://github.com", Seconds: 180, Visits: 4},
		{AppName: "chrome", URL: "https://news.ycombinator.com", Seconds: 120, Visits: 2},
		{AppName: "firefox", URL: "https://example.com", Seconds: 50, Visits: 1},
	}

	out := mergeUsage(apps, urls)

	assert.Len(t, out, 2)
	assert.Equal(t, "chrome", out[0].AppName)
	assert.Len(t, out[0].URLs, 2)
	assert.Equal(t, "https://github.com", out[0].URLs[0].URL)
	assert.Empty(t, out[1].URLs)
}

func TestMergeUsageCapsURLsPerApp(t *testing.T) {
	apps := []AppUsage{{AppName: "chrome", URLs: []URLUsage{}}}
	urls := make([]appURLRow, 0, topURLsPerApp+5)
	for i := 0; i < topURLsPerApp+5; i++ {
		urls = append(urls, appURLRow{
			AppName: "chrome",
			URL:     fmt.Sprintf("https://site-%02d.example", i),
			Seconds: uint64(1000 - i),
		})
	}

	out := mergeUsage(apps, urls)

	assert.Len(t, out[0].URLs, topURLsPerApp)
	assert.Equal(t, "https://site-00.example", out[0].URLs[0].URL)
	assert.Equal(t, "https://site-09.example", out[0].URLs[topURLsPerApp-1].URL)
}

func TestMergeUsageExactNameMatch(t *testing.T) {
	apps := []AppUsage{{AppName: "Chrome", URLs: []URLUsage{}}}
	urls := []appURLRow{{AppName: "chrome", URL: "https://example.com", Seconds: 10}}

	out := mergeUsage(apps, urls)

	assert.Empty(t, out[0].URLs)
}

func TestMergeUsagePreservesOrder(t *testing.T) {
	apps := []AppUsage{
		{AppName: "a", Seconds: 3, URLs: []URLUsage{}},
		{AppName: "b", Seconds: 3, URLs: []URLUsage{}},
		{AppName: "c", Seconds: 1, URLs: []URLUsage{}},
	}

	out := mergeUsage(apps, nil)

	assert.Equal(t, "a", out[0].AppName)
	assert.Equal(t, "b", out[1].AppName)
	assert.Equal(t, "c", out[2].AppName)
}

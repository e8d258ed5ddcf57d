package rule

import "regexp"

// excludedExtensions are path extensions that are never media. They are checked before any
// regular expression because they match far more often than a real stream does.
var excludedExtensions = map[string]struct{}{
	".js": {}, ".css": {}, ".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".ico": {},
	".html": {}, ".htm": {}, ".woff": {}, ".woff2": {}, ".ttf": {}, ".svg": {}, ".json": {},
	".webp": {},
}

// excludedShapes are substrings of resolver and tracker URLs that carry a media URL as a
// parameter rather than being one.
var excludedShapes = []string{
	"url=http",
	"v=http",
	"/favicon",
	"/beacon",
	"/collect?",
}

// mediaExtensions are matched anywhere in the lowercased URL, query included.
var mediaExtensions = []string{
	".m3u8", ".mp4", ".flv", ".mpd", ".mkv", ".m4a", ".mp3", ".aac", ".webm", ".mov", ".f4v",
}

// mediaPatterns are the curated stream shapes that carry no telling extension.
var mediaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://[^?#]{12,}\.(m3u8|mp4|mkv|flv|mp3|m4a|aac|mpd)(\?.*)?$`),
	regexp.MustCompile(`(?i)/index\.m3u8`),
	regexp.MustCompile(`(?i)^https?://[^?]*video/tos`),
	regexp.MustCompile(`(?i)^https?://[^?]*obj/tos`),
	regexp.MustCompile(`(?i)/videoplayback\?`),
	regexp.MustCompile(`(?i)mime(_type)?=video(%2f|/|_)`),
	regexp.MustCompile(`(?i)/download\.aspx\?.*\b(mp4|m3u8|flv)\b`),
	regexp.MustCompile(`(?i)[?&](type|format)=(m3u8|mp4|flv|hls)\b`),
}

// mediaPathShapes are path fragments typical of streaming endpoints.
var mediaPathShapes = []string{
	"/playlist.m3u8",
	"/manifest",
	"/vod/",
	"/live/",
	"/hls/",
	"/dash/",
}

// defaultAdHosts are analytics and ad networks whose requests are never promoted.
var defaultAdHosts = []string{
	"google-analytics.com",
	"googletagmanager.com",
	"googlesyndication.com",
	"doubleclick.net",
	"googleadservices.com",
	"adservice.google.com",
	"hm.baidu.com",
	"cpro.baidu.com",
	"pos.baidu.com",
	"cnzz.com",
	"umeng.com",
	"mmstat.com",
	"51.la",
	"adnxs.com",
	"scorecardresearch.com",
	"facebook.net",
}

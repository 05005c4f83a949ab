package crawler

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSummaryRunes = 500

var whitespaceRE = regexp.MustCompile(`\s+`)

// StripHTML 去除标记内容：删掉 script/style 块后取纯文本，并折叠空白。
// 非 HTML 的普通文本原样（折叠空白后）返回。
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<>") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			doc.Find("script, style, noscript").Remove()
			s = doc.Text()
		}
	}
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

// CleanItem 清洗标题、正文与摘要，并把摘要截断到上限
func CleanItem(item *NewsItem) {
	item.Title = StripHTML(item.Title)
	item.Content = StripHTML(item.Content)
	item.Summary = truncateRunes(StripHTML(item.Summary), maxSummaryRunes)
	item.URL = strings.TrimSpace(item.URL)
	item.Source = strings.TrimSpace(item.Source)
	item.Author = strings.TrimSpace(item.Author)
}

// truncateRunes 按 rune 数截断，避免把多字节字符截成半个
func truncateRunes(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

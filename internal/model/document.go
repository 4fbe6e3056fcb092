package model

// DocumentContext holds the extracted text of an uploaded document along
// with its source metadata. A session carries at most one document context;
// a new upload replaces the previous one wholesale.
type DocumentContext struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Text string `json:"text"`
}

// Preview returns the first max runes of the extracted text, with "..."
// appended when truncated.
func (d DocumentContext) Preview(max int) string {
	runes := []rune(d.Text)
	if len(runes) <= max {
		return d.Text
	}
	return string(runes[:max]) + "..."
}

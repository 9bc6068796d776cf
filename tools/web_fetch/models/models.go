package models

// Result is the extracted main content of one page.
type Result struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

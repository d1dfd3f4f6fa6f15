package request

// SearchQuery is bound from the query string.
type SearchQuery struct {
	Ref    string `form:"ref"`
	Search string `form:"search"`
	Serial string `form:"serial"`
	Pin    string `form:"pin"`
	Status string `form:"status"`
	Kind   string `form:"kind"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

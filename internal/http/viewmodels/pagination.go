package viewmodels

// PageLink is one entry of a windowed page control. Ellipsis entries carry no page.
type PageLink struct {
	Page     int
	Href     string
	Current  bool
	Ellipsis bool
}

type Pager struct {
	Page        int
	TotalPages  int
	TotalCount  int
	ShowingFrom int
	ShowingTo   int
	Links       []PageLink
	PrevHref    string
	NextHref    string
}

func (p Pager) HasPrev() bool { return p.Page > 1 }
func (p Pager) HasNext() bool { return p.Page < p.TotalPages }

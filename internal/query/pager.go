package query

import "math"

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 10

	// PagerDisabled is reported instead of Meta when no pager was requested.
	PagerDisabled = "pager disabled"
)

type Pager struct {
	Requested  bool
	PageNumber int64
	PageSize   int64
}

// Meta describes one page of a paged find.
type Meta struct {
	TotalItems    int64 `json:"total_items"`
	ItemsInPage   int   `json:"items_in_page"`
	NumberOfPages int64 `json:"number_of_pages"`
	PageSize      int64 `json:"page_size"`
	ActualPage    int64 `json:"actual_page"`
}

// Paginate turns raw page number/size values into a pager.
// Non-positive or unparsable values fall back to page 1 and size 10.
// A page number past the last addressable offset is clamped to it.
func Paginate(requested bool, pageNumberRaw, pageSizeRaw any) Pager {
	if !requested {
		return Pager{}
	}
	p := Pager{Requested: true, PageNumber: DefaultPageNumber, PageSize: DefaultPageSize}
	if n := ParseInt(pageNumberRaw); n.Valid && n.Value > 0 {
		p.PageNumber = n.Value
	}
	if s := ParseInt(pageSizeRaw); s.Valid && s.Value > 0 {
		p.PageSize = s.Value
	}
	// (PageNumber-1)*PageSize must fit in int64
	if last := math.MaxInt64/p.PageSize + 1; p.PageNumber > last {
		p.PageNumber = last
	}
	return p
}

func (p Pager) Skip() int64 {
	if !p.Requested {
		return 0
	}
	return (p.PageNumber - 1) * p.PageSize
}

func (p Pager) Limit() int64 {
	if !p.Requested {
		return 0
	}
	return p.PageSize
}

// Meta reports the page metadata for a total count and the number of
// documents actually returned.
func (p Pager) Meta(total int64, returned int) Meta {
	pages := int64(0)
	if p.PageSize > 0 && total > 0 {
		pages = total / p.PageSize
		if total%p.PageSize != 0 {
			pages++
		}
	}
	return Meta{
		TotalItems:    total,
		ItemsInPage:   returned,
		NumberOfPages: pages,
		PageSize:      p.PageSize,
		ActualPage:    p.PageNumber,
	}
}

// Report is the value of the "pager" response field.
func (p Pager) Report(total int64, returned int) any {
	if !p.Requested {
		return PagerDisabled
	}
	return p.Meta(total, returned)
}

// pagerRequest reads the raw "pager" parameter: a mapping with
// page_number/page_size, or a bare truthy flag for the defaults.
func pagerRequest(raw any) (requested bool, number, size any) {
	switch v := raw.(type) {
	case nil:
		return false, nil, nil
	case map[string]any:
		return true, v["page_number"], v["page_size"]
	case bool:
		return v, nil, nil
	case string:
		switch v {
		case "", "0", "false", "off", "no":
			return false, nil, nil
		}
		return true, nil, nil
	default:
		return true, nil, nil
	}
}

package pagination

import (
	"fmt"
	"math"
	"net/url"
	"strconv"

	"menuapi/internal/validator"
)

const (
	PageParam     = "page"
	PageSizeParam = "page_size"

	DefaultPageSize = 10
	MaxPageSize     = 100

	// (Page-1)*Sizeがint64に収まる上限
	MaxPage = math.MaxInt64 / MaxPageSize
)

type Request struct {
	Page int
	Size int
}

// page（1始まり）とpage_size。page_sizeは省略時10、上限100に丸める。
// 最終ページより先は空ページ（エラーにしない）
func ParseRequest(q url.Values) (Request, error) {
	req := Request{Page: 1, Size: DefaultPageSize}
	errs := validator.FieldErrors{}

	if v := q.Get(PageParam); v != "" {
		p, err := strconv.Atoi(v)
		switch {
		case err != nil || p < 1:
			errs.Add(PageParam, "a valid positive integer is required")
		case int64(p) > MaxPage:
			errs.Add(PageParam, fmt.Sprintf("ensure this value is less than or equal to %d", int64(MaxPage)))
		default:
			req.Page = p
		}
	}

	if v := q.Get(PageSizeParam); v != "" {
		s, err := strconv.Atoi(v)
		if err != nil || s < 1 {
			errs.Add(PageSizeParam, "a valid positive integer is required")
		} else {
			req.Size = min(s, MaxPageSize)
		}
	}

	if err := errs.OrNil(); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (r Request) Offset() int {
	if int64(r.Page) > MaxPage || r.Size > MaxPageSize {
		return math.MaxInt
	}
	return int(min((int64(r.Page)-1)*int64(r.Size), int64(math.MaxInt)))
}

func (r Request) Limit() int {
	return r.Size
}

func (r Request) HasNext(total int64) bool {
	if int64(r.Page) > MaxPage || r.Size > MaxPageSize {
		return false
	}
	return int64(r.Page)*int64(r.Size) < total
}

func (r Request) HasPrevious() bool {
	return r.Page > 1
}

// 一覧APIの共通レスポンス
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// base のクエリを保ったままnext/previousを組み立てる。baseがnilならリンクもnil
func NewPage[T any](items []T, total int64, req Request, base *url.URL) Page[T] {
	if items == nil {
		items = []T{}
	}
	p := Page[T]{Count: total, Results: items}
	if base == nil {
		return p
	}
	if req.HasNext(total) {
		p.Next = link(base, req.Page+1)
	}
	if req.HasPrevious() {
		p.Previous = link(base, req.Page-1)
	}
	return p
}

func link(base *url.URL, page int) *string {
	u := *base
	q := u.Query()
	if page <= 1 {
		q.Del(PageParam)
	} else {
		q.Set(PageParam, strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

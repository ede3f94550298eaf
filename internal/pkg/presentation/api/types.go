package api

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/diwise/alarm-correlation/pkg/types"
)

type meta struct {
	TotalRecords uint64  `json:"totalRecords"`
	Offset       *uint64 `json:"offset,omitempty"`
	Limit        *uint64 `json:"limit,omitempty"`
	Count        uint64  `json:"count"`
}

type links struct {
	Self  *string `json:"self,omitempty"`
	First *string `json:"first,omitempty"`
	Prev  *string `json:"prev,omitempty"`
	Next  *string `json:"next,omitempty"`
}

type ApiResponse struct {
	Meta  *meta  `json:"meta,omitempty"`
	Data  any    `json:"data"`
	Links *links `json:"links,omitempty"`
}

func (r ApiResponse) Byte() []byte {
	b, _ := json.Marshal(r)
	return b
}

func newCollectionResponse(self *url.URL, c types.Collection[types.Alarm]) ApiResponse {
	response := ApiResponse{
		Meta: &meta{
			TotalRecords: c.TotalCount,
			Count:        c.Count,
		},
		Data: c.Data,
	}

	if c.Limit == 0 {
		return response
	}

	response.Meta.Offset = &c.Offset
	response.Meta.Limit = &c.Limit

	page := func(offset uint64) *string {
		u := *self
		q := u.Query()
		q.Set("offset", fmt.Sprintf("%d", offset))
		q.Set("limit", fmt.Sprintf("%d", c.Limit))
		u.RawQuery = q.Encode()
		s := u.String()
		return &s
	}

	response.Links = &links{
		Self:  page(c.Offset),
		First: page(0),
	}

	if c.Offset > 0 {
		prev := uint64(0)
		if c.Offset > c.Limit {
			prev = c.Offset - c.Limit
		}
		response.Links.Prev = page(prev)
	}

	if c.Offset+c.Count < c.TotalCount {
		response.Links.Next = page(c.Offset + c.Limit)
	}

	return response
}

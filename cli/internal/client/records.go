package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/pkg/resource"
)

const dateLayout = "2006-01-02"

type pagedRecords struct {
	Data       []model.Record `json:"data"`
	Pagination *struct {
		Total int `json:"total"`
	} `json:"pagination"`
}

// FetchRecords loads records of a resource from the node API. The to date is
// inclusive, so the request asks for everything before the following day.
func (c *Client) FetchRecords(ctx context.Context, q model.RecordQuery) (model.RecordPage, error) {
	res, err := resource.Lookup(q.Page)
	if err != nil {
		return model.RecordPage{}, err
	}

	params := url.Values{}
	if res.DateRange && !q.From.IsZero() {
		params.Set("from", q.From.Format(dateLayout))
	}
	if res.DateRange && !q.To.IsZero() {
		params.Set("to", q.To.AddDate(0, 0, 1).Format(dateLayout))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	u := c.nodeURL + "/" + res.Endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, u, nil, &raw); err != nil {
		return model.RecordPage{}, err
	}
	return DecodeRecords(raw)
}

// DecodeRecords decodes a record payload, either a bare array or a
// {data, pagination} object.
func DecodeRecords(raw json.RawMessage) (model.RecordPage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return model.RecordPage{Records: []model.Record{}}, nil
	}
	if trimmed[0] == '[' {
		var recs []model.Record
		if err := json.Unmarshal(trimmed, &recs); err != nil {
			return model.RecordPage{}, fmt.Errorf("decode records: %w", err)
		}
		return model.RecordPage{Records: recs}, nil
	}

	var paged pagedRecords
	if err := json.Unmarshal(trimmed, &paged); err != nil {
		return model.RecordPage{}, fmt.Errorf("decode records: %w", err)
	}
	page := model.RecordPage{Records: paged.Data}
	if page.Records == nil {
		page.Records = []model.Record{}
	}
	if paged.Pagination != nil {
		total := paged.Pagination.Total
		page.Total = &total
	}
	return page, nil
}

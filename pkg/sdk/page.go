package sdk

import "encoding/json"

// Page is one fetched page of a collection, ordered as the server returned
// it. Pages are transient: each fetch produces a new one and the previous is
// superseded, never mutated.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// UnmarshalJSON accepts both response shapes the server is known to emit: a
// paginated {items, total} envelope, or a bare JSON array. For a bare array
// the sequence length stands in for the total, which under-reports it when
// the server applied a limit smaller than the true population; pagination
// then shows a last page prematurely. Known limitation, kept for
// compatibility with endpoints that predate the envelope.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := firstNonSpace(data)
	if trimmed == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		p.Items = items
		p.Total = len(items)
		return nil
	}
	var envelope struct {
		Items []T `json:"items"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	p.Items = envelope.Items
	p.Total = envelope.Total
	if p.Total == 0 && len(p.Items) > 0 {
		p.Total = len(p.Items)
	}
	return nil
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

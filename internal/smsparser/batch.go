package smsparser

import (
	"bytes"
	"encoding/json"

	"smsledger/internal/models"
)

// SnippetRunes bounds the message text echoed back in batch reports.
const SnippetRunes = 50

// Message is one batch item. On the wire it is either a bare string or an
// object with text, sender and timestamp.
type Message struct {
	Text      string  `json:"text"`
	Sender    *string `json:"sender,omitempty"`
	Timestamp *int64  `json:"timestamp,omitempty"`
}

// UnmarshalJSON accepts both item shapes.
func (m *Message) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*m = Message{}
		return json.Unmarshal(data, &m.Text)
	}
	type plain Message
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Message(p)
	return nil
}

// BatchError reports one message that could not be parsed.
type BatchError struct {
	Text  string `json:"text"`
	Error Reason `json:"error"`
}

// BatchResult partitions a batch into parsed transactions and failures.
type BatchResult struct {
	Total        int                   `json:"total"`
	Parsed       int                   `json:"parsed"`
	Transactions []*models.Transaction `json:"transactions"`
	Errors       []BatchError          `json:"errors"`
}

// ParseBatch runs the default parser over items.
func ParseBatch(items []Message) BatchResult {
	return defaultParser.ParseBatch(items)
}

// ParseBatch parses every item independently; a failing item never aborts
// the rest. Output order follows input order.
func (p *Parser) ParseBatch(items []Message) BatchResult {
	res := BatchResult{
		Total:        len(items),
		Transactions: make([]*models.Transaction, 0, len(items)),
		Errors:       []BatchError{},
	}
	for _, item := range items {
		r := p.Parse(item.Text, item.Sender, item.Timestamp)
		if !r.Success {
			res.Errors = append(res.Errors, BatchError{Text: Snippet(item.Text), Error: r.Error})
			continue
		}
		res.Transactions = append(res.Transactions, r.Transaction)
	}
	res.Parsed = len(res.Transactions)
	return res
}

// Snippet truncates text to SnippetRunes runes.
func Snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= SnippetRunes {
		return text
	}
	return string(runes[:SnippetRunes])
}

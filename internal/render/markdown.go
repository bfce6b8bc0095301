// Package render turns engine answer text into display segments. Answer text
// that is a JSON array of objects renders as labeled record lines; everything
// else passes through as plain markdown.
package render

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	SegmentMarkdown = "markdown"
	SegmentRecords  = "records"
)

// Segment is one renderable unit of answer text.
type Segment struct {
	Type  string   `json:"type"`
	Text  string   `json:"text,omitempty"`
	Lines []string `json:"lines,omitempty"`
}

// recordFields are rendered in this order for every record. Fields with an
// empty label render the value alone.
var recordFields = []struct {
	key     string
	label   string
	escaped bool
}{
	{key: "title", label: "### ", escaped: true},
	{key: "entity", label: "**Entity:** "},
	{key: "rank", label: "**Rank:** "},
	{key: "in_context", label: "**In Context:** "},
	{key: "id", label: "**ID:** "},
	{key: "index_id", label: "**Index ID:** "},
	{key: "index_name", label: "**Index Name:** "},
	{key: "number of relationships", label: "**Number of Relationships:** "},
	{key: "source", label: "**Source:** "},
	{key: "target", label: "**Target:** "},
	{key: "weight", label: "**Weight:** "},
	{key: "links", label: "**Links:** "},
	{key: "content", label: "", escaped: true},
	{key: "description", label: "", escaped: true},
}

// separatorKeys gate the trailing "---" after each record. in_context alone
// does not produce one.
var separatorKeys = []string{
	"title", "content", "description", "rank", "id", "index_id", "index_name",
	"entity", "number of relationships", "source", "target", "weight", "links",
}

// Format parses text and returns the segment it renders as. Only a JSON
// array whose elements are all objects becomes a record segment; any other
// shape, including valid JSON that is not such an array, stays markdown.
func Format(text string) Segment {
	records, ok := parseRecordList(text)
	if !ok {
		return Segment{Type: SegmentMarkdown, Text: EscapeSpecialChars(text)}
	}

	lines := make([]string, 0, len(records)*4)
	for _, record := range records {
		lines = append(lines, renderRecord(record)...)
	}

	return Segment{Type: SegmentRecords, Lines: lines}
}

func parseRecordList(text string) ([]map[string]any, bool) {
	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber()

	var parsed any
	if err := decoder.Decode(&parsed); err != nil {
		return nil, false
	}
	if decoder.More() {
		return nil, false
	}

	items, ok := parsed.([]any)
	if !ok {
		return nil, false
	}

	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		records = append(records, record)
	}

	return records, true
}

func renderRecord(record map[string]any) []string {
	lines := make([]string, 0, 4)

	for _, field := range recordFields {
		value, present := record[field.key]
		if !present {
			continue
		}
		text := formatValue(value)
		if field.escaped {
			text = EscapeSpecialChars(text)
		}
		lines = append(lines, field.label+text)
	}

	for _, key := range separatorKeys {
		if _, present := record[key]; present {
			lines = append(lines, "---")
			break
		}
	}

	return lines
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return "None"
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// EscapeSpecialChars escapes characters markdown viewers treat specially.
// Applied at display time only, never to stored text.
func EscapeSpecialChars(text string) string {
	return strings.ReplaceAll(text, "$", `\$`)
}

package provider

import (
	"strings"

	"github.com/tidwall/gjson"
)

// OutputKind tags the shape a prediction output arrived in.
type OutputKind int

const (
	OutputEmpty OutputKind = iota
	OutputString
	OutputObject
	OutputList
)

// Output is a prediction output decoded into one of its known shapes: a bare
// string, an object carrying a "url" field, or a list of either.
type Output struct {
	Kind  OutputKind
	Value string
	Items []Output
}

// ParseOutput classifies raw prediction output JSON.
func ParseOutput(raw []byte) Output {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return Output{Kind: OutputEmpty}
	}
	return fromResult(gjson.ParseBytes(raw))
}

func fromResult(r gjson.Result) Output {
	switch {
	case r.Type == gjson.String:
		return Output{Kind: OutputString, Value: r.String()}
	case r.IsArray():
		items := make([]Output, 0, len(r.Array()))
		for _, item := range r.Array() {
			items = append(items, fromResult(item))
		}
		return Output{Kind: OutputList, Items: items}
	case r.IsObject():
		return Output{Kind: OutputObject, Value: r.Get("url").String()}
	default:
		return Output{Kind: OutputEmpty}
	}
}

// URIs flattens the output into its non-empty image references.
func (o Output) URIs() []string {
	switch o.Kind {
	case OutputString, OutputObject:
		if v := strings.TrimSpace(o.Value); v != "" {
			return []string{v}
		}
		return nil
	case OutputList:
		var uris []string
		for _, item := range o.Items {
			uris = append(uris, item.URIs()...)
		}
		return uris
	default:
		return nil
	}
}

// Text joins string fragments, as streamed by language models.
func (o Output) Text() string {
	switch o.Kind {
	case OutputString:
		return o.Value
	case OutputList:
		var b strings.Builder
		for _, item := range o.Items {
			b.WriteString(item.Text())
		}
		return b.String()
	default:
		return ""
	}
}

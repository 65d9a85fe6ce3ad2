package apiclient

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/degixdaw/filebrowser/shared/domain"
)

const (
	pageSize    = 100
	newestFirst = "created_at.desc"
	typeColumn  = "file_type"
)

// Predicate is one PostgREST filter clause, rendered as column=op.value.
type Predicate struct {
	Column   string
	Operator string
	Value    string
}

func (p Predicate) String() string {
	return queryValue(p.Column) + "=" + p.Operator + "." + queryValue(p.Value)
}

// postgrestLiterals undoes escaping for the characters PostgREST syntax relies on.
var postgrestLiterals = strings.NewReplacer(
	"%28", "(", "%29", ")", "%21", "!", "%2A", "*", "%2C", ",", "%2F", "/", "%3A", ":",
)

// queryValue escapes v for a query string while keeping PostgREST operators readable.
func queryValue(v string) string {
	return postgrestLiterals.Replace(url.QueryEscape(v))
}

// Query describes one catalog listing request.
type Query struct {
	Resource   string
	Select     string
	Limit      int
	Order      string
	Predicates []Predicate // at most one
}

// filterPredicates maps categories to their server-side clause. ReceivedOnly has
// none: it is applied on the client once rows are in.
var filterPredicates = map[domain.FilterCategory]Predicate{
	domain.FilterImages: {Column: typeColumn, Operator: "like", Value: "image*"},
	domain.FilterAudio:  {Column: typeColumn, Operator: "like", Value: "audio*"},
	domain.FilterMidi:   {Column: typeColumn, Operator: "in", Value: "(audio/midi,audio/x-midi)"},
	domain.FilterVideo:  {Column: typeColumn, Operator: "like", Value: "video*"},
}

// BuildQuery turns a filter into a catalog query. join is the embedded resource
// selected next to the attachment columns, e.g. "messages!inner(sender_id)".
func BuildQuery(resource, join string, filter domain.FilterCategory) Query {
	sel := "*"
	if join != "" {
		sel += "," + join
	}
	q := Query{
		Resource: resource,
		Select:   sel,
		Limit:    pageSize,
		Order:    newestFirst,
	}
	if p, ok := filterPredicates[filter]; ok {
		q.Predicates = []Predicate{p}
	}
	return q
}

// Path renders resource and query string. Values are escaped except for the
// characters PostgREST syntax uses, so the request matches what the backend documents.
func (q Query) Path() string {
	var b strings.Builder
	b.WriteString(q.Resource)
	b.WriteString("?select=")
	b.WriteString(queryValue(q.Select))
	b.WriteString("&limit=")
	b.WriteString(strconv.Itoa(q.Limit))
	b.WriteString("&order=")
	b.WriteString(queryValue(q.Order))
	for _, p := range q.Predicates {
		b.WriteString("&")
		b.WriteString(p.String())
	}
	return b.String()
}

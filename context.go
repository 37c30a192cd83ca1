package ember

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/trace"
)

// needEscape and pctEncode mirror the escaping rules a W3C baggage member's
// value must satisfy; grounded on context.go's escapeValue.
var needEscape = regexp.MustCompile(`%(?:$|([0-9a-fA-F]?[^0-9a-fA-F]))|[^\x21\x23-\x2B\x2D-\x3A\x3C-\x5B\x5D-\x7E]`)
var pctEncode = regexp.MustCompile(`%(?:$|([0-9a-fA-F][^0-9a-fA-F])|[^0-9a-fA-F])| |"|,|;|\\`)

func escapeValue(v string) string {
	v = pctEncode.ReplaceAllStringFunc(v, func(m string) (r string) {
		for _, c := range m {
			switch c {
			case '%':
				r += "%25"
			case ' ':
				r += "%20"
			case '"':
				r += "%22"
			case ',':
				r += "%2C"
			case ';':
				r += "%3B"
			case '\\':
				r += "%5C"
			default:
				r += string(c)
			}
		}
		if len(m) == len(r) {
			panic(fmt.Sprintf("programmer error: pulled odd string %q", m))
		}
		return r
	})
	v = strconv.QuoteToASCII(v)
	return v[1 : len(v)-1]
}

// ContextWithFields attaches key/value pairs to ctx as baggage members, so
// that every emission downstream that carries ctx via WithContext picks them
// up as structured fields automatically, per SPEC_FULL §4.6. Any trailing
// unpaired value is silently dropped.
func ContextWithFields(ctx context.Context, pairs ...string) context.Context {
	b := baggage.FromContext(ctx)
	pairs = pairs[:len(pairs)-len(pairs)%2]
	for i := 0; i < len(pairs); i += 2 {
		k, v := pairs[i], pairs[i+1]
		if needEscape.MatchString(v) {
			v = escapeValue(v)
		}
		m, err := baggage.NewMember(k, v)
		if err != nil {
			continue
		}
		n, err := b.SetMember(m)
		if err != nil {
			continue
		}
		b = n
	}
	return baggage.ContextWithBaggage(ctx, b)
}

// FieldsFromContext collects baggage members and, if a valid span context
// is present, trace_id/span_id, into a fields map ready to merge into an
// emission, per SPEC_FULL §4.6 ("context field enrichment").
func FieldsFromContext(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields := make(map[string]any)

	for _, m := range baggage.FromContext(ctx).Members() {
		fields[m.Key()] = m.Value()
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields["trace_id"] = sc.TraceID().String()
		fields["span_id"] = sc.SpanID().String()
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

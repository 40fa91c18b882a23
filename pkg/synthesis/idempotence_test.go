package synthesis

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestSynthesizeIdempotence reconstructs the example trees from the pruner's
// extremal model valuations and feeds them back through synthesis; the
// second run must select the same constraint set.
func TestSynthesizeIdempotence(t *testing.T) {
	r := testRunner(nil)
	first, err := r.Synthesize(context.Background(), []byte(s1Input), Options{})
	if err != nil {
		t.Fatalf("first run error: %v", err)
	}

	rebuild := func(vals map[string]string) map[string]any {
		view := func(name string) map[string]any {
			return map[string]any{
				"name": name,
				"rect": []any{
					json.Number(vals[name+".left"]), json.Number(vals[name+".top"]),
					json.Number(vals[name+".right"]), json.Number(vals[name+".bottom"]),
				},
			}
		}
		root := view("root")
		root["children"] = []any{view("header")}
		return root
	}
	input, err := json.Marshal(map[string]any{
		"examples": []any{rebuild(first.ValuationsMin), rebuild(first.ValuationsMax)},
	})
	if err != nil {
		t.Fatal(err)
	}

	second, err := r.Synthesize(context.Background(), input, Options{})
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}

	render := func(res *Result) []string {
		out := make([]string, 0, len(res.Constraints))
		for _, c := range res.Constraints {
			out = append(out, c.String())
		}
		sort.Strings(out)
		return out
	}
	if diff := cmp.Diff(render(first), render(second)); diff != "" {
		t.Errorf("constraint sets differ (-first +second):\n%s", diff)
	}
}

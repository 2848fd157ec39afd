package router

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var tagLine = regexp.MustCompile(`(?i)^[\s*#>_\-]*(problem[ _]type|type|plan|recommendation|recommended strategy|strategy)[\s*_]*:[\s*_]*(.*)$`)

// ParsePlan reads a planner reply. Tag lines ("Type: Math") and a JSON
// object ({"type": "math", ...}) are both accepted. Anything missing
// degrades to Logic, DirectReasoning and the raw reply as the plan.
func ParsePlan(raw string) *Decision {
	fields, ok := parseJSONPlan(raw)
	if !ok {
		fields = parseTagLines(raw)
	}

	d := DefaultDecision(strings.TrimSpace(raw))
	if fields.problemType != "" {
		if t, ok := matchProblemType(fields.problemType); ok {
			d.ProblemType = t
		} else {
			d.Reasons = append(d.Reasons, fmt.Sprintf("unknown problem type %q; using %s", fields.problemType, Logic))
		}
	} else {
		d.Reasons = append(d.Reasons, "no problem type tag; using "+string(Logic))
	}

	if fields.recommendation != "" {
		if r, ok := matchRecommendation(fields.recommendation); ok {
			d.Strategy = r
		} else {
			d.Reasons = append(d.Reasons, fmt.Sprintf("unknown recommendation %q; using %s", fields.recommendation, DirectReasoning))
		}
	} else {
		d.Reasons = append(d.Reasons, "no recommendation tag; using "+string(DirectReasoning))
	}

	if plan := strings.TrimSpace(fields.plan); plan != "" {
		d.Plan = plan
	}
	return d
}

type planFields struct {
	problemType    string
	plan           string
	recommendation string
}

func parseJSONPlan(raw string) (planFields, bool) {
	content := strings.TrimSpace(raw)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return planFields{}, false
	}
	obj := content[start : end+1]
	if !gjson.Valid(obj) {
		return planFields{}, false
	}

	f := planFields{
		problemType:    firstString(obj, "type", "problem_type", "problemType"),
		recommendation: firstString(obj, "recommendation", "strategy", "recommended_strategy"),
	}
	plan := gjson.Get(obj, "plan")
	if plan.IsArray() {
		var steps []string
		for _, step := range plan.Array() {
			steps = append(steps, step.String())
		}
		f.plan = strings.Join(steps, "\n")
	} else {
		f.plan = plan.String()
	}
	if f.problemType == "" && f.recommendation == "" && f.plan == "" {
		return planFields{}, false
	}
	return f, true
}

func firstString(obj string, keys ...string) string {
	for _, k := range keys {
		if v := gjson.Get(obj, k); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// parseTagLines collects tag values. A plan may continue over the lines
// that follow its tag until the next tag.
func parseTagLines(raw string) planFields {
	var f planFields
	var plan []string
	inPlan := false
	for _, line := range strings.Split(raw, "\n") {
		m := tagLine.FindStringSubmatch(line)
		if m == nil {
			if inPlan {
				plan = append(plan, line)
			}
			continue
		}
		inPlan = false
		value := strings.TrimSpace(strings.Trim(m[2], "*_ "))
		switch strings.ToLower(strings.ReplaceAll(m[1], "_", " ")) {
		case "type", "problem type":
			if f.problemType == "" {
				f.problemType = value
			}
		case "recommendation", "recommended strategy", "strategy":
			if f.recommendation == "" {
				f.recommendation = value
			}
		case "plan":
			inPlan = true
			if value != "" {
				plan = append(plan, value)
			}
		}
	}
	f.plan = strings.TrimSpace(strings.Join(plan, "\n"))
	return f
}

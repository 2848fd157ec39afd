package eval

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	questionHeader = regexp.MustCompile(`\[Question \d+\] \((.*?)\)`)
	resultLine     = regexp.MustCompile(`Result: (CORRECT|INCORRECT)`)
)

// Analysis holds the two readings of an evaluation log.
type Analysis struct {
	// Recorded counts the Result lines as they were written.
	Recorded Report `json:"recorded"`
	// Regraded grades each Expected / Agent Output pair again.
	Regraded Report `json:"regraded"`
}

type logBlock struct {
	domain      string
	expected    string
	got         string
	hasExpected bool
	hasGot      bool
}

// AnalyzeLog re-scores a log written by Harness.Run.
func AnalyzeLog(r io.Reader) (*Analysis, error) {
	a := &Analysis{}
	var block logBlock
	flush := func() {
		if block.hasExpected && block.hasGot {
			domain := block.domain
			if domain == "" {
				domain = "unknown"
			}
			a.Regraded.Add(domain, Grade(block.expected, block.got))
		}
		block = logBlock{domain: block.domain}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case questionHeader.MatchString(line):
			flush()
			block.domain = strings.TrimSpace(questionHeader.FindStringSubmatch(line)[1])
		case len(line) >= len(Separator) && strings.Trim(line, "-") == "":
			flush()
		case strings.HasPrefix(line, "Expected:"):
			block.expected = strings.TrimSpace(strings.TrimPrefix(line, "Expected:"))
			block.hasExpected = true
		case strings.HasPrefix(line, "Agent Output:"):
			block.got = strings.TrimSpace(strings.TrimPrefix(line, "Agent Output:"))
			block.hasGot = true
		default:
			if m := resultLine.FindStringSubmatch(line); m != nil && block.domain != "" {
				a.Recorded.Add(block.domain, m[1] == "CORRECT")
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	flush()
	return a, nil
}

package testrunner

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/orchestrator"
)

type xmlSuites struct {
	Suites []xmlSuite `xml:"testsuite"`
}

type xmlSuite struct {
	Name   string     `xml:"name,attr"`
	Cases  []xmlCase  `xml:"testcase"`
	Suites []xmlSuite `xml:"testsuite"`
}

type xmlCase struct {
	Name      string      `xml:"name,attr"`
	ClassName string      `xml:"classname,attr"`
	Time      string      `xml:"time,attr"`
	Failure   *xmlProblem `xml:"failure"`
	Error     *xmlProblem `xml:"error"`
	Skipped   *xmlProblem `xml:"skipped"`
	Stdout    string      `xml:"system-out"`
	Stderr    string      `xml:"system-err"`
}

type xmlProblem struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// ParseReport reads one XML report. Both a bare <testsuite> and a
// <testsuites> root are accepted.
func ParseReport(r io.Reader) ([]orchestrator.TestCase, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var root struct {
		XMLName xml.Name
	}
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid test report: %w", err)
	}

	var suites []xmlSuite
	switch root.XMLName.Local {
	case "testsuites":
		var s xmlSuites
		if err := xml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("invalid test report: %w", err)
		}
		suites = s.Suites
	case "testsuite":
		var s xmlSuite
		if err := xml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("invalid test report: %w", err)
		}
		suites = []xmlSuite{s}
	default:
		return nil, fmt.Errorf("invalid test report: unexpected root element <%s>", root.XMLName.Local)
	}

	var cases []orchestrator.TestCase
	for _, s := range suites {
		cases = appendSuite(cases, s)
	}
	return cases, nil
}

func appendSuite(cases []orchestrator.TestCase, s xmlSuite) []orchestrator.TestCase {
	for _, c := range s.Cases {
		cases = append(cases, convertCase(c))
	}
	for _, nested := range s.Suites {
		cases = appendSuite(cases, nested)
	}
	return cases
}

func convertCase(c xmlCase) orchestrator.TestCase {
	tc := orchestrator.TestCase{
		Class:    c.ClassName,
		Name:     c.Name,
		Outcome:  config.EventPassed,
		Duration: parseSeconds(c.Time),
		Stdout:   strings.TrimSpace(c.Stdout),
		Stderr:   strings.TrimSpace(c.Stderr),
	}
	switch {
	case c.Failure != nil:
		tc.Outcome = config.EventFailed
		tc.Message = c.Failure.summary()
	case c.Error != nil:
		tc.Outcome = config.EventFailed
		tc.Message = c.Error.summary()
	case c.Skipped != nil:
		tc.Outcome = config.EventSkipped
		tc.Message = c.Skipped.summary()
	}
	return tc
}

func (p *xmlProblem) summary() string {
	switch {
	case p.Message != "":
		return p.Message
	case p.Type != "":
		return p.Type
	}
	// First line of the stack trace.
	body := strings.TrimSpace(p.Body)
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[:i]
	}
	return body
}

func parseSeconds(s string) time.Duration {
	// Some writers use a thousands separator.
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}

// ParseReportDir reads every TEST-*.xml report in dir, in file name order.
func ParseReportDir(dir string) (*orchestrator.TestReport, error) {
	files, err := filepath.Glob(filepath.Join(dir, "TEST-*.xml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	report := &orchestrator.TestReport{}
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		cases, err := ParseReport(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(file), err)
		}
		report.Cases = append(report.Cases, cases...)
	}
	return report, nil
}

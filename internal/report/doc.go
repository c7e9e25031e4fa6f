// Package report renders the outcome of a build for humans (text) or for
// other tools (JSON). Test cases are filtered by the event kinds the
// descriptor asks for, while the summary always counts every case.
package report

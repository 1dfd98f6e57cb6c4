package fixture

import (
	"fmt"
	"strings"

	"github.com/osvaldoandrade/gitfixture/internal/domain"
)

// Parsers for the fixed output layouts of the external tool. These stay
// deliberately dumb: the layouts are stable contracts of the tool's
// porcelain and anything fancier would re-implement it.

// parseBranchRows reads "git branch" style rows: a two-column marker
// ("* ", "+ " or spaces) followed by the ref name.
func parseBranchRows(out string) domain.BranchSet {
	branches := domain.NewBranchSet()
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 3 {
			continue
		}
		fields := strings.Fields(line[2:])
		if len(fields) == 0 {
			continue
		}
		branches.Add(fields[0])
	}
	return branches
}

// parseRemoteRows reads "git remote -v" rows: "<name> <url> (<direction>)".
// Only fetch rows are kept; push rows duplicate the name.
func parseRemoteRows(out string) (domain.RemoteSet, error) {
	remotes := domain.NewRemoteSet()
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed remote row %q", line)
		}
		direction := strings.Trim(fields[2], "()")
		if direction != "fetch" {
			continue
		}
		remotes.Add(domain.Remote{Name: fields[0], URL: fields[1]})
	}
	return remotes, nil
}

type submoduleRow struct {
	Status byte
	SHA    string
	Path   string
	Ref    string
}

// parseSubmoduleRows reads "git submodule" rows:
// "<status-char><sha><space><path> (<ref>)".
func parseSubmoduleRows(out string) ([]submoduleRow, error) {
	var rows []submoduleRow
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) < 42 {
			return nil, fmt.Errorf("malformed submodule row %q", line)
		}
		row := submoduleRow{
			Status: line[0],
			SHA:    line[1:41],
		}
		rest := line[42:]
		if open := strings.LastIndex(rest, " ("); open >= 0 && strings.HasSuffix(rest, ")") {
			row.Path = rest[:open]
			row.Ref = rest[open+2 : len(rest)-1]
		} else {
			row.Path = rest
		}
		rows = append(rows, row)
	}
	return rows, nil
}

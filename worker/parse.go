package worker

import (
	"errors"
	"fmt"
	"strings"
)

var ErrDataRouterNotFound = errors.New("lsof didn't find dataRouter")

// ParseLsofCwd reads the output of `lsof -a -d cwd -c dataRouter -Fcn` and
// returns the working directory of the data router.
func ParseLsofCwd(output string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}

		switch line[0] {
		case 'c':
			if !strings.HasPrefix(line, "cdataRouter") {
				return "", fmt.Errorf("lsof found %s instead of dataRouter", strings.TrimSpace(line[1:]))
			}
		case 'n':
			return strings.TrimSpace(line[1:]), nil
		}
	}

	return "", ErrDataRouterNotFound
}

// ParseGrawList keeps the lines of an `ls -1` listing that name GRAW files.
func ParseGrawList(output string) []string {
	result := make([]string, 0)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasSuffix(line, ".graw") {
			result = append(result, line)
		}
	}

	return result
}

type ProcessStatus struct {
	ECCServerRunning  bool
	DataRouterRunning bool
}

// ParseProcessList looks for the ECC server and data router in `ps -e` output.
func ParseProcessList(output string) ProcessStatus {
	var status ProcessStatus

	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.Contains(line, "getEccSoapServer"):
			status.ECCServerRunning = true
		case strings.Contains(line, "dataRouter"):
			status.DataRouterRunning = true
		}
	}

	return status
}

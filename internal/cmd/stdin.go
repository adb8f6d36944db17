package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/AdguardTeam/adblock"
	"github.com/AdguardTeam/adblock/rules"
)

// evaluateLines reads the "TYPE URL [DOCUMENT_URL]" lines from in and writes
// "allow", "block", or an error message for each of them to out.  Empty lines
// and lines starting with "#" are skipped.
func evaluateLines(in io.Reader, out io.Writer, b adblock.Blocker) (err error) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		_, err = fmt.Fprintln(out, evaluateLine(line, b))
		if err != nil {
			return fmt.Errorf("writing result: %w", err)
		}
	}

	return sc.Err()
}

// evaluateLine returns the result for a single non-empty line.
func evaluateLine(line string, b adblock.Blocker) (res string) {
	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 3 {
		return "error: want TYPE URL [DOCUMENT_URL]"
	}

	typ, err := rules.ParseRequestType(fields[0])
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}

	var source string
	if len(fields) == 3 {
		source = fields[2]
	}

	if b.ShouldLoad(rules.NewRequest(fields[1], source, typ)) {
		return adblock.DecisionAllow.String()
	}

	return adblock.DecisionBlock.String()
}

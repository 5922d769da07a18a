package config

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CustomActionsFile is the per-repository custom command table, relative
// to the repository root.
const CustomActionsFile = ".vix/commands"

// CustomAction maps a key sequence to an external command line.
type CustomAction struct {
	Key  string
	Argv []string
}

// LoadCustomActions reads the custom action table from root. The format is
// line oriented: first whitespace-delimited token is the key, the remainder
// is the argv. Blank and malformed lines are skipped; the first definition
// of a key wins. A missing file yields an empty table.
func LoadCustomActions(root string) ([]CustomAction, error) {
	f, err := os.Open(filepath.Join(root, CustomActionsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	return ParseCustomActions(f)
}

// ParseCustomActions parses the line-oriented custom action format.
func ParseCustomActions(r io.Reader) ([]CustomAction, error) {
	var actions []CustomAction
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if seen[fields[0]] {
			continue
		}
		seen[fields[0]] = true
		actions = append(actions, CustomAction{Key: fields[0], Argv: fields[1:]})
	}
	return actions, scanner.Err()
}

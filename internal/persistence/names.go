package persistence

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadNamePool reads a name list override. A .json file holds an array
// of strings; anything else is one name per line, with blank lines and
// lines starting with # skipped.
func LoadNamePool(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read name pool: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return nil, fmt.Errorf("decode name pool: %w", err)
		}
		return names, nil
	}

	var names []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan name pool: %w", err)
	}
	return names, nil
}

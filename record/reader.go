package record

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"squishies/types"
)

// GameInfo holds metadata parsed from a record header.
type GameInfo struct {
	FilePath  string
	FileName  string
	Header    Header
	Date      string
	Result    string
	PathCount int
}

// Score returns the recorded final score, or false if the game was unfinished.
func (g GameInfo) Score() (int, bool) {
	n, err := strconv.Atoi(g.Result)
	return n, err == nil
}

// ParseHeader reads a record file and extracts metadata from the root node.
func ParseHeader(filePath string) (*GameInfo, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return parseInfo(filePath, string(data))
}

func parseInfo(filePath, content string) (*GameInfo, error) {
	props := parseProperties(content)
	if props["GM"] != gameName {
		return nil, fmt.Errorf("%s: not a squishies record", filepath.Base(filePath))
	}

	mode, ok := types.ParseMode(props["MO"])
	if !ok {
		return nil, fmt.Errorf("%s: unknown mode %q", filepath.Base(filePath), props["MO"])
	}

	var seed uint64
	if v, ok := props["SD"]; ok {
		var err error
		if seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return nil, fmt.Errorf("%s: bad seed: %w", filepath.Base(filePath), err)
		}
	}

	initial := 0
	if v, ok := props["IT"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			initial = n
		}
	}

	return &GameInfo{
		FilePath: filePath,
		FileName: filepath.Base(filePath),
		Header: Header{
			ID:           props["ID"],
			Mode:         mode,
			Seed:         seed,
			InitialTypes: initial,
		},
		Date:      props["DT"],
		Result:    props["RE"],
		PathCount: len(parseNodes(content)),
	}, nil
}

// ReadPaths returns every recorded path in order.
func ReadPaths(filePath string) ([][]types.Pos, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var paths [][]types.Pos
	for i, node := range parseNodes(string(data)) {
		path, err := parsePathNode(node)
		if err != nil {
			return nil, fmt.Errorf("path %d: %w", i+1, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// DecodePath parses dot-separated letter pairs.
func DecodePath(s string) ([]types.Pos, error) {
	if s == "" {
		return nil, nil
	}
	coords := strings.Split(s, ".")
	path := make([]types.Pos, 0, len(coords))
	for _, c := range coords {
		if len(c) != 2 {
			return nil, fmt.Errorf("bad coordinate %q", c)
		}
		p := types.Pos{X: int(c[0] - 'a'), Y: int(c[1] - 'a')}
		if !p.InBounds() {
			return nil, fmt.Errorf("coordinate %q off the board", c)
		}
		path = append(path, p)
	}
	return path, nil
}

// parseProperties extracts KEY[value] pairs from the root node.
func parseProperties(content string) map[string]string {
	props := make(map[string]string)

	start := strings.Index(content, "(;")
	if start == -1 {
		return props
	}
	start += 2

	end := len(content)
	for i := start; i < len(content); i++ {
		if content[i] == ';' || content[i] == ')' {
			end = i
			break
		}
	}

	extractProps(content[start:end], props)
	return props
}

// extractProps parses KEY[value] pairs from a node string into the map.
func extractProps(node string, props map[string]string) {
	i := 0
	for i < len(node) {
		for i < len(node) && strings.ContainsRune(" \n\r\t", rune(node[i])) {
			i++
		}
		if i >= len(node) {
			break
		}

		keyStart := i
		for i < len(node) && node[i] >= 'A' && node[i] <= 'Z' {
			i++
		}
		if i == keyStart {
			i++
			continue
		}
		key := node[keyStart:i]

		for i < len(node) && node[i] == '[' {
			i++
			valStart := i
			for i < len(node) && node[i] != ']' {
				i++
			}
			props[key] = node[valStart:i]
			if i < len(node) {
				i++
			}
		}
	}
}

// parseNodes returns all node strings after the root node.
func parseNodes(content string) []string {
	var nodes []string

	start := strings.Index(content, "(;")
	if start == -1 {
		return nodes
	}
	i := start + 2

	// Skip the root node, which may contain ';' only inside values.
	for i < len(content) && content[i] != ';' && content[i] != ')' {
		if content[i] == '[' {
			for i < len(content) && content[i] != ']' {
				i++
			}
		}
		i++
	}

	for i < len(content) {
		if content[i] != ';' {
			i++
			continue
		}
		nodeStart := i
		i++
		for i < len(content) && content[i] != ';' && content[i] != ')' {
			if content[i] == '[' {
				for i < len(content) && content[i] != ']' {
					i++
				}
			}
			i++
		}
		nodes = append(nodes, strings.TrimSpace(content[nodeStart:i]))
	}

	return nodes
}

// parsePathNode extracts the path from a node like ";P[aa.ab.ac]".
func parsePathNode(node string) ([]types.Pos, error) {
	if !strings.HasPrefix(node, ";P[") || !strings.HasSuffix(node, "]") {
		return nil, fmt.Errorf("bad node %q", node)
	}
	return DecodePath(node[3 : len(node)-1])
}

// ListRecords scans a directory for record files and returns their parsed
// headers, newest first (filenames carry timestamps).
func ListRecords(dir string) ([]GameInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read records dir: %w", err)
	}

	var games []GameInfo
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		info, err := ParseHeader(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		games = append(games, *info)
	}

	return games, nil
}

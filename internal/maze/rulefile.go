package maze

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/mazewave/internal/wfc"
)

// RuleFile is the YAML layout of an adjacency rule table
type RuleFile struct {
	Rules []RuleEntry `yaml:"rules"`
}

// RuleEntry is one rule in a rule file. With Mirror set, the reverse rule
// (neighbor, tile, opposite dir) is added as well.
type RuleEntry struct {
	Tile     string `yaml:"tile"`
	Neighbor string `yaml:"neighbor"`
	Dir      string `yaml:"dir"`
	Mirror   bool   `yaml:"mirror,omitempty"`
}

// ReadRules parses a YAML rule table
func ReadRules(r io.Reader) (*wfc.RuleSet[Tile], error) {
	var file RuleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return wfc.NewRuleSet[Tile](), nil
		}
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}

	rs := wfc.NewRuleSet[Tile]()
	for i, e := range file.Rules {
		rule, err := e.toRule()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rs.Add(rule)
		if e.Mirror {
			rs.Add(wfc.Rule[Tile]{Tile: rule.Neighbor, Neighbor: rule.Tile, Dir: rule.Dir.Opposite()})
		}
	}
	return rs, nil
}

// LoadRules reads a YAML rule table from a file
func LoadRules(path string) (*wfc.RuleSet[Tile], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule file: %w", err)
	}
	defer f.Close()

	return ReadRules(f)
}

// WriteRules encodes a rule set as YAML, one entry per rule
func WriteRules(w io.Writer, rs *wfc.RuleSet[Tile]) error {
	file := RuleFile{Rules: make([]RuleEntry, 0, rs.Len())}
	for _, r := range rs.Rules() {
		file.Rules = append(file.Rules, RuleEntry{
			Tile:     r.Tile.String(),
			Neighbor: r.Neighbor.String(),
			Dir:      r.Dir.String(),
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(&file); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// SaveRules writes a rule set to a YAML file
func SaveRules(path string, rs *wfc.RuleSet[Tile]) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# Maze adjacency rules (%d)\n", rs.Len())
	return WriteRules(f, rs)
}

func (e RuleEntry) toRule() (wfc.Rule[Tile], error) {
	tile, ok := ParseTile(e.Tile)
	if !ok {
		return wfc.Rule[Tile]{}, fmt.Errorf("unknown tile %q", e.Tile)
	}
	neighbor, ok := ParseTile(e.Neighbor)
	if !ok {
		return wfc.Rule[Tile]{}, fmt.Errorf("unknown neighbor tile %q", e.Neighbor)
	}
	dir, ok := wfc.ParseDirection(e.Dir)
	if !ok {
		return wfc.Rule[Tile]{}, fmt.Errorf("unknown direction %q", e.Dir)
	}
	return wfc.Rule[Tile]{Tile: tile, Neighbor: neighbor, Dir: dir}, nil
}

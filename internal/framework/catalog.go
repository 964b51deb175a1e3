package framework

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed frameworks.yaml
var rawCatalog []byte

type Competency struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Framework struct {
	Key          string       `yaml:"key"`
	Name         string       `yaml:"name"`
	Competencies []Competency `yaml:"competencies"`
}

type Grade struct {
	Key        string `yaml:"key"`
	Name       string `yaml:"name"`
	Difficulty string `yaml:"difficulty"`
}

type Catalog struct {
	Frameworks         []Framework `yaml:"frameworks"`
	Grades             []Grade     `yaml:"grades"`
	StrengthDimensions []string    `yaml:"strength_dimensions"`

	byFramework map[string]*Framework
	byGrade     map[string]*Grade
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(rawCatalog, &c); err != nil {
		return nil, fmt.Errorf("failed to parse framework catalog: %w", err)
	}
	if len(c.Frameworks) == 0 {
		return nil, fmt.Errorf("framework catalog has no frameworks")
	}
	if len(c.Grades) == 0 {
		return nil, fmt.Errorf("framework catalog has no grades")
	}

	c.byFramework = make(map[string]*Framework, len(c.Frameworks))
	for i := range c.Frameworks {
		fw := &c.Frameworks[i]
		if fw.Key == "" || len(fw.Competencies) == 0 {
			return nil, fmt.Errorf("framework %q is incomplete", fw.Key)
		}
		c.byFramework[fw.Key] = fw
	}
	c.byGrade = make(map[string]*Grade, len(c.Grades))
	for i := range c.Grades {
		g := &c.Grades[i]
		if g.Key == "" || g.Difficulty == "" {
			return nil, fmt.Errorf("grade %q is incomplete", g.Key)
		}
		c.byGrade[g.Key] = g
	}
	return &c, nil
}

func (c *Catalog) Framework(key string) (*Framework, bool) {
	fw, ok := c.byFramework[key]
	return fw, ok
}

func (c *Catalog) Grade(key string) (*Grade, bool) {
	g, ok := c.byGrade[key]
	return g, ok
}

// QuestionCount returns the session size for a framework: one question per
// competency.
func (c *Catalog) QuestionCount(frameworkKey string) int {
	if fw, ok := c.byFramework[frameworkKey]; ok {
		return len(fw.Competencies)
	}
	return 0
}

// StrengthVector maps a competency-strength map (0-100 per competency) onto
// the canonical dimension order. Missing competencies score zero.
func (c *Catalog) StrengthVector(strengths map[string]int) []float32 {
	out := make([]float32, len(c.StrengthDimensions))
	for i, name := range c.StrengthDimensions {
		out[i] = float32(strengths[name]) / 100
	}
	return out
}

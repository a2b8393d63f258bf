// Package catalog holds the static role profiles and question banks that
// back the interview when no text-generation capability is available.
package catalog

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/interviewsim/internal/model"
)

// GenericQuestion is served for any question number beyond the end of a bank.
const GenericQuestion = "Tell me about your experience and why you're interested in this role."

//go:embed catalog.yaml
var builtin []byte

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

type document struct {
	Levels []string  `yaml:"levels"`
	Roles  []roleDoc `yaml:"roles"`
}

type roleDoc struct {
	model.RoleProfile `yaml:",inline"`
	Questions         map[string][]string `yaml:"questions"`
}

// Catalog maps role → level → ordered questions. It is immutable once built.
type Catalog struct {
	roles []model.RoleProfile
	byKey map[string]int
	banks map[string]map[string][]string
	sum   string
}

// Default returns the catalog compiled into the binary. It is parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(builtin)
	})
	return defaultCat, defaultErr
}

// LoadFile parses a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse builds a catalog from YAML. Roles without their own level list
// inherit the document-level one.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	if len(doc.Roles) == 0 {
		return nil, errors.New("catalog defines no roles")
	}

	c := &Catalog{
		byKey: make(map[string]int, len(doc.Roles)),
		banks: make(map[string]map[string][]string, len(doc.Roles)),
	}
	sum := sha256.Sum256(data)
	c.sum = hex.EncodeToString(sum[:])
	for _, rd := range doc.Roles {
		role := rd.RoleProfile
		if role.Name == "" {
			return nil, errors.New("catalog role without a name")
		}
		if _, dup := c.byKey[role.Name]; dup {
			return nil, fmt.Errorf("duplicate role %q", role.Name)
		}
		if len(role.Levels) == 0 {
			role.Levels = slices.Clone(doc.Levels)
		}
		if len(role.Levels) == 0 {
			return nil, fmt.Errorf("role %q has no levels", role.Name)
		}
		for level := range rd.Questions {
			if !role.HasLevel(level) {
				return nil, fmt.Errorf("role %q has questions for unknown level %q", role.Name, level)
			}
		}
		c.byKey[role.Name] = len(c.roles)
		c.roles = append(c.roles, role)
		c.banks[role.Name] = rd.Questions
	}
	return c, nil
}

// Fingerprint returns the hex SHA-256 of the YAML the catalog was parsed from.
func (c *Catalog) Fingerprint() string { return c.sum }

// Roles returns all role profiles in catalog order.
func (c *Catalog) Roles() []model.RoleProfile {
	out := make([]model.RoleProfile, len(c.roles))
	for i, r := range c.roles {
		out[i] = cloneRole(r)
	}
	return out
}

// Role looks up a role profile by name.
func (c *Catalog) Role(name string) (model.RoleProfile, bool) {
	i, ok := c.byKey[name]
	if !ok {
		return model.RoleProfile{}, false
	}
	return cloneRole(c.roles[i]), true
}

// Lookup returns the ordered questions for a role and level. Unknown
// pairs yield an empty slice, which callers treat as "no canned content".
func (c *Catalog) Lookup(role, level string) []string {
	bank, ok := c.banks[role][level]
	if !ok {
		return []string{}
	}
	return slices.Clone(bank)
}

// Question returns question number n (1-based) for a role and level,
// falling back to GenericQuestion past the end of the bank.
func (c *Catalog) Question(role, level string, n int) string {
	bank := c.banks[role][level]
	if n < 1 || n > len(bank) {
		return GenericQuestion
	}
	return bank[n-1]
}

func cloneRole(r model.RoleProfile) model.RoleProfile {
	r.FocusAreas = slices.Clone(r.FocusAreas)
	r.Levels = slices.Clone(r.Levels)
	return r
}

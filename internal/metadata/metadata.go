package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FileName is the attribute document written next to the generated images.
// It holds one attribute map per image, indexed by the numeric suffix of the image name.
const FileName = "metadata.json"

type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// Token is the per-image metadata document.
type Token struct {
	Name       string      `json:"name"`
	Image      string      `json:"image"`
	Attributes []Attribute `json:"attributes"`
}

// Collection holds the attributes of every generated image.
type Collection struct {
	attributes []map[string]any
}

// Load reads FileName from dir. A missing document yields an empty collection.
func Load(dir string) (*Collection, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Collection{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var attributes []map[string]any
	if err := json.Unmarshal(data, &attributes); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", FileName, err)
	}
	return &Collection{attributes: attributes}, nil
}

func (c *Collection) Len() int {
	return len(c.attributes)
}

// DocumentName is the name under which the metadata of imagePath is stored.
func DocumentName(imagePath string) string {
	return stem(imagePath) + ".json"
}

// ForImage builds the metadata document of the image at imagePath stored under cid.
// Images without recorded attributes get an empty attribute list.
func (c *Collection) ForImage(imagePath, cid string) ([]byte, error) {
	token := Token{
		Name:       stem(imagePath),
		Image:      "ipfs://" + cid,
		Attributes: []Attribute{},
	}

	if idx, ok := index(imagePath); ok && idx < len(c.attributes) {
		attrs := c.attributes[idx]
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			token.Attributes = append(token.Attributes, Attribute{TraitType: k, Value: attrs[k]})
		}
	}

	return json.Marshal(token)
}

type ManifestEntry struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
}

// Manifest lists the content identifiers of a finished upload.
type Manifest struct {
	Name  string          `json:"name"`
	Files []ManifestEntry `json:"files"`
}

func (m Manifest) Marshal() ([]byte, error) {
	if m.Files == nil {
		m.Files = []ManifestEntry{}
	}
	return json.Marshal(m)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// index extracts N from names like x402Punk_N.png.
func index(path string) (int, bool) {
	s := stem(path)
	i := strings.LastIndex(s, "_")
	if i < 0 || i == len(s)-1 {
		return 0, false
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Package catalog loads the character/BGM resource used to normalize
// names coming out of OCR before they reach the battle accumulator.
package catalog

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"  // icon_list entries may ship as gif
	_ "image/jpeg" // icon_list entries may ship as jpeg
	_ "image/png"  // icon_list entries may ship as png
	"os"
	"path/filepath"

	_ "golang.org/x/image/webp" // icon_list entries may ship as webp
)

// Catalog is the canonical → localized mapping plus the synonym and BGM
// tables used by the accumulator's name-normalization guesses.
type Catalog struct {
	Version string `json:"version"`

	// CharacterList maps a canonical English name to its localized label.
	CharacterList map[string]string `json:"character_list"`

	// IconList maps a canonical name to its icon file name.
	IconList map[string]string `json:"icon_list"`

	// I18nConvertList maps a foreign-language variant spelling to the
	// canonical name it should resolve to.
	I18nConvertList map[string]string `json:"i18n_convert_list"`

	// BGMList maps a canonical BGM title to whether it's enabled for
	// matching (some tracks are deliberately excluded from guesses
	// because their titles collide with common OCR noise).
	BGMList map[string]bool `json:"bgm_list"`

	names []string // cached CharacterList keys, stable order
}

// Load reads a catalog JSON resource from path. Missing or malformed
// resources are fatal: the accumulator cannot normalize names without
// this table, matching the upstream "panic on invalid config" contract.
func Load(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	var c Catalog
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	c.names = make([]string, 0, len(c.CharacterList))
	for name := range c.CharacterList {
		c.names = append(c.names, name)
	}
	return c, nil
}

// CharacterNames returns every canonical character name, used by the
// accumulator to compute similarity ratios against an OCR observation.
func (c Catalog) CharacterNames() []string {
	return c.names
}

// CanonicalCharacterName resolves an OCR observation to a canonical name
// via an exact key match, an exact localized-label match, or the
// i18n synonym table, in that order. It reports ok=false when none
// apply, in which case the caller falls back to similarity ratio.
func (c Catalog) CanonicalCharacterName(observed string) (string, bool) {
	if _, ok := c.CharacterList[observed]; ok {
		return observed, true
	}
	for canonical, localized := range c.CharacterList {
		if localized == observed {
			return canonical, true
		}
	}
	if canonical, ok := c.I18nConvertList[observed]; ok {
		return canonical, true
	}
	return "", false
}

// CanonicalBGMName resolves an OCR observation against the enabled BGM
// titles via an exact match, falling back to the caller's own
// similarity-ratio comparison when ok is false.
func (c Catalog) CanonicalBGMName(observed string) (string, bool) {
	if enabled, ok := c.BGMList[observed]; ok && enabled {
		return observed, true
	}
	return "", false
}

// IconFile returns the icon file name for a canonical character name.
func (c Catalog) IconFile(character string) (string, bool) {
	f, ok := c.IconList[character]
	return f, ok
}

// LoadIcon decodes a character's icon file from iconDir. The format is
// sniffed from content rather than the extension, so png/jpeg/gif/webp
// icon assets all decode through the same call.
func (c Catalog) LoadIcon(iconDir, character string) (image.Image, error) {
	fileName, ok := c.IconFile(character)
	if !ok {
		return nil, fmt.Errorf("catalog: no icon registered for %q", character)
	}

	f, err := os.Open(filepath.Join(iconDir, fileName))
	if err != nil {
		return nil, fmt.Errorf("open icon for %q: %w", character, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode icon for %q: %w", character, err)
	}
	return img, nil
}

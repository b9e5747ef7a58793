// Package config implements auto-detection of project settings:
// the locales directory, the source locale, the component sources, and
// the output locations. An optional trex.json at the project root
// overrides any detected value.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Project holds the resolved project configuration.
type Project struct {
	// RootDir is the project root everything else is relative to.
	RootDir string
	// LocalesDir contains the native-format locale files (<code>.yaml).
	LocalesDir string
	// SourceLocale is the locale the developers author messages in.
	SourceLocale string
	// Locales are the locale codes detected from LocalesDir, sorted.
	Locales []string
	// ComponentsDir contains component source files with embedded
	// message blocks. Empty when the project has none.
	ComponentsDir string
	// ComponentKey is the top-level tree key holding component messages.
	ComponentKey string
	// ExchangeDir receives the restructured payload and holds fetched
	// per-locale payloads (<code>.json).
	ExchangeDir string
	// OutDir receives the emitted per-locale artifacts.
	OutDir string
}

// fileConfig is the optional trex.json override file.
type fileConfig struct {
	LocalesDir    string   `json:"locales_dir"`
	SourceLocale  string   `json:"source_locale"`
	Locales       []string `json:"locales"`
	ComponentsDir string   `json:"components_dir"`
	ComponentKey  string   `json:"component_key"`
	ExchangeDir   string   `json:"exchange_dir"`
	OutDir        string   `json:"out_dir"`
}

// Detect resolves the project configuration for rootDir: defaults first,
// then trex.json overrides, then a scan of the locales directory.
func Detect(rootDir string) (*Project, error) {
	p := &Project{
		RootDir:      rootDir,
		LocalesDir:   "locales",
		SourceLocale: "en",
		ComponentKey: "components",
		ExchangeDir:  "exchange",
		OutDir:       "out",
	}

	if err := p.applyFile(filepath.Join(rootDir, "trex.json")); err != nil {
		return nil, err
	}

	if p.ComponentsDir == "" {
		for _, candidate := range []string{"components", "src/components"} {
			if info, err := os.Stat(filepath.Join(rootDir, candidate)); err == nil && info.IsDir() {
				p.ComponentsDir = candidate
				break
			}
		}
	}

	if len(p.Locales) == 0 {
		locales, err := scanLocales(filepath.Join(rootDir, p.LocalesDir))
		if err != nil {
			return nil, err
		}
		p.Locales = locales
	}
	sort.Strings(p.Locales)

	if len(p.Locales) > 0 && !contains(p.Locales, p.SourceLocale) {
		return nil, fmt.Errorf("source locale %q has no file in %s", p.SourceLocale, p.LocalesDir)
	}
	return p, nil
}

func (p *Project) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if fc.LocalesDir != "" {
		p.LocalesDir = fc.LocalesDir
	}
	if fc.SourceLocale != "" {
		p.SourceLocale = fc.SourceLocale
	}
	if len(fc.Locales) > 0 {
		p.Locales = fc.Locales
	}
	if fc.ComponentsDir != "" {
		p.ComponentsDir = fc.ComponentsDir
	}
	if fc.ComponentKey != "" {
		p.ComponentKey = fc.ComponentKey
	}
	if fc.ExchangeDir != "" {
		p.ExchangeDir = fc.ExchangeDir
	}
	if fc.OutDir != "" {
		p.OutDir = fc.OutDir
	}
	return nil
}

// scanLocales lists the locale codes with a .yaml file in dir.
func scanLocales(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	var locales []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") {
			locales = append(locales, strings.TrimSuffix(name, ".yaml"))
		}
	}
	return locales, nil
}

// LocaleFile returns the native-format file path for a locale.
func (p *Project) LocaleFile(code string) string {
	return filepath.Join(p.RootDir, p.LocalesDir, code+".yaml")
}

// ExchangeFile returns the exchange payload path for a locale.
func (p *Project) ExchangeFile(code string) string {
	return filepath.Join(p.RootDir, p.ExchangeDir, code+".json")
}

// OutFile returns the emitted artifact path for a locale.
func (p *Project) OutFile(code string) string {
	return filepath.Join(p.RootDir, p.OutDir, code+".json")
}

// TargetLocales returns every locale except the source, sorted.
func (p *Project) TargetLocales() []string {
	var out []string
	for _, code := range p.Locales {
		if code != p.SourceLocale {
			out = append(out, code)
		}
	}
	return out
}

// ComponentFiles lists the component source files carrying an embedded
// message block, sorted by path.
func (p *Project) ComponentFiles() ([]string, error) {
	if p.ComponentsDir == "" {
		return nil, nil
	}
	dir := filepath.Join(p.RootDir, p.ComponentsDir)
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if info.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if strings.Contains(string(data), "<i18n>") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

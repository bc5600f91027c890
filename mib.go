package snmpkit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// moduleFile is the on-disk shape of a flattened MIB module: the symbol
// table a MIB compiler emits for one module, one file per module.
type moduleFile struct {
	Module  string            `yaml:"module"`
	Objects map[string]string `yaml:"objects"`
}

type mibModule struct {
	name    string
	objects map[string]OID
}

// Registry is the MIB lookup service: an ordered search path of directories
// holding flattened module files, loaded eagerly via LoadModules or lazily
// on first use. It behaves as an append-only cache across requests and is
// not safe for concurrent mutation.
type Registry struct {
	paths   []string
	modules map[string]*mibModule
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*mibModule)}
}

// SearchPath returns a copy of the ordered search path.
func (r *Registry) SearchPath() []string {
	return append([]string(nil), r.paths...)
}

// AddSearchPath appends dir to the search path. A missing or non-directory
// path fails with PathNotFoundError and leaves the search path unchanged.
func (r *Registry) AddSearchPath(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return &PathNotFoundError{Path: dir}
	}
	r.paths = append(r.paths, dir)
	log.Debug().Strs("paths", r.paths).Msg("MIB search path updated")
	return nil
}

// LoadModules loads the named modules from the search path. With no names
// given, every module found on the search path is loaded. Already loaded
// modules are skipped.
func (r *Registry) LoadModules(names ...string) error {
	if len(names) == 0 {
		names = r.available()
	}
	for _, name := range names {
		if _, ok := r.modules[name]; ok {
			continue
		}
		if err := r.loadModule(name); err != nil {
			return err
		}
	}
	return nil
}

// Resolve maps a module/symbol pair to its numeric OID prefix. A module
// that is not yet loaded is loaded from the search path on the spot. An
// empty module searches loaded modules in load order, then the built-in
// base arcs.
func (r *Registry) Resolve(module, symbol string) (OID, error) {
	if module != "" {
		m, ok := r.modules[module]
		if !ok {
			if err := r.loadModule(module); err != nil {
				return nil, err
			}
			// A module file may declare a different name than its filename.
			if m, ok = r.modules[module]; !ok {
				return nil, &UnknownSymbolError{Module: module}
			}
		}
		if oid, ok := m.objects[symbol]; ok {
			return oid, nil
		}
		return nil, &UnknownSymbolError{Module: module, Symbol: symbol}
	}
	for _, name := range r.order {
		if oid, ok := r.modules[name].objects[symbol]; ok {
			return oid, nil
		}
	}
	if oid, ok := wellKnownArcs[symbol]; ok {
		return oid, nil
	}
	return nil, &UnknownSymbolError{Symbol: symbol}
}

var moduleExtensions = []string{".yml", ".yaml"}

func (r *Registry) loadModule(name string) error {
	for _, dir := range r.paths {
		for _, ext := range moduleExtensions {
			raw, err := os.ReadFile(filepath.Join(dir, name+ext))
			if err != nil {
				continue
			}
			return r.parseModule(name, filepath.Join(dir, name+ext), raw)
		}
	}
	return &UnknownSymbolError{Module: name}
}

func (r *Registry) parseModule(name, filename string, raw []byte) error {
	var mf moduleFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return fmt.Errorf("snmp: failed to parse MIB module %s: %w", filename, err)
	}
	if mf.Module != "" {
		name = mf.Module
	}
	m := &mibModule{name: name, objects: make(map[string]OID, len(mf.Objects))}
	for symbol, dotted := range mf.Objects {
		oid, err := ParseOID(dotted)
		if err != nil {
			return fmt.Errorf("snmp: bad OID for %s::%s: %w", name, symbol, err)
		}
		m.objects[symbol] = oid
	}
	r.modules[name] = m
	r.order = append(r.order, name)
	log.Debug().Str("module", name).Int("objects", len(m.objects)).Msg("MIB module loaded")
	return nil
}

// available lists every module name findable on the search path, in path
// order, without loading anything.
func (r *Registry) available() []string {
	seen := make(map[string]bool)
	var names []string
	for _, dir := range r.paths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		var here []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := filepath.Ext(entry.Name())
			ok := false
			for _, want := range moduleExtensions {
				if ext == want {
					ok = true
				}
			}
			if !ok {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ext)
			if !seen[name] {
				seen[name] = true
				here = append(here, name)
			}
		}
		sort.Strings(here)
		names = append(names, here...)
	}
	return names
}

// wellKnownArcs covers the standard tree down to the common branch points,
// so mixed notations like ".iso.org.6.internet.2.1.1.1.0" resolve without
// any module loaded.
var wellKnownArcs = map[string]OID{
	"iso":          {1},
	"org":          {1, 3},
	"dod":          {1, 3, 6},
	"internet":     {1, 3, 6, 1},
	"directory":    {1, 3, 6, 1, 1},
	"mgmt":         {1, 3, 6, 1, 2},
	"mib-2":        {1, 3, 6, 1, 2, 1},
	"experimental": {1, 3, 6, 1, 3},
	"private":      {1, 3, 6, 1, 4},
	"enterprises":  {1, 3, 6, 1, 4, 1},
	"security":     {1, 3, 6, 1, 5},
	"snmpV2":       {1, 3, 6, 1, 6},
	"snmpModules":  {1, 3, 6, 1, 6, 3},
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DomainPaths maps logical path keys to filesystem locations
type DomainPaths map[string]string

// Get returns the path for key, or "" if the key is unknown
func (p DomainPaths) Get(key string) string {
	return p[key]
}

// DomainRoot returns the directory holding all of a domain's files
func (c *Config) DomainRoot(domain string) string {
	return c.resolve(filepath.Join(c.Paths.DomainsDir, domain))
}

// DomainPaths resolves the layout templates for one domain.
// Templates may contain {domain}; relative templates are joined to the
// domain root, absolute ones are used as-is.
func (c *Config) DomainPaths(domain string) DomainPaths {
	root := c.DomainRoot(domain)
	paths := DomainPaths{KeyRoot: root}
	for key, tmpl := range c.Paths.DomainLayout {
		p := strings.ReplaceAll(tmpl, "{domain}", domain)
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		paths[key] = filepath.Clean(p)
	}
	return paths
}

// GlobalPaths resolves the global path map against the project root
func (c *Config) GlobalPaths() DomainPaths {
	paths := DomainPaths{KeyRoot: c.Paths.ProjectRoot}
	for key, p := range c.Paths.Global {
		paths[key] = c.resolve(p)
	}
	return paths
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Paths.ProjectRoot, p)
}

// ResolvePath anchors a relative path on the project root
func (c *Config) ResolvePath(p string) string {
	if p == "" {
		return ""
	}
	return c.resolve(p)
}

// OutputPath joins filename onto the qc_output entry of paths.
// An empty filename returns the output directory itself.
func OutputPath(paths DomainPaths, filename string) string {
	dir := paths[KeyQCOutput]
	if filename == "" {
		return dir
	}
	return filepath.Join(dir, filename)
}

// EnsureDomainDirectories creates the output and log directories of a domain
func (c *Config) EnsureDomainDirectories(domain string) error {
	paths := c.DomainPaths(domain)
	for _, key := range []string{KeyQCOutput, KeyQCLogs} {
		if err := os.MkdirAll(paths[key], 0755); err != nil {
			return fmt.Errorf("failed to create %s directory for %s: %w", key, domain, err)
		}
	}
	return nil
}

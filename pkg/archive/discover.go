package archive

import (
	"kagglefetch/pkg/storage"
)

// Discovery locates archives inside a destination after a download
type Discovery interface {
	// Find returns archive file names relative to the destination
	Find(dest *storage.Manager) ([]string, error)
	// String describes the strategy for logs
	String() string
}

type named struct {
	name string
}

// Named matches exactly one archive, <name>.zip
func Named(name string) Discovery {
	return named{name: name + ".zip"}
}

func (n named) Find(dest *storage.Manager) ([]string, error) {
	if !dest.Exists(n.name) {
		return nil, nil
	}
	return []string{n.name}, nil
}

func (n named) String() string {
	return "named:" + n.name
}

type glob struct {
	pattern string
}

// Glob matches every archive fitting pattern, in name order
func Glob(pattern string) Discovery {
	return glob{pattern: pattern}
}

func (g glob) Find(dest *storage.Manager) ([]string, error) {
	return dest.Glob(g.pattern)
}

func (g glob) String() string {
	return "glob:" + g.pattern
}

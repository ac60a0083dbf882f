package session

import (
	"path/filepath"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
)

// FileType is the serialization of a configuration file.
type FileType string

const (
	FileTypeJSON FileType = "json"
	FileTypeYAML FileType = "yaml"
	FileTypeTOML FileType = "toml"
)

func (f FileType) String() string {
	return string(f)
}

func (f FileType) Valid() error {
	switch f {
	case FileTypeJSON, FileTypeYAML, FileTypeTOML:
		return nil
	}
	return errors.New("invalid config file type", errors.CategoryValidation).
		WithTextCode("INVALID_FILE_TYPE").
		WithMetadata(map[string]any{
			"file_type":   string(f),
			"valid_types": []string{string(FileTypeJSON), string(FileTypeYAML), string(FileTypeTOML)},
		})
}

// Parser returns the koanf parser for f, JSON for unknown types.
func (f FileType) Parser() koanf.Parser {
	switch f {
	case FileTypeYAML:
		return yaml.Parser()
	case FileTypeTOML:
		return toml.Parser()
	default:
		return json.Parser()
	}
}

// FileTypeOf infers the type from the path extension, falling back to def or JSON.
func FileTypeOf(path string, def ...FileType) FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FileTypeJSON
	case ".yaml", ".yml":
		return FileTypeYAML
	case ".toml":
		return FileTypeTOML
	}
	if len(def) > 0 {
		return def[0]
	}
	return FileTypeJSON
}

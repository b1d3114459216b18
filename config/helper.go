package config

import (
	"os"
	"path"

	"github.com/mitchellh/go-homedir"
	"github.com/sparkify/sparkify-etl/constants"
)

// ResolvePath returns the config file to use when none is given explicitly:
// dwh.yaml in the working directory, else ~/.sparkify/dwh.yaml.
// The home directory version is returned even when it doesn't exist so the caller can report it.
func ResolvePath() string {
	local := constants.DefaultConfigFileName
	if _, err := os.Stat(local); err == nil {
		return local
	}
	home, err := homedir.Dir()
	if err != nil { // if there's no home directory...
		return local
	}
	return path.Join(home, constants.DefaultConfigDir, constants.DefaultConfigFileName)
}

// newConfigFile splits p into the directory and file name used by File.
func newConfigFile(p string) *File {
	return NewConfigFileWithDir(path.Dir(p), path.Base(p))
}

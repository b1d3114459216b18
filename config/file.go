package config

import (
	"fmt"
	"os"
	"path"
	"reflect"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// FileNotFoundError denotes failing to find configuration file.
type FileNotFoundError struct {
	name string
}

// Error returns the formatted configuration error.
func (f FileNotFoundError) Error() string {
	return fmt.Sprintf("config file %q not found", f.name)
}

type KeyNotFoundError struct {
	configFile string
	key        string
	err        error
}

func (k KeyNotFoundError) Error() string {
	if k.err != nil {
		return fmt.Sprintf("key %q not found in config file %q: %v", k.key, k.configFile, k.err)
	}
	return fmt.Sprintf("key %q not found in config file %q", k.key, k.configFile)
}

// File is a YAML config file whose top-level keys are loaded lazily.
type File struct {
	Dirname      string
	FileName     string
	FullPath     string
	data         map[string]interface{}
	dataIsLoaded bool
	mu           sync.Mutex
}

func NewConfigFileWithDir(dirName string, filename string) *File {
	return &File{
		Dirname:  dirName,
		FileName: filename,
		FullPath: path.Join(dirName, filename),
		data:     make(map[string]interface{}),
	}
}

// Exists returns true if the file can be found on disk.
func (c *File) Exists() bool {
	_, err := os.Stat(c.FullPath)
	return err == nil
}

// Get will fetch the key from the config File into variable, out.
// Nested keys may be separated by dots e.g. s3.bucket.
// Return KeyNotFoundError if we can't find the key.
func (c *File) Get(key string, out interface{}) error {
	val := reflect.ValueOf(out)
	if val.Kind() != reflect.Ptr {
		return errors.New("out must be a pointer")
	}
	if err := c.loadData(); err != nil {
		return err
	}
	var d interface{} = c.data
	for _, k := range strings.Split(key, ".") { // for each level of the key...
		m, ok := asStringMap(d)
		if !ok {
			return KeyNotFoundError{c.FullPath, key, nil}
		}
		if d, ok = m[k]; !ok {
			return KeyNotFoundError{c.FullPath, key, nil}
		}
	}
	if err := decode(d, out); err != nil {
		return KeyNotFoundError{c.FullPath, key, err}
	}
	return nil
}

// GetAllKeys returns the top-level keys in the file.
func (c *File) GetAllKeys() ([]string, error) {
	if err := c.loadData(); err != nil {
		return nil, err
	}
	retval := make([]string, 0, len(c.data))
	for k := range c.data {
		retval = append(retval, k)
	}
	return retval, nil
}

// Decode unmarshals the whole file into out.
func (c *File) Decode(out interface{}) error {
	if err := c.loadData(); err != nil {
		return err
	}
	return decode(c.data, out)
}

func (c *File) loadData() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dataIsLoaded {
		return nil
	}
	b, err := os.ReadFile(c.FullPath)
	if os.IsNotExist(err) {
		return FileNotFoundError{c.FullPath}
	} else if err != nil {
		return errors.Wrapf(err, "error reading config file %v", c.FullPath)
	}
	if err = yaml.Unmarshal(b, &c.data); err != nil {
		return errors.Wrapf(err, "error parsing config file %v", c.FullPath)
	}
	if c.data == nil {
		c.data = make(map[string]interface{})
	}
	c.dataIsLoaded = true
	return nil
}

// decode uses mapstructure so that YAML scalars are converted weakly e.g. "3" to int
// and durations like "5m" to time.Duration.
func decode(in interface{}, out interface{}) error {
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return d.Decode(in)
}

// asStringMap converts the map types produced by yaml.v2 into map[string]interface{}.
func asStringMap(i interface{}) (map[string]interface{}, bool) {
	switch m := i.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		retval := make(map[string]interface{}, len(m))
		for k, v := range m {
			retval[fmt.Sprint(k)] = v
		}
		return retval, true
	}
	return nil, false
}

package easyfile

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// jsonIndentDefault is the indentation applied when no explicit indent
// is requested: dumps are human-readable unless the caller asks for
// compact output.
const jsonIndentDefault = 2

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadJSON reads the file and decodes it as JSON into a generic value
// (map[string]any, []any, or scalar).
//
// Human-edited JSON is accepted: comments and trailing commas are
// standardized away before decoding. A missing file surfaces
// os.ErrNotExist; malformed content yields a [*DecodeError].
func (f *File) LoadJSON() (any, error) {
	var v any
	if err := f.loadJSONInto(&v); err != nil {
		return nil, err
	}

	return v, nil
}

// LoadJSONAs reads f and decodes it as JSON into a value of type T,
// validating the content against T's fields.
//
// Field-type mismatches (say a string where T declares an int) yield a
// [*DecodeError]; unknown and missing fields follow encoding/json's own
// rules. A missing file surfaces os.ErrNotExist.
func LoadJSONAs[T any](f *File) (T, error) {
	var v T
	if err := f.loadJSONInto(&v); err != nil {
		var zero T

		return zero, err
	}

	return v, nil
}

func (f *File) loadJSONInto(v any) error {
	data, err := f.fs.ReadFile(f.path)
	if err != nil {
		return err
	}

	data = bytes.TrimPrefix(data, utf8BOM)

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return &DecodeError{Path: f.path, Format: FormatJSON, Err: err}
	}

	if err := json.Unmarshal(standardized, v); err != nil {
		return &DecodeError{Path: f.path, Format: FormatJSON, Err: err}
	}

	return nil
}

// DumpJSON serializes v as human-readable JSON (2-space indent) and
// writes it atomically; the file is never observed half-written.
//
// Values the json codec cannot represent fail with the codec's native
// error, untranslated.
func (f *File) DumpJSON(v any) error {
	return f.DumpJSONIndent(v, jsonIndentDefault)
}

// DumpJSONIndent is [File.DumpJSON] with explicit indentation: a
// positive indent yields multi-line output with that many spaces per
// level, zero yields compact single-line output.
func (f *File) DumpJSONIndent(v any, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(v, "", strings.Repeat(" ", indent))
		if err == nil {
			data = append(data, '\n')
		}
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return err
	}

	return f.writeAtomic(data)
}

// LoadYAML reads the file and decodes it as YAML into a generic value.
//
// A missing file surfaces os.ErrNotExist; malformed content yields a
// [*DecodeError].
func (f *File) LoadYAML() (any, error) {
	var v any
	if err := f.loadYAMLInto(&v); err != nil {
		return nil, err
	}

	return v, nil
}

// LoadYAMLAs reads f and decodes it as YAML into a value of type T,
// validating the content against T's fields. See [LoadJSONAs].
func LoadYAMLAs[T any](f *File) (T, error) {
	var v T
	if err := f.loadYAMLInto(&v); err != nil {
		var zero T

		return zero, err
	}

	return v, nil
}

func (f *File) loadYAMLInto(v any) error {
	data, err := f.fs.ReadFile(f.path)
	if err != nil {
		return err
	}

	data = bytes.TrimPrefix(data, utf8BOM)

	if err := yaml.Unmarshal(data, v); err != nil {
		return &DecodeError{Path: f.path, Format: FormatYAML, Err: err}
	}

	return nil
}

// DumpYAML serializes v in the codec's canonical block layout and
// writes it atomically. YAML has no indent knob.
func (f *File) DumpYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}

	return f.writeAtomic(data)
}

// writeAtomic is the shared dump path: parents first, then an atomic
// temp-and-rename write.
func (f *File) writeAtomic(data []byte) error {
	if err := f.mkParents(); err != nil {
		return err
	}

	return f.fs.WriteFileAtomic(f.path, data, filePerm)
}

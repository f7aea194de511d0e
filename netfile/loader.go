package netfile

import (
	"fmt"
	"os"

	"github.com/AnatoleLucet/signet/model"
)

// Loader loads programs from files, picking the encoding from the extension.
type Loader struct {
	readFile func(name string) ([]byte, error)
}

func NewLoader() *Loader {
	return &Loader{readFile: os.ReadFile}
}

func (l *Loader) Load(path string) (model.Model, error) {
	enc, err := EncodingForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := l.readFile(path)
	if err != nil {
		return nil, err
	}

	p, err := Decode(enc, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// WriteFile encodes f into path, picking the encoding from the extension.
func WriteFile(path string, f File) error {
	enc, err := EncodingForPath(path)
	if err != nil {
		return err
	}

	data, err := Encode(enc, f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

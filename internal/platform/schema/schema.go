// Package schema validates curriculum and progress documents against their
// embedded JSON schemas before they are decoded.
package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

var (
	//go:embed curriculum.schema.json
	curriculumSchema string

	//go:embed progress.schema.json
	progressSchema string
)

// Kind names a document schema.
type Kind string

const (
	Curriculum Kind = "curriculum"
	Progress   Kind = "progress"
)

var (
	compileOnce sync.Once
	compiled    map[Kind]*gojsonschema.Schema
	compileErr  error
)

func schemas() (map[Kind]*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = make(map[Kind]*gojsonschema.Schema, 2)
		for kind, src := range map[Kind]string{
			Curriculum: curriculumSchema,
			Progress:   progressSchema,
		} {
			s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
			if err != nil {
				compileErr = fmt.Errorf("compiling %s schema: %w", kind, err)
				return
			}
			compiled[kind] = s
		}
	})
	return compiled, compileErr
}

// Validate checks a raw JSON document against the schema for kind. The
// returned error lists every violation.
func Validate(kind Kind, doc []byte) error {
	all, err := schemas()
	if err != nil {
		return err
	}
	s, ok := all[kind]
	if !ok {
		return fmt.Errorf("unknown schema kind: %s", kind)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validating %s document: %w", kind, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%s document does not match schema: %s", kind, strings.Join(msgs, "; "))
}

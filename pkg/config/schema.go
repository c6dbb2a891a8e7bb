package config

import (
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/tidwall/sjson"
	"github.com/xeipuuv/gojsonschema"
)

// modeNames are accepted in mode fields in addition to ReactorModes.
var modeNames = append(ReactorModes(), "DisplayReactor", "Reactor")

// JSONSchema reflects the JSON schema of ic-reactor.json.
func JSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{ExpandedStruct: true}
	s := r.Reflect(&Config{})
	s.ID = SchemaURL
	s.Title = "ic-reactor configuration"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode schema")
	}
	doc := string(data)

	enumPaths := []string{
		"$defs.CanisterConfig.properties.mode",
		"$defs.ReactorConfig.properties.defaultMode",
	}
	for _, path := range enumPaths {
		if doc, err = sjson.Set(doc, path+".type", "string"); err != nil {
			return nil, errors.Wrapf(err, "failed to set type of %s", path)
		}
		if doc, err = sjson.Set(doc, path+".enum", modeNames); err != nil {
			return nil, errors.Wrapf(err, "failed to set enum of %s", path)
		}
	}
	return []byte(doc), nil
}

// Validate checks a config document against JSONSchema.
func Validate(document []byte) error {
	schema, err := JSONSchema()
	if err != nil {
		return err
	}
	// the validator only knows drafts up to 7 and rejects the reflected
	// draft identifier.
	loaderSchema, err := sjson.DeleteBytes(schema, "$schema")
	if err != nil {
		return errors.Wrap(err, "failed to prepare schema")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(loaderSchema),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return errors.Wrap(err, "failed to validate config")
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, e.String())
	}
	return errors.Errorf("invalid %s:\n  %s", FileName, strings.Join(issues, "\n  "))
}

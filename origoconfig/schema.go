package origoconfig

import (
	"fmt"
	"os"

	"cuelang.org/go/cue/cuecontext"
)

// validateAgainstSchema compiles the CUE file at schemaPath and unifies it
// with cfg encoded as a CUE value, the way nysm's loader compiles specs with
// cuecontext.New() and reports structural errors back to the caller.
func validateAgainstSchema(cfg Config, schemaPath string) error {
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return err
	}

	ctx := cuecontext.New()
	schema := ctx.CompileBytes(data)
	if schema.Err() != nil {
		return fmt.Errorf("compiling schema: %w", schema.Err())
	}

	value := ctx.Encode(cfg)
	if value.Err() != nil {
		return fmt.Errorf("encoding config: %w", value.Err())
	}

	unified := schema.Unify(value)
	if err := unified.Validate(); err != nil {
		return fmt.Errorf("config does not satisfy schema: %w", err)
	}
	return nil
}

package maps

import "github.com/mitchellh/mapstructure"

// Map2StructWeak decodes input into output, a pointer to a map or struct,
// converting between scalar kinds, e.g. "10" into an int field. Settings written
// by scripts and env-derived configuration arrive as strings and are decoded this way.
func Map2StructWeak(input interface{}, output interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

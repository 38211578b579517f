package presignx

import "github.com/gostratum/core/logx"

// ArgsToFields converts alternating key/value pairs into logx fields so call
// sites can stay in key/value style. A trailing key without a value is
// logged with a nil value; non-string keys are skipped.
func ArgsToFields(args ...any) []logx.Field {
	fields := make([]logx.Field, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		var value any
		if i+1 < len(args) {
			value = args[i+1]
		}
		fields = append(fields, logx.Any(key, value))
	}
	return fields
}

package logging

import "log/slog"

// attrsToMap flattens slog attributes into the field map carried by Event.
// Later attributes win on key collisions so child-logger fields can be
// overridden per call.
func attrsToMap(attrs []slog.Attr) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	values := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		if attr.Key == "" {
			continue
		}
		values[attr.Key] = attrValue(attr.Value.Resolve())
	}
	if len(values) == 0 {
		return nil
	}
	return values
}

func attrValue(value slog.Value) any {
	if value.Kind() != slog.KindGroup {
		return value.Any()
	}
	group := map[string]any{}
	for _, attr := range value.Group() {
		if attr.Key == "" {
			continue
		}
		group[attr.Key] = attrValue(attr.Value.Resolve())
	}
	return group
}

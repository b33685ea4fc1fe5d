package util

// Envelope is the JSON object every handler answers with.
type Envelope map[string]any

func Error(message string) Envelope {
	return Envelope{"error": message}
}

func Data(key string, value any) Envelope {
	return Envelope{key: value}
}

// Page puts a list under key and its paging metadata under "meta".
func Page(key string, items, meta any) Envelope {
	return Envelope{key: items, "meta": meta}
}

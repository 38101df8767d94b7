package examengine

import (
	"bytes"
	"encoding/json"
	"strings"
)

// decodeJSON разбирает JSON, сохраняя числа как json.Number
func decodeJSON(raw []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// normalize рекурсивно обрезает пробелы у строковых значений; ключи объектов не меняются
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = normalize(item)
		}
		return out
	default:
		return t
	}
}

// canonical возвращает каноническое JSON-представление нормализованного значения.
// encoding/json сериализует ключи объектов в отсортированном порядке.
func canonical(v interface{}) string {
	data, err := json.Marshal(normalize(v))
	if err != nil {
		return ""
	}
	return string(data)
}

// isNull сообщает, что значение отсутствует
func isNull(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

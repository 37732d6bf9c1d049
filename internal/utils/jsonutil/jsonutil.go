package jsonutil

import "encoding/json"

func StructToMap(source interface{}) (map[string]any, error) {
	data, err := json.Marshal(source)
	if err != nil {
		return nil, err
	}

	var target map[string]any
	if err := json.Unmarshal(data, &target); err != nil {
		return nil, err
	}

	return target, nil
}

package main

import (
	"io"

	"gopkg.in/yaml.v3"
)

// printYAML 以 YAML 输出结果，便于人工阅读
func printYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

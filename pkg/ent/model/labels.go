package model

import (
	_ "embed"
	"log/slog"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed labels.yaml
var labelsYAML []byte

// labelLangs are languages of the labels table. The first one is used when
// nothing else matches.
var labelLangs = []language.Tag{language.English, language.SimplifiedChinese}

var labelMatcher = language.NewMatcher(labelLangs)

type labelTable struct {
	Entities map[string]map[string]string `yaml:"entities"`
	Fields   map[string]map[string]string `yaml:"fields"`
}

var labels = loadLabels()

func loadLabels() labelTable {
	var res labelTable
	if err := yaml.Unmarshal(labelsYAML, &res); err != nil {
		slog.Error("Cannot parse labels table", "error", err)
	}
	return res
}

// FieldLabel returns the display name of a field in the language closest
// to lang (for example "en", "zh", "zh-CN"). Unknown fields return their
// key.
func FieldLabel(field, lang string) string {
	return lookup(labels.Fields, field, lang)
}

// EntityLabel returns the display name of a table.
func EntityLabel(table, lang string) string {
	return lookup(labels.Entities, table, lang)
}

func lookup(tbl map[string]map[string]string, key, lang string) string {
	vals, ok := tbl[key]
	if !ok {
		return key
	}
	_, idx, _ := labelMatcher.Match(language.Make(lang))
	if v, ok := vals[labelLangs[idx].String()]; ok {
		return v
	}
	if v, ok := vals[labelLangs[0].String()]; ok {
		return v
	}
	return key
}

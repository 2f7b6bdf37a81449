package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// Entry 一个原始标签及其对应的枚举取值
type Entry struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// LanguageFile 单个语言的三组标签
type LanguageFile struct {
	PostTypes []Entry `yaml:"post_types"`
	Political []Entry `yaml:"political"`
	Intents   []Entry `yaml:"intents"`
}

// File 标签分类文件结构
type File struct {
	DefaultLanguage Language                  `yaml:"default_language"`
	Languages       map[Language]LanguageFile `yaml:"languages"`
	Veracity        []Entry                   `yaml:"veracity"`
}

// LabelSets 某个语言下发给模型的有序标签列表
type LabelSets struct {
	PostTypes []string
	Political []string
	Intents   []string
}

// Taxonomy 构建完成后只读，可被并发请求共享
type Taxonomy struct {
	defaultLanguage Language
	labels          map[Language]LabelSets

	postTypes  map[string]PostType
	tendencies map[string]PoliticalTendency
	intents    map[string]Intent
	veracity   map[string]VeracityStatus
}

// Default 加载内置的英/德标签分类
func Default() (*Taxonomy, error) {
	return Parse(defaultTaxonomy)
}

// Load 从文件加载标签分类，path 为空时使用内置分类
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析并校验 YAML 格式的标签分类
func Parse(data []byte) (*Taxonomy, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	return Build(f)
}

// Build 校验分类文件并构建查找表
func Build(f File) (*Taxonomy, error) {
	if len(f.Languages) == 0 {
		return nil, fmt.Errorf("taxonomy defines no languages")
	}
	if f.DefaultLanguage == "" {
		f.DefaultLanguage = English
	}
	if _, ok := f.Languages[f.DefaultLanguage]; !ok {
		return nil, fmt.Errorf("default language %q is not defined", f.DefaultLanguage)
	}

	t := &Taxonomy{
		defaultLanguage: f.DefaultLanguage,
		labels:          make(map[Language]LabelSets, len(f.Languages)),
		postTypes:       make(map[string]PostType),
		tendencies:      make(map[string]PoliticalTendency),
		intents:         make(map[string]Intent),
		veracity:        make(map[string]VeracityStatus),
	}

	for _, lang := range sortedLanguages(f.Languages) {
		lf := f.Languages[lang]

		postLabels, err := collect(lang, "post_types", lf.PostTypes, t.postTypes, ParsePostType)
		if err != nil {
			return nil, err
		}
		politicalLabels, err := collect(lang, "political", lf.Political, t.tendencies, ParsePoliticalTendency)
		if err != nil {
			return nil, err
		}
		intentLabels, err := collect(lang, "intents", lf.Intents, t.intents, ParseIntent)
		if err != nil {
			return nil, err
		}

		t.labels[lang] = LabelSets{
			PostTypes: postLabels,
			Political: politicalLabels,
			Intents:   intentLabels,
		}
	}

	if _, err := collect("", "veracity", f.Veracity, t.veracity, ParseVeracityStatus); err != nil {
		return nil, err
	}

	return t, nil
}

// collect 把一组标签写入跨语言的联合查找表，返回该组的有序标签
func collect[T ~string](lang Language, group string, entries []Entry, table map[string]T, parse func(string) (T, bool)) ([]string, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("language %q: %s is empty", lang, group)
	}

	labels := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Label == "" {
			return nil, fmt.Errorf("language %q: %s contains an empty label", lang, group)
		}
		if _, dup := seen[e.Label]; dup {
			return nil, fmt.Errorf("language %q: %s contains duplicate label %q", lang, group, e.Label)
		}
		seen[e.Label] = struct{}{}

		v, ok := parse(e.Value)
		if !ok {
			return nil, fmt.Errorf("language %q: %s label %q has unknown value %q", lang, group, e.Label, e.Value)
		}
		if prev, exists := table[e.Label]; exists && prev != v {
			return nil, fmt.Errorf("%s label %q maps to both %q and %q", group, e.Label, prev, v)
		}
		table[e.Label] = v
		labels = append(labels, e.Label)
	}
	return labels, nil
}

func sortedLanguages(m map[Language]LanguageFile) []Language {
	langs := make([]Language, 0, len(m))
	for l := range m {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// Supports 判断语言是否在分类中定义
func (t *Taxonomy) Supports(lang Language) bool {
	_, ok := t.labels[lang]
	return ok
}

// Languages 返回已定义的语言，按字母序
func (t *Taxonomy) Languages() []Language {
	langs := make([]Language, 0, len(t.labels))
	for l := range t.labels {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// Labels 返回语言对应的标签集合，未定义的语言回退到默认语言
func (t *Taxonomy) Labels(lang Language) LabelSets {
	if ls, ok := t.labels[lang]; ok {
		return ls
	}
	return t.labels[t.defaultLanguage]
}

// PostType 原始标签映射到帖子类型，未知标签归为 Opinion
func (t *Taxonomy) PostType(label string) PostType {
	if v, ok := t.postTypes[label]; ok {
		return v
	}
	return Opinion
}

// PoliticalTendency 未知标签归为 Neutral
func (t *Taxonomy) PoliticalTendency(label string) PoliticalTendency {
	if v, ok := t.tendencies[label]; ok {
		return v
	}
	return Neutral
}

// Intent 未知标签归为 Informative
func (t *Taxonomy) Intent(label string) Intent {
	if v, ok := t.intents[label]; ok {
		return v
	}
	return Informative
}

// VeracityStatus 精确匹配，未知结论归为 Unverifiable
func (t *Taxonomy) VeracityStatus(status string) VeracityStatus {
	if v, ok := t.veracity[status]; ok {
		return v
	}
	return Unverifiable
}

// IsSpamLabel 任一语言中映射到 Promotion 的标签都视为垃圾推广标签
func (t *Taxonomy) IsSpamLabel(label string) bool {
	v, ok := t.postTypes[label]
	return ok && v == Promotion
}

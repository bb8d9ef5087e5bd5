package core

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var messagesYAML []byte

var (
	catalog     map[string]string
	catalogErr  error
	catalogOnce sync.Once
)

func loadCatalog() (map[string]string, error) {
	catalogOnce.Do(func() {
		m := make(map[string]string)
		if err := yaml.Unmarshal(messagesYAML, &m); err != nil {
			catalogErr = fmt.Errorf("section catalog: %w", err)
			return
		}
		catalog = m
	})
	return catalog, catalogErr
}

// Message 章节号对应的规则原文
func Message(id string) (string, bool) {
	m, err := loadCatalog()
	if err != nil {
		return "", false
	}
	msg, ok := m[id]
	return msg, ok
}

// LookupSection 按章节号查询，未知章节返回 ErrUnknownSection
func LookupSection(id string) (string, error) {
	msg, ok := Message(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSection, id)
	}
	return msg, nil
}

// SectionIDs 目录中的全部章节号（有序）
func SectionIDs() []string {
	m, _ := loadCatalog()
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessSection(ids[i], ids[j]) })
	return ids
}

// lessSection 按数字段比较章节号：6.10.2.a < 6.10.10.a
func lessSection(a, b string) bool {
	pa, pb := splitSection(a), splitSection(b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] == pb[i] {
			continue
		}
		na, okA := atoi(pa[i])
		nb, okB := atoi(pb[i])
		if okA && okB {
			return na < nb
		}
		if okA != okB {
			// 数字段排在字母段之前
			return okA
		}
		return pa[i] < pb[i]
	}
	return len(pa) < len(pb)
}

func splitSection(s string) []string {
	return strings.Split(s, ".")
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}

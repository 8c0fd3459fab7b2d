package gallery

import "strings"

// Titled はタイトルで検索できる要素を表す。
type Titled interface {
	GetTitle() string
}

// FilterByTitle はタイトルに検索語を含む要素だけを入力順のまま返す。
// 大文字小文字は区別しない。検索語が空の場合は入力をそのまま返す。
func FilterByTitle[T Titled](items []T, term string) []T {
	if term == "" {
		return items
	}

	needle := strings.ToLower(term)
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.GetTitle()), needle) {
			matched = append(matched, item)
		}
	}
	return matched
}

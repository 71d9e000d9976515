package svg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/famtree/pkg/tree"
)

// Languages for tooltip text.
const (
	LangJapanese = "ja"
	LangEnglish  = "en"
)

var texts = map[string]map[string]string{
	LangJapanese: {
		"name":     "名前",
		"birth":    "生年月日",
		"death":    "没年月日",
		"deceased": "死亡",
		"yes":      "はい",
		"memo":     "メモ",
		"date":     "日付",
		"desc":     "説明",
		"age":      "%d歳",
		"died_at":  "享年%d歳",
	},
	LangEnglish: {
		"name":     "Name",
		"birth":    "Birth",
		"death":    "Death",
		"deceased": "Deceased",
		"yes":      "Yes",
		"memo":     "Memo",
		"date":     "Date",
		"desc":     "Description",
		"age":      "%d years old",
		"died_at":  "died at %d",
	},
}

func text(lang, key string) string {
	if t, ok := texts[lang]; ok {
		return t[key]
	}
	return texts[LangEnglish][key]
}

// PersonTooltip describes a person over several lines: name, birth with
// age, death, memo. The age of a living person is counted up to year; a
// deceased person's age at death needs a death date.
func PersonTooltip(p tree.Person, lang string, year int) string {
	lines := []string{text(lang, "name") + ": " + p.Name}

	if p.Birth != "" {
		line := text(lang, "birth") + ": " + p.Birth
		if age, ok := Age(p, year); ok {
			key := "age"
			if p.Deceased {
				key = "died_at"
			}
			line += " (" + fmt.Sprintf(text(lang, key), age) + ")"
		}
		lines = append(lines, line)
	}

	switch {
	case p.Death != "":
		lines = append(lines, text(lang, "death")+": "+p.Death)
	case p.Deceased:
		lines = append(lines, text(lang, "deceased")+": "+text(lang, "yes"))
	}

	if p.Memo != "" {
		lines = append(lines, text(lang, "memo")+": "+p.Memo)
	}
	return strings.Join(lines, "\n")
}

// EventTooltip describes an event: name, date, description.
func EventTooltip(ev tree.Event, lang string) string {
	lines := []string{ev.Name}
	if ev.Date != "" {
		lines = append(lines, text(lang, "date")+": "+ev.Date)
	}
	if ev.Description != "" {
		lines = append(lines, text(lang, "desc")+": "+ev.Description)
	}
	return strings.Join(lines, "\n")
}

// Age returns the age in whole years computed from the leading year of the
// birth and death dates. A living person is aged at year.
func Age(p tree.Person, year int) (int, bool) {
	born, ok := leadingYear(p.Birth)
	if !ok {
		return 0, false
	}
	end := year
	if p.Deceased {
		if end, ok = leadingYear(p.Death); !ok {
			return 0, false
		}
	}
	if end < born {
		return 0, false
	}
	return end - born, true
}

// leadingYear parses the digits before the first '-', so "1921-04-02",
// "1921" and "1921-?" all yield 1921.
func leadingYear(date string) (int, bool) {
	head, _, _ := strings.Cut(strings.TrimSpace(date), "-")
	y, err := strconv.Atoi(head)
	return y, err == nil
}

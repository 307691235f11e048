package sheets

import (
	"regexp"
	"strconv"
	"strings"
)

// SplitRow разбивает строку CSV по запятым вне кавычек. Кавычка просто
// переключает состояние "внутри кавычек" — экранирование "" (RFC 4180)
// не поддерживается, реальные таблицы его не используют. У каждого поля
// срезаются пробелы и одна пара обрамляющих кавычек. Последнее поле
// попадает в результат всегда, даже пустое.
func SplitRow(row string) []string {
	if row == "" {
		return []string{}
	}
	res := make([]string, 0, 8)
	var cur strings.Builder
	inQuote := false
	for _, ch := range row {
		switch {
		case ch == '"':
			inQuote = !inQuote
			cur.WriteRune(ch)
		case ch == ',' && !inQuote:
			res = append(res, cleanField(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	res = append(res, cleanField(cur.String()))
	return res
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return s
}

var sheetIDRe = regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`)

// CSVExportURL приводит ссылку на Google-таблицу к канонической форме
// CSV-экспорта. Незнакомые ссылки возвращаются как есть (best effort).
func CSVExportURL(url string) string {
	if strings.Contains(url, "output=csv") || strings.Contains(url, "format=csv") {
		return url
	}
	if m := sheetIDRe.FindStringSubmatch(url); m != nil {
		return "https://docs.google.com/spreadsheets/d/" + m[1] + "/export?format=csv"
	}
	return url
}

var nonNumericRe = regexp.MustCompile(`[^0-9.,]`)

// ParseDecimal вытаскивает число из ячейки с мусором ("6,5 $", "12.5kg").
// Запятая как десятичный разделитель допустима; на полном мусоре — 0.
func ParseDecimal(val string) float64 {
	if val == "" {
		return 0
	}
	clean := nonNumericRe.ReplaceAllString(val, "")
	clean = strings.Replace(clean, ",", ".", 1)
	return parseFloatPrefix(clean)
}

// parseFloatPrefix парсит максимальный числовой префикс, как parseFloat:
// "1.234.56" -> 1.234, "abc" -> 0.
func parseFloatPrefix(s string) float64 {
	end := 0
	seenDot := false
	for end < len(s) {
		c := s[end]
		if c == '.' {
			if seenDot {
				break
			}
			seenDot = true
			end++
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		end++
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0
	}
	return f
}

// IsHTML ловит HTML-страницу ошибки (access denied и т.п.) вместо CSV.
func IsHTML(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "<") || strings.Contains(trimmed, "<!DOCTYPE")
}

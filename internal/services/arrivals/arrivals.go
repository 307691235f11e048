package arrivals

import (
	"context"
	"regexp"
	"strings"

	"github.com/YaqiinCargo/CargoBox/internal/models"
	"github.com/YaqiinCargo/CargoBox/internal/sheets"
)

// Resolver читает таблицу прибывших рейсов: колонка A — avia-коды,
// колонка B — avto-коды, первая строка — заголовок.
type Resolver struct {
	fetcher  sheets.Fetcher
	sheetURL string
}

func New(fetcher sheets.Fetcher, sheetURL string) *Resolver {
	return &Resolver{fetcher: fetcher, sheetURL: sheetURL}
}

// FetchManifest никогда не фейлится: любой сбой источника — два пустых
// списка, посылки просто останутся "в пути" до следующего обновления.
func (r *Resolver) FetchManifest(ctx context.Context) models.ArrivalManifest {
	m := models.ArrivalManifest{Avia: []string{}, Avto: []string{}}
	if r.sheetURL == "" {
		return m
	}
	text, ok := r.fetcher.Fetch(ctx, r.sheetURL)
	if !ok || sheets.IsHTML(text) {
		return m
	}

	rows := strings.Split(text, "\n")
	for i := 1; i < len(rows); i++ {
		cols := sheets.SplitRow(rows[i])
		if len(cols) > 0 && strings.TrimSpace(cols[0]) != "" {
			m.Avia = append(m.Avia, strings.TrimSpace(cols[0]))
		}
		if len(cols) > 1 && strings.TrimSpace(cols[1]) != "" {
			m.Avto = append(m.Avto, strings.TrimSpace(cols[1]))
		}
	}
	return m
}

type MatchTier int

const (
	NoMatch MatchTier = iota
	ExactMatch
	// DigitMatch — fallback по первому числовому фрагменту кода.
	// Операторы записывают рейс то как "AVIA-102", то как "102";
	// ценой возможных ложных срабатываний на повторяющихся числах
	// этот ярус съедает разнобой. Вызывающий код логирует такие
	// попадания, чтобы долю ложных можно было оценить по логам.
	DigitMatch
)

var digitsRe = regexp.MustCompile(`\d+`)

// Match сверяет код рейса посылки со списками прибывших.
func Match(reysCode string, m models.ArrivalManifest) MatchTier {
	if reysCode == "" {
		return NoMatch
	}
	code := strings.ToUpper(strings.TrimSpace(reysCode))

	if contains(m.Avia, code) || contains(m.Avto, code) {
		return ExactMatch
	}

	number := digitsRe.FindString(code)
	if number == "" {
		return NoMatch
	}

	// Партиция по типу доставки: "avia" в коде — ищем только в avia-списке,
	// иначе только в avto. Числовое совпадение через партицию не считается.
	list := m.Avto
	if strings.Contains(strings.ToLower(code), "avia") {
		list = m.Avia
	}
	for _, entry := range list {
		if strings.Contains(entry, number) {
			return DigitMatch
		}
	}
	return NoMatch
}

func IsArrived(reysCode string, m models.ArrivalManifest) bool {
	return Match(reysCode, m) != NoMatch
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
